// Copyright 2025 NetApp, Inc. All Rights Reserved.

package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netapp/nfs-imagecache/config"
	. "github.com/netapp/nfs-imagecache/logging"
)

// HealthFunc reports nil while the daemon is healthy.
type HealthFunc func(ctx context.Context) error

type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

type Server struct {
	server *http.Server
	health HealthFunc

	mutex    sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// NewMetricsServer serves Prometheus metrics, a health check and the build version on address:port.
func NewMetricsServer(address, port string, health HealthFunc) *Server {
	ctx := GenerateRequestContext(context.Background(), "", ContextSourceInternal, WorkflowPluginActivate,
		LogLayerMetricsFrontend)

	metricsServer := &Server{health: health}
	metricsServer.server = &http.Server{
		Addr:         net.JoinHostPort(address, port),
		Handler:      NewRouter(metricsServer.routes()),
		ReadTimeout:  config.HTTPTimeout,
		WriteTimeout: config.HTTPTimeout,
	}

	Logc(ctx).WithField("address", metricsServer.server.Addr).Info("Initializing metrics frontend.")

	return metricsServer
}

func (s *Server) routes() []Route {
	return []Route{
		{"Metrics", http.MethodGet, config.MetricsPath, promhttp.Handler().ServeHTTP},
		{"Health", http.MethodGet, config.HealthPath, s.healthHandler},
		{"Version", http.MethodGet, "/version", versionHandler},
	}
}

// NewRouter builds the router for routes, logging each call at trace level.
func NewRouter(routes []Route) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	for _, route := range routes {
		var handler http.Handler = route.HandlerFunc
		handler = logger(handler, route.Name)

		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(handler)
	}
	return router
}

func logger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := GenerateRequestContext(r.Context(), "", ContextSourceInternal, WorkflowNone, LogLayerMetricsFrontend)

		inner.ServeHTTP(w, r.WithContext(ctx))

		Logc(ctx).WithFields(LogFields{
			"method":   r.Method,
			"uri":      r.RequestURI,
			"route":    name,
			"duration": time.Since(start),
		}).Trace("Metrics frontend call complete.")
	})
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response, status := healthResponse{Status: "ok"}, http.StatusOK
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			response, status = healthResponse{Status: "unhealthy", Error: err.Error()}, http.StatusServiceUnavailable
		}
	}
	writeJSON(r.Context(), w, status, response)
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, config.GetVersionInfo())
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		Logc(ctx).WithError(err).Error("Could not write metrics frontend response.")
	}
}

// Activate binds the listen address and serves in the background.  A bind failure is returned rather than
// killing the process.
func (s *Server) Activate() error {
	ctx := GenerateRequestContext(context.Background(), "", ContextSourceInternal, WorkflowPluginActivate,
		LogLayerMetricsFrontend)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s; %w", s.server.Addr, err)
	}
	s.listener = listener
	s.done = make(chan struct{})

	Logc(ctx).WithField("address", listener.Addr().String()).Info("Activating metrics frontend.")

	go func(done chan<- struct{}) {
		defer close(done)
		err := s.server.Serve(listener)
		if err == http.ErrServerClosed {
			Logc(ctx).WithField("address", s.server.Addr).Info("Metrics frontend server has closed.")
		} else if err != nil {
			Logc(ctx).WithError(err).Error("Metrics frontend server failed.")
		}
	}(s.done)
	return nil
}

func (s *Server) Deactivate() error {
	ctx := GenerateRequestContext(context.Background(), "", ContextSourceInternal, WorkflowPluginDeactivate,
		LogLayerMetricsFrontend)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	Logc(ctx).WithField("address", s.server.Addr).Info("Deactivating metrics frontend.")
	ctx, cancel := context.WithTimeout(ctx, config.HTTPTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if s.done != nil {
		<-s.done
	}
	return err
}

// Addr returns the bound address once activated, or the configured one.
func (s *Server) Addr() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

func (s *Server) GetName() string {
	return "metrics"
}

func (s *Server) Version() string {
	return config.OrchestratorAPIVersion
}
