// Copyright 2025 NetApp, Inc. All Rights Reserved.

package api

//go:generate mockgen -destination=../../../mocks/mock_storage_drivers/mock_ontap/mock_api.go -package=mock_ontap github.com/netapp/nfs-imagecache/storage_drivers/ontap/api OntapAPI

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/netapp/nfs-imagecache/config"
	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/convert"
	"github.com/netapp/nfs-imagecache/pkg/network"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

const (
	volumesEndpoint   = "/api/storage/volumes"
	fileCloneEndpoint = "/api/storage/file/clone"
	jobsEndpoint      = "/api/cluster/jobs"

	defaultJobPollMaxElapsed = 2 * time.Minute
)

// OntapAPI is the part of the ONTAP REST API the image cache depends on.
type OntapAPI interface {
	// FlexvolCapacity returns the size and available bytes of the flexvol mounted at exportPath.
	FlexvolCapacity(ctx context.Context, exportPath string) (total, available uint64, err error)
	// CloneFile creates a space-efficient copy of sourcePath at destinationPath inside volumeName.
	CloneFile(ctx context.Context, volumeName, sourcePath, destinationPath string) error
}

// ClientConfig holds the connection details of one ONTAP SVM.
type ClientConfig struct {
	ManagementLIF        string        `json:"managementLIF" mapstructure:"managementLIF"`
	SVM                  string        `json:"svm" mapstructure:"svm"`
	Username             string        `json:"username" mapstructure:"username"`
	Password             string        `json:"password" mapstructure:"password"`
	ClientCertificate    string        `json:"clientCertificate,omitempty" mapstructure:"clientCertificate"`
	ClientPrivateKey     string        `json:"clientPrivateKey,omitempty" mapstructure:"clientPrivateKey"`
	TrustedCACertificate string        `json:"trustedCACertificate,omitempty" mapstructure:"trustedCACertificate"`
	Timeout              time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
}

// String hides the credentials when the configuration is logged.
func (c ClientConfig) String() string {
	return convert.ToStringRedacted(&c, []string{"Username", "Password", "ClientPrivateKey"})
}

func (c ClientConfig) GoString() string {
	return c.String()
}

// RestClient talks to the ONTAP REST API over HTTPS.
type RestClient struct {
	config     ClientConfig
	baseURL    string
	httpClient *http.Client

	jobPollMaxElapsed time.Duration
}

var _ OntapAPI = (*RestClient)(nil)

// NewRestClient is a factory method for creating a new instance.  Certificate material is base64 encoded PEM.
// Without a trusted CA certificate the server certificate is not verified.
func NewRestClient(ctx context.Context, cfg ClientConfig) (*RestClient, error) {
	if cfg.ManagementLIF == "" {
		return nil, errors.ConfigError("ONTAP management LIF is required")
	}

	var certs []tls.Certificate
	if cfg.ClientCertificate != "" && cfg.ClientPrivateKey != "" {
		certDecode, err := base64.StdEncoding.DecodeString(cfg.ClientCertificate)
		if err != nil {
			Logc(ctx).Debugf("error: %v", err)
			return nil, errors.ConfigError("failed to decode client certificate from base64")
		}
		keyDecode, err := base64.StdEncoding.DecodeString(cfg.ClientPrivateKey)
		if err != nil {
			Logc(ctx).Debugf("error: %v", err)
			return nil, errors.ConfigError("failed to decode private key from base64")
		}
		cert, err := tls.X509KeyPair(certDecode, keyDecode)
		if err != nil {
			Logc(ctx).Debugf("error: %v", err)
			return nil, errors.ConfigError("cannot load certificate and key")
		}
		certs = append(certs, cert)
	}

	skipVerify := true
	caCertPool := x509.NewCertPool()
	if cfg.TrustedCACertificate != "" {
		trustedCACert, err := base64.StdEncoding.DecodeString(cfg.TrustedCACertificate)
		if err != nil {
			Logc(ctx).Debugf("error: %v", err)
			return nil, errors.ConfigError("failed to decode trusted CA certificate from base64")
		}
		skipVerify = false
		caCertPool.AppendCertsFromPEM(trustedCACert)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.HTTPTimeout
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: skipVerify, // #nosec G402
			MinVersion:         tls.VersionTLS12,
			Certificates:       certs,
			RootCAs:            caCertPool,
		},
	}

	Logc(ctx).WithField("config", cfg).Debug("Creating ONTAP REST client.")

	return &RestClient{
		config:  cfg,
		baseURL: "https://" + network.EnsureHostFormatted(cfg.ManagementLIF),
		httpClient: &http.Client{
			Transport: NewMetricsTransport(tr, WithMetricsTransportTarget(RequestTargetONTAP)),
			Timeout:   timeout,
		},
		jobPollMaxElapsed: defaultJobPollMaxElapsed,
	}, nil
}

// FlexvolCapacity looks up the volume whose junction path is exportPath and returns its size and available bytes.
func (c *RestClient) FlexvolCapacity(ctx context.Context, exportPath string) (uint64, uint64, error) {
	ctx = GenerateRequestContextForLayer(ctx, LogLayerOntapAPI)

	query := url.Values{}
	query.Set("nas.path", exportPath)
	query.Set("fields", "space.size,space.available")
	if c.config.SVM != "" {
		query.Set("svm.name", c.config.SVM)
	}

	var volumes volumeCollection
	if err := c.do(ctx, http.MethodGet, volumesEndpoint+"?"+query.Encode(), nil, &volumes); err != nil {
		return 0, 0, err
	}

	if len(volumes.Records) == 0 {
		return 0, 0, errors.NotFoundError("no volume found with junction path %s", exportPath)
	}
	if len(volumes.Records) > 1 {
		return 0, 0, fmt.Errorf("%d volumes found with junction path %s", len(volumes.Records), exportPath)
	}

	space := volumes.Records[0].Space
	if space == nil || space.Size == nil || space.Available == nil {
		return 0, 0, fmt.Errorf("volume %s returned no space information", volumes.Records[0].Name)
	}

	Logc(ctx).WithFields(LogFields{
		"exportPath": exportPath,
		"volume":     volumes.Records[0].Name,
		"size":       *space.Size,
		"available":  *space.Available,
	}).Debug("Read flexvol capacity.")

	return *space.Size, *space.Available, nil
}

// CloneFile clones a file within a volume and waits for the clone job to finish.
func (c *RestClient) CloneFile(ctx context.Context, volumeName, sourcePath, destinationPath string) error {
	ctx = GenerateRequestContextForLayer(ctx, LogLayerOntapAPI)

	request := fileCloneRequest{
		Volume:          volumeReference{Name: volumeName},
		SourcePath:      sourcePath,
		DestinationPath: destinationPath,
	}

	var link jobLinkResponse
	if err := c.do(ctx, http.MethodPost, fileCloneEndpoint, request, &link); err != nil {
		return err
	}
	if link.Job == nil || link.Job.UUID == "" {
		return nil
	}
	return c.pollJob(ctx, link.Job.UUID)
}

// pollJob waits for an asynchronous ONTAP job to reach a terminal state.
func (c *RestClient) pollJob(ctx context.Context, jobUUID string) error {
	var job jobResponse

	checkJobStatus := func() error {
		if err := c.do(ctx, http.MethodGet, jobsEndpoint+"/"+url.PathEscape(jobUUID), nil, &job); err != nil {
			return backoff.Permanent(err)
		}
		switch job.State {
		case JobStateSuccess, JobStateFailure:
			return nil
		case JobStateQueued, JobStateRunning, JobStatePaused:
			return fmt.Errorf("job %v not yet done", jobUUID)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected job state %v", job.State))
		}
	}
	jobStatusNotify := func(err error, duration time.Duration) {
		Logc(ctx).WithField("increment", duration).Debug("Job not yet done, waiting.")
	}

	jobStatusBackoff := backoff.NewExponentialBackOff()
	jobStatusBackoff.InitialInterval = 1 * time.Second
	jobStatusBackoff.Multiplier = 2
	jobStatusBackoff.RandomizationFactor = 0.1
	jobStatusBackoff.MaxElapsedTime = c.jobPollMaxElapsed

	if err := backoff.RetryNotify(checkJobStatus, backoff.WithContext(jobStatusBackoff, ctx),
		jobStatusNotify); err != nil {
		Logc(ctx).WithField("UUID", jobUUID).Warnf("Job not completed after %3.2f seconds.",
			c.jobPollMaxElapsed.Seconds())
		return err
	}

	if job.State == JobStateFailure {
		return fmt.Errorf("job %s failed; %s (code %d)", jobUUID, job.Message, job.Code)
	}

	Logc(ctx).WithField("UUID", jobUUID).Debug("Job completed.")
	return nil
}

// do sends one JSON request and decodes the response into result when it is non-nil.
func (c *RestClient) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not marshal request body; %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Username != "" && c.config.Password != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	Logc(ctx).WithFields(LogFields{"method": method, "path": path}).Trace(">>>> ONTAP REST request")

	response, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapWithBackendUnavailableError(err, "ONTAP request %s %s failed", method, path)
	}
	defer response.Body.Close()

	respBody, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	Logc(ctx).WithFields(LogFields{"status": response.StatusCode}).Trace("<<<< ONTAP REST request")

	switch {
	case response.StatusCode == http.StatusUnauthorized:
		return errors.New("response code 401 (Unauthorized): incorrect or missing credentials")
	case response.StatusCode == http.StatusNotFound:
		return errors.NotFoundError("%s %s: %s", method, path, apiErrorMessage(respBody))
	case response.StatusCode < 200 || response.StatusCode > 299:
		return fmt.Errorf("ONTAP request %s %s returned status %d: %s", method, path, response.StatusCode,
			apiErrorMessage(respBody))
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err = json.Unmarshal(respBody, result); err != nil {
		Logc(ctx).WithField("body", string(respBody)).Warnf("Error unmarshaling response body. %v", err)
		return err
	}
	return nil
}

func apiErrorMessage(body []byte) string {
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return strings.TrimSpace(string(body))
}
