// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const defaultTimestampFormat = time.RFC3339

// InitLogLevel configures the logging level.  The debug flag takes precedence if set,
// otherwise the logLevel flag (trace, debug, info, warn, error, fatal) is used.
func InitLogLevel(debug bool, logLevel string) error {
	if debug {
		log.SetLevel(log.DebugLevel)
		return nil
	}

	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}

// InitLogFormat configures the log format, allowing a choice of text, JSON or plain text.
func InitLogFormat(logFormat string) error {
	switch logFormat {
	case TextFormat:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case JSONFormat:
		log.SetFormatter(&JSONFormatter{})
	case PlainFormat:
		log.SetFormatter(&PlainTextFormatter{})
	default:
		return fmt.Errorf("unknown log format: %s", logFormat)
	}
	return nil
}

// InitLogOutput sets the writer used by the standard logger.
func InitLogOutput(out io.Writer) {
	log.SetOutput(out)
}

// InitLoggingForConsole sends log entries to stdout/stderr through a ConsoleHook, splitting by severity.
func InitLoggingForConsole(logFormat string) error {
	hook, err := NewConsoleHook(logFormat)
	if err != nil {
		return fmt.Errorf("could not initialize logging to console: %v", err)
	}

	log.SetOutput(io.Discard)
	log.AddHook(hook)

	log.WithFields(log.Fields{
		"logLevel":  log.GetLevel().String(),
		"logFormat": logFormat,
	}).Info("Initialized logging.")
	return nil
}

// Logc returns a log entry carrying the request metadata stored in the context.
func Logc(ctx context.Context) LogEntry {
	if ctx == nil {
		ctx = context.Background()
	}

	fields := log.Fields{}
	if v := ctx.Value(ContextKeyRequestID); v != nil {
		fields[string(ContextKeyRequestID)] = v
	}
	if v := ctx.Value(ContextKeyRequestSource); v != nil {
		fields[string(ContextKeyRequestSource)] = v
	}
	if v := ctx.Value(ContextKeyWorkflow); v != nil {
		fields[string(ContextKeyWorkflow)] = v
	}
	if v := ctx.Value(ContextKeyLogLayer); v != nil {
		fields[string(ContextKeyLogLayer)] = v
	}
	if v := ctx.Value(ContextKeyShare); v != nil {
		fields[string(ContextKeyShare)] = v
	}

	return &logEntry{entry: log.WithFields(fields)}
}

// GenerateRequestContext returns a context carrying a request ID, source, workflow and log layer.  Values already
// present on the parent context win over the arguments, so nested calls keep the outermost request identity.
func GenerateRequestContext(
	ctx context.Context, requestID, requestSource string, workflow Workflow, logLayer LogLayer,
) context.Context {
	if ctx == nil {
		ctx = context.Background()
	} else {
		if v := ctx.Value(ContextKeyRequestID); v != nil {
			requestID = fmt.Sprint(v)
		}
		if v := ctx.Value(ContextKeyRequestSource); v != nil {
			requestSource = fmt.Sprint(v)
		}
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if requestSource == "" {
		requestSource = "Unknown"
	}
	ctx = context.WithValue(ctx, ContextKeyRequestID, requestID)
	ctx = context.WithValue(ctx, ContextKeyRequestSource, requestSource)

	if workflow != WorkflowNone && workflow != (Workflow{}) {
		ctx = context.WithValue(ctx, ContextKeyWorkflow, workflow)
	}

	return GenerateRequestContextForLayer(ctx, logLayer)
}

// GenerateRequestContextForLayer sets the log layer on a context unless it already carries the same layer.
func GenerateRequestContextForLayer(ctx context.Context, logLayer LogLayer) context.Context {
	if logLayer == LogLayerNone || logLayer == "" {
		return ctx
	}
	if existing, ok := ctx.Value(ContextKeyLogLayer).(LogLayer); ok && existing == logLayer {
		return ctx
	}
	return context.WithValue(ctx, ContextKeyLogLayer, logLayer)
}

// logEntry adapts a logrus entry to the LogEntry interface.
type logEntry struct {
	entry *log.Entry
}

func (e *logEntry) WithField(key string, value interface{}) LogEntry {
	return &logEntry{entry: e.entry.WithField(key, value)}
}

func (e *logEntry) WithFields(fields LogFields) LogEntry {
	return &logEntry{entry: e.entry.WithFields(log.Fields(fields))}
}

func (e *logEntry) WithError(err error) LogEntry {
	return &logEntry{entry: e.entry.WithError(err)}
}

func (e *logEntry) Data(key string) (interface{}, bool) {
	v, ok := e.entry.Data[key]
	return v, ok
}

func (e *logEntry) Fatal(args ...interface{})                   { e.entry.Fatal(args...) }
func (e *logEntry) Fatalf(format string, args ...interface{})   { e.entry.Fatalf(format, args...) }
func (e *logEntry) Error(args ...interface{})                   { e.entry.Error(args...) }
func (e *logEntry) Errorf(format string, args ...interface{})   { e.entry.Errorf(format, args...) }
func (e *logEntry) Warn(args ...interface{})                    { e.entry.Warn(args...) }
func (e *logEntry) Warnf(format string, args ...interface{})    { e.entry.Warnf(format, args...) }
func (e *logEntry) Warning(args ...interface{})                 { e.entry.Warning(args...) }
func (e *logEntry) Warningf(format string, args ...interface{}) { e.entry.Warningf(format, args...) }
func (e *logEntry) Info(args ...interface{})                    { e.entry.Info(args...) }
func (e *logEntry) Infof(format string, args ...interface{})    { e.entry.Infof(format, args...) }
func (e *logEntry) Debug(args ...interface{})                   { e.entry.Debug(args...) }
func (e *logEntry) Debugf(format string, args ...interface{})   { e.entry.Debugf(format, args...) }
func (e *logEntry) Trace(args ...interface{})                   { e.entry.Trace(args...) }
func (e *logEntry) Tracef(format string, args ...interface{})   { e.entry.Tracef(format, args...) }

// ConsoleHook sends log entries to stdout.
type ConsoleHook struct {
	formatter log.Formatter
}

// NewConsoleHook creates a new log hook for writing to stdout/stderr.
func NewConsoleHook(logFormat string) (*ConsoleHook, error) {
	var formatter log.Formatter

	switch logFormat {
	case TextFormat:
		formatter = &log.TextFormatter{FullTimestamp: true}
	case JSONFormat:
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format: %s", logFormat)
	}

	return &ConsoleHook{formatter}, nil
}

func (hook *ConsoleHook) Levels() []log.Level {
	return log.AllLevels
}

func (hook *ConsoleHook) checkIfTerminal(w io.Writer) bool {
	switch v := w.(type) {
	case *os.File:
		return term.IsTerminal(int(v.Fd()))
	default:
		return false
	}
}

func (hook *ConsoleHook) Fire(entry *log.Entry) error {
	// Determine output stream
	var logWriter io.Writer
	switch entry.Level {
	case log.TraceLevel, log.DebugLevel, log.InfoLevel, log.WarnLevel:
		logWriter = os.Stdout
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		logWriter = os.Stderr
	default:
		return fmt.Errorf("unknown log level: %v", entry.Level)
	}

	if textFormatter, ok := hook.formatter.(*log.TextFormatter); ok {
		textFormatter.ForceColors = hook.checkIfTerminal(logWriter)
	}

	lineBytes, err := hook.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to read entry, %v", err)
		return err
	}
	if len(lineBytes) > MaxLogEntryLength {
		if _, err := logWriter.Write(lineBytes[:MaxLogEntryLength]); err != nil {
			return err
		}
		if _, err = logWriter.Write([]byte("<truncated>\n")); err != nil {
			return err
		}
		return nil
	}

	_, err = logWriter.Write(lineBytes)
	return err
}

// PlainTextFormatter is a formatter than does no coloring *and* does not insist on writing logs as key/value pairs.
type PlainTextFormatter struct {
	// TimestampFormat to use for display when a full timestamp is printed
	TimestampFormat string

	// The fields are sorted by default for a consistent output.
	DisableSorting bool
}

func (f *PlainTextFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b *bytes.Buffer
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}

	if !f.DisableSorting {
		sort.Strings(keys)
	}
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = defaultTimestampFormat
	}

	levelText := strings.ToUpper(entry.Level.String())[0:4]
	fmt.Fprintf(b, "%s[%s] %-44s ", levelText, entry.Time.Format(timestampFormat), entry.Message)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=", k)
		f.appendValue(b, entry.Data[k])
	}
	b.WriteByte('\n')

	return b.Bytes(), nil
}

func (f *PlainTextFormatter) needsQuoting(text string) bool {
	for _, ch := range text {
		if !((ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '.') {
			return true
		}
	}
	return false
}

func (f *PlainTextFormatter) appendValue(b *bytes.Buffer, value interface{}) {
	var text string
	switch value := value.(type) {
	case string:
		text = value
	case error:
		text = value.Error()
	default:
		fmt.Fprint(b, value)
		return
	}

	if !f.needsQuoting(text) {
		b.WriteString(text)
	} else {
		fmt.Fprintf(b, "%q", text)
	}
}

type JSONFormatter struct {
	// TimestampFormat sets the format used for marshaling timestamps.
	TimestampFormat string
	// DisableTimestamp allows disabling automatic timestamps in output
	DisableTimestamp bool
	// PrettyPrint will indent all json logs
	PrettyPrint bool
}

func (f *JSONFormatter) Format(entry *log.Entry) ([]byte, error) {
	data := make(map[string]string, len(entry.Data)+3)
	for k, v := range entry.Data {
		switch v := v.(type) {
		case error:
			// Otherwise errors are ignored by `encoding/json`
			data[k] = v.Error()
		default:
			data[k] = fmt.Sprintf("%+v", v)
		}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = defaultTimestampFormat
	}

	if !f.DisableTimestamp {
		data["@timestamp"] = entry.Time.Format(timestampFormat)
	}
	data["message"] = entry.Message
	data["level"] = entry.Level.String()

	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	encoder := json.NewEncoder(b)
	if f.PrettyPrint {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to marshal fields to JSON, %v", err)
	}

	return b.Bytes(), nil
}
