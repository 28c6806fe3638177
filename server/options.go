package server

import (
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/testserver/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithConfig replaces the whole configuration. Unset fields take defaults.
func WithConfig(cfg Config) Option {
	return func(s *Server) { s.cfg = cfg }
}

// WithHost sets the interface to bind.
func WithHost(host string) Option {
	return func(s *Server) { s.cfg.Host = host }
}

// WithStartPort sets the first port tried.
func WithStartPort(port int) Option {
	return func(s *Server) { s.cfg.StartPort = port }
}

// WithTimeout sets the start and stop deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.cfg.Timeout = d }
}

// WithServerName sets the injected Server header.
func WithServerName(name string) Option {
	return func(s *Server) { s.cfg.ServerName = name }
}

// WithMountPoint serves the handler under prefix.
func WithMountPoint(prefix string) Option {
	return func(s *Server) { s.cfg.MountPoint = prefix }
}

// WithLiveLog makes Log return exchanges while the server is running.
func WithLiveLog(enabled bool) Option {
	return func(s *Server) { s.cfg.LiveLog = enabled }
}

// WithLogger sets the logger. The server tags it with its component name.
func WithLogger(log *logger.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithMeterProvider sets the meter provider. Defaults to the otel global.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Server) { s.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider. Defaults to the otel global.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracerProvider = tp }
}

// WithExecutor sets the factory for the execution context of each run.
func WithExecutor(newExecutor func() Executor) Option {
	return func(s *Server) { s.newExecutor = newExecutor }
}
