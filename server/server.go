package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/testserver/errors"
	"github.com/kbukum/testserver/logger"
	"github.com/kbukum/testserver/observability"
	"github.com/kbukum/testserver/server/middleware"
	"github.com/kbukum/testserver/server/record"
)

// State is the lifecycle state of a Server.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// drainWait bounds how long Stop waits for in-flight exchanges to be
// recorded after the runner has exited.
const drainWait = time.Second

// NoContent answers every request with 204 No Content.
var NoContent http.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

// Server is a disposable HTTP server for tests. It serves one handler on a
// free port between Start and Stop and records every exchange.
//
// Start and Stop must not be called concurrently. The accessors are safe
// for concurrent use.
type Server struct {
	handler        http.Handler
	cfg            Config
	log            *logger.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	newExecutor    func() Executor
	metrics        *observability.Metrics
	tracer         trace.Tracer

	mu        sync.Mutex
	state     State
	port      int
	exchanges []record.Exchange
	queue     *record.Queue
	stop      chan struct{}
	exec      Executor
}

// New creates a stopped Server for handler. A nil handler serves NoContent.
func New(handler http.Handler, opts ...Option) *Server {
	if handler == nil {
		handler = NoContent
	}
	s := &Server{
		handler:     handler,
		cfg:         DefaultConfig(),
		newExecutor: NewExecutor,
		state:       StateStopped,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg.ApplyDefaults()
	s.port = s.cfg.StartPort

	if s.log == nil {
		s.log = logger.NewDefault(componentName)
	}
	s.log = s.log.WithComponent(componentName)

	metrics, err := observability.NewMetrics(observability.Meter(s.meterProvider))
	if err != nil {
		s.log.Warn("Metrics disabled", logger.ErrorFields("metrics", err))
	} else {
		s.metrics = metrics
	}
	s.tracer = observability.Tracer(s.tracerProvider)
	return s
}

// Start binds a free port and begins serving. It returns once the server
// accepts connections. Starting a server that is not stopped is a no-op.
func (s *Server) Start(ctx context.Context) (err error) {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStarting
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, observability.SpanStart)
	defer func() {
		if err != nil {
			s.setState(StateStopped)
		}
		s.metrics.RecordLifecycle(ctx, "start", outcome(err))
		observability.EndSpan(span, err)
	}()

	if err := s.cfg.Validate(); err != nil {
		return err
	}

	port, err := FindPort(s.cfg.Host, s.cfg.StartPort)
	if err != nil {
		s.log.Error("No port available", logger.ErrorFields("start", err))
		return err
	}
	span.SetAttributes(attribute.Int(observability.AttrPort, port))

	ready := make(chan struct{})
	stop := make(chan struct{})
	queue := record.NewQueue()
	runner := &Runner{
		Host:    s.cfg.Host,
		Port:    port,
		Handler: s.wrap(queue),
		Ready:   ready,
		Stop:    stop,
		Log:     s.log,
	}

	exec := s.newExecutor()
	exec.Launch(runner.Run)

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	select {
	case <-ready:
		s.mu.Lock()
		s.port = port
		s.queue = queue
		s.stop = stop
		s.exec = exec
		s.state = StateRunning
		s.mu.Unlock()
		s.log.Debug("Server started", logger.Fields(logger.FieldAddr, runner.Addr()))
		return nil
	case <-exec.Done():
		_, runErr := exec.Join(0)
		if runErr == nil {
			runErr = apperrors.Internal(errors.New("runner exited before it was ready"))
		}
		s.log.Error("Server failed to start", logger.ErrorFields("start", runErr))
		return runErr
	case <-timer.C:
		s.abort(exec, runner.Addr())
		return apperrors.StartTimeout(runner.Addr(), s.cfg.Timeout)
	case <-ctx.Done():
		s.abort(exec, runner.Addr())
		return apperrors.StartTimeout(runner.Addr(), s.cfg.Timeout).WithCause(ctx.Err())
	}
}

// abort forcibly ends a runner that did not become ready.
func (s *Server) abort(exec Executor, addr string) {
	s.log.Warn("Start timed out, terminating runner", logger.Fields(logger.FieldAddr, addr))
	exec.Terminate()
	if exited, _ := exec.Join(s.cfg.Timeout); !exited {
		s.log.Error("Runner did not exit after termination")
	}
}

// Stop stops accepting connections, waits for in-flight requests and moves
// the recorded exchanges into Log. Stopping a server that is not running is
// a no-op. If the runner does not exit within the timeout it is terminated
// and a STOP_TIMEOUT error is returned.
func (s *Server) Stop(ctx context.Context) (err error) {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	exec, stop, queue := s.exec, s.stop, s.queue
	addr := s.addrLocked()
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, observability.SpanStop)
	defer func() {
		s.metrics.RecordLifecycle(ctx, "stop", outcome(err))
		observability.EndSpan(span, err)
	}()

	timeout := s.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	close(stop)
	exited, runErr := exec.Join(timeout)
	if !exited {
		s.log.Warn("Stop timed out, terminating runner", logger.Fields(logger.FieldAddr, addr))
		exec.Terminate()
		s.finish(queue.Drain(0))
		return apperrors.StopTimeout(addr, timeout)
	}

	s.finish(queue.Drain(drainWait))
	if runErr != nil {
		s.log.Error("Runner exited with error", logger.ErrorFields("stop", runErr))
		return runErr
	}
	s.log.Debug("Server stopped", logger.Fields(logger.FieldAddr, addr))
	return nil
}

// finish appends drained exchanges and marks the server stopped.
func (s *Server) finish(drained []record.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, drained...)
	s.queue = nil
	s.stop = nil
	s.exec = nil
	s.state = StateStopped
}

func (s *Server) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// wrap builds the handler chain for one run.
func (s *Server) wrap(queue *record.Queue) http.Handler {
	return middleware.Chain(
		middleware.Tracing(s.tracer),
		middleware.Metrics(s.metrics),
		middleware.RequestLogger(s.log),
		middleware.Record(queue, middleware.RecordConfig{ServerName: s.cfg.ServerName}),
	)(mount(s.cfg.MountPoint, s.handler))
}

// mount serves h under prefix, handing it the remainder of the path.
// Requests outside prefix get 404.
func mount(prefix string, h http.Handler) http.Handler {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest, ok := strings.CutPrefix(r.URL.Path, prefix)
		if !ok || (rest != "" && rest[0] != '/') {
			http.NotFound(w, r)
			return
		}
		if rest == "" {
			rest = "/"
		}

		r2 := new(http.Request)
		*r2 = *r
		r2.URL = new(url.URL)
		*r2.URL = *r.URL
		r2.URL.Path = rest
		r2.URL.RawPath = ""
		h.ServeHTTP(w, r2)
	})
}

// URL resolves path against the base URL of the server, so "/a" replaces
// the path and "a" is relative to "/".
func (s *Server) URL(path string) string {
	base := s.BaseURL()
	ref, err := url.Parse(path)
	if err != nil {
		return base + strings.TrimPrefix(path, "/")
	}
	u, _ := url.Parse(base)
	return u.ResolveReference(ref).String()
}

// BaseURL returns "http://host:port/".
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "http://" + s.addrLocked() + "/"
}

func (s *Server) addrLocked() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.port))
}

// Log returns a copy of every exchange recorded so far, across all runs, in
// arrival order. Exchanges of the current run appear after Stop, or at once
// when LiveLog is enabled.
func (s *Server) Log() []record.Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.LiveLog && s.queue != nil {
		s.exchanges = append(s.exchanges, s.queue.Drain(0)...)
	}
	return record.CloneAll(s.exchanges)
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Port returns the bound port, or the start port before the first Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Host returns the configured host.
func (s *Server) Host() string {
	return s.cfg.Host
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// Do starts the server, calls fn and stops the server, even if fn panics.
// Errors from fn and Stop are joined.
func (s *Server) Do(ctx context.Context, fn func(*Server) error) (err error) {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if stopErr := s.Stop(ctx); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
	}()
	return fn(s)
}

// String implements fmt.Stringer.
func (s *Server) String() string {
	return fmt.Sprintf("testserver(%s, %s)", s.BaseURL(), s.State())
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := apperrors.CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}
