package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/testserver/logger"
)

var nextTestPort atomic.Int32

func init() {
	nextTestPort.Store(31000)
}

// testPort hands each test its own start port.
func testPort() int {
	return int(nextTestPort.Add(5))
}

func newTestServer(t *testing.T, h http.Handler, opts ...Option) *Server {
	t.Helper()
	base := []Option{
		WithHost("127.0.0.1"),
		WithStartPort(testPort()),
		WithTimeout(5 * time.Second),
		WithLogger(logger.NewNop()),
	}
	srv := New(h, append(base, opts...)...)
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv
}

func mustStart(t *testing.T, srv *Server) {
	t.Helper()
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
}

func mustStop(t *testing.T, srv *Server) {
	t.Helper()
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
}

var client = &http.Client{Timeout: 5 * time.Second}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body of %s failed: %v", url, err)
	}
	return resp, string(body)
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger(buf *syncBuffer) *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", buf)
}

// stalledExecutor never runs the function it is given.
type stalledExecutor struct {
	launched   atomic.Bool
	terminated atomic.Bool
	done       chan struct{}
}

func newStalledExecutor() *stalledExecutor {
	return &stalledExecutor{done: make(chan struct{})}
}

func (e *stalledExecutor) Launch(func(context.Context) error) { e.launched.Store(true) }
func (e *stalledExecutor) Done() <-chan struct{}              { return e.done }
func (e *stalledExecutor) Join(time.Duration) (bool, error)   { return e.terminated.Load(), nil }
func (e *stalledExecutor) Terminate()                         { e.terminated.Store(true) }
