package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	apperrors "github.com/kbukum/testserver/errors"
	"github.com/kbukum/testserver/logger"
)

func newRunner(port int) (*Runner, chan struct{}, chan struct{}) {
	ready := make(chan struct{})
	stop := make(chan struct{})
	return &Runner{
		Host:    "127.0.0.1",
		Port:    port,
		Handler: NoContent,
		Ready:   ready,
		Stop:    stop,
		Log:     logger.NewNop(),
	}, ready, stop
}

func TestRunner_StopGraceful(t *testing.T) {
	port, err := FindPort("127.0.0.1", testPort())
	if err != nil {
		t.Fatalf("FindPort() failed: %v", err)
	}
	r, ready, stop := newRunner(port)

	exec := NewExecutor()
	exec.Launch(r.Run)
	select {
	case <-ready:
	case <-exec.Done():
		_, err := exec.Join(0)
		t.Fatalf("runner exited early: %v", err)
	}

	resp, err := client.Get("http://" + r.Addr() + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	close(stop)
	exited, err := exec.Join(5 * time.Second)
	if !exited || err != nil {
		t.Fatalf("Join() = %v, %v; want exited without error", exited, err)
	}
}

func TestRunner_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	r, ready, _ := newRunner(port)
	err = r.Run(context.Background())
	if !errors.Is(err, apperrors.ErrBindFailed) {
		t.Fatalf("Run() error = %v, want BIND_FAILED", err)
	}
	select {
	case <-ready:
		t.Error("ready closed after a failed bind")
	default:
	}
}

func TestRunner_ContextCancelClosesListener(t *testing.T) {
	port, err := FindPort("127.0.0.1", testPort())
	if err != nil {
		t.Fatalf("FindPort() failed: %v", err)
	}
	r, ready, _ := newRunner(port)

	exec := NewExecutor()
	exec.Launch(r.Run)
	<-ready

	exec.Terminate()
	exited, err := exec.Join(5 * time.Second)
	if !exited {
		t.Fatal("runner did not exit after Terminate")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		t.Fatalf("port %d still bound after Terminate: %v", port, err)
	}
	ln.Close()
}

func TestSerialListener_CloseUnblocksAccept(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	ln := serialListener(inner)

	dial := func() net.Conn {
		c, err := net.Dial("tcp", inner.Addr().String())
		if err != nil {
			t.Fatalf("Dial() failed: %v", err)
		}
		return c
	}

	c1 := dial()
	defer c1.Close()
	s1, err := ln.Accept()
	if err != nil {
		t.Fatalf("first Accept() failed: %v", err)
	}

	c2 := dial()
	defer c2.Close()
	second := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if c != nil {
			c.Close()
		}
		second <- err
	}()

	select {
	case <-second:
		t.Fatal("second Accept() returned while the first connection was open")
	case <-time.After(50 * time.Millisecond):
	}

	s1.Close()
	select {
	case err := <-second:
		if err != nil {
			t.Fatalf("second Accept() failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second Accept() still blocked after the first connection closed")
	}

	c3 := dial()
	defer c3.Close()
	held, err := ln.Accept()
	if err != nil {
		t.Fatalf("third Accept() failed: %v", err)
	}
	defer held.Close()

	blocked := make(chan error, 1)
	go func() {
		_, err := ln.Accept()
		blocked <- err
	}()
	ln.Close()
	select {
	case err := <-blocked:
		if !errors.Is(err, net.ErrClosed) {
			t.Errorf("Accept() after Close error = %v, want net.ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Accept() still blocked after Close")
	}
}
