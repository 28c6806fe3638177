package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/kbukum/testserver/errors"
	"github.com/kbukum/testserver/logger"
)

// Runner serves one handler on one port until told to stop.
type Runner struct {
	Host    string
	Port    int
	Handler http.Handler
	// Ready is closed by Run once the port is bound.
	Ready chan<- struct{}
	// Stop is closed by the owner to request a graceful stop.
	Stop <-chan struct{}
	Log  *logger.Logger
}

// Addr returns host:port.
func (r *Runner) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Run binds the port, closes Ready and serves until Stop is closed or ctx
// is cancelled. A closed Stop lets in-flight requests finish; a cancelled ctx
// closes every connection at once. The listening socket is closed before Run
// returns.
func (r *Runner) Run(ctx context.Context) error {
	addr := r.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return apperrors.BindFailed(addr, err)
	}

	srv := &http.Server{
		Handler:           r.Handler,
		ErrorLog:          r.Log.StdLogger(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.SetKeepAlivesEnabled(false)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.Serve(serialListener(ln))
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperrors.Internal(err).WithDetail("addr", addr)
	})
	close(r.Ready)
	r.Log.Debug("Runner serving", map[string]interface{}{logger.FieldAddr: addr})

	// gctx is done when Serve fails or ctx is cancelled.
	g.Go(func() error {
		select {
		case <-r.Stop:
			err := srv.Shutdown(ctx)
			if err != nil {
				r.Log.Warn("Graceful shutdown interrupted, closing connections", logger.ErrorFields("shutdown", err))
				_ = srv.Close()
			}
			return err
		case <-gctx.Done():
			_ = srv.Close()
			return ctx.Err()
		}
	})
	return g.Wait()
}

// serialListener admits one connection at a time. Accept blocks until the
// previous connection is closed; Close unblocks a waiting Accept.
func serialListener(ln net.Listener) net.Listener {
	return netutil.LimitListener(ln, 1)
}
