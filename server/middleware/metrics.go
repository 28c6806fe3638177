package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/testserver/observability"
)

// Metrics returns middleware that records exchange counts, durations and the
// number of exchanges in flight.
func Metrics(m *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			m.RecordExchangeStart(ctx)
			start := time.Now()
			sw := newStatusWriter(w)
			completed := false

			defer func() {
				m.RecordExchangeEnd(ctx, r.Method, sw.status, !completed, time.Since(start))
			}()

			next.ServeHTTP(sw, r)
			completed = true
		})
	}
}
