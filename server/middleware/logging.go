package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/testserver/logger"
)

// RequestLogger returns middleware that logs every exchange with method,
// path, status code, size and duration. A handler panic is logged at error
// level before the panic continues up the stack.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			completed := false

			defer func() {
				fields := map[string]interface{}{
					"method":             r.Method,
					"path":               requestPath(r),
					"bytes":              sw.bytes,
					"client":             r.RemoteAddr,
					logger.FieldStatus:   sw.status,
					logger.FieldDuration: time.Since(start).Milliseconds(),
				}
				if !completed {
					log.Error("Handler panicked", fields)
					return
				}
				logByStatus(log, fields, sw.status)
			}()

			next.ServeHTTP(sw, r)
			completed = true
		})
	}
}

// logByStatus logs request fields at the appropriate level based on HTTP status code.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}

// requestPath returns the request path with the raw query appended.
func requestPath(r *http.Request) string {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	if q := r.URL.RawQuery; q != "" {
		path += "?" + q
	}
	return path
}
