package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/testserver/observability"
)

// Tracing returns middleware that wraps each exchange in a server span named
// "HTTP <METHOD>". Incoming trace context is extracted with the global
// propagator so client spans and server spans share a trace.
func Tracing(tracer trace.Tracer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String(observability.AttrMethod, r.Method),
					attribute.String(observability.AttrPath, r.URL.Path),
					attribute.String(observability.AttrAddr, r.Host),
				),
			)
			sw := newStatusWriter(w)
			completed := false

			defer func() {
				span.SetAttributes(
					attribute.Int(observability.AttrStatus, sw.status),
					attribute.Bool(observability.AttrFailed, !completed),
				)
				switch {
				case !completed:
					span.SetStatus(codes.Error, "handler panicked")
				case sw.status >= 500:
					span.SetStatus(codes.Error, http.StatusText(sw.status))
				}
				span.End()
			}()

			next.ServeHTTP(sw, r.WithContext(ctx))
			completed = true
		})
	}
}
