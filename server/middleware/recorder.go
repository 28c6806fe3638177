package middleware

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/testserver/observability"
	"github.com/kbukum/testserver/server/record"
)

// DefaultServerName is the Server header value injected when the handler
// sets none.
const DefaultServerName = "testserver"

// RecordConfig configures the exchange recorder.
type RecordConfig struct {
	// ServerName is injected as the Server response header. Defaults to
	// DefaultServerName.
	ServerName string
	// Now returns the time used for the injected Date header. Defaults to
	// time.Now.
	Now func() time.Time
	// NewID returns exchange IDs. Defaults to random UUIDs.
	NewID func() string
}

func (c RecordConfig) withDefaults() RecordConfig {
	if c.ServerName == "" {
		c.ServerName = DefaultServerName
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c
}

type exchangeIDKey struct{}

// ExchangeID returns the ID of the exchange being recorded for ctx, or "".
func ExchangeID(ctx context.Context) string {
	id, _ := ctx.Value(exchangeIDKey{}).(string)
	return id
}

// Record returns middleware that delivers one record.Exchange to sink per
// request. The exchange is delivered even when the handler panics; the panic
// is not recovered.
func Record(sink record.Sink, cfg RecordConfig) Middleware {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sink.Begin()
			start := time.Now()
			id := cfg.NewID()

			req, readErr := captureRequest(r)
			if req.Body != nil {
				r.Body = replayBody(req.Body, readErr)
			}
			trace.SpanFromContext(r.Context()).SetAttributes(
				attribute.String(observability.AttrExchangeID, id),
			)
			r = r.WithContext(context.WithValue(r.Context(), exchangeIDKey{}, id))

			rw := &recordingWriter{ResponseWriter: w, cfg: cfg}
			completed := false

			defer func() {
				if completed && !rw.wroteHeader {
					rw.WriteHeader(http.StatusOK)
				}
				sink.Put(record.Exchange{
					ID:       id,
					Request:  req,
					Response: rw.response(completed),
					Duration: time.Since(start),
					Failed:   !completed,
				})
			}()

			next.ServeHTTP(rw, r)
			completed = true
		})
	}
}

// captureRequest builds the request record and reads the body when a
// positive content length was declared. The returned error is the one that
// ended the body read early.
func captureRequest(r *http.Request) (record.Request, error) {
	headers := joinHeaders(r.Header)
	if r.Host != "" {
		headers["host"] = r.Host
	}
	if _, ok := headers["content-length"]; !ok && r.ContentLength > 0 {
		headers["content-length"] = strconv.FormatInt(r.ContentLength, 10)
	}
	if len(r.TransferEncoding) > 0 {
		headers["transfer-encoding"] = strings.Join(r.TransferEncoding, ",")
	}

	var (
		body    []byte
		readErr error
	)
	if r.ContentLength > 0 && r.Body != nil {
		body, readErr = io.ReadAll(io.LimitReader(r.Body, r.ContentLength))
		if body == nil {
			body = []byte{}
		}
	}

	return record.Request{
		Method:   r.Method,
		Protocol: r.Proto,
		Address:  remoteIP(r.RemoteAddr),
		Path:     requestPath(r),
		Headers:  headers,
		Body:     body,
	}, readErr
}

// replayBody re-presents the captured bytes to the handler, followed by the
// error that cut the original read short, if any.
func replayBody(body []byte, err error) io.ReadCloser {
	if err == nil {
		return io.NopCloser(bytes.NewReader(body))
	}
	return io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err}))
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// joinHeaders lower-cases names and joins repeated values with ",".
func joinHeaders(h http.Header) record.Headers {
	out := make(record.Headers, len(h))
	for name, values := range h {
		key := strings.ToLower(name)
		if prev, ok := out[key]; ok {
			out[key] = prev + "," + strings.Join(values, ",")
			continue
		}
		out[key] = strings.Join(values, ",")
	}
	return out
}

// recordingWriter forwards the response unchanged while keeping a copy of
// the status, the committed headers and every body byte.
type recordingWriter struct {
	http.ResponseWriter
	cfg         RecordConfig
	status      int
	header      http.Header
	body        bytes.Buffer
	wroteHeader bool
}

// inject adds Date and Server to the live header map when the handler set
// neither.
func (rw *recordingWriter) inject() {
	h := rw.ResponseWriter.Header()
	if !canonicalize(h, "Date") {
		h.Set("Date", rw.cfg.Now().UTC().Format(http.TimeFormat))
	}
	if !canonicalize(h, "Server") {
		h.Set("Server", rw.cfg.ServerName)
	}
}

// canonicalize moves values set under any case variant of name to the
// canonical key and reports whether name is present. net/http only sees the
// canonical key when deciding whether to add its own Date.
func canonicalize(h http.Header, name string) bool {
	_, found := h[name]
	for key, values := range h {
		if key == name || !strings.EqualFold(key, name) {
			continue
		}
		delete(h, key)
		h[name] = append(h[name], values...)
		found = true
	}
	return found
}

func (rw *recordingWriter) WriteHeader(code int) {
	if rw.wroteHeader || informational(code) {
		rw.ResponseWriter.WriteHeader(code)
		return
	}
	rw.inject()
	rw.status = code
	rw.header = rw.ResponseWriter.Header().Clone()
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.body.Write(b[:n])
	return n, err
}

// Flush implements http.Flusher.
func (rw *recordingWriter) Flush() {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter.
func (rw *recordingWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// response builds the response record. A handler that panicked before
// writing anything is recorded with the headers it had set and status 200.
func (rw *recordingWriter) response(completed bool) record.Response {
	status, header := rw.status, rw.header
	if !rw.wroteHeader {
		rw.inject()
		status, header = http.StatusOK, rw.ResponseWriter.Header()
	}

	headers := joinHeaders(header)
	body := rw.body.Bytes()
	if _, ok := headers["content-length"]; !ok && completed {
		headers["content-length"] = strconv.Itoa(len(body))
	}

	return record.Response{
		Status:     statusLine(status),
		StatusCode: status,
		Headers:    headers,
		Body:       append([]byte{}, body...),
	}
}

func statusLine(code int) string {
	if text := http.StatusText(code); text != "" {
		return strconv.Itoa(code) + " " + text
	}
	return strconv.Itoa(code)
}
