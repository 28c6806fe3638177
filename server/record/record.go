// Package record holds the request/response records captured by the test
// server and the queue that carries them from handler goroutines to the
// controller.
package record

import (
	"sort"
	"strings"
	"time"
)

// Headers maps lower-cased header names to their comma-joined values.
type Headers map[string]string

// Get returns the value for name, matched case-insensitively.
func (h Headers) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Has reports whether name is present, matched case-insensitively.
func (h Headers) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// Names returns the header names in sorted order.
func (h Headers) Names() []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h Headers) clone() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Request is what a client sent to the server.
type Request struct {
	// Method is the request method, e.g. "GET".
	Method string `json:"method"`
	// Protocol is the request protocol, e.g. "HTTP/1.1".
	Protocol string `json:"protocol"`
	// Address is the client IP, without port.
	Address string `json:"address"`
	// Path is the mount point plus the remainder, with "?query" appended
	// when the request had one.
	Path string `json:"path"`
	// Headers holds the request headers, including host, content-length and
	// content-type when present.
	Headers Headers `json:"headers"`
	// Body is nil when the request declared no positive content length.
	Body []byte `json:"body,omitempty"`
}

// Response is what the handler emitted.
type Response struct {
	// Status is the status line, e.g. "200 OK".
	Status string `json:"status"`
	// StatusCode is the numeric status.
	StatusCode int `json:"status_code"`
	// Headers always carries date and server, and content-length when the
	// handler wrote a body without declaring one.
	Headers Headers `json:"headers"`
	// Body is every chunk the handler wrote, concatenated in order.
	Body []byte `json:"body"`
}

// Exchange is one request/response pair.
type Exchange struct {
	ID       string        `json:"id"`
	Request  Request       `json:"request"`
	Response Response      `json:"response"`
	Duration time.Duration `json:"duration"`
	// Failed is set when the handler panicked. Response then holds whatever
	// was emitted before the panic.
	Failed bool `json:"failed,omitempty"`
}

// Clone returns a deep copy of e.
func (e Exchange) Clone() Exchange {
	out := e
	out.Request.Headers = e.Request.Headers.clone()
	out.Request.Body = cloneBytes(e.Request.Body)
	out.Response.Headers = e.Response.Headers.clone()
	out.Response.Body = cloneBytes(e.Response.Body)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// CloneAll deep-copies a slice of exchanges. A nil input yields an empty
// slice.
func CloneAll(in []Exchange) []Exchange {
	out := make([]Exchange, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
