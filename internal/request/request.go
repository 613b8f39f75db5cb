package request

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ulule/limiter/v3"
)

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	jsonBodyContextKey  contextKey = "json_body"
	cookiesContextKey   contextKey = "cookies"
)

// Cookies is the parsed Cookie header. Signed holds values that verified against the cookie secret.
type Cookies struct {
	Plain  map[string]string
	Signed map[string]string
}

// Get returns a plain cookie value.
func (c Cookies) Get(name string) (string, bool) {
	v, ok := c.Plain[name]
	return v, ok
}

// GetSigned returns a verified signed cookie value.
func (c Cookies) GetSigned(name string) (string, bool) {
	v, ok := c.Signed[name]
	return v, ok
}

// ClientIP returns the client address without its port. Forwarding headers (X-Forwarded-For, then
// X-Real-IP) are only consulted when trustProxy is set, because any client can send them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if ip := limiter.GetIP(r, limiter.Options{TrustForwardHeader: trustProxy}); ip != nil {
		return ip.String()
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestID returns the request ID, or "" when none was assigned.
func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}

// WithJSONBody returns a context carrying the parsed JSON request document.
func WithJSONBody(ctx context.Context, body json.RawMessage) context.Context {
	return context.WithValue(ctx, jsonBodyContextKey, body)
}

// JSONBody returns the JSON document parsed by the body middleware, or nil if the request had none.
func JSONBody(r *http.Request) json.RawMessage {
	body, _ := r.Context().Value(jsonBodyContextKey).(json.RawMessage)
	return body
}

// DecodeJSONBody unmarshals the parsed JSON document into v.
// It returns false when the request carried no JSON body.
func DecodeJSONBody(r *http.Request, v any) (bool, error) {
	body := JSONBody(r)
	if body == nil {
		return false, nil
	}
	return true, json.Unmarshal(body, v)
}

// WithCookies returns a context carrying the parsed cookies.
func WithCookies(ctx context.Context, cookies Cookies) context.Context {
	return context.WithValue(ctx, cookiesContextKey, cookies)
}

// CookiesFromContext returns the parsed cookies; both maps are empty if the cookie middleware did not run.
func CookiesFromContext(r *http.Request) Cookies {
	c, ok := r.Context().Value(cookiesContextKey).(Cookies)
	if !ok {
		return Cookies{Plain: map[string]string{}, Signed: map[string]string{}}
	}
	return c
}
