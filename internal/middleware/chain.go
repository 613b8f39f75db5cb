package middleware

import "net/http"

// Middleware is the signature shared by every middleware in this package.
type Middleware func(http.Handler) http.Handler

// Chain wraps h so that mws run in the given order: mws[0] is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}
