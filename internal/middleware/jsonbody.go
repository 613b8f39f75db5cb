package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/ezyshopper/storefront/internal/request"
	"go.uber.org/zap"
)

// JSONBody parses application/json request bodies and exposes them through request.JSONBody.
//
// Only objects and arrays are accepted at the top level. Malformed documents get 400, bodies cut off
// by MaxRequestSize get 413. Requests with another content type, or an empty body, pass through
// untouched. After parsing, r.Body is replaced so handlers can still read it.
func JSONBody(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody || !isJSONContentType(r.Header.Get("Content-Type")) {
				next.ServeHTTP(w, r)
				return
			}

			data, err := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if err != nil {
				var maxBytesErr *http.MaxBytesError
				if errors.As(err, &maxBytesErr) {
					respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
						"Request body exceeds the size limit", logger)
					return
				}
				respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", "Failed to read request body", logger)
				return
			}

			trimmed := bytes.TrimSpace(data)
			if len(trimmed) == 0 {
				r.Body = http.NoBody
				r.ContentLength = 0
				next.ServeHTTP(w, r)
				return
			}

			if (trimmed[0] != '{' && trimmed[0] != '[') || !json.Valid(trimmed) {
				respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", "Malformed JSON body", logger)
				return
			}

			r = r.WithContext(request.WithJSONBody(r.Context(), json.RawMessage(trimmed)))
			r.Body = io.NopCloser(bytes.NewReader(data))
			r.ContentLength = int64(len(data))

			next.ServeHTTP(w, r)
		})
	}
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
