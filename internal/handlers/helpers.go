package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	logpkg "github.com/ezyshopper/storefront/internal/logger"
	"github.com/ezyshopper/storefront/internal/request"
)

// maxErrorMessageLength bounds messages returned to clients
const maxErrorMessageLength = 200

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	return logpkg.Truncate(message, maxErrorMessageLength)
}

// respondJSONError sends an error JSON response with sanitized error messages.
// The envelope matches middleware.ErrorResponse.
func respondJSONError(w http.ResponseWriter, r *http.Request, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"path":      r.URL.Path,
	}
	if id := request.RequestID(r); id != "" {
		response["request_id"] = id
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// NotFound answers unmatched API paths with a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSONError(w, r, http.StatusNotFound, "Not Found", "No route matches "+r.Method+" "+r.URL.Path)
}

// Preflight answers OPTIONS requests that were not handled as CORS preflights, advertising methods in Allow.
func Preflight(methods []string) http.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		w.WriteHeader(http.StatusNoContent)
	}
}

// MethodNotAllowed answers a known path requested with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondJSONError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported for "+r.URL.Path)
}
