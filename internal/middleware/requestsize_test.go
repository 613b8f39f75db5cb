package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ezyshopper/storefront/internal/request"
	"go.uber.org/zap"
)

// jsonEcho responds with the parsed body length so tests can see what reached the handler.
func jsonEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := request.JSONBody(r)
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("handler could not re-read body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"parsed": len(body), "raw": len(raw)})
	})
}

func bodyPipeline(t *testing.T, maxBytes int64) http.Handler {
	t.Helper()
	return Chain(jsonEcho(t), MaxRequestSize(maxBytes, zap.NewNop()), JSONBody(zap.NewNop()))
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	const limit = 64
	payload := func(n int) string {
		// {"k":"xxx..."} is n bytes long
		return `{"k":"` + strings.Repeat("x", n-8) + `"}`
	}

	tests := []struct {
		name           string
		body           string
		hideLength     bool
		expectedStatus int
	}{
		{name: "under limit", body: payload(limit - 1), expectedStatus: http.StatusOK},
		{name: "at limit", body: payload(limit), expectedStatus: http.StatusRequestEntityTooLarge},
		{name: "over limit", body: payload(limit * 4), expectedStatus: http.StatusRequestEntityTooLarge},
		{name: "over limit without content length", body: payload(limit * 4), hideLength: true, expectedStatus: http.StatusRequestEntityTooLarge},
		{name: "at limit without content length", body: payload(limit), hideLength: true, expectedStatus: http.StatusRequestEntityTooLarge},
		{name: "under limit without content length", body: payload(limit - 1), hideLength: true, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.hideLength {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			bodyPipeline(t, limit).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus == http.StatusRequestEntityTooLarge {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Expected JSON error body: %v", err)
				}
				if resp.Error != "Request Entity Too Large" {
					t.Errorf("Unexpected error %q", resp.Error)
				}
			}
		})
	}
}

func TestMaxRequestSizeDefault(t *testing.T) {
	t.Parallel()

	var reached bool
	h := MaxRequestSize(0, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader("{}"))
	req.ContentLength = DefaultMaxRequestSize
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if reached || w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 10 MiB declared body to be rejected, got %d", w.Code)
	}
}

func TestJSONBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		contentType    string
		body           string
		expectedStatus int
		expectParsed   int
	}{
		{name: "object", contentType: "application/json", body: `{"sku":"A1","qty":2}`, expectedStatus: http.StatusOK, expectParsed: 20},
		{name: "array", contentType: "application/json; charset=utf-8", body: `[1,2]`, expectedStatus: http.StatusOK, expectParsed: 5},
		{name: "vendor json", contentType: "application/vnd.api+json", body: `{}`, expectedStatus: http.StatusOK, expectParsed: 2},
		{name: "malformed", contentType: "application/json", body: `{"sku":`, expectedStatus: http.StatusBadRequest},
		{name: "bare string rejected", contentType: "application/json", body: `"hello"`, expectedStatus: http.StatusBadRequest},
		{name: "empty body passes", contentType: "application/json", body: ``, expectedStatus: http.StatusOK},
		{name: "form untouched", contentType: "application/x-www-form-urlencoded", body: `a=1`, expectedStatus: http.StatusOK},
		{name: "text untouched", contentType: "text/plain", body: `{not json`, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/coupons", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			bodyPipeline(t, 1024).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var got map[string]int
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if got["parsed"] != tt.expectParsed {
				t.Errorf("Expected parsed length %d, got %d", tt.expectParsed, got["parsed"])
			}
			if got["raw"] != len(tt.body) {
				t.Errorf("Expected handler to re-read %d bytes, got %d", len(tt.body), got["raw"])
			}
		})
	}
}

func TestDecodeJSONBodyAfterMiddleware(t *testing.T) {
	t.Parallel()

	var item struct {
		SKU string `json:"sku"`
		Qty int    `json:"qty"`
	}
	h := JSONBody(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := request.DecodeJSONBody(r, &item)
		if !ok || err != nil {
			t.Errorf("DecodeJSONBody = %v, %v", ok, err)
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"sku":"A1","qty":2}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if item.SKU != "A1" || item.Qty != 2 {
		t.Errorf("Unexpected decoded item %+v", item)
	}
}
