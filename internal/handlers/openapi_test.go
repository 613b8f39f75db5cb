package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const testOpenAPIDoc = `openapi: 3.0.3
info:
  title: Storefront API
  version: 1.0.0
paths:
  /healthz:
    get:
      responses:
        '200':
          description: ok
`

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	docPath := filepath.Join(dir, "openapi.yaml")
	if err := os.WriteFile(docPath, []byte(testOpenAPIDoc), 0o600); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	r := mux.NewRouter()
	NewOpenAPIHandler(docPath, zap.NewNop()).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.yaml", nil))
	if w.Code != http.StatusOK || w.Body.String() != testOpenAPIDoc {
		t.Errorf("Unexpected YAML response %d: %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var doc map[string]any
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode JSON document: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("Expected openapi 3.0.3, got %v", doc["openapi"])
	}
}

func TestOpenAPIHandlerMissingDocument(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())

	w := httptest.NewRecorder()
	h.ServeJSON(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestShippedOpenAPIDocumentParses(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(filepath.Join("..", "..", "api", "openapi", "openapi.yaml"), zap.NewNop())

	w := httptest.NewRecorder()
	h.ServeJSON(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected shipped document to convert to JSON, got %d: %s", w.Code, w.Body.String())
	}
}
