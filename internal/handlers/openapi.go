package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the OpenAPI document describing the mounted API surface.
type OpenAPIHandler struct {
	openAPIPath string
	logger      *zap.Logger

	once    sync.Once
	raw     []byte
	doc     map[string]any
	loadErr error
}

// NewOpenAPIHandler creates a new OpenAPI handler. The document is read on first use.
func NewOpenAPIHandler(openAPIPath string, logger *zap.Logger) *OpenAPIHandler {
	absPath, err := filepath.Abs(openAPIPath)
	if err != nil {
		absPath = filepath.Clean(openAPIPath)
	}
	return &OpenAPIHandler{
		openAPIPath: absPath,
		logger:      logger,
	}
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/openapi.yaml", h.ServeYAML).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/openapi.json", h.ServeJSON).Methods(http.MethodGet, http.MethodHead)
}

func (h *OpenAPIHandler) load() error {
	h.once.Do(func() {
		data, err := os.ReadFile(h.openAPIPath)
		if err != nil {
			h.loadErr = err
			return
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			h.loadErr = err
			return
		}
		h.raw = data
		h.doc = doc
	})
	if h.loadErr != nil {
		h.logger.Warn("openapi_document_unavailable",
			zap.String("path", h.openAPIPath),
			zap.Error(h.loadErr),
		)
	}
	return h.loadErr
}

// ServeYAML serves the OpenAPI spec in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	if err := h.load(); err != nil {
		respondJSONError(w, r, http.StatusNotFound, "Not Found", "OpenAPI specification not found")
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(h.raw); err != nil {
		h.logger.Debug("failed_to_write_openapi_yaml", zap.Error(err))
	}
}

// ServeJSON serves the OpenAPI spec in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	if err := h.load(); err != nil {
		respondJSONError(w, r, http.StatusNotFound, "Not Found", "OpenAPI specification not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.doc); err != nil {
		h.logger.Debug("failed_to_write_openapi_json", zap.Error(err))
	}
}
