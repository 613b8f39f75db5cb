package handlers

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/ezyshopper/storefront/internal/config"
	logpkg "github.com/ezyshopper/storefront/internal/logger"
	"github.com/ezyshopper/storefront/internal/models"
	"go.uber.org/zap"
)

// SPAHandler serves frontend assets from the static roots of one deployment mode and answers every
// other GET with that mode's index document, so client-side routes survive a reload.
type SPAHandler struct {
	mode   models.DeploymentMode
	roots  []string
	index  string
	logger *zap.Logger
}

// NewSPAHandler creates the static handler. The mode is fixed for the handler's lifetime.
func NewSPAHandler(static config.StaticConfig, mode models.DeploymentMode, logger *zap.Logger) *SPAHandler {
	return &SPAHandler{
		mode:   mode,
		roots:  static.Roots(mode),
		index:  static.Index(mode),
		logger: logger,
	}
}

// Roots returns the directories searched for assets, in order.
func (h *SPAHandler) Roots() []string {
	return append([]string(nil), h.roots...)
}

// Index returns the fallback document path.
func (h *SPAHandler) Index() string {
	return h.index
}

// ServeHTTP implements http.Handler.
func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		NotFound(w, r)
		return
	}

	// Cleaning a rooted path removes every ".." segment, so the result cannot leave a root.
	name := path.Clean("/" + r.URL.Path)
	if name != "/" {
		for _, root := range h.roots {
			if f, info, ok := openAsset(filepath.Join(root, filepath.FromSlash(name))); ok {
				defer func() { _ = f.Close() }()
				http.ServeContent(w, r, info.Name(), info.ModTime(), f)
				return
			}
		}
	}

	h.serveIndex(w, r)
}

func (h *SPAHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, info, ok := openAsset(h.index)
	if !ok {
		h.logger.Error("spa_index_missing",
			zap.String("mode", h.mode.String()),
			zap.String("index", h.index),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		)
		respondJSONError(w, r, http.StatusNotFound, "Not Found", "Frontend bundle is not available")
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// openAsset opens name if it is a regular file, or the index.html inside it if it is a directory.
func openAsset(name string) (*os.File, fs.FileInfo, bool) {
	info, err := os.Stat(name)
	if err == nil && info.IsDir() {
		name = filepath.Join(name, "index.html")
		info, err = os.Stat(name)
	}
	if err != nil || !info.Mode().IsRegular() {
		return nil, nil, false
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, false
	}
	return f, info, true
}
