package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ezyshopper/storefront/internal/models"
	"go.uber.org/zap"
)

type fakeCorsStore struct {
	mu  sync.Mutex
	cfg *models.CorsConfig
	err error
}

func (s *fakeCorsStore) Get(context.Context) (*models.CorsConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.err
}

func (s *fakeCorsStore) set(cfg *models.CorsConfig, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg, s.err = cfg, err
}

func corsStatus(h http.Handler, origin string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Origin", origin)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestCORSReloader(t *testing.T) {
	t.Parallel()

	store := &fakeCorsStore{}
	reloader := NewCORSReloader(store, testPolicy(), zap.NewNop(), 0)
	h := reloader.Middleware()(okHandler())

	if got := corsStatus(h, "http://localhost:5173"); got != http.StatusOK {
		t.Fatalf("Expected configured origin to pass, got %d", got)
	}

	store.set(&models.CorsConfig{AllowedOrigins: "https://shop.example.com", MaxAge: 60}, nil)
	reloader.load(context.Background())

	if got := corsStatus(h, "https://shop.example.com"); got != http.StatusOK {
		t.Errorf("Expected stored origin to pass, got %d", got)
	}
	if got := corsStatus(h, "http://localhost:5173"); got != http.StatusForbidden {
		t.Errorf("Expected replaced origin to be rejected, got %d", got)
	}
	if p := reloader.Policy(); p.MaxAge != 60 || p.AllowCredentials {
		t.Errorf("Expected stored max age and credentials, got %+v", p)
	}
	if p := reloader.Policy(); len(p.AllowedMethods) != len(testPolicy().AllowedMethods) {
		t.Errorf("Expected methods to come from configured policy, got %v", p.AllowedMethods)
	}
}

func TestCORSReloaderFallsBackOnStoreError(t *testing.T) {
	t.Parallel()

	store := &fakeCorsStore{err: errors.New("connection refused")}
	reloader := NewCORSReloader(store, testPolicy(), zap.NewNop(), 0)
	h := reloader.Middleware()(okHandler())

	if got := corsStatus(h, "http://localhost:5173"); got != http.StatusOK {
		t.Errorf("Expected configured origin to pass, got %d", got)
	}
}

func TestCORSReloaderStartStopsOnCancel(t *testing.T) {
	t.Parallel()

	reloader := NewCORSReloader(nil, testPolicy(), zap.NewNop(), 10_000_000)
	_ = reloader.Middleware()(okHandler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reloader.Start(ctx)
		close(done)
	}()
	cancel()
	<-done
}
