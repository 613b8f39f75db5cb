// Package server wires configuration, the database connection and the HTTP pipeline into a running
// storefront API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ezyshopper/storefront/internal/config"
	"github.com/ezyshopper/storefront/internal/database"
	"github.com/ezyshopper/storefront/internal/handlers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultShutdownTimeout = 30 * time.Second

// ListenFunc opens the listening socket. net.Listen is used when Deps.Listen is nil.
type ListenFunc func(network, address string) (net.Listener, error)

// Deps are the collaborators Run needs besides configuration.
type Deps struct {
	// Connector establishes the database connection. Required.
	Connector database.Connector
	// Modules are mounted under their prefixes. nil selects handlers.DefaultModules.
	Modules []handlers.Module
	// Listen opens the socket once the database is connected.
	Listen ListenFunc
	// Redis backs rate limiting and the extended health check. When nil and cfg.RedisURL is set,
	// Run creates and owns a client.
	Redis redis.UniversalClient
}

// ErrNoConnector is returned by Run when Deps.Connector is nil.
var ErrNoConnector = errors.New("server: database connector is required")

// Run connects to the database, then serves HTTP until ctx is cancelled.
//
// The listen function is only called after Connect succeeds; a failed connection returns the error
// without ever opening the port. A nil return means the server shut down gracefully.
func Run(ctx context.Context, cfg *config.Config, deps Deps, logger *zap.Logger) error {
	if deps.Connector == nil {
		return ErrNoConnector
	}

	db, err := deps.Connector.Connect(ctx)
	if err != nil {
		logger.Error("failed_to_connect_to_database", zap.Error(err))
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	logger.Info("connected_to_database")

	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	if deps.Redis == nil && cfg.RedisURL != "" {
		client, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		deps.Redis = client
		logger.Info("rate_limiting_enabled", zap.String("rate", cfg.RateLimit))
	}

	handler, err := NewHandler(cfg, db, deps, logger)
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	listen := deps.Listen
	if listen == nil {
		listen = net.Listen
	}
	ln, err := listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout + 5*time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	reloadCtx, reloadCancel := context.WithCancel(ctx)
	defer reloadCancel()
	handler.StartReloaders(reloadCtx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	logger.Info("server_listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("mode", cfg.Mode.String()),
		zap.Strings("static_roots", cfg.Static.Roots(cfg.Mode)),
		zap.String("index", cfg.Static.Index(cfg.Mode)),
		zap.Strings("cors_allowed_origins", handler.CORSPolicy().AllowedOrigins),
	)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server_shutting_down")
	reloadCancel()

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server_exited")
	return nil
}

func newRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}
