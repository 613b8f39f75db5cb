package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ezyshopper/storefront/internal/config"
	"github.com/ezyshopper/storefront/internal/database"
	"github.com/ezyshopper/storefront/internal/logger"
	"github.com/ezyshopper/storefront/internal/server"
	"github.com/ezyshopper/storefront/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.Mode, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	deps := server.Deps{
		Connector: database.NewPostgresConnector(cfg.DatabaseURL, cfg.DBConnectRetries, cfg.DBConnectRetryDelay, zapLogger),
	}
	os.Exit(run(cfg, deps, zapLogger, debugMode))
}

// run serves until SIGINT/SIGTERM and returns the process exit status.
func run(cfg *config.Config, deps server.Deps, zapLogger *zap.Logger, debugMode bool) int {
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("mode", cfg.Mode.String()),
		zap.Bool("debug_mode", debugMode),
		zap.Int("port", cfg.Port),
		zap.Strings("static_roots", cfg.Static.Roots(cfg.Mode)),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
			cfg.OTELEnabled = false
		} else if tp, err := telemetry.InitTracer(ctx, telemetry.ServiceName, cfg.OTELEndpoint, cfg.Mode); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			cfg.OTELEnabled = false
		} else {
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	if err := server.Run(ctx, cfg, deps, zapLogger); err != nil {
		zapLogger.Error("server_exited_with_error", zap.Error(err))
		return 1
	}
	return 0
}
