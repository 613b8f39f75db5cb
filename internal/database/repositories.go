package database

import (
	"context"

	"github.com/ezyshopper/storefront/internal/models"
)

// CorsConfigStore is the read side of CorsConfigRepository used by the CORS reloader.
type CorsConfigStore interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// RatelimitConfigStore is the subset of RatelimitConfigRepository used by the rate limit reloader.
type RatelimitConfigStore interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// Ensure concrete types implement the interfaces
var (
	_ CorsConfigStore      = (*CorsConfigRepository)(nil)
	_ RatelimitConfigStore = (*RatelimitConfigRepository)(nil)
	_ Connector            = (*PostgresConnector)(nil)
	_ Connector            = ConnectorFunc(nil)
)
