package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" driver
	"go.uber.org/zap"
)

const (
	// DefaultPingTimeout bounds each connection attempt
	DefaultPingTimeout = 5 * time.Second
	// DefaultRetryDelay is the first backoff delay when retries are enabled
	DefaultRetryDelay = 2 * time.Second
	// MaxRetryDelay caps the exponential backoff
	MaxRetryDelay = 30 * time.Second
)

// DB is the connection pool shared by every request handler.
type DB struct {
	*sql.DB
}

// Wrap adopts an already opened pool.
func Wrap(db *sql.DB) *DB {
	return &DB{DB: db}
}

// Open opens a Postgres pool and pings it, bounded by DefaultPingTimeout.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return Wrap(sqlDB), nil
}

// Connector establishes the database connection the server depends on.
// Connect either returns a usable pool or an error; callers treat the error as fatal.
type Connector interface {
	Connect(ctx context.Context) (*DB, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (*DB, error)

// Connect calls f(ctx).
func (f ConnectorFunc) Connect(ctx context.Context) (*DB, error) {
	return f(ctx)
}

// PostgresConnector connects with lib/pq. With Retries == 0 a single attempt is made.
type PostgresConnector struct {
	URL          string
	Retries      int
	InitialDelay time.Duration
	Logger       *zap.Logger

	open  func(ctx context.Context, databaseURL string) (*DB, error)
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPostgresConnector creates a connector for databaseURL.
func NewPostgresConnector(databaseURL string, retries int, initialDelay time.Duration, logger *zap.Logger) *PostgresConnector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresConnector{
		URL:          databaseURL,
		Retries:      retries,
		InitialDelay: initialDelay,
		Logger:       logger,
	}
}

// Connect attempts the connection, retrying with exponential backoff when Retries > 0.
func (c *PostgresConnector) Connect(ctx context.Context) (*DB, error) {
	open := c.open
	if open == nil {
		open = Open
	}
	sleep := c.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := c.InitialDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	attempts := c.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := open(ctx, c.URL)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		logger.Warn("failed_to_connect_to_database_retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("connect to database: %w", errors.Join(err, lastErr))
		}
		delay *= 2
		if delay > MaxRetryDelay {
			delay = MaxRetryDelay
		}
	}

	return nil, fmt.Errorf("connect to database after %d attempt(s): %w", attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
