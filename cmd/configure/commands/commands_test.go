package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ezyshopper/storefront/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useMockDatabase points every command at a sqlmock pool for the duration of the test.
func useMockDatabase(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	original := openDatabase
	openDatabase = func(ctx context.Context) (*database.DB, error) {
		return database.Wrap(sqlDB), nil
	}
	t.Cleanup(func() { openDatabase = original })
	return mock
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCorsList(t *testing.T) {
	mock := useMockDatabase(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("FROM cors_config").
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows([]string{"config_key", "allowed_origins", "allow_credentials", "max_age", "created_at", "updated_at"}).
			AddRow("default", "https://shop.example.com,https://admin.example.com", true, 600, now, now))
	mock.ExpectClose()

	out, err := execute(t, "cors", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "  - https://shop.example.com\n")
	assert.Contains(t, out, "  - https://admin.example.com\n")
	assert.Contains(t, out, "Max-Age: 600")
	assert.Contains(t, out, "2026-01-02 03:04:05Z")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCorsListEmpty(t *testing.T) {
	mock := useMockDatabase(t)
	mock.ExpectQuery("FROM cors_config").WillReturnRows(sqlmock.NewRows([]string{"config_key"}))
	mock.ExpectClose()

	out, err := execute(t, "cors", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CORS_ALLOWED_ORIGINS applies")
}

func TestCorsSet(t *testing.T) {
	mock := useMockDatabase(t)
	mock.ExpectExec("INSERT INTO cors_config").
		WithArgs("default", "https://shop.example.com", false, 120, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	out, err := execute(t, "cors", "set", "--origins", " https://shop.example.com/ ", "--allow-credentials=false", "--max-age", "120")
	require.NoError(t, err)
	assert.Contains(t, out, "CORS configuration updated.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCorsSetRequiresOrigins(t *testing.T) {
	useMockDatabase(t)

	_, err := execute(t, "cors", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--origins is required")
}

func TestCorsSetRejectsOriginWithPath(t *testing.T) {
	mock := useMockDatabase(t)
	mock.ExpectClose()

	_, err := execute(t, "cors", "set", "--origins", "https://shop.example.com/app")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCorsClear(t *testing.T) {
	mock := useMockDatabase(t)
	mock.ExpectExec("DELETE FROM cors_config").WithArgs("default").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	out, err := execute(t, "cors", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "CORS override removed.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatelimitListAndSet(t *testing.T) {
	mock := useMockDatabase(t)
	now := time.Now()
	mock.ExpectQuery("FROM ratelimit_config").
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows([]string{"config_key", "rate", "created_at", "updated_at"}).
			AddRow("default", "100-M", now, now))
	mock.ExpectClose()

	out, err := execute(t, "ratelimit", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Rate: 100-M")

	mock = useMockDatabase(t)
	mock.ExpectExec("INSERT INTO ratelimit_config").
		WithArgs("default", "10-S", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	out, err = execute(t, "ratelimit", "set", "--rate", "10-S")
	require.NoError(t, err)
	assert.Contains(t, out, "Rate limit configuration updated.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatelimitSetRejectsMalformedRate(t *testing.T) {
	mock := useMockDatabase(t)
	mock.ExpectClose()

	_, err := execute(t, "ratelimit", "set", "--rate", "lots")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBInit(t *testing.T) {
	mock := useMockDatabase(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cors_config").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ratelimit_config").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	out, err := execute(t, "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration tables are in place.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBPingReportsConnectError(t *testing.T) {
	original := openDatabase
	openDatabase = func(ctx context.Context) (*database.DB, error) {
		return nil, errors.New("connect to database: connection refused")
	}
	t.Cleanup(func() { openDatabase = original })

	_, err := execute(t, "db", "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestProbe(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"timestamp": "2026-01-01T00:00:00Z",
			"checks":    map[string]string{"database": "ok"},
		})
	}))
	defer srv.Close()

	t.Setenv("NODE_ENV", "production")
	t.Setenv("API_BASE_URL", srv.URL+"/api")
	t.Setenv("DEV_API_BASE_URL", "")

	out, err := execute(t, "probe", "--extended")
	require.NoError(t, err)
	assert.Equal(t, "mode=extended", gotQuery)
	assert.Contains(t, out, "(production mode): healthy")
	assert.Contains(t, out, "database: ok")
}

func TestProbeModeOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2026-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	t.Setenv("NODE_ENV", "production")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("DEV_API_BASE_URL", srv.URL+"/api")

	_, err := execute(t, "probe")
	require.Error(t, err, "production has no target configured")

	out, err := execute(t, "probe", "--mode", "development")
	require.NoError(t, err)
	assert.Contains(t, out, "(development mode): healthy")
}

func TestProbeReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Service Unavailable","message":"database unreachable"}`))
	}))
	defer srv.Close()

	t.Setenv("NODE_ENV", "development")
	t.Setenv("DEV_API_BASE_URL", srv.URL+"/api")

	_, err := execute(t, "probe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), srv.URL)
}
