package database

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-agent/internal/common/config"
	"restaurant-agent/internal/common/logger"
)

// ==========================
// Connect
// ==========================

type flakyConn struct {
	failures int
	pings    int
	closed   int
}

func (f *flakyConn) Ping(ctx context.Context) error {
	f.pings++
	if f.pings <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func (f *flakyConn) Close() error {
	f.closed++
	return nil
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, InitialDelay: time.Millisecond}
}

func TestConnect_RetriesUntilPingSucceeds(t *testing.T) {
	conn := &flakyConn{failures: 2}
	dials := 0

	got, err := Connect(context.Background(), "test store", fastPolicy(5), logger.NewTestLogger(t), func() (*flakyConn, error) {
		dials++
		return conn, nil
	})

	require.NoError(t, err)
	assert.Same(t, conn, got)
	assert.Equal(t, 3, dials)
	assert.Equal(t, 2, conn.closed)
}

func TestConnect_GivesUpAfterAttempts(t *testing.T) {
	dialErr := errors.New("no route to host")

	_, err := Connect(context.Background(), "test store", fastPolicy(3), logger.NewNoOpLogger(), func() (*flakyConn, error) {
		return nil, dialErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, dialErr)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestConnect_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Connect(ctx, "test store", RetryPolicy{Attempts: 5, InitialDelay: time.Hour}, logger.NewNoOpLogger(), func() (*flakyConn, error) {
		return &flakyConn{failures: 10}, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// Redis
// ==========================

func TestSessionRedis_PingAgainstMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	r, err := OpenSessionRedis(config.RedisConfig{Address: mr.Addr()}, "restaurant-agent-test")
	require.NoError(t, err)
	defer r.Close()

	assert.NoError(t, r.Ping(context.Background()))
}

func TestSessionRedis_RejectsEmptyAddress(t *testing.T) {
	_, err := OpenSessionRedis(config.RedisConfig{}, "restaurant-agent-test")
	assert.ErrorIs(t, err, ErrRedisAddressMissing)
}

// ==========================
// Elasticsearch
// ==========================

func TestCatalogIndex_Ping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantErr     bool
		wantMissing bool
	}{
		{"index exists", http.StatusOK, false, false},
		{"index missing", http.StatusNotFound, true, true},
		{"cluster unavailable", http.StatusServiceUnavailable, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				w.Header().Set("X-Elastic-Product", "Elasticsearch")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			idx, err := OpenCatalogIndex(config.ElasticsearchConfig{URL: srv.URL}, "restaurants")
			require.NoError(t, err)

			err = idx.Ping(context.Background())
			assert.Equal(t, "/restaurants", path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantMissing, errors.Is(err, ErrCatalogIndexMissing))
		})
	}
}

// ==========================
// PostgreSQL
// ==========================

func TestCatalogDB_Ping(t *testing.T) {
	tests := []struct {
		name        string
		present     bool
		wantMissing bool
	}{
		{"tables present", true, false},
		{"tables missing", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectPing()
			mock.ExpectQuery(regexp.QuoteMeta(catalogTablesQuery)).
				WillReturnRows(sqlmock.NewRows([]string{"present"}).AddRow(tt.present))

			err = (&CatalogDB{DB: db}).Ping(context.Background())
			if tt.wantMissing {
				assert.ErrorIs(t, err, ErrCatalogTablesMissing)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCatalogDB_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err = (&CatalogDB{DB: db}).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres ping")
}

func TestOpenCatalogDB_DoesNotDial(t *testing.T) {
	c, err := OpenCatalogDB(config.PostgresConfig{
		Host: "localhost", Port: 5432, Database: "restaurants", User: "agent", SSLMode: "disable",
		MaxConnections: 2, MaxIdle: 1,
	})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
