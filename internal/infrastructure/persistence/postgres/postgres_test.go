package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/retry"
)

func TestMigrations_Ordered(t *testing.T) {
	migs := Migrations()
	require.NotEmpty(t, migs)
	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
}

func TestMigrations_CoverEveryCollection(t *testing.T) {
	for _, c := range document.Collections() {
		assert.Contains(t, migration001Up, "'"+string(c)+"'")
	}
	assert.True(t, strings.Contains(migration002Up, NotifyChannel))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("Save", nil))

	timeout := classify("Save", context.DeadlineExceeded)
	assert.True(t, retry.IsRetryable(timeout))
	assert.ErrorIs(t, timeout, shared.ErrTimeout)

	down := classify("Save", &pgconn.PgError{Code: "08006"})
	assert.True(t, retry.IsRetryable(down))
	assert.True(t, shared.IsRetryable(down))

	conflict := classify("Update", &pgconn.PgError{Code: "40001"})
	assert.ErrorIs(t, conflict, shared.ErrConcurrentModification)

	bad := classify("Save", &pgconn.PgError{Code: "23514"})
	assert.False(t, retry.IsRetryable(bad))
	assert.True(t, shared.IsExternalService(bad))

	closed := classify("Save", ErrConnectionClosed)
	assert.False(t, shared.IsRetryable(closed))

	assert.ErrorIs(t, classify("Save", context.Canceled), context.Canceled)
	assert.False(t, retry.IsRetryable(classify("Save", errors.New("syntax"))))
}

func TestPoolConfig(t *testing.T) {
	_, err := PoolConfig(config.DatabaseConfig{})
	assert.Error(t, err)

	pc, err := PoolConfig(config.DatabaseConfig{
		URL:          "postgres://u:p@localhost:5432/champtrack?sslmode=disable",
		MaxOpenConns: 7,
		MaxIdleConns: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns)
}
