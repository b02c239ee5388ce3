package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/config"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "snapshot:fam-1", SnapshotKey("fam-1"))
	assert.Equal(t, "pubsub:family:fam-1", FamilyChannel("fam-1"))
}

func TestOptions(t *testing.T) {
	opts, err := Options(config.RedisConfig{Host: "cache", Port: 6380, DB: 2, PoolSize: 4, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 4, opts.PoolSize)

	opts, err = Options(config.RedisConfig{URL: "redis://:secret@example:6379/3", Host: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "example:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)

	_, err = Options(config.RedisConfig{URL: "http://nope"})
	assert.ErrorIs(t, err, ErrCacheConnection)
}

func TestNewCache_Disabled(t *testing.T) {
	_, err := NewCache(context.Background(), config.RedisConfig{Disabled: true})
	assert.ErrorIs(t, err, ErrCacheDisabled)
}
