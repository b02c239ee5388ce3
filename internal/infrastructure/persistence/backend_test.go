package persistence

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
)

func TestOpen_SQLiteWithoutRedis(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "docs.db"), BusyTimeout: time.Second},
		Redis:  config.RedisConfig{Disabled: true},
	}

	b, err := Open(ctx, cfg, true, nil)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "sqlite", b.Name)
	assert.Nil(t, b.Subscriber)
	assert.Nil(t, b.Feed)
	assert.Nil(t, b.Postgres)

	ref := document.Ref{Collection: document.Families, ID: "fam-1", FamilyID: "fam-1"}
	require.NoError(t, b.Store.Save(ctx, document.Document{Ref: ref, Body: json.RawMessage(`{"id":"fam-1"}`)}))
	docs, err := b.Store.LoadFamily(ctx, "fam-1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
