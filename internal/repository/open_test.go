package repository

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/freshshift/shift-planner/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openConfig(backend string) *config.Config {
	cfg := &config.Config{}
	cfg.Store.Backend = backend
	cfg.Database.ConnectTimeout = 5
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 5
	cfg.Database.MaxOpenConns = 1
	cfg.Database.MaxIdleConns = 1
	cfg.Redis.ConnectTimeout = 5
	cfg.Redis.OperationTimeout = 5
	cfg.Redis.KeyPrefix = "freshshift:"
	return cfg
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, openConfig("memory"))
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	cfg := openConfig("sql")
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "freshshift.db")
	b, err = Open(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLBackend{}, b)
	require.NoError(t, b.Close())

	mr := miniredis.RunT(t)
	cfg = openConfig("redis")
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = port
	b, err = Open(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &RedisBackend{}, b)
	require.NoError(t, b.Close())

	_, err = Open(ctx, openConfig("mongo"))
	assert.Error(t, err)
}
