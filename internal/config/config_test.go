package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("INITIAL_ADMIN_PASSWORD", "secret")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "email_queue", cfg.RabbitMQ.Queue)
	assert.Equal(t, "freshshift:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 12, cfg.NewEmployee.PasswordLength)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "jwt-secret")
	// t.Setenv 负责在测试结束后恢复原值
	t.Setenv("INITIAL_ADMIN_PASSWORD", "")
	require.NoError(t, os.Unsetenv("INITIAL_ADMIN_PASSWORD"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigSQLNeedsDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "sql")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_DSN", "")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("DATABASE_DSN", "file:freshshift.db")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
}

func TestLoadConfigUnknownBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "mongo")

	_, err := LoadConfig()
	assert.Error(t, err)
}
