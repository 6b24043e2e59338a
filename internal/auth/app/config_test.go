package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "qwanyx-auth", cfg.Issuer)
	require.Equal(t, []string{"qwanyx"}, cfg.Audience)
	require.Equal(t, StoreMongo, cfg.StoreDriver)
	require.Equal(t, "mongodb://localhost:27017/", cfg.MongoURI)
	require.Equal(t, "qwanyx_central", cfg.CentralDB)
	require.Equal(t, 10*time.Minute, cfg.CodeTTL)
	require.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	require.Equal(t, 587, cfg.SMTP.Port)
	require.False(t, cfg.SMTP.Enabled())
	require.Equal(t, 8080, cfg.Port)
	require.True(t, cfg.MetricsEnabled)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017/")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_FILE", "/tmp/q.db")
	t.Setenv("AUTH_AUDIENCE", "qwanyx, portal")
	t.Setenv("AUTH_CODE_TTL", "5m")
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "mongodb://db:27017/", cfg.MongoURI)
	require.Equal(t, StoreSQLite, cfg.StoreDriver)
	require.Equal(t, "/tmp/q.db", cfg.SQLiteFile)
	require.Equal(t, []string{"qwanyx", "portal"}, cfg.Audience)
	require.Equal(t, 5*time.Minute, cfg.CodeTTL)
	require.True(t, cfg.SMTP.Enabled())
	require.Equal(t, 465, cfg.SMTP.Port)
	require.Equal(t, 9090, cfg.Port)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  issuer: file-issuer
  token_ttl: 24h
store:
  driver: sqlite
log:
  level: debug
`), 0o600))
	t.Setenv("AUTH_CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "file-issuer", cfg.Issuer)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, StoreSQLite, cfg.StoreDriver)
	require.Equal(t, "warn", cfg.LogLevel, "env overrides the file")
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("PORT", "0")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "store.driver")
	require.Contains(t, err.Error(), "port")

	t.Setenv("AUTH_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadConfig()
	require.Error(t, err)
}
