package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/qwanyx/qwanyx/internal/auth/notify"
	"github.com/qwanyx/qwanyx/internal/auth/service"
)

type nopNotifier struct{}

func (nopNotifier) SendCode(context.Context, notify.CodeMessage) error { return nil }

func sqliteConfig(t *testing.T) Config {
	dir := t.TempDir()
	return Config{
		Issuer:               "qwanyx-auth",
		Audience:             []string{"qwanyx"},
		SigningKeyFile:       filepath.Join(dir, "signing.pem"),
		CodeTTL:              10 * time.Minute,
		TokenTTL:             time.Hour,
		StoreDriver:          StoreSQLite,
		SQLiteFile:           filepath.Join(dir, "auth.db"),
		CentralDB:            "qwanyx_central",
		MetricsEnabled:       true,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}
}

func newTestApp(t *testing.T, cfg Config) *Application {
	t.Helper()
	application, err := New(context.Background(), cfg,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithNotifier(nopNotifier{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })
	return application
}

func TestNewWiresSQLite(t *testing.T) {
	application := newTestApp(t, sqliteConfig(t))

	_, err := application.Workspaces().Create(context.Background(), service.NewWorkspace{Code: "acme"})
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	defer srv.Close()

	for _, path := range []string{"/livez", "/readyz", "/.well-known/jwks.json", "/metrics"} {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestSigningKeyPersistsAcrossRestarts(t *testing.T) {
	cfg := sqliteConfig(t)

	first := newTestApp(t, cfg)
	kid := first.keyManager.Signer.KID()
	require.NoError(t, first.Close())

	second := newTestApp(t, cfg)
	require.Equal(t, kid, second.keyManager.Signer.KID())
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t)
	cfg.RedisURL = mr.Addr()

	application := newTestApp(t, cfg)
	require.NotNil(t, application.redis)
	require.NotNil(t, application.router.Limiter)
	require.NotNil(t, application.router.CachePing)
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.RedisURL = "127.0.0.1:1"

	_, err := New(context.Background(), cfg, WithLogger(slog.New(slog.DiscardHandler)))
	require.ErrorContains(t, err, "redis")
}
