package service_test

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/qwanyx/qwanyx/internal/auth/metrics"
	"github.com/qwanyx/qwanyx/internal/auth/notify"
	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/internal/auth/store/drivers/sqlite"
	"github.com/qwanyx/qwanyx/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// captureNotifier records every message and optionally fails delivery.
type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.CodeMessage
	fail bool
}

func (n *captureNotifier) SendCode(_ context.Context, msg notify.CodeMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	if n.fail {
		return errors.New("smtp: connection refused")
	}
	return nil
}

func (n *captureNotifier) lastCode(t *testing.T, email string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].To == email {
			return n.sent[i].Code
		}
	}
	t.Fatalf("no code sent to %s", email)
	return ""
}

type clock struct {
	mu   sync.Mutex
	base time.Time
	skew time.Duration
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(c.skew)
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.skew += d
	c.mu.Unlock()
}

type harness struct {
	store      *sqlite.Store
	km         *jwtx.KeyManager
	notifier   *captureNotifier
	clock      *clock
	metrics    *metrics.Metrics
	directory  *service.Directory
	users      *service.UserService
	codes      *service.CodeService
	workspaces *service.WorkspaceService
	contacts   *service.ContactService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.EnsureSchema(ctx))

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: "qwanyx-auth", Audience: []string{"qwanyx"}})
	require.NoError(t, err)

	h := &harness{
		store:    st,
		km:       km,
		notifier: &captureNotifier{},
		clock:    &clock{base: time.Now().UTC()},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	h.directory = &service.Directory{Store: st, CentralDB: "qwanyx_central"}
	h.users = &service.UserService{Directory: h.directory, Metrics: h.metrics, Now: h.clock.Now}
	h.codes = &service.CodeService{
		Directory: h.directory,
		Users:     h.users,
		Tokens:    &service.TokenService{KeyManager: km, TTL: 7 * 24 * time.Hour},
		Notifier:  h.notifier,
		Metrics:   h.metrics,
		Now:       h.clock.Now,
	}
	h.workspaces = &service.WorkspaceService{Directory: h.directory, Users: h.users, Now: h.clock.Now}
	h.contacts = &service.ContactService{Directory: h.directory, Now: h.clock.Now}

	for _, code := range []string{"acme", "globex"} {
		_, err := h.workspaces.Create(ctx, service.NewWorkspace{Code: code, Name: code + " Inc"})
		require.NoError(t, err)
	}
	return h
}

// login registers email in workspace and exchanges the emailed code.
func (h *harness) login(t *testing.T, workspace, email string) service.VerifyResult {
	t.Helper()
	ctx := context.Background()
	_, _, err := h.codes.Register(ctx, service.Registration{Email: email, Workspace: workspace})
	require.NoError(t, err)
	res, err := h.codes.Verify(ctx, email, h.notifier.lastCode(t, email), workspace, service.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	return res
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
