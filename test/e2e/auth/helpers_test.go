package auth_test

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/qwanyx/qwanyx/internal/auth/app"
	"github.com/qwanyx/qwanyx/internal/auth/notify"
	"github.com/qwanyx/qwanyx/pkg/authsdk"
	"github.com/qwanyx/qwanyx/pkg/cryptox"
	"github.com/qwanyx/qwanyx/pkg/idx"
	"github.com/qwanyx/qwanyx/pkg/redisx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * MongoDB and Redis run in containers shared by every test, the service
 * itself runs in process so codes can be read from the mailbox.
 */

const adminToken = "test-admin-token-12345"

var (
	mongoURI string
	redisURL string
)

// TestMain starts MongoDB and Redis once before all tests and terminates
// them after all tests complete.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "Skipping end-to-end tests in short mode")
		os.Exit(0)
	}

	ctx := context.Background()

	fmt.Fprintf(os.Stdout, "Starting MongoDB and Redis containers...")
	mongoC, err := startContainer(ctx, "mongo:7", "27017/tcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to start MongoDB: %v\n", err)
		os.Exit(1)
	}
	redisC, err := startContainer(ctx, "redis:7-alpine", "6379/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "\nFailed to start Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	mongoURI = "mongodb://" + endpoint(ctx, mongoC, "27017/tcp") + "/"
	redisURL = "redis://" + endpoint(ctx, redisC, "6379/tcp") + "/0"

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Terminating containers...")
	_ = redisC.Terminate(ctx)
	_ = mongoC.Terminate(ctx)
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func startContainer(ctx context.Context, image, port string) (testcontainers.Container, error) {
	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port},
			WaitingFor:   wait.ForListeningPort(nat.Port(port)).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
}

func endpoint(ctx context.Context, c testcontainers.Container, port string) string {
	host, err := c.Host(ctx)
	if err != nil {
		panic(err)
	}
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

// mailbox captures the codes the service would have emailed.
type mailbox struct {
	mu   sync.Mutex
	sent []notify.CodeMessage
}

func (m *mailbox) SendCode(_ context.Context, msg notify.CodeMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// lastCode returns the newest code sent to email.
func (m *mailbox) lastCode(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == email {
			return m.sent[i].Code
		}
	}
	t.Fatalf("no code sent to %s", email)
	return ""
}

type authService struct {
	BaseURL   string
	Workspace string
	Mail      *mailbox
	App       *app.Application
}

// uniqueName returns a lower-case name that is unique across test runs.
// Tenant databases are named after the workspace code, so every test needs
// its own codes.
func uniqueName(prefix string) string {
	id := strings.ToLower(idx.New().String())
	return prefix + id[len(id)-10:]
}

// setupAuthService starts the service against the shared containers with a
// fresh central database and an empty rate-limit store, and creates a
// workspace whose admin is admin@acme.test.
func setupAuthService(t *testing.T) (*authService, func()) {
	t.Helper()
	svc, cleanup := startAuthService(t, uniqueName("central_"))
	svc.Workspace = createWorkspace(t, svc, "admin@acme.test")
	return svc, cleanup
}

func createWorkspace(t *testing.T, svc *authService, adminEmail string) string {
	t.Helper()
	code := uniqueName("ws_")
	_, err := newAdminClient(svc.BaseURL, code).CreateWorkspace(t.Context(), authsdk.CreateWorkspaceRequest{
		Code:       code,
		Name:       "Acme Corp",
		AdminEmail: adminEmail,
	})
	require.NoError(t, err, "workspace creation should succeed")
	return code
}

func startAuthService(t *testing.T, centralDB string) (*authService, func()) {
	t.Helper()
	ctx := context.Background()

	rdb, err := redisx.Connect(ctx, redisURL)
	require.NoError(t, err)
	require.NoError(t, rdb.FlushDB(ctx).Err())
	_ = rdb.Close()

	hash, err := cryptox.HashSecret(adminToken)
	require.NoError(t, err)

	cfg := app.Config{
		Issuer:               "qwanyx-auth",
		Audience:             []string{"qwanyx"},
		AdminTokenHash:       hash,
		CodeTTL:              10 * time.Minute,
		TokenTTL:             time.Hour,
		StoreDriver:          app.StoreMongo,
		MongoURI:             mongoURI,
		CentralDB:            centralDB,
		RedisURL:             redisURL,
		MetricsEnabled:       true,
		Env:                  "test",
		LogLevel:             "info",
		LogFormat:            "json",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}

	mail := &mailbox{}
	application, err := app.New(ctx, cfg,
		app.WithLogger(slog.New(slog.DiscardHandler)),
		app.WithNotifier(mail),
	)
	require.NoError(t, err, "service should start")

	srv := httptest.NewServer(application.Handler())

	cleanup := func() {
		srv.Close()
		if err := application.Close(); err != nil {
			t.Logf("failed to close application: %v", err)
		}
	}

	return &authService{BaseURL: srv.URL, Mail: mail, App: application}, cleanup
}

func newAdminClient(baseURL, workspace string) *authsdk.SDKClient {
	client := authsdk.NewSDKClient(baseURL, workspace)
	client.AdminToken = adminToken
	return client
}

// performLogin requests a code for email and exchanges it for a session.
func performLogin(t *testing.T, svc *authService, client *authsdk.SDKClient, ws, email string) *authsdk.Session {
	t.Helper()
	ctx := t.Context()

	_, _, err := client.Register(ctx, authsdk.RegisterRequest{Email: email, Workspace: ws})
	require.NoError(t, err, "register should succeed")

	session, err := client.AuthenticateWithCode(ctx, email, svc.Mail.lastCode(t, email), ws)
	require.NoError(t, err, "login should succeed")
	require.NotNil(t, session)
	return session
}

// assertAPIError checks that err is an API error with the given status.
func assertAPIError(t *testing.T, err error, status int, context string) {
	t.Helper()
	require.Error(t, err, context)
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr, context)
	require.Equal(t, status, apiErr.StatusCode, "%s - unexpected status, got: %s", context, err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
