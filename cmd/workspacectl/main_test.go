package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qwanyx/qwanyx/pkg/cryptox"
)

// useSQLite points the shared configuration at a fresh SQLite file.
func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_FILE", filepath.Join(t.TempDir(), "ctl.db"))
	t.Setenv("AUTH_CONFIG_FILE", "")
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestCreateListDeactivate(t *testing.T) {
	useSQLite(t)

	out, err := runCmd(t, "", "create", "--code", "Acme", "--name", "Acme Corp", "--admin-email", "boss@acme.test")
	require.NoError(t, err)
	require.Contains(t, out, "created workspace acme")

	_, err = runCmd(t, "", "create", "--code", "acme")
	require.Error(t, err)

	out, err = runCmd(t, "", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Acme Corp")

	_, err = runCmd(t, "", "deactivate", "acme")
	require.NoError(t, err)

	out, err = runCmd(t, "", "list")
	require.NoError(t, err)
	require.NotContains(t, out, "Acme Corp")

	out, err = runCmd(t, "", "list", "--all")
	require.NoError(t, err)
	require.Contains(t, out, "false")

	_, err = runCmd(t, "", "activate", "acme")
	require.NoError(t, err)

	_, err = runCmd(t, "", "deactivate", "missing")
	require.Error(t, err)
}

func TestSeedIsRepeatable(t *testing.T) {
	useSQLite(t)

	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
workspaces:
  - code: acme
    name: Acme Corp
    admin_email: boss@acme.test
  - code: globex
    name: Globex
`), 0o600))

	out, err := runCmd(t, "", "seed", "-f", seed)
	require.NoError(t, err)
	require.Contains(t, out, "created  acme")
	require.Contains(t, out, "created  globex")

	out, err = runCmd(t, "", "seed", "--file", seed)
	require.NoError(t, err)
	require.Contains(t, out, "exists   acme")
}

func TestSeedRejectsEmptyFile(t *testing.T) {
	useSQLite(t)

	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("workspaces: []\n"), 0o600))

	_, err := runCmd(t, "", "seed", "-f", seed)
	require.ErrorContains(t, err, "declares no workspaces")
}

func TestPromote(t *testing.T) {
	useSQLite(t)

	_, err := runCmd(t, "", "create", "--code", "acme")
	require.NoError(t, err)

	out, err := runCmd(t, "", "promote", "--workspace", "acme", "--email", "ada@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "ada@example.com is now admin of acme")

	_, err = runCmd(t, "", "promote", "--workspace", "acme")
	require.Error(t, err)
}

func TestHashToken(t *testing.T) {
	out, err := runCmd(t, "", "hash-token", "s3cret")
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifySecret("s3cret", strings.TrimSpace(out)))

	out, err = runCmd(t, "from-stdin\n", "hash-token")
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifySecret("from-stdin", strings.TrimSpace(out)))

	_, err = runCmd(t, "", "hash-token")
	require.Error(t, err)
}

func TestHashTokenGenerate(t *testing.T) {
	out, err := runCmd(t, "", "hash-token", "--generate")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	token := strings.TrimSpace(strings.TrimPrefix(lines[0], "token:"))
	hash := strings.TrimSpace(strings.TrimPrefix(lines[1], "hash:"))
	require.Len(t, token, 43)
	require.NoError(t, cryptox.VerifySecret(token, hash))
}

func TestUnknownCommand(t *testing.T) {
	out, err := runCmd(t, "", "explode")
	require.Error(t, err)
	require.Contains(t, out, "Commands:")

	out, err = runCmd(t, "")
	require.NoError(t, err)
	require.Contains(t, out, "hash-token")
}
