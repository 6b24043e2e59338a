// Command workspacectl administers workspaces directly against the store,
// for operators bootstrapping a deployment before any admin token exists.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/qwanyx/qwanyx/internal/auth/app"
	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/internal/auth/store"
	"github.com/qwanyx/qwanyx/pkg/cryptox"
	"github.com/qwanyx/qwanyx/pkg/slogx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	name    string
	summary string
	// offline commands do not open the store.
	offline bool
	run     func(ctx context.Context, env *cmdEnv, args []string) error
}

var commands = []command{
	{name: "create", summary: "create a workspace", run: runCreate},
	{name: "list", summary: "list workspaces", run: runList},
	{name: "activate", summary: "re-enable a workspace", run: runActivate},
	{name: "deactivate", summary: "disable a workspace", run: runDeactivate},
	{name: "promote", summary: "give a user the admin role", run: runPromote},
	{name: "seed", summary: "create workspaces from a YAML file", run: runSeed},
	{name: "hash-token", summary: "hash an operator token for AUTH_ADMIN_TOKEN_HASH", offline: true, run: runHashToken},
}

// cmdEnv carries what every command needs once the store is open.
type cmdEnv struct {
	stdin      io.Reader
	stdout     io.Writer
	store      store.Store
	workspaces *service.WorkspaceService
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stdout)
		return nil
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		printUsage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}

	env := &cmdEnv{stdin: stdin, stdout: stdout}
	if cmd.offline {
		return ignoreHelp(cmd.run(ctx, env, args[1:]))
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	ctx = slogx.WithContext(ctx, slog.New(slog.DiscardHandler))

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	dir := &service.Directory{Store: st, CentralDB: cfg.CentralDB}
	env.store = st
	env.workspaces = &service.WorkspaceService{
		Directory: dir,
		Users:     &service.UserService{Directory: dir},
	}
	return ignoreHelp(cmd.run(ctx, env, args[1:]))
}

// ignoreHelp treats -h on a subcommand as success; pflag already printed
// the defaults.
func ignoreHelp(err error) error {
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: workspacectl <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nThe store is selected with the same environment as the auth service\n(STORE_DRIVER, MONGO_URI, MONGO_CENTRAL_DB, SQLITE_FILE, AUTH_CONFIG_FILE).\n")
}

func newFlagSet(name string, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("workspacectl "+name, pflag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func runCreate(ctx context.Context, env *cmdEnv, args []string) error {
	var in service.NewWorkspace
	fs := newFlagSet("create", env.stdout)
	fs.StringVar(&in.Code, "code", "", "workspace code, also the tenant database name (required)")
	fs.StringVar(&in.Name, "name", "", "display name used in emails")
	fs.StringVar(&in.Domain, "domain", "", "public domain of the workspace site")
	fs.StringVar(&in.AdminEmail, "admin-email", "", "user to create or promote as admin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := env.workspaces.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "created workspace %s\n", ws.Code)
	return nil
}

func runList(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("list", env.stdout)
	all := fs.Bool("all", false, "include deactivated workspaces")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := env.workspaces.List(ctx, !*all)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tDOMAIN\tACTIVE\tCREATED")
	for _, ws := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			ws.Code, ws.Name, ws.Domain, ws.IsActive, ws.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func runActivate(ctx context.Context, env *cmdEnv, args []string) error {
	code, err := singleArg("activate", args)
	if err != nil {
		return err
	}
	if err := env.workspaces.Activate(ctx, code); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "activated workspace %s\n", code)
	return nil
}

func runDeactivate(ctx context.Context, env *cmdEnv, args []string) error {
	code, err := singleArg("deactivate", args)
	if err != nil {
		return err
	}
	if err := env.workspaces.Deactivate(ctx, code); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "deactivated workspace %s\n", code)
	return nil
}

func runPromote(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("promote", env.stdout)
	workspace := fs.String("workspace", "", "workspace code (required)")
	email := fs.String("email", "", "user email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *workspace == "" || *email == "" {
		return errors.New("promote: --workspace and --email are required")
	}

	if err := env.workspaces.PromoteAdmin(ctx, *workspace, *email); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "%s is now admin of %s\n", *email, *workspace)
	return nil
}

func runSeed(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("seed", env.stdout)
	file := fs.StringP("file", "f", "", "YAML seed file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("seed: --file is required")
	}

	seed, err := loadSeed(*file)
	if err != nil {
		return err
	}

	for _, in := range seed.Workspaces {
		created, err := applySeedWorkspace(ctx, env.workspaces, in)
		if err != nil {
			return fmt.Errorf("seed %s: %w", in.Code, err)
		}
		state := "exists"
		if created {
			state = "created"
		}
		fmt.Fprintf(env.stdout, "%-8s %s\n", state, in.Code)
	}
	return nil
}

// runHashToken prints the Argon2id hash of the token given as argument or
// on the first line of stdin. With --generate a fresh token is created and
// printed above its hash.
func runHashToken(_ context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("hash-token", env.stdout)
	generate := fs.Bool("generate", false, "generate a random 256-bit token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	args = fs.Args()

	var token string
	switch {
	case *generate:
		if len(args) > 0 {
			return errors.New("hash-token: --generate takes no argument")
		}
		t, err := cryptox.RandomToken(cryptox.OperatorTokenBytes)
		if err != nil {
			return err
		}
		token = t
		fmt.Fprintf(env.stdout, "token: %s\n", token)
	case len(args) == 0:
		line, err := bufio.NewReader(env.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(line)
	case len(args) == 1:
		token = args[0]
	default:
		return errors.New("hash-token: expected at most one argument")
	}
	if token == "" {
		return errors.New("hash-token: token is empty")
	}

	hash, err := cryptox.HashSecret(token)
	if err != nil {
		return err
	}
	if *generate {
		fmt.Fprintf(env.stdout, "hash:  %s\n", hash)
		return nil
	}
	fmt.Fprintln(env.stdout, hash)
	return nil
}

func singleArg(name string, args []string) (string, error) {
	if len(args) != 1 || strings.HasPrefix(args[0], "-") {
		return "", fmt.Errorf("%s: expected exactly one workspace code", name)
	}
	return args[0], nil
}
