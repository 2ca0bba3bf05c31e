package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/citydir"
	cityhttp "github.com/fwojciec/citydir/http"
	cityslog "github.com/fwojciec/citydir/slog"
	"github.com/fwojciec/citydir/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run(); the --db flag overrides it.
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Entries is the service commands run against, for end-to-end testing.
	Entries citydir.EntryService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Now:    time.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("citydir"),
		kong.Description("Municipal directory of businesses, associations and public services."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'citydir --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd = kongCtx.Command()

	// Requests are logged when serving or when asked to; other commands
	// only surface warnings.
	level := slog.LevelWarn
	if cli.Verbose || cmd == "serve" {
		level = slog.LevelInfo
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if cli.Server != "" && cmd != "serve" {
		m.Entries = cityhttp.NewEntryClient(cli.Server, cityhttp.WithTimeout(cli.Timeout))
	} else {
		if cli.DB != "" {
			m.DBPath = cli.DB
		}
		m.DB = sqlite.NewDB(m.DBPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set CITYDIR_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
		}
		defer m.Close()

		store := sqlite.NewEntryService(m.DB)
		if cmd == "serve" {
			store.MaxPageSize = cli.Serve.MaxPageSize
		}
		m.Entries = store
		deps.DB = m.DB
	}

	deps.Entries = cityslog.NewLoggingEntryService(m.Entries, deps.Logger)
	fetcher := cityhttp.NewFetcher(cli.Timeout)
	fetcher.Logger = deps.Logger
	deps.Fetcher = fetcher

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "citydir.db"
	}
	dir := filepath.Join(home, ".citydir")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "citydir.db")
}
