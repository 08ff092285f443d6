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

	"github.com/alecthomas/kong"
	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/broadcast"
	"github.com/fwojciec/muffle/htmltomarkdown"
	mufflehttp "github.com/fwojciec/muffle/http"
	"github.com/fwojciec/muffle/rod"
	"github.com/fwojciec/muffle/site"
	muffleslog "github.com/fwojciec/muffle/slog"
	"github.com/fwojciec/muffle/sqlite"
	"github.com/fwojciec/muffle/stats"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Overrides the config when set before calling Run().
	DBPath string

	// Config file path. Overrides MUFFLE_CONFIG when set before calling Run().
	ConfigPath string

	// Input for filter -. Defaults to os.Stdin.
	Stdin io.Reader

	// SQLite database backing Storage.
	DB *sqlite.DB

	// Storage for end-to-end testing.
	Storage muffle.Storage
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Stdin: os.Stdin}
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
		Stdin:  m.Stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("muffle"),
		kong.Description("Hide posts, comments and videos that mention words you never want to read about."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'muffle --help' to see available commands")
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

	configPath := m.ConfigPath
	if configPath == "" {
		configPath = cli.Config
	}
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if m.DBPath != "" {
		cfg.DB = m.DBPath
	}
	deps.Config = cfg
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	if err := os.MkdirAll(filepath.Dir(cfg.DB), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	m.DB = sqlite.NewDB(cfg.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set MUFFLE_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cfg.DB, err)
	}
	defer m.Close()

	m.Storage = muffleslog.NewLoggingStorage(sqlite.NewStorage(m.DB), deps.Logger)
	deps.Storage = m.Storage
	deps.Stats = stats.NewRecorder(deps.Storage)
	defer deps.Stats.Close(context.WithoutCancel(ctx))

	switch kongCtx.Command() {
	case "watch <url>":
		headless := cfg.Headless || cli.Watch.Headless
		manager, err := rod.NewBrowserManager(rod.WithHeadless(headless), rod.WithMaxPages(0))
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer manager.Close()
		deps.Browser = manager

		hub := broadcast.NewHub()
		defer hub.Close()
		deps.Hub = hub

	case "filter <source>":
		var fetcher muffle.Fetcher = mufflehttp.NewRetryFetcher(mufflehttp.NewFetcher(), nil, deps.Logger)
		if cli.Filter.Browser {
			rodFetcher, err := rod.NewFetcher()
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
				return fmt.Errorf("failed to start browser: %w", err)
			}
			fetcher = rodFetcher
		}
		fetcher = muffleslog.NewLoggingFetcher(fetcher, site.NewDefaultRegistry(), deps.Logger)
		defer fetcher.Close()
		deps.Fetcher = fetcher
		deps.Converter = htmltomarkdown.NewConverter()
	}

	return kongCtx.Run(deps)
}
