package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/joacominatel/dbdeck/internal/app"
	"github.com/joacominatel/dbdeck/internal/config"
	"github.com/joacominatel/dbdeck/internal/connect"
	"github.com/joacominatel/dbdeck/internal/database"
	"github.com/joacominatel/dbdeck/internal/seed"
	"github.com/joacominatel/dbdeck/internal/tui"
	"github.com/joacominatel/dbdeck/internal/tui/theme"
)

type options struct {
	profile  string
	dsn      string
	schema   bool
	query    string
	seed     string
	table    string
	params   string
	page     int
	pageSize int
	debug    bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := pflag.NewFlagSet("dbdeck", pflag.ContinueOnError)
	fs.StringVarP(&o.profile, "profile", "p", "", "saved connection profile (\"env\" for environment variables)")
	fs.StringVar(&o.dsn, "dsn", "", "connection string (postgresql://, mysql://, sqlserver://)")
	fs.BoolVar(&o.schema, "schema", false, "print the database schema as text and exit")
	fs.StringVarP(&o.query, "query", "q", "", "run SQL, print the result as JSON and exit")
	fs.StringVar(&o.seed, "seed", "", "run a SQL script batch by batch and exit")
	fs.StringVarP(&o.table, "table", "t", "", "print one page of a table as JSON and exit")
	fs.StringVar(&o.params, "params", "", "filters and sorts for -table, e.g. 'filters[age]=>:25&sort[name]=asc'")
	fs.IntVar(&o.page, "page", 1, "page number for -table")
	fs.IntVar(&o.pageSize, "page-size", database.DefaultPageSize, "rows per page for -table")
	fs.BoolVar(&o.debug, "debug", false, "log debug messages")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func (o options) headless() bool {
	return o.schema || o.query != "" || o.seed != "" || o.table != ""
}

// resolveProfile picks the connection: -dsn, then -profile, then the
// environment when a host variable is set, then the configured default.
// Without any of those it falls back to the environment profile, which
// targets the first engine on localhost; connection errors surface on first
// use.
func resolveProfile(o options, cfg *config.Config, envConn config.Connection, engines []database.Engine) (config.Connection, error) {
	if o.dsn != "" {
		return config.ParseDSN(o.dsn)
	}

	switch o.profile {
	case "":
	case config.EnvConnectionName:
		return envConn, nil
	default:
		conn, ok := cfg.Connection(o.profile)
		if !ok {
			return config.Connection{}, fmt.Errorf("unknown profile %q", o.profile)
		}
		return conn, nil
	}

	if len(engines) > 0 {
		return envConn, nil
	}
	if def := config.DefaultConnection(cfg); def != nil {
		return *def, nil
	}
	return envConn, nil
}

func setupLogging(o options) (io.Closer, error) {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)

	// the TUI owns the terminal, so logs go to a file
	if !o.headless() {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(filepath.Join(dir, "dbdeck.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, err
		}
		w, closer = f, f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closer, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	o, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logFile, err := setupLogging(o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	} else {
		defer logFile.Close()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = &config.Config{}
	}
	if !theme.Set(cfg.Preferences.Theme) && cfg.Preferences.Theme != "" {
		slog.Warn("unknown theme, using default", "theme", cfg.Preferences.Theme)
	}

	envConn, engines := config.FromEnv(config.NewEnv())
	profile, err := resolveProfile(o, cfg, envConn, engines)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	service := app.NewService(connect.NewProvider(profile))
	defer func() { _ = service.Disconnect() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if o.headless() {
		if err := runHeadless(ctx, o, service, stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	model := tui.NewModel(service, tui.Options{Config: cfg, Env: &envConn, AutoConnect: true})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		return 1
	}
	return 0
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func runHeadless(ctx context.Context, o options, service *app.Service, out io.Writer) error {
	switch {
	case o.seed != "":
		script, err := os.ReadFile(o.seed)
		if err != nil {
			return fmt.Errorf("read seed script: %w", err)
		}
		if err := seed.WaitForReady(ctx, pingFunc(service.Connect), 30, 2*time.Second); err != nil {
			return err
		}
		conn, err := service.Connection(ctx)
		if err != nil {
			return err
		}
		report := seed.Run(ctx, conn, seed.SplitBatches(string(script)))
		fmt.Fprintf(out, "executed %d/%d batches\n", report.Executed, report.Total)
		for _, f := range report.Failed {
			fmt.Fprintf(out, "batch %d failed: %s\n", f.Index+1, f.Err)
		}
		if !report.OK() {
			return fmt.Errorf("%d batch(es) failed", len(report.Failed))
		}
		return nil

	case o.table != "":
		filters, sorts := database.ParseQuery(o.params)
		page, err := service.BrowseTable(ctx, app.TableRequest{
			Table:    o.table,
			Page:     o.page,
			PageSize: o.pageSize,
			Filters:  filters,
			Sorts:    sorts,
		})
		if page != nil {
			if encErr := writeJSON(out, page); encErr != nil {
				return encErr
			}
		}
		return err

	case o.schema:
		text, err := service.SchemaBriefing(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, text)
		return err

	default:
		run, err := service.ExecuteQuery(ctx, o.query)
		if run != nil {
			if encErr := writeJSON(out, run.QueryResult); encErr != nil {
				return encErr
			}
		}
		return err
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
