// Package cli implements the voicenote command line. Without a subcommand
// it starts the terminal UI.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/credential"
	"github.com/nhle/voicenote/internal/logging"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
	"github.com/nhle/voicenote/internal/store"
)

// Options replace process-wide resources, for tests.
type Options struct {
	// Keyring replaces the OS keyring.
	Keyring keyring.Keyring

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// annotationOffline marks commands that work without a token.
const annotationOffline = "offline"

var offline = map[string]string{annotationOffline: "true"}

// env is what a command runs against. It is filled in by the root
// command's pre-run hook.
type env struct {
	opts Options

	configPath  string
	format      string
	verbose     bool
	showMetrics bool

	cfg      *model.AppConfig
	logger   *zap.Logger
	creds    *credential.Store
	client   *api.Client
	store    *store.SQLiteStore
	cache    *query.Cache
	svc      *service.Service
	registry *prometheus.Registry

	closers []func()
}

// Run executes args and releases everything the command opened.
func Run(ctx context.Context, opts Options, args []string) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	e := &env{opts: opts}
	defer e.close()

	root := e.rootCmd()
	root.SetArgs(args)
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	return root.ExecuteContext(ctx)
}

func (e *env) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "voicenote",
		Short: "Voice notes, meals and todos from the terminal",
		Long: `voicenote records or uploads audio, lets the backend transcribe and
file it, and browses the resulting notes, todos and meal log.

Run without a command to open the terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if e.showMetrics {
				return e.writeMetrics(cmd.ErrOrStderr())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&e.configPath, "config", "c", "", "Config file (default: ~/.config/voicenote/config.yaml)")
	pf.StringVarP(&e.format, "format", "f", "text", "Output format: text, json or yaml")
	pf.BoolVarP(&e.verbose, "verbose", "v", false, "Log requests to stderr")
	pf.BoolVar(&e.showMetrics, "metrics", false, "Print query cache metrics to stderr when done")

	root.AddCommand(
		e.notesCmd(),
		e.searchCmd(),
		e.tagsCmd(),
		e.foldersCmd(),
		e.transcribeCmd(),
		e.recordCmd(),
		e.watchCmd(),
		e.todosCmd(),
		e.mealsCmd(),
		e.feedbackCmd(),
		e.settingsCmd(),
		e.askCmd(),
		e.historyCmd(),
		e.summarizeCmd(),
		e.digestsCmd(),
		e.recordingsCmd(),
		e.loginCmd(),
		e.logoutCmd(),
	)
	return root
}

// setup loads config and builds the client stack. The TUI logs to a file;
// every other command logs warnings to stderr, or everything with -v.
func (e *env) setup(cmd *cobra.Command) error {
	if err := checkFormat(e.format); err != nil {
		return err
	}

	path := e.configPath
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return err
	}
	e.cfg = cfg

	if cmd.Root() == cmd {
		logger, closeLog, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
		if err != nil {
			return err
		}
		e.logger = logger
		e.closers = append(e.closers, closeLog)
	} else {
		level := zapcore.WarnLevel
		if e.verbose {
			level = zapcore.DebugLevel
		}
		e.logger = logging.NewWriter(cmd.ErrOrStderr(), level)
		e.closers = append(e.closers, func() { _ = e.logger.Sync() })
	}

	if e.opts.Keyring != nil {
		e.creds = credential.NewStore(e.opts.Keyring)
	} else {
		e.creds, err = credential.Open(filepath.Dir(path))
		if err != nil {
			return err
		}
	}

	e.client = api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
	}, e.creds.Token, api.WithLogger(e.logger))

	cacheOpts := []query.CacheOption{
		query.WithLogger(e.logger),
		query.WithRetry(cfg.Query.Retry),
		query.WithGCTime(cfg.Query.GCTime()),
	}
	e.registry = prometheus.NewRegistry()
	cacheOpts = append(cacheOpts, query.WithRegisterer(e.registry))

	svcOpts := []service.Option{
		service.WithLogger(e.logger),
		service.WithStaleTime(cfg.Query.StaleTime()),
		service.WithPageSize(cfg.Display.PageSize),
	}
	if cfg.Cache.Persist {
		if err := os.MkdirAll(filepath.Dir(cfg.Cache.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
		s, err := store.NewSQLiteStore(cfg.Cache.DBPath)
		if err != nil {
			return err
		}
		e.store = s
		e.closers = append(e.closers, func() { _ = s.Close() })
		cacheOpts = append(cacheOpts, query.WithPersister(s.Persister()))
		svcOpts = append(svcOpts, service.WithRecordings(s))
	}

	e.cache = query.New(cacheOpts...)
	e.closers = append(e.closers, e.cache.Close)
	e.svc = service.New(e.client, e.cache, svcOpts...)

	e.logger.Debug("configured",
		zap.String("config", path),
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("persist", cfg.Cache.Persist),
	)

	if cmd.Root() != cmd && cmd.Annotations[annotationOffline] == "" {
		return e.requireSignIn(cmd.Context())
	}
	return nil
}

// close runs the closers in reverse order.
func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// requireSignIn fails early when no token is available.
func (e *env) requireSignIn(ctx context.Context) error {
	if !e.creds.SignedIn(ctx) {
		return fmt.Errorf("not signed in: run `voicenote login` or set %s", credential.TokenEnv)
	}
	return nil
}
