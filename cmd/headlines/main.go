package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/browser"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

type rootOptions struct {
	configPath string
	dbPath     string
	logLevel   string
	quiet      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "headlines",
		Short:         "Search and read the news from your terminal",
		Long:          "headlines searches a news provider and shows the results grouped by day, month or year, or as a flat list.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to configuration file")
	pf.StringVar(&opts.dbPath, "db", "", "path to database file (overrides config)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error or off (overrides config)")
	root.Flags().BoolVar(&opts.quiet, "quiet", false, "skip startup banner")

	root.AddCommand(
		newSearchCmd(opts),
		newHistoryCmd(opts),
		newConfigCmd(),
		newVersionCmd(),
	)

	cobra.OnFinalize(func() { _ = debuglog.Close() })

	return root
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.dbPath != "" {
		abs, err := filepath.Abs(opts.dbPath)
		if err != nil {
			return nil, fmt.Errorf("resolving --db: %w", err)
		}
		cfg.Database.Path = abs
		cfg.Database.SearchIndex = filepath.Join(filepath.Dir(abs), "history.bleve")
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	return cfg, nil
}

// openHistory opens the store and its search index. The index is optional:
// a failure to open it is logged and history search falls back to listing.
func openHistory(cfg *config.Config) (*storage.Store, *search.BleveEngine, error) {
	store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	engine, err := search.NewBleveEngine(store, cfg.Database.SearchIndex)
	if err != nil {
		debuglog.Warnf("history search disabled: %v", err)
		return store, nil, nil
	}
	return store, engine, nil
}

func runTUI(opts *rootOptions) error {
	if !opts.quiet {
		tui.ShowBanner(Version)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	src, err := feed.NewSource(cfg.Provider)
	if err != nil {
		return err
	}

	store, engine, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := tui.Deps{
		Store:  store,
		Source: src,
		Opener: browser.NewLauncher(cfg.Browser),
	}
	if engine != nil {
		defer engine.Close()
		deps.Searcher = engine
	}

	session, err := store.LoadSession()
	switch {
	case err == nil:
		deps.Session = session
	case !errors.Is(err, storage.ErrNotFound):
		debuglog.Warnf("could not restore session: %v", err)
	}

	debuglog.Infof("starting %s %s with provider %s", config.AppName, Version, src.Name())

	p := tea.NewProgram(tui.NewApp(cfg, deps), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
