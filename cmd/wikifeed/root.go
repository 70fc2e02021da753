package main

import (
	"fmt"
	"net/http"

	"github.com/pevans/wikifeed/acquisition"
	"github.com/pevans/wikifeed/config"
	"github.com/pevans/wikifeed/discovery"
	"github.com/pevans/wikifeed/history"
	"github.com/pevans/wikifeed/logging"
	"github.com/pevans/wikifeed/wiki"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds the state shared by every subcommand once the root command has
// loaded configuration.
type app struct {
	configPath string
	logLevel   string

	config *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "wikifeed",
		Short: "Endless feed of illustrated Wikipedia articles",
		Long: "wikifeed serves a stream of Wikipedia articles that carry an image, " +
			"sourced by feed mode: random, featured, topic searches or nearby pages.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (default ~/.wikifeed/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(
		newNextCmd(a),
		newExtractCmd(a),
		newServeCmd(a),
		newModesCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wikifeed %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// load reads .env files, the config file and the environment, then builds
// the logger.
func (a *app) load() error {
	if err := config.LoadEnvFiles(); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}

	a.config = cfg
	a.logger = logger
	return nil
}

// newOrchestrator wires the wiki client, title buffer and orchestrator from
// the loaded config.
func (a *app) newOrchestrator() (*acquisition.Orchestrator, error) {
	registry, err := a.config.Registry()
	if err != nil {
		return nil, err
	}

	client := wiki.NewClient(a.config.API.BaseURL,
		wiki.WithHTTPClient(&http.Client{Timeout: a.config.API.Timeout}),
		wiki.WithUserAgent(a.config.API.UserAgent),
		wiki.WithRateLimit(a.config.API.RateLimit, a.config.API.Burst),
	)

	buffer := discovery.NewBuffer(client, registry, a.config.DiscoveryOptions(),
		discovery.WithLogger(a.logger.Named("discovery")),
	)

	return acquisition.New(client, buffer, registry,
		acquisition.WithLogger(a.logger.Named("acquisition")),
		acquisition.WithSections(a.config.Acquisition.IncludeSections),
	), nil
}

// openHistory opens the history store, or returns nil when no DSN is
// configured.
func (a *app) openHistory() (*history.Store, error) {
	if a.config.Storage.HistoryDSN == "" {
		return nil, nil
	}

	store, err := history.NewStore(a.config.Storage.HistoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return store, nil
}

// requireHistory is openHistory for commands that cannot run without one.
func (a *app) requireHistory() (*history.Store, error) {
	store, err := a.openHistory()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("history is disabled: set storage.history_dsn or WIKIFEED_HISTORY_DSN")
	}
	return store, nil
}
