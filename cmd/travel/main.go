package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"travelapp/internal/config"
	"travelapp/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	apiBaseURL string
	timeout    time.Duration

	// Resolved configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "travel",
	Short: "TravelApp - plan trips and manage places from the terminal",
	Long: `TravelApp is a terminal client for the trip recommendation API.

Describe a trip in your own words and get a route, stops along the way and
shopping suggestions for the ride home. Admin accounts also manage the
saved places (markers) the planner draws from.

Run without arguments to start the interactive interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}

		path := configFile()
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if apiBaseURL != "" {
			loaded.API.BaseURL = apiBaseURL
		}
		if timeout > 0 {
			loaded.API.Timeout = timeout.String()
		}
		cfg = loaded

		// The interactive UI owns the terminal, so it logs to a file.
		opts := logging.Options{Level: cfg.Logging.Level, Verbose: verbose, Console: true}
		if cmd == cmd.Root() {
			opts.File = cfg.LogFile()
			opts.Console = false
		}
		logger, err = logging.New(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Install(logger)
		logging.For(logging.CategoryBoot).Debug("configuration loaded",
			zap.String("path", path),
			zap.String("base_url", cfg.API.BaseURL),
			zap.String("storage", string(cfg.Storage.Backend)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runInteractive,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.travelapp/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-base-url", "", "API origin (or set TRAVEL_API_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (default from config, 30s)")

	registerAuthCommands()
	registerMarkerCommands()
	registerPlanCommands()
	registerConfigCommands()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
