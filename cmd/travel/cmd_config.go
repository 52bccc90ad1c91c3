package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"travelapp/internal/config"
)

var configForce bool

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

// configInitCmd writes the effective configuration to disk
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the config file",
	Long: `Writes the effective configuration (defaults, .env, TRAVEL_* variables
and flags) to the config file so it can be edited by hand.

Example:
  travel config init --api-base-url https://planner.example.com`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configPathCmd prints where the config file lives
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configFile())
		return nil
	},
}

func registerConfigCommands() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configFile is --config or the default location.
func configFile() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	// A missing API origin is allowed here.
	err := cfg.Validate()
	if err != nil && !errors.Is(err, config.ErrMissingBaseURL) {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Set api.base_url before signing in.")
	}
	return nil
}
