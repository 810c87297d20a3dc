package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igproxy/pkg/config"
	"igproxy/pkg/ui"
)

var forceInit bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igproxy configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGPROXY_*, PORT)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file containing every option at its default value.

The file is created as 'igproxy.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and check it for invalid values.

This command checks:
  - YAML syntax
  - Value ranges
  - Backend names and storage paths
  - Cron schedules of the sweepers`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)

	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	p := ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet)

	configPath := configFile
	if configPath == "" {
		configPath = "igproxy.yaml"
	}

	if _, err := os.Stat(configPath); err == nil && !forceInit {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	p.Success("Configuration file created: " + configPath)
	p.Info("Next", "edit the file, then run 'igproxy config validate'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	p := ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet)
	source := configFile
	if source == "" {
		source = "(auto-detected or none)"
	}
	p.Info("Configuration file", source)
	p.Raw(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	p := ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	if !cfg.RateLimit.Enabled {
		p.Warning("Rate limiting is disabled")
	}
	if !cfg.Cache.Enabled {
		p.Warning("Response cache is disabled")
	}

	p.Success("Configuration is valid")
	p.Panel("Summary", settingsSummary(cfg))
	return nil
}
