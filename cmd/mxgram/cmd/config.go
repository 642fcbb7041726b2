/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/TheGoldLab/mxgram/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd groups the configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the mxgram configuration file",
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Bootstrap a configuration file with default settings and a freshly
generated API key.

Example:
  mxgram config init --data-dir ./grams`,
	Args: cobra.NoArgs,
	// config init must work before any config file exists
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Configuration already exists at %s\n", configPath)
			cmd.Println("Use --force to overwrite")
			return nil
		}

		cfg, err := config.BootstrapConfig(configPath, dataDir)
		if err != nil {
			return err
		}

		cmd.Printf("Configuration written to %s\n", configPath)
		cmd.Printf("Transport: %s %s -> %s\n", cfg.Transport.Kind, cfg.Transport.LocalAddr, cfg.Transport.RemoteAddr)
		cmd.Printf("API key: %s\n", cfg.API.APIKey)
		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *container.Config()
		if reveal, _ := cmd.Flags().GetBool("reveal"); !reveal && cfg.API.APIKey != "" && cfg.API.APIKey != "auto" {
			cfg.API.APIKey = "********"
		}

		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		cmd.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().String("data-dir", "", "Archive data directory (default: ./data)")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	configShowCmd.Flags().Bool("reveal", false, "Print the API key instead of masking it")
}
