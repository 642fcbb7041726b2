/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/TheGoldLab/mxgram/pkg/config"
	"github.com/TheGoldLab/mxgram/pkg/di"
	"github.com/spf13/cobra"
)

var (
	// container is set by SetContainer or built from the config file before
	// each command runs
	container      *di.Container
	ownedContainer bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mxgram",
	Short: "mxgram - gram value codec and datagram relay",
	Long: `mxgram encodes structured values (numeric, character and logical
matrices, lists, records and callables) into compact little-endian grams,
decodes them back, and carries them between processes as datagrams over
UDP, NATS or Redis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container != nil && !ownedContainer {
			return nil
		}
		if container != nil {
			// left over from a run whose command failed before the post-run hook
			_ = container.Close()
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		container = di.NewContainer(cfg)
		ownedContainer = true
		container.SetLogger(log.New(cmd.ErrOrStderr(), "", log.LstdFlags))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return nil
		}
		err := container.Close()
		if ownedContainer {
			container = nil
			ownedContainer = false
		}
		return err
	},
}

// SetContainer injects the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
	ownedContainer = false
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if container != nil {
		_ = container.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level (debug, info, warn, error)")
}

// loadConfig reads the config file named by --config, falling back to the
// default location and then to built-in defaults when no file exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	switch {
	case config.ConfigExists(configPath):
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case explicit:
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}
