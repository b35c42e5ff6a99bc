package main

import (
	"fmt"
	"os"

	"github.com/rvald/chatgui/internal/config"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	// Persistent flags
	cfgFile     string
	cfgStateDir string
	cfgLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "chatgui",
	Short: "Clickable chat interfaces",
	Long:  `Serves clickable chat menus, forms and pages to players over websocket and Discord.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv("CHATGUI_CONFIG"), "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&cfgStateDir, "state-dir", "", "Directory for logs and state (default $XDG_STATE_HOME/chatgui)")
	rootCmd.PersistentFlags().StringVar(&cfgLogLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig layers flags over the config file, environment and defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if cfgStateDir != "" {
		cfg.StateDir = cfgStateDir
	}
	if cfgLogLevel != "" {
		cfg.Log.Level = cfgLogLevel
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
