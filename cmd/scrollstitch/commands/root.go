package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/ScrollStitch/internal/config"
	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "scrollstitch",
		Short: "ScrollStitch - Capture a whole scrolling window as one image",
		Long: `ScrollStitch scrolls a window from top to bottom, captures each page and
stitches the captures into a single tall image by finding where
consecutive pages overlap.

Features:
  • Select the target window by id, title or class via X11
  • Scroll with XTEST or robotgo key events
  • Stop automatically when the content stops moving
  • Stitch existing screenshots offline
  • Save PNG or JPEG into a dated output directory
  • REST and WebSocket API for remote captures`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/scrollstitch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig loads the config file, applies flag overrides and sets up logging
func loadConfig(cmd *cobra.Command) (*config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	v := configMgr.GetViper()
	for key, flag := range map[string]string{
		"log_level":   "log-level",
		"server_port": "port",
	} {
		if f := cmd.Flag(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind --%s: %w", flag, err)
			}
		}
	}
	if err := configMgr.Reload(); err != nil {
		return nil, err
	}

	logger.Init(configMgr.Get().LogLevel, true)
	return configMgr, nil
}
