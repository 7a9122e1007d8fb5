package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediawatch",
		Short: "Live media server dashboard bot",
		Long: "MediaWatch keeps a live dashboard of your Jellyfin or Plex server in a\n" +
			"Telegram channel: active streams, library statistics, downloads, and uptime.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/mediawatch.yaml", "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBotCmd(),
		newStatusCmd(),
		newRefreshCmd(),
		newInitCmd(),
		newConfigCmd(),
		newMCPServeCmd(),
	)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("MediaWatch v%s\n", version)
		},
	}
}
