package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "plsync",
	Short: "Incremental playlist mirror",
	Long: `plsync - incremental playlist mirror

Mirrors a playlist to a local directory: fetches metadata, downloads
the audio and video artifacts that are missing, and keeps a metadata
store alongside them. Repeated runs only download what changed.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to config file")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("plsync {{.Version}}\n")
}
