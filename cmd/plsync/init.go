package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plsync/plsync/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runInit()
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit() error {
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
	}

	if err := config.WriteDefault(configPath); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", configPath)
	fmt.Println("Set playlist.id, provider.api_key and download.dir before running 'plsync sync'.")
	return nil
}
