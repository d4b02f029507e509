package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/plsync/plsync/internal/config"
	"github.com/plsync/plsync/internal/scanner"
	"github.com/plsync/plsync/internal/store"
	"github.com/plsync/plsync/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Cross-check the store against the files on disk",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runVerify()
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg.Log.Level)

	st := store.Load(filepath.Join(cfg.Download.Dir, store.Filename), logger)
	state, err := scanner.Scan(cfg.Download.Dir)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	report, err := verify.Run(st, state, cfg.Download.Dir, logger)
	if err != nil {
		return err
	}

	if report.Clean() {
		fmt.Println("ok: store and disk agree")
		return nil
	}

	for _, issue := range report.Issues {
		fmt.Printf("%-8s %s  %s", issue.Kind, issue.ItemID, issue.Path)
		if issue.Detail != "" {
			fmt.Printf("  (%s)", issue.Detail)
		}
		fmt.Println()
	}
	return fmt.Errorf("%d issues found", len(report.Issues))
}
