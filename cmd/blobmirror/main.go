package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blobmirror/blobmirror/pkg/mirror"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes. Partial outcomes are distinct from fatal errors so
// schedulers can tell "re-run against the ledger" from "fix the setup".
const (
	ExitSuccess        = 0
	ExitError          = 1
	ExitPartialFailure = 3
	ExitOutOfSync      = 4
)

var errOutOfSync = errors.New("stores are out of sync")

var cfgFile string

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:   "blobmirror",
		Short: "Mirror and reconcile object-storage accounts",
		Long: `blobmirror bulk-downloads every publicly readable container of a blob
store to local disk with resumable retry bookkeeping, and reconciles the
inventories of two stores, reporting missing objects and content-type
mismatches.`,
		Version:       fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	rootCmd.AddCommand(newMirrorCmd(), newReconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case errors.Is(err, mirror.ErrPartialFailure):
			return ExitPartialFailure
		case errors.Is(err, errOutOfSync):
			return ExitOutOfSync
		default:
			return ExitError
		}
	}
	return ExitSuccess
}
