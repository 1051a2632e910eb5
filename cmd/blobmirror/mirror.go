package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blobmirror/blobmirror/internal/config"
	"github.com/blobmirror/blobmirror/internal/logging"
	"github.com/blobmirror/blobmirror/internal/progress"
	"github.com/blobmirror/blobmirror/pkg/ledger"
	"github.com/blobmirror/blobmirror/pkg/mirror"
	"github.com/blobmirror/blobmirror/pkg/objstore"
)

var (
	mirrorRoot     string
	mirrorPrefix   string
	mirrorExcludes []string
	mirrorLedger   string
)

func newMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Download every publicly readable container to local disk",
		Long: `mirror enumerates all containers whose public access level is
container-level read and downloads each object to {root}/{container}/{key},
writing a sibling .metadata file with the object's content-type. Failed
objects are recorded in a retry ledger; re-running the command retries them
as part of a full re-scan.`,
		RunE: runMirror,
	}

	cmd.Flags().StringVar(&mirrorRoot, "root", "", "Local mirror directory (default: directory named after the account)")
	cmd.Flags().StringVar(&mirrorPrefix, "prefix", "", "Only mirror objects whose key starts with this prefix")
	cmd.Flags().StringSliceVar(&mirrorExcludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	cmd.Flags().StringVar(&mirrorLedger, "ledger", "", "Retry ledger path (default: {account}_download_retry.txt)")

	return cmd
}

func runMirror(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyMirrorFlags(cfg)
	if err := cfg.ValidateMirror(); err != nil {
		return err
	}

	log := logging.Setup(cfg.Log.Level, cfg.Log.Quiet, os.Stderr)

	store, err := objstore.NewAzureStore(cfg.Azure.ConnectionString, cfg.Azure.AccountName)
	if err != nil {
		return err
	}

	ledgerPath := cfg.Mirror.LedgerPath
	if ledgerPath == "" {
		ledgerPath = fmt.Sprintf("%s_download_retry.txt", cfg.Azure.AccountName)
	}
	led, err := ledger.Load(ledgerPath)
	if err != nil {
		return err
	}
	if led.Len() > 0 {
		log.Info().Int("pending", led.Len()).Str("ledger", ledgerPath).
			Msg("resuming after a partially failed run")
	}

	counter := progress.NewCounter("mirror", progress.DefaultInterval, os.Stdout)
	m := mirror.New(store, led, log, counter)
	summary, err := m.Run(cmd.Context(), mirror.Options{
		Root:     cfg.Mirror.Root,
		Prefix:   cfg.Mirror.Prefix,
		Excludes: cfg.Mirror.Excludes,
	})
	counter.Finish()

	if errors.Is(err, mirror.ErrPartialFailure) {
		fmt.Printf("Mirror finished with %d objects pending retry; see %s\n",
			summary.Pending, ledgerPath)
		return err
	}
	if err != nil {
		return err
	}

	fmt.Printf("Mirror finished: %d objects downloaded, fully synchronized\n", summary.Succeeded)
	return nil
}

func applyMirrorFlags(cfg *config.Config) {
	if mirrorRoot != "" {
		cfg.Mirror.Root = mirrorRoot
	}
	if mirrorPrefix != "" {
		cfg.Mirror.Prefix = mirrorPrefix
	}
	if len(mirrorExcludes) > 0 {
		cfg.Mirror.Excludes = mirrorExcludes
	}
	if mirrorLedger != "" {
		cfg.Mirror.LedgerPath = mirrorLedger
	}
}
