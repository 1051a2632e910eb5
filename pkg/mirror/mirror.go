// Package mirror bulk-downloads every publicly readable container of an
// object store to local disk. Each object lands at {root}/{container}/{key}
// with a sibling {key}.metadata file holding its content-type, and every
// failed object is recorded in the retry ledger so a later run can pick it
// up. There is no in-run retry: retries happen by re-invocation.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/blobmirror/blobmirror/internal/progress"
	"github.com/blobmirror/blobmirror/pkg/ledger"
	"github.com/blobmirror/blobmirror/pkg/objstore"
)

// ErrPartialFailure reports a run that completed but left keys in the
// retry ledger. It is distinct from fatal errors: the mirror finished,
// but an operator follow-up (or a scheduled re-run) is required.
var ErrPartialFailure = errors.New("mirror: some objects failed to transfer")

// Options configures one mirror run.
type Options struct {
	// Root is the local mirror directory. Empty means a directory named
	// after the store in the working directory.
	Root string

	Prefix   string
	Excludes []string
}

// Summary reports what one run did.
type Summary struct {
	Succeeded int
	Failed    int

	// Pending is the ledger size after flush: the keys still requiring
	// follow-up, including failures inherited from earlier runs that were
	// not cleared this time.
	Pending int
}

// Mirrorer orchestrates enumeration, transfer, metadata persistence and
// ledger upkeep for one store.
type Mirrorer struct {
	store   objstore.Store
	ledger  *ledger.Ledger
	log     zerolog.Logger
	counter *progress.Counter
}

// New creates a Mirrorer. counter may be nil.
func New(store objstore.Store, led *ledger.Ledger, log zerolog.Logger, counter *progress.Counter) *Mirrorer {
	return &Mirrorer{store: store, ledger: led, log: log, counter: counter}
}

// Run mirrors the store. Container-level enumeration failures are logged
// and skipped; per-object failures are recorded to the ledger and never
// abort the run. The ledger is an outcome record, not an input filter:
// every run re-enumerates the whole store, so a clean prior ledger can
// never cause anything to be skipped.
func (m *Mirrorer) Run(ctx context.Context, opts Options) (Summary, error) {
	root := opts.Root
	if root == "" {
		root = m.store.Name()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create mirror root %s: %w", root, err)
	}

	var summary Summary
	err := objstore.Walk(ctx, m.store, objstore.WalkOptions{
		Prefix:                   opts.Prefix,
		Excludes:                 opts.Excludes,
		ContinueOnContainerError: true,
		Logger:                   m.log,
	}, func(obj objstore.ObjectRef) error {
		key := obj.QualifiedKey()
		if err := m.download(ctx, root, obj); err != nil {
			m.log.Error().Err(err).Str("container", obj.Container).Str("key", obj.Key).
				Msg("object transfer failed, recorded for retry")
			m.ledger.Record(key)
			summary.Failed++
		} else {
			m.ledger.Clear(key)
			summary.Succeeded++
		}
		if m.counter != nil {
			m.counter.Incr()
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	if err := m.ledger.Flush(); err != nil {
		return summary, fmt.Errorf("flush retry ledger: %w", err)
	}
	summary.Pending = m.ledger.Len()

	m.log.Info().Int("succeeded", summary.Succeeded).Int("failed", summary.Failed).
		Int("pending", summary.Pending).Msg("mirror run complete")

	if summary.Pending > 0 {
		return summary, ErrPartialFailure
	}
	return summary, nil
}

// download writes the object's bytes in full before touching metadata,
// then writes the one-line content-type sidecar. A failure at any step
// leaves whatever was written; the key goes to the ledger and the next
// run overwrites it.
func (m *Mirrorer) download(ctx context.Context, root string, obj objstore.ObjectRef) error {
	dest := filepath.Join(root, obj.Container, filepath.FromSlash(obj.Key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dest, err)
	}

	data, err := m.store.FetchBytes(ctx, obj.Container, obj.Key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	contentType, err := objstore.ContentType(ctx, m.store, obj)
	if err != nil {
		return err
	}
	sidecar := dest + ".metadata"
	if err := os.WriteFile(sidecar, []byte("Content-Type: "+contentType+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", sidecar, err)
	}

	m.log.Debug().Str("container", obj.Container).Str("key", obj.Key).
		Int("bytes", len(data)).Msg("object mirrored")
	return nil
}
