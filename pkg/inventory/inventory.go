// Package inventory builds point-in-time inventories of an object store:
// a mapping from fully-qualified object key to content-type. Inventories
// are rebuilt fresh every run and are never a resume input; their only
// consumers are the reconciler and the listing artifacts.
package inventory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blobmirror/blobmirror/internal/progress"
	"github.com/blobmirror/blobmirror/pkg/objstore"
)

// Inventory maps fully-qualified object keys to content-types.
type Inventory map[string]string

// Keys returns the inventory keys sorted.
func (inv Inventory) Keys() []string {
	keys := make([]string, 0, len(inv))
	for k := range inv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteListing writes the inventory as sorted "{key}: {content-type}"
// lines. The listing is a debugging artifact, produced unconditionally.
func (inv Inventory) WriteListing(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create listing %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, key := range inv.Keys() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", key, inv[key]); err != nil {
			f.Close()
			return fmt.Errorf("write listing %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write listing %s: %w", path, err)
	}
	return f.Close()
}

// BuildOptions configures one inventory build.
type BuildOptions struct {
	Prefix   string
	Excludes []string

	// Concurrency bounds parallel content-type fetches. Values below one
	// mean sequential.
	Concurrency int
}

// Builder enumerates one store into an Inventory.
type Builder struct {
	store   objstore.Store
	log     zerolog.Logger
	counter *progress.Counter
}

// NewBuilder creates a Builder. counter may be nil.
func NewBuilder(store objstore.Store, log zerolog.Logger, counter *progress.Counter) *Builder {
	return &Builder{store: store, log: log, counter: counter}
}

// Build traverses every eligible container completely and resolves every
// object's content-type. Unlike the mirror run, any enumeration or fetch
// failure is fatal: a partial inventory would later read as a wall of
// false "missing" diagnostics.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (Inventory, error) {
	var refs []objstore.ObjectRef
	err := objstore.Walk(ctx, b.store, objstore.WalkOptions{
		Prefix:   opts.Prefix,
		Excludes: opts.Excludes,
		Logger:   b.log,
	}, func(obj objstore.ObjectRef) error {
		refs = append(refs, obj)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", b.store.Name(), err)
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	type result struct {
		key         string
		contentType string
		err         error
	}
	results := make([]result, len(refs))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(idx int, ref objstore.ObjectRef) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			ct, err := objstore.ContentType(ctx, b.store, ref)
			results[idx] = result{key: ref.QualifiedKey(), contentType: ct, err: err}
			if b.counter != nil {
				b.counter.Incr()
			}
		}(i, ref)
	}
	wg.Wait()

	inv := make(Inventory, len(refs))
	for _, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("resolve content type of %s: %w", r.key, r.err)
		}
		inv[r.key] = r.contentType
	}

	b.log.Info().Str("store", b.store.Name()).Int("objects", len(inv)).
		Msg("inventory complete")
	return inv, nil
}
