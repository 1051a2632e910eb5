// Package reconcile compares two store inventories and reports
// divergences. The comparison is deliberately one-directional: every
// source object must exist on the target with the same content-type, but
// objects present only on the target are never flagged.
package reconcile

import (
	"strings"

	"github.com/blobmirror/blobmirror/pkg/inventory"
)

// Kind classifies a divergence.
type Kind string

const (
	KindMissingOnTarget     Kind = "missing_on_target"
	KindContentTypeMismatch Kind = "content_type_mismatch"
)

// DiffEntry is one reported divergence. Key is the normalized key used
// for the target lookup.
type DiffEntry struct {
	Kind       Kind
	Key        string
	SourceType string
	TargetType string
}

// Options configures a comparison.
type Options struct {
	// VirtualRoot is stripped from source keys before the target lookup.
	// Azure's $root container holds account-level blobs that map to the
	// top of a flat bucket.
	VirtualRoot string
}

// Report is the authoritative output of one comparison. Entries are
// ordered by source key; no divergence is ever dropped.
type Report struct {
	Entries  []DiffEntry
	Compared int
}

// InSync reports whether every comparison passed.
func (r Report) InSync() bool {
	return len(r.Entries) == 0
}

// Missing returns the missing-on-target entries.
func (r Report) Missing() []DiffEntry {
	return r.byKind(KindMissingOnTarget)
}

// Mismatched returns the content-type-mismatch entries.
func (r Report) Mismatched() []DiffEntry {
	return r.byKind(KindContentTypeMismatch)
}

func (r Report) byKind(kind Kind) []DiffEntry {
	var entries []DiffEntry
	for _, e := range r.Entries {
		if e.Kind == kind {
			entries = append(entries, e)
		}
	}
	return entries
}

// Compare checks each source object against the target inventory.
// Content-types compare as exact case-sensitive strings. Iteration runs
// in sorted key order so logs and reports are deterministic; the diff set
// itself does not depend on order.
func Compare(source, target inventory.Inventory, opts Options) Report {
	report := Report{Entries: []DiffEntry{}}

	for _, key := range source.Keys() {
		sourceType := source[key]
		normalized := key
		if opts.VirtualRoot != "" {
			normalized = strings.TrimPrefix(key, opts.VirtualRoot)
		}
		report.Compared++

		targetType, ok := target[normalized]
		if !ok {
			report.Entries = append(report.Entries, DiffEntry{
				Kind: KindMissingOnTarget,
				Key:  normalized,
			})
			continue
		}
		if targetType != sourceType {
			report.Entries = append(report.Entries, DiffEntry{
				Kind:       KindContentTypeMismatch,
				Key:        normalized,
				SourceType: sourceType,
				TargetType: targetType,
			})
		}
	}

	return report
}
