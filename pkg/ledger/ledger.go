// Package ledger persists the set of object keys that failed to transfer,
// so an interrupted or partially failed mirror run can be retried by
// re-invocation. The file's absence is the canonical "fully synchronized"
// signal: it exists (possibly empty) while a run is pending follow-up and
// is deleted once every recorded key has been cleared.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Ledger is the in-memory pending set backed by a side file. Mutations are
// mutex-guarded so callers may record and clear from concurrent workers.
type Ledger struct {
	path string

	mu      sync.Mutex
	pending map[string]struct{}
}

// Load reads the ledger at path. A missing file yields an empty set and
// creates the file as a durability marker, so a later crash still leaves
// evidence that a run has executed.
func Load(path string) (*Ledger, error) {
	l := &Ledger{
		path:    path,
		pending: make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		marker, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create ledger marker %s: %w", path, err)
		}
		if err := marker.Close(); err != nil {
			return nil, fmt.Errorf("create ledger marker %s: %w", path, err)
		}
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key := scanner.Text()
		if key == "" {
			continue
		}
		l.pending[key] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	return l, nil
}

// Record adds key to the pending set. Recording a key twice is a no-op.
func (l *Ledger) Record(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[key] = struct{}{}
}

// Clear removes key from the pending set after a confirmed successful
// transfer. Clearing a key that was never recorded is fine; first-time
// successes clear unconditionally.
func (l *Ledger) Clear(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, key)
}

// Contains reports whether key is pending.
func (l *Ledger) Contains(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[key]
	return ok
}

// Len returns the number of pending keys.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Keys returns the pending keys sorted.
func (l *Ledger) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.pending))
	for k := range l.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush writes the pending set back to disk: an atomic rewrite (temp file
// plus rename) when non-empty, deletion when empty. Flush errors are fatal
// to the run since resumability cannot be guaranteed without the file.
func (l *Ledger) Flush() error {
	keys := l.Keys()

	if len(keys) == 0 {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove ledger %s: %w", l.path, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, key := range keys {
		if _, err := fmt.Fprintln(w, key); err != nil {
			tmp.Close()
			return fmt.Errorf("write ledger entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}

	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("replace ledger %s: %w", l.path, err)
	}
	return nil
}
