package objstore

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// WalkOptions configures a Walk over a store.
type WalkOptions struct {
	// Prefix filters object keys within each container.
	Prefix string

	// Excludes are doublestar patterns matched against object keys.
	// Matching objects are silently skipped.
	Excludes []string

	// ContinueOnContainerError makes a failed container enumeration a
	// logged skip instead of a fatal error. The mirror run wants this;
	// inventory building must not, since a partial traversal would turn
	// into false missing-object diagnostics downstream.
	ContinueOnContainerError bool

	Logger zerolog.Logger
}

// Walk enumerates every object in every eligible container of the store
// and invokes fn per object. Containers whose public access level is not
// container-level read are skipped and logged; that is policy, not an
// error. A visitor error always aborts the walk.
func Walk(ctx context.Context, store Store, opts WalkOptions, fn ObjectFunc) error {
	if err := validatePatterns(opts.Excludes); err != nil {
		return err
	}

	containers, err := store.ListContainers(ctx)
	if err != nil {
		return &ConnectionError{Store: store.Name(), Op: "list containers", Err: err}
	}
	opts.Logger.Info().Str("store", store.Name()).Int("containers", len(containers)).
		Msg("listed containers")

	for _, c := range containers {
		if !c.Eligible() {
			opts.Logger.Info().Str("container", c.Name).
				Str("public_access", string(c.PublicAccess)).
				Msg("skipping container: public access is not container-level")
			continue
		}

		err := store.ListObjects(ctx, c.Name, opts.Prefix, func(obj ObjectRef) error {
			excluded, err := isExcluded(obj.Key, opts.Excludes)
			if err != nil {
				return err
			}
			if excluded {
				return nil
			}
			return fn(obj)
		})
		if err != nil {
			if opts.ContinueOnContainerError {
				opts.Logger.Error().Err(err).Str("container", c.Name).
					Msg("container enumeration failed, skipping")
				continue
			}
			return fmt.Errorf("enumerate container %s: %w", c.Name, err)
		}
	}

	return nil
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern: %q", p)
		}
	}
	return nil
}

func isExcluded(key string, patterns []string) (bool, error) {
	for _, p := range patterns {
		matched, err := doublestar.Match(p, key)
		if err != nil {
			return false, fmt.Errorf("match exclude pattern %q: %w", p, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
