// Package objstore abstracts the object-storage providers blobmirror reads
// from. A Store knows how to enumerate containers and objects and how to
// fetch object bytes and content-type metadata; everything above it is
// provider-agnostic.
package objstore

import (
	"context"
)

// PublicAccess is the public access level of a container.
type PublicAccess string

const (
	PublicAccessNone      PublicAccess = "none"
	PublicAccessBlob      PublicAccess = "blob"
	PublicAccessContainer PublicAccess = "container"
)

// Container is a named namespace within a store.
type Container struct {
	Name         string
	PublicAccess PublicAccess
}

// Eligible reports whether the container's access policy allows public
// enumeration. Only container-level public read qualifies; blob-level or
// private containers are skipped, never processed.
func (c Container) Eligible() bool {
	return c.PublicAccess == PublicAccessContainer
}

// ObjectRef identifies one object within a container. ContentType is
// populated when the provider's listing already carries it (Azure flat
// listings do, S3 listings do not); callers that need an authoritative
// value fall back to FetchContentType.
type ObjectRef struct {
	Container   string
	Key         string
	ContentType string
}

// QualifiedKey returns the fully-qualified key used in ledgers and
// inventories. Objects in the root container (empty name) qualify as the
// bare key, which is how a flat bucket mirrors an account of containers.
func (o ObjectRef) QualifiedKey() string {
	if o.Container == "" {
		return o.Key
	}
	return o.Container + "/" + o.Key
}

// ObjectFunc is invoked once per listed object. Returning an error stops
// the listing and propagates out of ListObjects.
type ObjectFunc func(obj ObjectRef) error

// Store is the capability blobmirror consumes from a provider.
type Store interface {
	// Name identifies the store (storage account or bucket name). It names
	// the local mirror root and the listing artifacts.
	Name() string

	// ListContainers enumerates all containers with their public access
	// level. Failure here is a connection-level, fatal condition.
	ListContainers(ctx context.Context) ([]Container, error)

	// ListObjects streams every object in the container whose key starts
	// with prefix, calling fn for each. Pagination is handled internally; a
	// page failure mid-iteration surfaces as the returned error.
	ListObjects(ctx context.Context, container, prefix string, fn ObjectFunc) error

	// FetchBytes returns the full payload of one object.
	FetchBytes(ctx context.Context, container, key string) ([]byte, error)

	// FetchContentType returns the object's content-type metadata.
	FetchContentType(ctx context.Context, container, key string) (string, error)
}

// ContentType resolves an object's content-type, preferring the value the
// listing already supplied over an extra round trip.
func ContentType(ctx context.Context, store Store, obj ObjectRef) (string, error) {
	if obj.ContentType != "" {
		return obj.ContentType, nil
	}
	return store.FetchContentType(ctx, obj.Container, obj.Key)
}
