package inventory

import (
	"context"
	"fmt"

	"github.com/blobmirror/blobmirror/pkg/objstore"
)

// fakeStore is an in-memory Store fixture for builder tests.
type fakeStore struct {
	name         string
	containers   []objstore.Container
	objects      map[string][]objstore.ObjectRef // container -> refs
	contentTypes map[string]string               // qualified key -> content-type

	listContainersErr error
	listErr           map[string]error // container -> enumeration error
	metaErr           map[string]error // qualified key -> head error
}

func newFakeStore(name string) *fakeStore {
	return &fakeStore{
		name:         name,
		objects:      make(map[string][]objstore.ObjectRef),
		contentTypes: make(map[string]string),
		listErr:      make(map[string]error),
		metaErr:      make(map[string]error),
	}
}

// add registers an object. listedType, when non-empty, is carried on the
// listing (as Azure flat listings do); headType is what FetchContentType
// serves.
func (f *fakeStore) add(container, key, listedType, headType string) {
	found := false
	for _, c := range f.containers {
		if c.Name == container {
			found = true
			break
		}
	}
	if !found {
		f.containers = append(f.containers, objstore.Container{
			Name:         container,
			PublicAccess: objstore.PublicAccessContainer,
		})
	}
	ref := objstore.ObjectRef{Container: container, Key: key, ContentType: listedType}
	f.objects[container] = append(f.objects[container], ref)
	f.contentTypes[ref.QualifiedKey()] = headType
}

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) ListContainers(context.Context) ([]objstore.Container, error) {
	if f.listContainersErr != nil {
		return nil, f.listContainersErr
	}
	return f.containers, nil
}

func (f *fakeStore) ListObjects(_ context.Context, container, prefix string, fn objstore.ObjectFunc) error {
	if err := f.listErr[container]; err != nil {
		return err
	}
	for _, ref := range f.objects[container] {
		if err := fn(ref); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) FetchBytes(_ context.Context, container, key string) ([]byte, error) {
	return nil, fmt.Errorf("FetchBytes not used by the builder")
}

func (f *fakeStore) FetchContentType(_ context.Context, container, key string) (string, error) {
	qkey := objstore.ObjectRef{Container: container, Key: key}.QualifiedKey()
	if err := f.metaErr[qkey]; err != nil {
		return "", err
	}
	ct, ok := f.contentTypes[qkey]
	if !ok {
		return "", fmt.Errorf("head %s: %w", qkey, objstore.ErrNotFound)
	}
	return ct, nil
}
