package mirror

import (
	"context"
	"fmt"

	"github.com/blobmirror/blobmirror/pkg/objstore"
)

// fakeStore is an in-memory Store fixture. Failures are injected per
// container (enumeration) or per qualified key (fetches).
type fakeStore struct {
	name         string
	containers   []objstore.Container
	objects      map[string][]string // container -> keys
	data         map[string][]byte   // qualified key -> payload
	contentTypes map[string]string   // qualified key -> content-type

	listErr  map[string]error // container -> enumeration error
	bytesErr map[string]error // qualified key -> FetchBytes error
	metaErr  map[string]error // qualified key -> FetchContentType error
}

func newFakeStore(name string) *fakeStore {
	return &fakeStore{
		name:         name,
		objects:      make(map[string][]string),
		data:         make(map[string][]byte),
		contentTypes: make(map[string]string),
		listErr:      make(map[string]error),
		bytesErr:     make(map[string]error),
		metaErr:      make(map[string]error),
	}
}

func (f *fakeStore) add(container, key, contentType string, payload []byte) {
	if !f.hasContainer(container) {
		f.containers = append(f.containers, objstore.Container{
			Name:         container,
			PublicAccess: objstore.PublicAccessContainer,
		})
	}
	f.objects[container] = append(f.objects[container], key)
	qkey := container + "/" + key
	f.data[qkey] = payload
	f.contentTypes[qkey] = contentType
}

func (f *fakeStore) hasContainer(name string) bool {
	for _, c := range f.containers {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) ListContainers(context.Context) ([]objstore.Container, error) {
	return f.containers, nil
}

func (f *fakeStore) ListObjects(_ context.Context, container, prefix string, fn objstore.ObjectFunc) error {
	if err := f.listErr[container]; err != nil {
		return err
	}
	for _, key := range f.objects[container] {
		if err := fn(objstore.ObjectRef{Container: container, Key: key}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) FetchBytes(_ context.Context, container, key string) ([]byte, error) {
	qkey := container + "/" + key
	if err := f.bytesErr[qkey]; err != nil {
		return nil, err
	}
	data, ok := f.data[qkey]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", qkey, objstore.ErrNotFound)
	}
	return data, nil
}

func (f *fakeStore) FetchContentType(_ context.Context, container, key string) (string, error) {
	qkey := container + "/" + key
	if err := f.metaErr[qkey]; err != nil {
		return "", err
	}
	ct, ok := f.contentTypes[qkey]
	if !ok {
		return "", fmt.Errorf("head %s: %w", qkey, objstore.ErrNotFound)
	}
	return ct, nil
}
