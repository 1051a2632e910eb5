package objstore

import (
	"context"
	"fmt"
)

// mockStore is a func-field mock of Store for walk tests.
type mockStore struct {
	name               string
	listContainersFunc func(ctx context.Context) ([]Container, error)
	listObjectsFunc    func(ctx context.Context, container, prefix string, fn ObjectFunc) error
}

func (m *mockStore) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *mockStore) ListContainers(ctx context.Context) ([]Container, error) {
	if m.listContainersFunc != nil {
		return m.listContainersFunc(ctx)
	}
	return nil, fmt.Errorf("ListContainers not implemented")
}

func (m *mockStore) ListObjects(ctx context.Context, container, prefix string, fn ObjectFunc) error {
	if m.listObjectsFunc != nil {
		return m.listObjectsFunc(ctx, container, prefix, fn)
	}
	return fmt.Errorf("ListObjects not implemented")
}

func (m *mockStore) FetchBytes(ctx context.Context, container, key string) ([]byte, error) {
	return nil, fmt.Errorf("FetchBytes not implemented")
}

func (m *mockStore) FetchContentType(ctx context.Context, container, key string) (string, error) {
	return "", fmt.Errorf("FetchContentType not implemented")
}
