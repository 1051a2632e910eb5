package objstore

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// AzureStore reads an Azure Blob Storage account.
type AzureStore struct {
	name   string
	client *azblob.Client
}

// NewAzureStore connects to a storage account using its connection string.
// name labels the store in artifacts (mirror root, listing files).
func NewAzureStore(connectionString, name string) (*AzureStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, &ConnectionError{Store: name, Op: "create client", Err: err}
	}
	return &AzureStore{name: name, client: client}, nil
}

func (s *AzureStore) Name() string {
	return s.name
}

func (s *AzureStore) ListContainers(ctx context.Context) ([]Container, error) {
	var containers []Container

	pager := s.client.NewListContainersPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list containers: %w", err)
		}
		for _, item := range page.ContainerItems {
			if item.Name == nil {
				continue
			}
			access, err := s.containerAccess(ctx, *item.Name)
			if err != nil {
				return nil, fmt.Errorf("get properties of container %s: %w", *item.Name, err)
			}
			containers = append(containers, Container{
				Name:         *item.Name,
				PublicAccess: access,
			})
		}
	}

	return containers, nil
}

// containerAccess asks the service for the container's public access level.
// The listing response does not reliably carry it across API versions, so
// this mirrors the per-container properties call the portal tooling makes.
func (s *AzureStore) containerAccess(ctx context.Context, name string) (PublicAccess, error) {
	props, err := s.client.ServiceClient().NewContainerClient(name).GetProperties(ctx, nil)
	if err != nil {
		return PublicAccessNone, err
	}
	if props.BlobPublicAccess == nil {
		return PublicAccessNone, nil
	}
	switch *props.BlobPublicAccess {
	case container.PublicAccessTypeContainer:
		return PublicAccessContainer, nil
	case container.PublicAccessTypeBlob:
		return PublicAccessBlob, nil
	default:
		return PublicAccessNone, nil
	}
}

func (s *AzureStore) ListObjects(ctx context.Context, containerName, prefix string, fn ObjectFunc) error {
	opts := &container.ListBlobsFlatOptions{}
	if prefix != "" {
		opts.Prefix = to.Ptr(prefix)
	}

	pager := s.client.ServiceClient().NewContainerClient(containerName).NewListBlobsFlatPager(opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list blobs in %s: %w", containerName, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			ref := ObjectRef{Container: containerName, Key: *item.Name}
			if item.Properties != nil && item.Properties.ContentType != nil {
				ref.ContentType = *item.Properties.ContentType
			}
			if err := fn(ref); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *AzureStore) FetchBytes(ctx context.Context, containerName, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, containerName, key, nil)
	if err != nil {
		return nil, azureFetchError("download", containerName, key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s/%s: %w", containerName, key, err)
	}
	return data, nil
}

func (s *AzureStore) FetchContentType(ctx context.Context, containerName, key string) (string, error) {
	props, err := s.client.ServiceClient().NewContainerClient(containerName).NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return "", azureFetchError("get properties", containerName, key, err)
	}
	if props.ContentType == nil {
		return "", nil
	}
	return *props.ContentType, nil
}

func azureFetchError(op, containerName, key string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return fmt.Errorf("%s %s/%s: %w", op, containerName, key, ErrNotFound)
	}
	return fmt.Errorf("%s %s/%s: %w", op, containerName, key, err)
}
