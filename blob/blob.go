// Package blob moves files in and out of SAS-scoped asset containers.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"amsflow/logger"
)

// ContainerRef is the storage account and container a SAS URL points at.
type ContainerRef struct {
	StorageAccount string
	Container      string
}

// ParseSASURL extracts the storage account (first host label) and container
// (first path segment) from a container SAS URL.
func ParseSASURL(sasURL string) (ContainerRef, error) {
	u, err := url.Parse(sasURL)
	if err != nil {
		return ContainerRef{}, fmt.Errorf("invalid SAS URL: %w", err)
	}
	if u.Host == "" {
		return ContainerRef{}, fmt.Errorf("invalid SAS URL: missing host")
	}
	account, _, _ := strings.Cut(u.Host, ".")
	containerName, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if containerName == "" {
		return ContainerRef{}, fmt.Errorf("invalid SAS URL: missing container")
	}
	return ContainerRef{StorageAccount: account, Container: containerName}, nil
}

// Transfer uploads and downloads blobs using only the SAS token for authorization.
type Transfer struct {
	options *container.ClientOptions
}

// New returns a Transfer. opts may be nil.
func New(opts *container.ClientOptions) *Transfer {
	return &Transfer{options: opts}
}

func (t *Transfer) container(sasURL string) (*container.Client, error) {
	if _, err := ParseSASURL(sasURL); err != nil {
		return nil, err
	}
	client, err := container.NewClientWithNoCredential(sasURL, t.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create container client: %w", err)
	}
	return client, nil
}

// UploadFile uploads localPath into the container as a block blob named after the file.
func (t *Transfer) UploadFile(ctx context.Context, sasURL, localPath string) error {
	client, err := t.container(sasURL)
	if err != nil {
		return err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer file.Close()

	name := filepath.Base(localPath)
	logger.Debugf("Uploading %s to blob %s", localPath, name)
	if _, err := client.NewBlockBlobClient(name).UploadFile(ctx, file, &blockblob.UploadFileOptions{}); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}

// Each streams every blob in the container to fn. The reader is closed after fn returns.
func (t *Transfer) Each(ctx context.Context, sasURL string, fn func(name string, r io.Reader) error) error {
	client, err := t.container(sasURL)
	if err != nil {
		return err
	}

	pager := client.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list blobs: %w", err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			if err := t.stream(ctx, client, *item.Name, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Transfer) stream(ctx context.Context, client *container.Client, name string, fn func(string, io.Reader) error) error {
	logger.Infof("Downloading Blob: %s", name)
	resp, err := client.NewBlobClient(name).DownloadStream(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer resp.Body.Close()

	if err := fn(name, resp.Body); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}
