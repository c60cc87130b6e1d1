package azure

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// MockBlobStorageClient is an in-memory BlobStorage for tests and local runs
type MockBlobStorageClient struct {
	Storage      map[string][]byte
	ContentTypes map[string]string
	mu           sync.RWMutex
	logger       *zap.Logger
}

// NewMockBlobStorageClient creates a new mock blob storage client
func NewMockBlobStorageClient(logger *zap.Logger) *MockBlobStorageClient {
	return &MockBlobStorageClient{
		Storage:      make(map[string][]byte),
		ContentTypes: make(map[string]string),
		logger:       logger,
	}
}

// Upload stores a copy of data under name
func (c *MockBlobStorageClient) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("blob name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Storage[name] = bytes.Clone(data)
	c.ContentTypes[name] = contentType

	if c.logger != nil {
		c.logger.Info("mock: blob uploaded",
			zap.String("blob_name", name),
			zap.Int("size_bytes", len(data)),
		)
	}

	return name, nil
}

// Download returns a copy of the stored blob
func (c *MockBlobStorageClient) Download(ctx context.Context, blobName string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, exists := c.Storage[blobName]
	if !exists {
		return nil, fmt.Errorf("blob not found: %s", blobName)
	}

	if c.logger != nil {
		c.logger.Info("mock: blob downloaded",
			zap.String("blob_name", blobName),
			zap.Int("size_bytes", len(data)),
		)
	}

	return bytes.Clone(data), nil
}

// ListBlobs returns all blob names in storage, sorted
func (c *MockBlobStorageClient) ListBlobs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blobs := make([]string, 0, len(c.Storage))
	for name := range c.Storage {
		blobs = append(blobs, name)
	}
	sort.Strings(blobs)

	return blobs
}
