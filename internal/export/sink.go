package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Sink stores generated report and export files. azure.BlobStorageClient
// satisfies it for remote storage.
type Sink interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, location string) ([]byte, error)
}

// Content types of generated files
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeJSON = "application/json"
)

// DirSink stores files under a local directory
type DirSink struct {
	root   string
	logger *zap.Logger
}

// NewDirSink creates a sink rooted at dir
func NewDirSink(dir string, logger *zap.Logger) *DirSink {
	return &DirSink{root: dir, logger: logger}
}

// resolve maps a sink-relative name to a path under root, rejecting escapes
func (s *DirSink) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return filepath.Join(s.root, clean), nil
}

// Upload writes data to root/name and returns name
func (s *DirSink) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		s.logger.Error("failed to create export directory", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		s.logger.Error("failed to write export file", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	s.logger.Info("export file written",
		zap.String("path", path),
		zap.String("content_type", contentType),
		zap.Int("size_bytes", len(data)),
	)
	return name, nil
}

// Download reads a file previously written by Upload
func (s *DirSink) Download(ctx context.Context, location string) ([]byte, error) {
	path, err := s.resolve(location)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	return data, nil
}
