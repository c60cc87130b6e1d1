package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vcscsvcscs/bp-insights/internal/security"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

// FileReadingRepository stores the reading collection as one JSON document
// on local disk, optionally sealed with AES-256-GCM.
type FileReadingRepository struct {
	path      string
	encryptor *security.Encryptor
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewFileReadingRepository creates a repository backed by path. A nil
// encryptor stores plaintext JSON.
func NewFileReadingRepository(path string, encryptor *security.Encryptor, logger *zap.Logger) *FileReadingRepository {
	return &FileReadingRepository{
		path:      path,
		encryptor: encryptor,
		logger:    logger,
	}
}

// load reads the collection. A missing file is an empty collection.
func (r *FileReadingRepository) load() (readingSet, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return readingSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reading store: %w", err)
	}
	if len(data) == 0 {
		return readingSet{}, nil
	}

	switch {
	case security.IsSealed(data) && r.encryptor == nil:
		return nil, fmt.Errorf("reading store %s is encrypted but no key is configured", r.path)
	case security.IsSealed(data):
		data, err = r.encryptor.Open(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt reading store: %w", err)
		}
	case r.encryptor != nil:
		r.logger.Warn("reading store is not encrypted, it will be sealed on next write",
			zap.String("path", r.path),
		)
	}

	var readings readingSet
	if err := json.Unmarshal(data, &readings); err != nil {
		return nil, fmt.Errorf("failed to decode reading store: %w", err)
	}
	SortNewestFirst(readings)
	return readings, nil
}

// store writes the collection to a temp file and renames it over the store
func (r *FileReadingRepository) store(readings readingSet) error {
	data, err := json.Marshal(readings)
	if err != nil {
		return fmt.Errorf("failed to encode reading store: %w", err)
	}
	if r.encryptor != nil {
		data, err = r.encryptor.Seal(data)
		if err != nil {
			return fmt.Errorf("failed to encrypt reading store: %w", err)
		}
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace reading store: %w", err)
	}
	return nil
}

// mutate loads, transforms and stores the collection under the write lock
func (r *FileReadingRepository) mutate(op string, fn func(readingSet) (readingSet, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	readings, err := r.load()
	if err != nil {
		r.logger.Error("failed to load readings", zap.String("op", op), zap.Error(err))
		return err
	}

	next, err := fn(readings)
	if err != nil {
		return err
	}

	if err := r.store(next); err != nil {
		r.logger.Error("failed to store readings", zap.String("op", op), zap.Error(err))
		return err
	}
	return nil
}

// List returns all readings, newest first
func (r *FileReadingRepository) List(ctx context.Context) ([]model.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	readings, err := r.load()
	if err != nil {
		r.logger.Error("failed to load readings", zap.Error(err))
		return nil, err
	}
	return readings.clone(), nil
}

// FindByID retrieves a reading by ID
func (r *FileReadingRepository) FindByID(ctx context.Context, id string) (*model.Reading, error) {
	readings, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	idx := readingSet(readings).indexOf(id)
	if idx < 0 {
		return nil, ErrReadingNotFound
	}
	return &readings[idx], nil
}

// Save inserts a new reading
func (r *FileReadingRepository) Save(ctx context.Context, reading *model.Reading) error {
	return r.mutate("save", func(readings readingSet) (readingSet, error) {
		return readings.insert(*reading), nil
	})
}

// Update replaces the reading with the same ID
func (r *FileReadingRepository) Update(ctx context.Context, reading *model.Reading) error {
	return r.mutate("update", func(readings readingSet) (readingSet, error) {
		return readings.replace(*reading)
	})
}

// Delete removes a reading by ID
func (r *FileReadingRepository) Delete(ctx context.Context, id string) error {
	return r.mutate("delete", func(readings readingSet) (readingSet, error) {
		return readings.remove(id)
	})
}

// Mutate applies fn to the stored collection under the write lock
func (r *FileReadingRepository) Mutate(ctx context.Context, fn MutateFunc) error {
	return r.mutate("mutate", func(readings readingSet) (readingSet, error) {
		next, err := fn(readings.clone())
		if err != nil {
			return nil, err
		}
		sorted := readingSet(append([]model.Reading{}, next...))
		SortNewestFirst(sorted)
		return sorted, nil
	})
}
