package repository

import (
	"context"
	"sync"

	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

// MemoryReadingRepository keeps readings in process memory
type MemoryReadingRepository struct {
	mu       sync.RWMutex
	readings readingSet
	logger   *zap.Logger
}

// NewMemoryReadingRepository creates an empty in-memory repository
func NewMemoryReadingRepository(logger *zap.Logger) *MemoryReadingRepository {
	return &MemoryReadingRepository{
		readings: readingSet{},
		logger:   logger,
	}
}

// List returns a copy of all readings, newest first
func (r *MemoryReadingRepository) List(ctx context.Context) ([]model.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readings.clone(), nil
}

// FindByID retrieves a reading by ID
func (r *MemoryReadingRepository) FindByID(ctx context.Context, id string) (*model.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.readings.indexOf(id)
	if idx < 0 {
		return nil, ErrReadingNotFound
	}
	reading := r.readings[idx]
	return &reading, nil
}

// Save inserts a new reading
func (r *MemoryReadingRepository) Save(ctx context.Context, reading *model.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.readings = r.readings.insert(*reading)
	r.logger.Debug("reading saved", zap.String("reading_id", reading.ID))
	return nil
}

// Update replaces the reading with the same ID
func (r *MemoryReadingRepository) Update(ctx context.Context, reading *model.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated, err := r.readings.replace(*reading)
	if err != nil {
		return err
	}
	r.readings = updated
	return nil
}

// Delete removes a reading by ID
func (r *MemoryReadingRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining, err := r.readings.remove(id)
	if err != nil {
		return err
	}
	r.readings = remaining
	return nil
}

// Mutate applies fn to the collection under the write lock
func (r *MemoryReadingRepository) Mutate(ctx context.Context, fn MutateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(r.readings.clone())
	if err != nil {
		return err
	}
	sorted := readingSet(append([]model.Reading{}, next...))
	SortNewestFirst(sorted)
	r.readings = sorted
	return nil
}
