package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vcscsvcscs/bp-insights/internal/analysis"
	"github.com/vcscsvcscs/bp-insights/internal/repository"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
)

// MockReadingRepository is a mock implementation of ReadingRepository
type MockReadingRepository struct {
	mock.Mock

	// Stored holds the collection produced by the last successful Mutate
	Stored []model.Reading
}

var _ repository.ReadingRepository = (*MockReadingRepository)(nil)

func (m *MockReadingRepository) List(ctx context.Context) ([]model.Reading, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reading), args.Error(1)
}

func (m *MockReadingRepository) FindByID(ctx context.Context, id string) (*model.Reading, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reading), args.Error(1)
}

func (m *MockReadingRepository) Save(ctx context.Context, reading *model.Reading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockReadingRepository) Update(ctx context.Context, reading *model.Reading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockReadingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mutate runs fn over the readings configured for the call
func (m *MockReadingRepository) Mutate(ctx context.Context, fn repository.MutateFunc) error {
	args := m.Called(ctx)
	if err := args.Error(1); err != nil {
		return err
	}

	var current []model.Reading
	if args.Get(0) != nil {
		current = append(current, args.Get(0).([]model.Reading)...)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	m.Stored = next
	return nil
}

// interleavingRepository runs onFirstAccess once, right after the first
// List or before the first Mutate, to simulate a request landing mid-operation
type interleavingRepository struct {
	*repository.MemoryReadingRepository
	onFirstAccess func()
	fired         bool
}

func (r *interleavingRepository) fire() {
	if r.fired {
		return
	}
	r.fired = true
	r.onFirstAccess()
}

func (r *interleavingRepository) List(ctx context.Context) ([]model.Reading, error) {
	readings, err := r.MemoryReadingRepository.List(ctx)
	r.fire()
	return readings, err
}

func (r *interleavingRepository) Mutate(ctx context.Context, fn repository.MutateFunc) error {
	r.fire()
	return r.MemoryReadingRepository.Mutate(ctx, fn)
}

func defaultEngine() *analysis.Engine {
	return analysis.NewEngine(analysis.NewClassifier(analysis.DefaultClassifierOptions()))
}
