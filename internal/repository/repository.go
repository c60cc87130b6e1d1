package repository

import (
	"context"
	"errors"
	"slices"

	"github.com/vcscsvcscs/bp-insights/pkg/model"
)

// ErrReadingNotFound is returned when no reading has the requested ID
var ErrReadingNotFound = errors.New("reading not found")

// ReadingRepository persists the reading collection. Implementations keep
// readings newest-first by timestamp.
type ReadingRepository interface {
	List(ctx context.Context) ([]model.Reading, error)
	FindByID(ctx context.Context, id string) (*model.Reading, error)
	Save(ctx context.Context, reading *model.Reading) error
	Update(ctx context.Context, reading *model.Reading) error
	Delete(ctx context.Context, id string) error
	// Mutate runs fn over the current collection and stores its result as
	// one atomic step. An error from fn leaves the collection unchanged.
	Mutate(ctx context.Context, fn MutateFunc) error
}

// MutateFunc transforms the whole collection. It receives a copy it may
// modify; the returned slice is re-sorted newest-first before storing.
type MutateFunc func(readings []model.Reading) ([]model.Reading, error)

// SortNewestFirst orders readings by timestamp, newest first. Equal
// timestamps keep their relative order.
func SortNewestFirst(readings []model.Reading) {
	slices.SortStableFunc(readings, func(a, b model.Reading) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

// readingSet is the in-memory collection shared by both implementations
type readingSet []model.Reading

func (s readingSet) clone() []model.Reading {
	out := make([]model.Reading, len(s))
	copy(out, s)
	return out
}

func (s readingSet) indexOf(id string) int {
	return slices.IndexFunc(s, func(r model.Reading) bool { return r.ID == id })
}

func (s readingSet) insert(reading model.Reading) readingSet {
	out := append(readingSet{reading}, s...)
	SortNewestFirst(out)
	return out
}

func (s readingSet) replace(reading model.Reading) (readingSet, error) {
	idx := s.indexOf(reading.ID)
	if idx < 0 {
		return nil, ErrReadingNotFound
	}
	out := readingSet(s.clone())
	out[idx] = reading
	SortNewestFirst(out)
	return out, nil
}

func (s readingSet) remove(id string) (readingSet, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrReadingNotFound
	}
	return slices.Delete(readingSet(s.clone()), idx, idx+1), nil
}
