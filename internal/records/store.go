// Package records holds the in-memory record collection and its export
// surface.
package records

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sheetscan/sheetscan/internal/domain"
)

// ErrNotFound is returned when an operation names a record id the store does
// not hold.
var ErrNotFound = errors.New("record not found")

// Store is the in-memory record collection. Records are kept in
// most-recent-first order. The store is the pipeline's only shared mutable
// resource and is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []domain.Record
}

// NewStore creates an empty record store.
func NewStore() *Store {
	return &Store{}
}

// Insert prepends a record. Ids are unique: inserting a duplicate id fails.
func (s *Store) Insert(record domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.ID == record.ID {
			return domain.ValidationError(fmt.Sprintf("duplicate record id %s", record.ID), nil)
		}
	}
	s.records = append([]domain.Record{record}, s.records...)
	return nil
}

// DeleteByID removes at most one record. Deleting an absent id is a no-op.
func (s *Store) DeleteByID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, record := range s.records {
		if record.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return
		}
	}
}

// UpdateFields replaces a record's field set. Every other attribute (id,
// variant, creation time, source image, group linkage) is immutable after
// creation, so a field set of a different variant is rejected.
func (s *Store) UpdateFields(id uuid.UUID, fields domain.FieldSet) error {
	if err := fields.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, record := range s.records {
		if record.ID != id {
			continue
		}
		if fields.Variant() != record.Variant {
			return domain.ValidationError(fmt.Sprintf(
				"cannot replace %s fields with %s fields", record.Variant, fields.Variant()), nil)
		}
		s.records[i].Fields = fields
		return nil
	}
	return ErrNotFound
}

// Get returns the record with the given id.
func (s *Store) Get(id uuid.UUID) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.ID == id {
			return record, nil
		}
	}
	return domain.Record{}, ErrNotFound
}

// FilterByVariant returns the records of one variant, preserving store order.
func (s *Store) FilterByVariant(variant domain.SheetVariant) []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Record
	for _, record := range s.records {
		if record.Variant == variant {
			out = append(out, record)
		}
	}
	return out
}

// All returns every record in store order.
func (s *Store) All() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
