package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/sheetscan/sheetscan/internal/domain"
)

// Assembler converts successful recognition outcomes into records and
// prepends them to the store, so the freshest scans display first.
type Assembler struct {
	store *Store

	// Indirected for deterministic tests.
	now   func() time.Time
	newID func() uuid.UUID
}

// NewAssembler creates an assembler writing to store.
func NewAssembler(store *Store) *Assembler {
	return &Assembler{
		store: store,
		now:   time.Now,
		newID: uuid.New,
	}
}

// Assemble builds exactly one record from an outcome and inserts it. The
// variant is taken from the outcome: the oracle's determination wins over
// any hint, which matters in auto-detect mode. Group linkage is carried over
// from the originating work item.
func (a *Assembler) Assemble(item domain.WorkItem, outcome domain.RecognitionOutcome) (domain.Record, error) {
	record := domain.Record{
		ID:          a.newID(),
		Variant:     outcome.Variant,
		Fields:      outcome.Fields,
		Confidence:  outcome.Confidence,
		SourceImage: item.SourceRef(),
		GroupID:     item.GroupID,
		CreatedAt:   a.now(),
	}
	if err := a.store.Insert(record); err != nil {
		return domain.Record{}, err
	}
	return record, nil
}
