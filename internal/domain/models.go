package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceKind tells where a work item's image came from.
type SourceKind string

const (
	SourceKindImage        SourceKind = "image"
	SourceKindDocumentPage SourceKind = "document-page"
)

// WorkItem is one unit of dispatchable recognition work: a single page image
// plus its metadata. Items are created by the intake builder, consumed exactly
// once by the dispatcher and never mutated.
type WorkItem struct {
	Image      []byte
	SourceName string
	Kind       SourceKind
	// Page is the 1-based page ordinal for document pages, 0 for plain images.
	Page int
	// GroupID links items from the same multi-page source or the same
	// paired-bucket index. Empty means no natural grouping.
	GroupID string
	// ForcedVariant overrides oracle auto-detection. Empty means auto.
	ForcedVariant SheetVariant
}

// SourceRef returns a human-readable reference to the originating image.
func (w WorkItem) SourceRef() string {
	if w.Kind == SourceKindDocumentPage {
		return fmt.Sprintf("%s#p%d", w.SourceName, w.Page)
	}
	return w.SourceName
}

// RecognitionOutcome is the normalized result of one oracle call. Variant is
// the oracle's determination, which wins over any hint in auto mode.
type RecognitionOutcome struct {
	Variant    SheetVariant
	Fields     FieldSet
	Confidence float64
}

// Record is one recognized sheet. ID, Variant, CreatedAt, SourceImage and
// GroupID are immutable for the life of the record; only Fields may be
// replaced, through the store's update operation.
type Record struct {
	ID          uuid.UUID
	Variant     SheetVariant
	Fields      FieldSet
	Confidence  float64
	SourceImage string
	GroupID     string
	CreatedAt   time.Time
}

// BatchDisposition summarizes how a batch run ended.
type BatchDisposition string

const (
	// BatchClean means every item succeeded.
	BatchClean BatchDisposition = "clean"
	// BatchDegraded means some items failed; the batch still counts as a
	// success and failures are visible in the operator log only.
	BatchDegraded BatchDisposition = "degraded"
	// BatchFailed means every item failed.
	BatchFailed BatchDisposition = "failed"
)
