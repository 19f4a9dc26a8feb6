package records

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetscan/sheetscan/internal/domain"
)

func infoRecord(firstName string) domain.Record {
	return domain.Record{
		ID:        uuid.New(),
		Variant:   domain.VariantInfo,
		Fields:    &domain.InfoFields{FirstName: firstName, LastName: firstName},
		CreatedAt: time.Now(),
	}
}

func TestStoreInsertPrepends(t *testing.T) {
	store := NewStore()
	first := infoRecord("first")
	second := infoRecord("second")

	require.NoError(t, store.Insert(first))
	require.NoError(t, store.Insert(second))

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest record displays first")
	assert.Equal(t, first.ID, all[1].ID)
}

func TestStoreInsertRejectsDuplicateID(t *testing.T) {
	store := NewStore()
	record := infoRecord("x")

	require.NoError(t, store.Insert(record))
	err := store.Insert(record)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
	assert.Equal(t, 1, store.Len())
}

func TestStoreDeleteByID(t *testing.T) {
	store := NewStore()
	record := infoRecord("x")
	require.NoError(t, store.Insert(record))

	store.DeleteByID(record.ID)
	assert.Equal(t, 0, store.Len())

	// Deleting an absent id is a no-op.
	store.DeleteByID(uuid.New())
	assert.Equal(t, 0, store.Len())
}

func TestStoreUpdateFieldsReplacesOnlyFields(t *testing.T) {
	store := NewStore()
	record := infoRecord("before")
	record.GroupID = "group-1"
	record.Confidence = 0.7
	require.NoError(t, store.Insert(record))

	err := store.UpdateFields(record.ID, &domain.InfoFields{FirstName: "after", LastName: "after"})
	require.NoError(t, err)

	updated, err := store.Get(record.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Fields.(*domain.InfoFields).FirstName)
	assert.Equal(t, record.ID, updated.ID)
	assert.Equal(t, record.Variant, updated.Variant)
	assert.Equal(t, record.GroupID, updated.GroupID)
	assert.Equal(t, record.Confidence, updated.Confidence)
	assert.Equal(t, record.CreatedAt, updated.CreatedAt)
}

func TestStoreUpdateFieldsRejectsVariantMismatch(t *testing.T) {
	store := NewStore()
	record := infoRecord("x")
	require.NoError(t, store.Insert(record))

	err := store.UpdateFields(record.ID, &domain.StatsFields{})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestStoreUpdateFieldsValidates(t *testing.T) {
	store := NewStore()
	record := infoRecord("x")
	require.NoError(t, store.Insert(record))

	err := store.UpdateFields(record.ID, &domain.InfoFields{Date: "bogus"})
	require.Error(t, err)

	kept, getErr := store.Get(record.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "x", kept.Fields.(*domain.InfoFields).FirstName, "invalid update leaves record untouched")
}

func TestStoreUpdateFieldsNotFound(t *testing.T) {
	store := NewStore()
	err := store.UpdateFields(uuid.New(), &domain.InfoFields{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreGetNotFound(t *testing.T) {
	store := NewStore()
	_, err := store.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFilterByVariant(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Insert(infoRecord("a")))
	stats := domain.Record{ID: uuid.New(), Variant: domain.VariantStats, Fields: &domain.StatsFields{}}
	require.NoError(t, store.Insert(stats))
	require.NoError(t, store.Insert(infoRecord("b")))

	infos := store.FilterByVariant(domain.VariantInfo)
	require.Len(t, infos, 2)
	assert.Equal(t, "b", infos[0].Fields.(*domain.InfoFields).FirstName)
	assert.Equal(t, "a", infos[1].Fields.(*domain.InfoFields).FirstName)

	assert.Len(t, store.FilterByVariant(domain.VariantVibe), 0)
}
