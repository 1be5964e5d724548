package books

import (
	"testing"

	"github.com/booklore-app/booklore/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestIsFieldLocked(t *testing.T) {
	meta := &models.Metadata{
		TitleLocked:   true,
		AuthorsLocked: true,
	}

	assert.True(t, IsFieldLocked(meta, FieldTitle))
	assert.True(t, IsFieldLocked(meta, FieldAuthors))
	assert.False(t, IsFieldLocked(meta, FieldDescription))
	assert.False(t, IsFieldLocked(meta, FieldCover))
	assert.False(t, IsFieldLocked(nil, FieldTitle))
	assert.False(t, IsFieldLocked(meta, MetadataField("bogus")))
}

func TestSetAllLocks(t *testing.T) {
	meta := &models.Metadata{}

	SetAllLocks(meta, true)
	for _, field := range LockableFields {
		assert.True(t, IsFieldLocked(meta, field), string(field))
	}

	SetAllLocks(meta, false)
	for _, field := range LockableFields {
		assert.False(t, IsFieldLocked(meta, field), string(field))
	}
}

func TestLockedFields(t *testing.T) {
	meta := &models.Metadata{}
	assert.Empty(t, LockedFields(meta))

	meta.SeriesNameLocked = true
	meta.ISBNLocked = true
	assert.Equal(t, []MetadataField{FieldSeriesName, FieldISBN}, LockedFields(meta))
}
