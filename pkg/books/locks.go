package books

import "github.com/booklore-app/booklore/pkg/models"

// MetadataField names the user-lockable metadata fields. Locked fields are
// skipped by automated refreshes from file parsers; only explicit edits
// change them.
type MetadataField string

const (
	FieldTitle         MetadataField = "title"
	FieldSubtitle      MetadataField = "subtitle"
	FieldDescription   MetadataField = "description"
	FieldPublisher     MetadataField = "publisher"
	FieldPublishedDate MetadataField = "published_date"
	FieldLanguage      MetadataField = "language"
	FieldSeriesName    MetadataField = "series_name"
	FieldSeriesNumber  MetadataField = "series_number"
	FieldISBN          MetadataField = "isbn"
	FieldAuthors       MetadataField = "authors"
	FieldCategories    MetadataField = "categories"
	FieldCover         MetadataField = "cover"
)

// LockableFields lists every lockable metadata field in display order.
var LockableFields = []MetadataField{
	FieldTitle,
	FieldSubtitle,
	FieldDescription,
	FieldPublisher,
	FieldPublishedDate,
	FieldLanguage,
	FieldSeriesName,
	FieldSeriesNumber,
	FieldISBN,
	FieldAuthors,
	FieldCategories,
	FieldCover,
}

// IsFieldLocked reports whether the given field is locked on the metadata.
func IsFieldLocked(meta *models.Metadata, field MetadataField) bool {
	if meta == nil {
		return false
	}
	switch field {
	case FieldTitle:
		return meta.TitleLocked
	case FieldSubtitle:
		return meta.SubtitleLocked
	case FieldDescription:
		return meta.DescriptionLocked
	case FieldPublisher:
		return meta.PublisherLocked
	case FieldPublishedDate:
		return meta.PublishedDateLocked
	case FieldLanguage:
		return meta.LanguageLocked
	case FieldSeriesName:
		return meta.SeriesNameLocked
	case FieldSeriesNumber:
		return meta.SeriesNumberLocked
	case FieldISBN:
		return meta.ISBNLocked
	case FieldAuthors:
		return meta.AuthorsLocked
	case FieldCategories:
		return meta.CategoriesLocked
	case FieldCover:
		return meta.CoverLocked
	}
	return false
}

// SetAllLocks flips every lock flag on the metadata at once.
func SetAllLocks(meta *models.Metadata, locked bool) {
	meta.TitleLocked = locked
	meta.SubtitleLocked = locked
	meta.DescriptionLocked = locked
	meta.PublisherLocked = locked
	meta.PublishedDateLocked = locked
	meta.LanguageLocked = locked
	meta.SeriesNameLocked = locked
	meta.SeriesNumberLocked = locked
	meta.ISBNLocked = locked
	meta.AuthorsLocked = locked
	meta.CategoriesLocked = locked
	meta.CoverLocked = locked
}

// LockedFields returns the fields currently locked on the metadata.
func LockedFields(meta *models.Metadata) []MetadataField {
	locked := []MetadataField{}
	for _, field := range LockableFields {
		if IsFieldLocked(meta, field) {
			locked = append(locked, field)
		}
	}
	return locked
}
