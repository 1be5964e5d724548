package books

import "time"

type ListBooksQuery struct {
	Limit     int   `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset    int   `query:"offset" json:"offset,omitempty" validate:"min=0"`
	LibraryID *int  `query:"library_id" json:"library_id,omitempty" validate:"omitempty,min=1"`
	Deleted   *bool `query:"deleted" json:"deleted,omitempty"`
}

// UpdateMetadataPayload carries explicit user edits. Absent fields are left
// untouched; a field whose lock flag stays set is not overwritten.
type UpdateMetadataPayload struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,max=300"`
	Subtitle      *string    `json:"subtitle,omitempty" validate:"omitempty,max=500"`
	Description   *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	Publisher     *string    `json:"publisher,omitempty" validate:"omitempty,max=200"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Language      *string    `json:"language,omitempty" validate:"omitempty,max=50"`
	SeriesName    *string    `json:"series_name,omitempty" validate:"omitempty,max=200"`
	SeriesNumber  *float64   `json:"series_number,omitempty"`
	SeriesTotal   *int       `json:"series_total,omitempty" validate:"omitempty,min=0"`
	ISBN10        *string    `json:"isbn10,omitempty" validate:"omitempty,max=20"`
	ISBN13        *string    `json:"isbn13,omitempty" validate:"omitempty,max=20"`
	PageCount     *int       `json:"page_count,omitempty" validate:"omitempty,min=0"`
	Authors       []string   `json:"authors,omitempty" validate:"omitempty,dive,max=255"`
	Categories    []string   `json:"categories,omitempty" validate:"omitempty,dive,max=255"`

	// Lock flag edits are applied before value edits, so unlocking and
	// changing a field works in one request.
	TitleLocked         *bool `json:"title_locked,omitempty"`
	SubtitleLocked      *bool `json:"subtitle_locked,omitempty"`
	DescriptionLocked   *bool `json:"description_locked,omitempty"`
	PublisherLocked     *bool `json:"publisher_locked,omitempty"`
	PublishedDateLocked *bool `json:"published_date_locked,omitempty"`
	LanguageLocked      *bool `json:"language_locked,omitempty"`
	SeriesNameLocked    *bool `json:"series_name_locked,omitempty"`
	SeriesNumberLocked  *bool `json:"series_number_locked,omitempty"`
	ISBNLocked          *bool `json:"isbn_locked,omitempty"`
	AuthorsLocked       *bool `json:"authors_locked,omitempty"`
	CategoriesLocked    *bool `json:"categories_locked,omitempty"`
	CoverLocked         *bool `json:"cover_locked,omitempty"`
	AllLocked           *bool `json:"all_locked,omitempty"`
}
