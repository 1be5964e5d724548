package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Metadata is the bibliographic aggregate of a book, stored in its own table
// keyed by book id so the book row itself stays narrow.
type Metadata struct {
	bun.BaseModel `bun:"table:book_metadata,alias:bm"`

	BookID    int       `bun:",pk" json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title         string     `json:"title"`
	Subtitle      string     `json:"subtitle"`
	Description   string     `json:"description"`
	Publisher     string     `json:"publisher"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Language      string     `json:"language"`
	SeriesName    string     `json:"series_name"`
	SeriesNumber  *float64   `json:"series_number,omitempty"`
	SeriesTotal   *int       `json:"series_total,omitempty"`
	ISBN10        string     `bun:"isbn10" json:"isbn10"`
	ISBN13        string     `bun:"isbn13" json:"isbn13"`
	PageCount     *int       `json:"page_count,omitempty"`

	Authors    []*Author   `bun:"m2m:book_metadata_authors,join:Metadata=Author" json:"authors,omitempty"`
	Categories []*Category `bun:"m2m:book_metadata_categories,join:Metadata=Category" json:"categories,omitempty"`

	// Per-field lock flags. A locked field is skipped by automated metadata
	// refreshes; only explicit user edits may change it.
	TitleLocked         bool `json:"title_locked"`
	SubtitleLocked      bool `json:"subtitle_locked"`
	DescriptionLocked   bool `json:"description_locked"`
	PublisherLocked     bool `json:"publisher_locked"`
	PublishedDateLocked bool `json:"published_date_locked"`
	LanguageLocked      bool `json:"language_locked"`
	SeriesNameLocked    bool `json:"series_name_locked"`
	SeriesNumberLocked  bool `json:"series_number_locked"`
	ISBNLocked          bool `bun:"isbn_locked" json:"isbn_locked"`
	AuthorsLocked       bool `json:"authors_locked"`
	CategoriesLocked    bool `json:"categories_locked"`
	CoverLocked         bool `json:"cover_locked"`
}

// AuthorNames returns the names of the loaded author relations in order.
func (m *Metadata) AuthorNames() []string {
	names := make([]string, 0, len(m.Authors))
	for _, a := range m.Authors {
		names = append(names, a.Name)
	}
	return names
}

// CategoryNames returns the names of the loaded category relations in order.
func (m *Metadata) CategoryNames() []string {
	names := make([]string, 0, len(m.Categories))
	for _, c := range m.Categories {
		names = append(names, c.Name)
	}
	return names
}

// MetadataAuthor is the join row between book metadata and authors.
type MetadataAuthor struct {
	bun.BaseModel `bun:"table:book_metadata_authors,alias:bma"`

	BookID   int       `bun:",pk" json:"book_id"`
	Metadata *Metadata `bun:"rel:belongs-to,join:book_id=book_id" json:"-"`
	AuthorID int       `bun:",pk" json:"author_id"`
	Author   *Author   `bun:"rel:belongs-to,join:author_id=id" json:"-"`
}

// MetadataCategory is the join row between book metadata and categories.
type MetadataCategory struct {
	bun.BaseModel `bun:"table:book_metadata_categories,alias:bmc"`

	BookID     int       `bun:",pk" json:"book_id"`
	Metadata   *Metadata `bun:"rel:belongs-to,join:book_id=book_id" json:"-"`
	CategoryID int       `bun:",pk" json:"category_id"`
	Category   *Category `bun:"rel:belongs-to,join:category_id=id" json:"-"`
}
