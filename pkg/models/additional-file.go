package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AdditionalFile is an alternate-format sibling of a book's primary file
// (e.g. a MOBI companion to an EPUB), registered under the canonical book and
// keyed by its own content hash. A book is never hard-deleted while any
// additional file still references it.
type AdditionalFile struct {
	bun.BaseModel `bun:"table:additional_files,alias:af"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	BookID    int       `bun:",nullzero" json:"book_id"`
	Book      *Book     `bun:"rel:belongs-to" json:"book,omitempty"`

	FileSubPath string `json:"file_sub_path"`
	FileName    string `bun:",nullzero" json:"file_name"`
	FileSizeKB  int64  `bun:"file_size_kb,nullzero" json:"file_size_kb"`
	CurrentHash string `bun:",nullzero" json:"current_hash"`
}
