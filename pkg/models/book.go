package models

import (
	"path/filepath"
	"time"

	"github.com/uptrace/bun"
)

const (
	BookTypeEPUB = "epub"
	BookTypePDF  = "pdf"
	BookTypeCBX  = "cbx"
)

// BookTypeForExtension maps a file extension (with leading dot) to a book
// type. CBX covers the comic-archive family, not a single extension.
func BookTypeForExtension(ext string) string {
	switch ext {
	case ".epub":
		return BookTypeEPUB
	case ".pdf":
		return BookTypePDF
	case ".cbz", ".cbr", ".cb7":
		return BookTypeCBX
	}
	return ""
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID            int          `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	LibraryID     int          `bun:",nullzero" json:"library_id"`
	Library       *Library     `bun:"rel:belongs-to" json:"library,omitempty"`
	LibraryPathID int          `bun:",nullzero" json:"library_path_id"`
	LibraryPath   *LibraryPath `bun:"rel:belongs-to" json:"library_path,omitempty"`

	// FileSubPath is the directory path of the book's file relative to its
	// library path root, "" for files directly under the root. It is only
	// meaningful together with LibraryPathID and the two are always updated
	// as a pair.
	FileSubPath string `json:"file_sub_path"`
	FileName    string `bun:",nullzero" json:"file_name"`
	BookType    string `bun:",nullzero" json:"book_type"`
	FileSizeKB  int64  `bun:"file_size_kb,nullzero" json:"file_size_kb"`

	// InitialHash is set once at first ingest and never overwritten.
	// CurrentHash tracks the bytes currently on disk and is refreshed on
	// every rescan, including byte-identical ones.
	InitialHash string `json:"initial_hash"`
	CurrentHash string `json:"current_hash"`

	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	MetadataMatchScore *float64  `json:"metadata_match_score,omitempty"`
	Metadata           *Metadata `bun:"rel:has-one,join:id=book_id" json:"metadata,omitempty"`

	AdditionalFiles []*AdditionalFile `bun:"rel:has-many" json:"additional_files,omitempty"`
}

// FullPath returns the absolute path of the book's file. The LibraryPath
// relation must be loaded.
func (b *Book) FullPath() string {
	if b.LibraryPath == nil {
		return ""
	}
	return filepath.Join(b.LibraryPath.Path, b.FileSubPath, b.FileName)
}
