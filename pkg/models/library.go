package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Library struct {
	bun.BaseModel `bun:"table:libraries,alias:l"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `bun:",nullzero" json:"name"`

	// FileNamingPattern overrides the global upload pattern for this library.
	// Empty means fall back to the global default.
	FileNamingPattern string `json:"file_naming_pattern"`

	// OrganizeFileStructure enables the single-file auto-correction that
	// keeps files placed according to the naming pattern after metadata
	// edits.
	OrganizeFileStructure bool `json:"organize_file_structure"`

	LibraryPaths []*LibraryPath `bun:"rel:has-many" json:"library_paths,omitempty"`
	DeletedAt    *time.Time     `json:"deleted_at,omitempty"`
}

type LibraryPath struct {
	bun.BaseModel `bun:"table:library_paths,alias:lp"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LibraryID int       `bun:",nullzero" json:"library_id"`
	Path      string    `bun:",nullzero" json:"path"`
}
