package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Category is a catalog-wide vocabulary row, deduplicated by exact name.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `bun:",nullzero" json:"name"`
}
