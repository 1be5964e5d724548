package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AppSetting is a persisted name/value pair backing the cached AppSettings
// view in the settings package.
type AppSetting struct {
	bun.BaseModel `bun:"table:app_settings,alias:s"`

	Name      string    `bun:",pk" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Val       string    `json:"val"`
}
