package settings

import (
	"context"
	"sync"
	"time"

	"github.com/booklore-app/booklore/pkg/books"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// Setting names as stored in the app_settings table.
const (
	SettingUploadPattern = "upload_pattern"
	SettingMatchWeights  = "metadata_match_weights"
)

// DefaultUploadPattern places files under the primary author, with optional
// series, series index, and year segments that drop out when the metadata
// lacks them.
const DefaultUploadPattern = "{authors}/<{series}/><{seriesIndex}. >{title}< - {authors}>< ({year})>"

// AppSettings is the parsed view of the app_settings table.
type AppSettings struct {
	UploadPattern string             `json:"upload_pattern"`
	MatchWeights  books.MatchWeights `json:"metadata_match_weights"`
}

type Service struct {
	db *bun.DB

	mu     sync.RWMutex
	cached *AppSettings
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// AppSettings returns the current settings, loading and caching them on
// first use. Call Invalidate after writes.
func (svc *Service) AppSettings(ctx context.Context) (*AppSettings, error) {
	svc.mu.RLock()
	cached := svc.cached
	svc.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	settings, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}

	svc.mu.Lock()
	svc.cached = settings
	svc.mu.Unlock()

	return settings, nil
}

// Invalidate drops the cached settings so the next read hits the database.
// MatchWeights returns the configured match-score weights, falling back to
// the defaults when settings can't be loaded.
func (svc *Service) MatchWeights(ctx context.Context) (books.MatchWeights, error) {
	s, err := svc.AppSettings(ctx)
	if err != nil {
		return books.DefaultMatchWeights(), err
	}
	return s.MatchWeights, nil
}

func (svc *Service) Invalidate() {
	svc.mu.Lock()
	svc.cached = nil
	svc.mu.Unlock()
}

// SetSetting upserts a single named setting and invalidates the cache.
func (svc *Service) SetSetting(ctx context.Context, name, val string) error {
	now := time.Now()
	setting := &models.AppSetting{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Val:       val,
	}

	_, err := svc.db.
		NewInsert().
		Model(setting).
		On("CONFLICT (name) DO UPDATE").
		Set("updated_at = EXCLUDED.updated_at").
		Set("val = EXCLUDED.val").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	svc.Invalidate()

	return nil
}

func (svc *Service) load(ctx context.Context) (*AppSettings, error) {
	rows := []*models.AppSetting{}
	err := svc.db.
		NewSelect().
		Model(&rows).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	vals := make(map[string]string, len(rows))
	for _, row := range rows {
		vals[row.Name] = row.Val
	}

	settings := &AppSettings{
		UploadPattern: DefaultUploadPattern,
		MatchWeights:  books.DefaultMatchWeights(),
	}

	if pattern, ok := vals[SettingUploadPattern]; ok && pattern != "" {
		settings.UploadPattern = pattern
	}
	if raw, ok := vals[SettingMatchWeights]; ok && raw != "" {
		weights := books.MatchWeights{}
		err := json.Unmarshal([]byte(raw), &weights)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if weights.Total() > 0 {
			settings.MatchWeights = weights
		}
	}

	return settings, nil
}
