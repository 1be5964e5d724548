package books

import (
	"context"
	"strings"

	"github.com/booklore-app/booklore/pkg/models"
)

// MatchWeights controls how much each metadata field contributes to the
// completeness score shown next to a book.
type MatchWeights struct {
	Title         float64 `json:"title"`
	Subtitle      float64 `json:"subtitle"`
	Description   float64 `json:"description"`
	Authors       float64 `json:"authors"`
	Publisher     float64 `json:"publisher"`
	PublishedDate float64 `json:"published_date"`
	SeriesName    float64 `json:"series_name"`
	SeriesNumber  float64 `json:"series_number"`
	SeriesTotal   float64 `json:"series_total"`
	ISBN13        float64 `json:"isbn13"`
	ISBN10        float64 `json:"isbn10"`
	Language      float64 `json:"language"`
	PageCount     float64 `json:"page_count"`
	Categories    float64 `json:"categories"`
}

func DefaultMatchWeights() MatchWeights {
	return MatchWeights{
		Title:         3,
		Subtitle:      1,
		Description:   2,
		Authors:       3,
		Publisher:     1,
		PublishedDate: 1,
		SeriesName:    1,
		SeriesNumber:  1,
		SeriesTotal:   1,
		ISBN13:        2,
		ISBN10:        1,
		Language:      1,
		PageCount:     1,
		Categories:    1,
	}
}

func (w MatchWeights) Total() float64 {
	return w.Title + w.Subtitle + w.Description + w.Authors + w.Publisher +
		w.PublishedDate + w.SeriesName + w.SeriesNumber + w.SeriesTotal +
		w.ISBN13 + w.ISBN10 + w.Language + w.PageCount + w.Categories
}

// CalculateMatchScore returns the weighted share of populated metadata fields
// as a percentage. A nil metadata scores zero.
func CalculateMatchScore(meta *models.Metadata, weights MatchWeights) float64 {
	if meta == nil {
		return 0
	}

	totalWeight := weights.Total()
	if totalWeight == 0 {
		return 0
	}

	score := 0.0
	if present(meta.Title) {
		score += weights.Title
	}
	if present(meta.Subtitle) {
		score += weights.Subtitle
	}
	if present(meta.Description) {
		score += weights.Description
	}
	if len(meta.Authors) > 0 {
		score += weights.Authors
	}
	if present(meta.Publisher) {
		score += weights.Publisher
	}
	if meta.PublishedDate != nil {
		score += weights.PublishedDate
	}
	if present(meta.SeriesName) {
		score += weights.SeriesName
	}
	if meta.SeriesNumber != nil && *meta.SeriesNumber > 0 {
		score += weights.SeriesNumber
	}
	if meta.SeriesTotal != nil && *meta.SeriesTotal > 0 {
		score += weights.SeriesTotal
	}
	if present(meta.ISBN13) {
		score += weights.ISBN13
	}
	if present(meta.ISBN10) {
		score += weights.ISBN10
	}
	if present(meta.Language) {
		score += weights.Language
	}
	if meta.PageCount != nil && *meta.PageCount > 0 {
		score += weights.PageCount
	}
	if len(meta.Categories) > 0 {
		score += weights.Categories
	}

	return score / totalWeight * 100
}

// RecalculateMatchScore recomputes and stores the book's metadata match
// score. The Metadata relation (with authors and categories) must be loaded.
func (svc *Service) RecalculateMatchScore(ctx context.Context, book *models.Book, weights MatchWeights) error {
	score := CalculateMatchScore(book.Metadata, weights)
	book.MetadataMatchScore = &score
	return svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"metadata_match_score"}})
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
