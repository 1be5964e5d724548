package books

import (
	"context"
	"testing"
	"time"

	"github.com/booklore-app/booklore/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMatchScore(t *testing.T) {
	now := time.Now()
	seriesNum := 2.0
	seriesTotal := 6
	pageCount := 412

	full := &models.Metadata{
		Title:         "Dune Messiah",
		Subtitle:      "Book Two",
		Description:   "The continuation.",
		Publisher:     "Chilton Books",
		PublishedDate: &now,
		Language:      "en",
		SeriesName:    "Dune Chronicles",
		SeriesNumber:  &seriesNum,
		SeriesTotal:   &seriesTotal,
		ISBN10:        "0441172695",
		ISBN13:        "9780441172696",
		PageCount:     &pageCount,
		Authors:       []*models.Author{{Name: "Frank Herbert"}},
		Categories:    []*models.Category{{Name: "Science Fiction"}},
	}

	tests := []struct {
		name    string
		meta    *models.Metadata
		weights MatchWeights
		want    float64
	}{
		{
			name:    "nil metadata scores zero",
			meta:    nil,
			weights: DefaultMatchWeights(),
			want:    0,
		},
		{
			name:    "empty metadata scores zero",
			meta:    &models.Metadata{},
			weights: DefaultMatchWeights(),
			want:    0,
		},
		{
			name:    "fully populated metadata scores 100",
			meta:    full,
			weights: DefaultMatchWeights(),
			want:    100,
		},
		{
			name:    "zero total weight scores zero",
			meta:    full,
			weights: MatchWeights{},
			want:    0,
		},
		{
			name: "title only under default weights",
			meta: &models.Metadata{Title: "Dune"},
			// Title is 3 of the 20 total default weight points.
			weights: DefaultMatchWeights(),
			want:    15,
		},
		{
			name:    "whitespace does not count as present",
			meta:    &models.Metadata{Title: "   ", Publisher: "\t"},
			weights: DefaultMatchWeights(),
			want:    0,
		},
		{
			name: "custom weights",
			meta: &models.Metadata{Title: "Dune", Language: "en"},
			weights: MatchWeights{
				Title:    1,
				Authors:  1,
				Language: 2,
			},
			want: 75,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := CalculateMatchScore(test.meta, test.weights)
			assert.InDelta(t, test.want, got, 0.0001)
		})
	}
}

func TestDefaultMatchWeights_Total(t *testing.T) {
	assert.InDelta(t, 20.0, DefaultMatchWeights().Total(), 0.0001)
}

func TestRecalculateMatchScore_Persists(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	library, path := createTestLibrary(t, db)

	book := &models.Book{
		LibraryID:     library.ID,
		LibraryPathID: path.ID,
		FileName:      "scored.epub",
		BookType:      models.BookTypeEPUB,
		InitialHash:   "hash-score",
		CurrentHash:   "hash-score",
		Metadata:      &models.Metadata{Title: "Scored"},
	}
	require.NoError(t, svc.CreateBook(ctx, book))

	err := svc.RecalculateMatchScore(ctx, book, DefaultMatchWeights())
	require.NoError(t, err)

	got, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	require.NotNil(t, got.MetadataMatchScore)
	assert.InDelta(t, 15.0, *got.MetadataMatchScore, 0.0001)
}
