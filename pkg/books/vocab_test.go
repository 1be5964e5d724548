package books

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateAuthor_ReusesExistingRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	first, err := svc.FindOrCreateAuthor(ctx, "Frank Herbert")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := svc.FindOrCreateAuthor(ctx, "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestFindOrCreateAuthor_TruncatesLongNames(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	long := strings.Repeat("x", 400)
	author, err := svc.FindOrCreateAuthor(ctx, long)
	require.NoError(t, err)
	assert.Len(t, author.Name, maxNameLength)

	// The truncated form is the identity, so the long name maps to the same
	// row next time.
	again, err := svc.FindOrCreateAuthor(ctx, long)
	require.NoError(t, err)
	assert.Equal(t, author.ID, again.ID)
}

func TestFindOrCreateCategory(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	first, err := svc.FindOrCreateCategory(ctx, "Science Fiction")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := svc.FindOrCreateCategory(ctx, "Science Fiction")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestReplaceBookAuthors(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	library, path := createTestLibrary(t, db)
	book := createTestBook(t, svc, library, path, "book.epub", "hash-vocab")

	err := svc.ReplaceBookAuthors(ctx, book.ID, []string{"Author One", "Author Two"})
	require.NoError(t, err)

	got, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Author One", "Author Two"}, got.Metadata.AuthorNames())

	// A second replace drops the old links entirely.
	err = svc.ReplaceBookAuthors(ctx, book.ID, []string{"Author Three"})
	require.NoError(t, err)

	got, err = svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Author Three"}, got.Metadata.AuthorNames())
}

func TestReplaceBookCategories_DedupesAndSkipsBlank(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	library, path := createTestLibrary(t, db)
	book := createTestBook(t, svc, library, path, "book.epub", "hash-cats")

	err := svc.ReplaceBookCategories(ctx, book.ID, []string{"Fantasy", "", "Fantasy", "Epic"})
	require.NoError(t, err)

	got, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Fantasy", "Epic"}, got.Metadata.CategoryNames())
}

func TestDedupeNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupeNames([]string{"a", "b", "a", ""}))
	assert.Empty(t, dedupeNames([]string{"", ""}))
	assert.Empty(t, dedupeNames(nil))
}
