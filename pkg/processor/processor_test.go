package processor

import (
	"archive/zip"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/booklore-app/booklore/pkg/books"
	"github.com/booklore-app/booklore/pkg/fingerprint"
	"github.com/booklore-app/booklore/pkg/migrations"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.RegisterModel((*models.MetadataAuthor)(nil), (*models.MetadataCategory)(nil))

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestPipeline(t *testing.T, db *bun.DB) *Pipeline {
	t.Helper()
	return NewPipeline(db, logger.New(), nil, nil)
}

func createTestLibrary(t *testing.T, db *bun.DB, root string) (*models.Library, *models.LibraryPath) {
	t.Helper()
	ctx := context.Background()

	library := &models.Library{Name: "Test Library", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_, err := db.NewInsert().Model(library).Returning("*").Exec(ctx)
	require.NoError(t, err)

	path := &models.LibraryPath{
		LibraryID: library.ID,
		Path:      root,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_, err = db.NewInsert().Model(path).Returning("*").Exec(ctx)
	require.NoError(t, err)

	return library, path
}

func writeEPUB(t *testing.T, path, opfXML string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("OEBPS/content.opf")
	require.NoError(t, err)
	_, err = w.Write([]byte(opfXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

const duneOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Dune</dc:title>
    <dc:creator opf:role="aut">Frank Herbert</dc:creator>
    <dc:language>en</dc:language>
    <dc:subject>Science Fiction</dc:subject>
  </metadata>
</package>`

func libraryFile(library *models.Library, path *models.LibraryPath, subPath, fileName string) *LibraryFile {
	return &LibraryFile{
		Library:     library,
		LibraryPath: path,
		FileSubPath: subPath,
		FileName:    fileName,
	}
}

func TestProcessFile_NewBook(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(t, db)
	ctx := context.Background()

	root := t.TempDir()
	library, path := createTestLibrary(t, db, root)
	writeEPUB(t, filepath.Join(root, "Frank Herbert", "Dune.epub"), duneOPF)

	result, err := pipeline.ProcessFile(ctx, libraryFile(library, path, "Frank Herbert", "Dune.epub"))
	require.NoError(t, err)

	assert.Equal(t, StatusNew, result.Status)
	require.NotNil(t, result.Book)
	assert.NotZero(t, result.Book.ID)
	assert.Equal(t, models.BookTypeEPUB, result.Book.BookType)
	assert.Equal(t, result.Book.InitialHash, result.Book.CurrentHash)
	assert.NotEmpty(t, result.Book.CurrentHash)
	require.NotNil(t, result.Book.Metadata)
	assert.Equal(t, "Dune", result.Book.Metadata.Title)
	assert.Equal(t, []string{"Frank Herbert"}, result.Book.Metadata.AuthorNames())
	require.NotNil(t, result.Book.MetadataMatchScore)
	assert.Greater(t, *result.Book.MetadataMatchScore, 0.0)
}

func TestProcessFile_Idempotent(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(t, db)
	ctx := context.Background()

	root := t.TempDir()
	library, path := createTestLibrary(t, db, root)
	writeEPUB(t, filepath.Join(root, "Dune.epub"), duneOPF)

	file := libraryFile(library, path, "", "Dune.epub")

	first, err := pipeline.ProcessFile(ctx, file)
	require.NoError(t, err)
	require.Equal(t, StatusNew, first.Status)

	second, err := pipeline.ProcessFile(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Equal(t, first.Book.ID, second.Book.ID)
	require.NotNil(t, second.Duplicate)
	assert.Equal(t, first.Book.ID, second.Duplicate.BookID)
	assert.Equal(t, first.Book.CurrentHash, second.Duplicate.Hash)

	// Re-processing must not grow the vocabulary.
	authorCount, err := db.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, authorCount)

	linkCount, err := db.NewSelect().Model((*models.MetadataAuthor)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, linkCount)
}

func TestProcessFile_MovedFileYieldsUpdated(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(t, db)
	ctx := context.Background()

	root := t.TempDir()
	library, path := createTestLibrary(t, db, root)

	oldPath := filepath.Join(root, "inbox", "Dune.epub")
	writeEPUB(t, oldPath, duneOPF)

	first, err := pipeline.ProcessFile(ctx, libraryFile(library, path, "inbox", "Dune.epub"))
	require.NoError(t, err)
	require.Equal(t, StatusNew, first.Status)

	newPath := filepath.Join(root, "Frank Herbert", "Dune (1965).epub")
	require.NoError(t, os.MkdirAll(filepath.Dir(newPath), 0o755))
	require.NoError(t, os.Rename(oldPath, newPath))

	second, err := pipeline.ProcessFile(ctx, libraryFile(library, path, "Frank Herbert", "Dune (1965).epub"))
	require.NoError(t, err)

	assert.Equal(t, StatusUpdated, second.Status)
	assert.Equal(t, first.Book.ID, second.Book.ID)
	assert.Equal(t, first.Book.InitialHash, second.Book.InitialHash)
	assert.Equal(t, "Frank Herbert", second.Book.FileSubPath)
	assert.Equal(t, "Dune (1965).epub", second.Book.FileName)
}

func TestProcessFile_RevivesSoftDeletedBook(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(t, db)
	bookService := books.NewService(db)
	ctx := context.Background()

	root := t.TempDir()
	library, path := createTestLibrary(t, db, root)
	writeEPUB(t, filepath.Join(root, "Dune.epub"), duneOPF)

	file := libraryFile(library, path, "", "Dune.epub")

	first, err := pipeline.ProcessFile(ctx, file)
	require.NoError(t, err)
	require.Equal(t, StatusNew, first.Status)

	require.NoError(t, bookService.SoftDeleteBook(ctx, first.Book))

	second, err := pipeline.ProcessFile(ctx, file)
	require.NoError(t, err)

	assert.Equal(t, StatusRevived, second.Status)
	assert.Equal(t, first.Book.ID, second.Book.ID)
	assert.False(t, second.Book.Deleted)
	assert.Nil(t, second.Book.DeletedAt)
	assert.Equal(t, "Dune.epub", second.Book.FileName)
}

func TestProcessFile_AdditionalFormatMatch(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(t, db)
	bookService := books.NewService(db)
	ctx := context.Background()

	root := t.TempDir()
	library, path := createTestLibrary(t, db, root)
	writeEPUB(t, filepath.Join(root, "Dune.epub"), duneOPF)

	first, err := pipeline.ProcessFile(ctx, libraryFile(library, path, "", "Dune.epub"))
	require.NoError(t, err)
	require.Equal(t, StatusNew, first.Status)

	// Register a companion format under the canonical book, with content that
	// exists on disk as its own file.
	altPath := filepath.Join(root, "Dune-companion.pdf")
	require.NoError(t, os.WriteFile(altPath, []byte("%PDF-1.4 companion bytes"), 0o644))

	altHash := hashFile(t, altPath)
	err = bookService.CreateAdditionalFile(ctx, &models.AdditionalFile{
		BookID:      first.Book.ID,
		FileName:    "Dune-companion.pdf",
		CurrentHash: altHash,
	})
	require.NoError(t, err)

	result, err := pipeline.ProcessFile(ctx, libraryFile(library, path, "", "Dune-companion.pdf"))
	require.NoError(t, err)

	assert.Equal(t, StatusDuplicateAdditionalFormat, result.Status)
	assert.Equal(t, first.Book.ID, result.Book.ID)
	// The owning book's primary file fields are untouched.
	assert.Equal(t, "Dune.epub", result.Book.FileName)
	require.NotNil(t, result.Duplicate)
	assert.Equal(t, altHash, result.Duplicate.Hash)
}

func TestProcessFile_FilenameFallback(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(t, db)
	bookService := books.NewService(db)
	ctx := context.Background()

	root := t.TempDir()
	library, path := createTestLibrary(t, db, root)

	// A legacy row with the same filename but an unrelated hash.
	legacy := &models.Book{
		LibraryID:     library.ID,
		LibraryPathID: path.ID,
		FileName:      "Dune.epub",
		BookType:      models.BookTypeEPUB,
		InitialHash:   "legacy-hash",
		CurrentHash:   "legacy-hash",
	}
	require.NoError(t, bookService.CreateBook(ctx, legacy))

	writeEPUB(t, filepath.Join(root, "Dune.epub"), duneOPF)

	result, err := pipeline.ProcessFile(ctx, libraryFile(library, path, "", "Dune.epub"))
	require.NoError(t, err)

	assert.Equal(t, StatusDuplicate, result.Status)
	assert.Equal(t, legacy.ID, result.Book.ID)
	require.NotNil(t, result.Duplicate)
	assert.Equal(t, legacy.ID, result.Duplicate.BookID)
}

func TestProcessFile_MissingFileIsSkipped(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(t, db)
	ctx := context.Background()

	root := t.TempDir()
	library, path := createTestLibrary(t, db, root)

	_, err := pipeline.ProcessFile(ctx, libraryFile(library, path, "", "ghost.epub"))
	require.Error(t, err)

	// Nothing was recorded for the unreadable file.
	count, err := db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessFile_MalformedFileGetsShellRecord(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(t, db)
	ctx := context.Background()

	root := t.TempDir()
	library, path := createTestLibrary(t, db, root)

	broken := filepath.Join(root, "Design Patterns (Gang of Four).epub")
	require.NoError(t, os.WriteFile(broken, []byte("not a zip archive"), 0o644))

	result, err := pipeline.ProcessFile(ctx, libraryFile(library, path, "", "Design Patterns (Gang of Four).epub"))
	require.NoError(t, err)

	assert.Equal(t, StatusNew, result.Status)
	require.NotNil(t, result.Book.Metadata)
	assert.Equal(t, "Design Patterns", result.Book.Metadata.Title)
}

func TestDuplicateInfo_WithoutLibrary(t *testing.T) {
	r := NewResolver(nil, logger.New())

	file := &LibraryFile{
		LibraryPath: &models.LibraryPath{Path: "/library"},
		FileName:    "dune.epub",
	}
	info := r.duplicateInfo(&models.Book{ID: 7}, file, "hash-1")

	assert.Equal(t, 7, info.BookID)
	assert.Equal(t, 0, info.LibraryID)
	assert.Empty(t, info.LibraryName)
	assert.Equal(t, "dune.epub", info.FileName)
	assert.Equal(t, "hash-1", info.Hash)
}

func hashFile(t *testing.T, path string) string {
	t.Helper()
	hash, err := fingerprint.File(path)
	require.NoError(t, err)
	return hash
}
