package worker

import (
	"archive/zip"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/booklore-app/booklore/pkg/books"
	"github.com/booklore-app/booklore/pkg/config"
	"github.com/booklore-app/booklore/pkg/jobs"
	"github.com/booklore-app/booklore/pkg/libraries"
	"github.com/booklore-app/booklore/pkg/migrations"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/booklore-app/booklore/pkg/processor"
	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type testContext struct {
	t   *testing.T
	ctx context.Context
	db  *bun.DB

	worker *Worker
	watch  chan string

	bookService    *books.Service
	jobService     *jobs.Service
	libraryService *libraries.Service
}

func newTestContext(t *testing.T) *testContext {
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

	pipeline := processor.NewPipeline(db, logger.New(), nil, nil)
	watch := make(chan string, 16)

	return &testContext{
		t:      t,
		ctx:    context.Background(),
		db:     db,
		worker: New(config.NewForTest(), db, pipeline, watch),
		watch:  watch,

		bookService:    books.NewService(db),
		jobService:     jobs.NewService(db),
		libraryService: libraries.NewService(db),
	}
}

func (tc *testContext) createLibrary(paths []string) *models.Library {
	tc.t.Helper()

	libraryPaths := make([]*models.LibraryPath, 0, len(paths))
	for _, p := range paths {
		libraryPaths = append(libraryPaths, &models.LibraryPath{Path: p})
	}

	library := &models.Library{
		Name:         "Test Library",
		LibraryPaths: libraryPaths,
	}
	require.NoError(tc.t, tc.libraryService.CreateLibrary(tc.ctx, library))

	return library
}

func (tc *testContext) listBooks() []*models.Book {
	tc.t.Helper()

	all, err := tc.bookService.ListBooks(tc.ctx, books.ListBooksOptions{})
	require.NoError(tc.t, err)
	return all
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
