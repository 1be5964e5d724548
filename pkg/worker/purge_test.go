package worker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/booklore-app/booklore/pkg/books"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// soft-deletes the book and backdates the deletion by the given number of
// days.
func (tc *testContext) softDeleteAged(book *models.Book, days int) {
	tc.t.Helper()

	require.NoError(tc.t, tc.bookService.SoftDeleteBook(tc.ctx, book))

	past := time.Now().AddDate(0, 0, -days)
	_, err := tc.db.NewUpdate().
		Model((*models.Book)(nil)).
		Set("deleted_at = ?", past).
		Where("id = ?", book.ID).
		Exec(tc.ctx)
	require.NoError(tc.t, err)
}

func (tc *testContext) ingestBook(root, fileName string) *models.Book {
	tc.t.Helper()

	writeEPUB(tc.t, filepath.Join(root, fileName), duneOPF)

	job := &models.Job{Type: models.JobTypeScan, Status: models.JobStatusPending}
	require.NoError(tc.t, tc.jobService.CreateJob(tc.ctx, job))
	require.NoError(tc.t, tc.worker.ProcessScanJob(tc.ctx, job))

	book, err := tc.bookService.RetrieveBook(tc.ctx, books.RetrieveBookOptions{FileName: &fileName})
	require.NoError(tc.t, err)
	return book
}

func TestProcessPurgeJob_PurgesExpiredBooks(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.createLibrary([]string{root})
	book := tc.ingestBook(root, "Dune.epub")

	tc.softDeleteAged(book, 90)

	job := &models.Job{Type: models.JobTypePurge, Status: models.JobStatusPending}
	require.NoError(t, tc.jobService.CreateJob(tc.ctx, job))

	require.NoError(t, tc.worker.ProcessPurgeJob(tc.ctx, job))
	assert.Equal(t, 100, job.Progress)

	count, err := tc.bookService.CountSoftDeleted(tc.ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessPurgeJob_KeepsRecentDeletions(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.createLibrary([]string{root})
	book := tc.ingestBook(root, "Dune.epub")

	// Deleted five days ago, inside the 30 day default window.
	tc.softDeleteAged(book, 5)

	job := &models.Job{Type: models.JobTypePurge, Status: models.JobStatusPending}
	require.NoError(t, tc.jobService.CreateJob(tc.ctx, job))

	require.NoError(t, tc.worker.ProcessPurgeJob(tc.ctx, job))

	count, err := tc.bookService.CountSoftDeleted(tc.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessPurgeJob_RetentionOverride(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.createLibrary([]string{root})
	book := tc.ingestBook(root, "Dune.epub")

	tc.softDeleteAged(book, 5)

	job := &models.Job{
		Type:       models.JobTypePurge,
		Status:     models.JobStatusPending,
		DataParsed: &models.JobPurgeData{RetentionDays: pointerutil.Int(1)},
	}
	require.NoError(t, tc.jobService.CreateJob(tc.ctx, job))

	require.NoError(t, tc.worker.ProcessPurgeJob(tc.ctx, job))

	count, err := tc.bookService.CountSoftDeleted(tc.ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
