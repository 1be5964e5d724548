package worker

import (
	"context"
	"time"

	"github.com/booklore-app/booklore/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// ProcessPurgeJob hard-deletes books whose soft deletion is older than the
// retention window. The job data can override the configured window for a
// single run.
func (w *Worker) ProcessPurgeJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)

	days := w.config.SoftDeleteRetentionDays
	if data, ok := job.DataParsed.(*models.JobPurgeData); ok && data != nil && data.RetentionDays != nil {
		days = *data.RetentionDays
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	purged, err := w.bookService.PurgeSoftDeletedBefore(ctx, cutoff)
	if err != nil {
		return errors.WithStack(err)
	}

	job.Progress = 100
	log.Info("finished purge job", logger.Data{"purged": purged, "retention_days": days})
	return nil
}
