package worker

import (
	"context"

	"github.com/booklore-app/booklore/pkg/models"
	"github.com/robinjoseph08/golib/logger"
)

// schedulePurge enqueues a purge job unless one is already pending or in
// progress. The worker's fetch loop picks it up like any other job.
func (w *Worker) schedulePurge(ctx context.Context) error {
	active, err := w.jobService.HasActiveJobByType(ctx, models.JobTypePurge)
	if err != nil {
		return err
	}
	if active {
		return nil
	}

	job := &models.Job{
		Type:       models.JobTypePurge,
		Status:     models.JobStatusPending,
		DataParsed: &models.JobPurgeData{},
	}
	err = w.jobService.CreateJob(ctx, job)
	if err != nil {
		return err
	}

	w.log.Info("scheduled purge job", logger.Data{"job_id": job.ID})
	return nil
}
