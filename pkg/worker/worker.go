// Package worker runs background jobs: library scans that feed discovered
// files through the processing pipeline, retention purges for soft-deleted
// books, and live filesystem events from the monitor.
package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/booklore-app/booklore/pkg/books"
	"github.com/booklore-app/booklore/pkg/config"
	"github.com/booklore-app/booklore/pkg/jobs"
	"github.com/booklore-app/booklore/pkg/libraries"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/booklore-app/booklore/pkg/processor"
	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/uptrace/bun"
)

var processID = randStringBytes(8)

type Worker struct {
	config *config.Config
	log    logger.Logger

	processFuncs map[string]func(ctx context.Context, job *models.Job) error

	pipeline       *processor.Pipeline
	bookService    *books.Service
	jobService     *jobs.Service
	libraryService *libraries.Service

	// watch is the live file-event feed from the filesystem monitor. It
	// may be nil when the worker only runs queued jobs.
	watch <-chan string

	queue          chan *models.Job
	shutdown       chan struct{}
	doneFetching   chan struct{}
	doneWatching   chan struct{}
	doneProcessing chan struct{}
}

func New(cfg *config.Config, db *bun.DB, pipeline *processor.Pipeline, watch <-chan string) *Worker {
	w := &Worker{
		config: cfg,
		log:    logger.New(),

		pipeline:       pipeline,
		bookService:    books.NewService(db),
		jobService:     jobs.NewService(db),
		libraryService: libraries.NewService(db),

		watch: watch,

		queue:          make(chan *models.Job, cfg.WorkerProcesses),
		shutdown:       make(chan struct{}),
		doneFetching:   make(chan struct{}),
		doneWatching:   make(chan struct{}),
		doneProcessing: make(chan struct{}, cfg.WorkerProcesses),
	}

	w.processFuncs = map[string]func(ctx context.Context, job *models.Job) error{
		models.JobTypeScan:  w.ProcessScanJob,
		models.JobTypePurge: w.ProcessPurgeJob,
	}

	return w
}

func (w *Worker) Start() {
	go w.fetchJobs()
	go w.watchEvents()
	for i := 0; i < w.config.WorkerProcesses; i++ {
		go w.processJobs()
	}
}

func (w *Worker) fetchJobs() {
	duration := 5 * time.Second
	timer := time.NewTimer(duration)

	purgeInterval := w.config.PurgeInterval
	if purgeInterval <= 0 {
		purgeInterval = 24 * time.Hour
	}
	purge := time.NewTicker(purgeInterval)
	defer purge.Stop()

	for {
		select {
		case <-w.shutdown:
			// We're shutting down, so stop adding more jobs to the queue.
			w.doneFetching <- struct{}{}
			return
		case <-purge.C:
			err := w.schedulePurge(context.Background())
			if err != nil {
				w.log.Err(err).Error("schedule purge error")
			}
		case <-timer.C:
			j, err := w.jobService.ListJobs(context.Background(), jobs.ListJobsOptions{
				Limit:              pointerutil.Int(1),
				Statuses:           []string{models.JobStatusPending, models.JobStatusInProgress},
				ProcessIDToExclude: &processID,
			})
			if err != nil {
				w.log.Err(err).Error("list jobs error")
				timer.Reset(duration)
				continue
			}
			for _, job := range j {
				w.queue <- job
			}
			timer.Reset(duration)
		}
	}
}

func (w *Worker) processJobs() {
	for {
		select {
		case <-w.shutdown:
			w.doneProcessing <- struct{}{}
			return
		case job := <-w.queue:
			w.runJob(job)
		}
	}
}

// runJob claims a job for this process, dispatches it, and records the
// terminal status. A process error marks the job failed rather than leaving
// it in progress.
func (w *Worker) runJob(job *models.Job) {
	id, err := uuid.NewRandom()
	if err != nil {
		w.log.Err(err).Error("new uuid error")
		return
	}
	log := w.log.ID(id.String()).Root(logger.Data{"job_id": job.ID, "type": job.Type, "process_id": processID})
	ctx := log.WithContext(context.Background())

	job.Status = models.JobStatusInProgress
	job.ProcessID = &processID

	err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
		Columns: []string{"status", "process_id"},
	})
	if err != nil {
		log.Err(err).Error("update job error")
		return
	}

	fn, ok := w.processFuncs[job.Type]
	if !ok {
		log.Error("can't find process function for type")
		return
	}

	job.Status = models.JobStatusCompleted
	err = fn(ctx, job)
	if err != nil {
		log.Err(err).Error("process error")
		job.Status = models.JobStatusFailed
	}

	err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
		Columns: []string{"status", "progress"},
	})
	if err != nil {
		log.Err(err).Error("update job error")
	}
}

func (w *Worker) Shutdown() {
	close(w.shutdown)

	<-w.doneFetching
	<-w.doneWatching
	for i := 0; i < w.config.WorkerProcesses; i++ {
		<-w.doneProcessing
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
