package worker

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/booklore-app/booklore/pkg/jobs"
	"github.com/booklore-app/booklore/pkg/libraries"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/booklore-app/booklore/pkg/processor"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// extensionsToScan maps book file extensions to the mime types we accept for
// them. EPUBs missing the stored mimetype entry detect as plain zip, so both
// are allowed.
var extensionsToScan = map[string]map[string]struct{}{
	".epub": {"application/epub+zip": {}, "application/zip": {}},
	".pdf":  {"application/pdf": {}},
	".cbz":  {"application/zip": {}},
	".cbr":  {"application/x-rar-compressed": {}},
	".cb7":  {"application/x-7z-compressed": {}},
}

func (w *Worker) ProcessScanJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)
	log.Info("processing scan job")

	scanLibraries, err := w.scanTargets(ctx, job)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("processing libraries", logger.Data{"count": len(scanLibraries)})

	filesToScan := make([]*processor.LibraryFile, 0)
	for _, library := range scanLibraries {
		log.Info("processing library", logger.Data{"library_id": library.ID})

		for _, libraryPath := range library.LibraryPaths {
			files, err := w.collectFiles(log, library, libraryPath)
			if err != nil {
				return errors.WithStack(err)
			}
			filesToScan = append(filesToScan, files...)
		}
	}

	// The full file list is collected before any real work so job progress
	// reflects a known total.
	for i, file := range filesToScan {
		_, err := w.pipeline.ProcessFile(ctx, file)
		if err != nil {
			// One unreadable file never aborts the scan.
			log.Err(err).Warn("file scan failed", logger.Data{"path": file.FullPath()})
		}

		percent := (i + 1) * 100 / len(filesToScan)
		if percent != job.Progress {
			job.Progress = percent
			err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{Columns: []string{"progress"}})
			if err != nil {
				log.Err(err).Warn("update job progress error")
			}
		}
	}

	job.Progress = 100
	log.Info("finished scan job", logger.Data{"files": len(filesToScan)})
	return nil
}

// scanTargets resolves which libraries a scan job covers. An empty ID list
// on the job means every non-deleted library.
func (w *Worker) scanTargets(ctx context.Context, job *models.Job) ([]*models.Library, error) {
	all, err := w.libraryService.ListLibraries(ctx, libraries.ListLibrariesOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	data, ok := job.DataParsed.(*models.JobScanData)
	if !ok || data == nil || len(data.LibraryIDs) == 0 {
		return all, nil
	}

	wanted := map[int]struct{}{}
	for _, id := range data.LibraryIDs {
		wanted[id] = struct{}{}
	}

	scoped := make([]*models.Library, 0, len(data.LibraryIDs))
	for _, library := range all {
		if _, ok := wanted[library.ID]; ok {
			scoped = append(scoped, library)
		}
	}
	return scoped, nil
}

// collectFiles walks one library path and returns every file with a book
// extension whose detected mime type matches.
func (w *Worker) collectFiles(log logger.Logger, library *models.Library, libraryPath *models.LibraryPath) ([]*processor.LibraryFile, error) {
	log = log.Data(logger.Data{"library_path_id": libraryPath.ID, "library_path": libraryPath.Path})
	log.Info("processing library path")

	files := make([]*processor.LibraryFile, 0)
	err := filepath.WalkDir(libraryPath.Path, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if info.IsDir() {
			return nil
		}

		expectedMimeTypes, ok := extensionsToScan[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			// We can't detect the mime type, so we just skip it.
			log.Warn("can't detect the mime type of a file with a valid extension", logger.Data{"path": path, "err": err.Error()})
			return nil
		}
		if _, ok := expectedMimeTypes[mtype.String()]; !ok {
			// Files can carry any extension, so the content has to back the
			// extension up before the file enters the pipeline.
			log.Warn("mime type is not expected for extension", logger.Data{"path": path, "mimetype": mtype.String()})
			return nil
		}

		rel, err := filepath.Rel(libraryPath.Path, path)
		if err != nil {
			return errors.WithStack(err)
		}
		subPath := filepath.Dir(rel)
		if subPath == "." {
			subPath = ""
		}

		files = append(files, &processor.LibraryFile{
			Library:     library,
			LibraryPath: libraryPath,
			FileSubPath: subPath,
			FileName:    filepath.Base(rel),
		})
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return files, nil
}
