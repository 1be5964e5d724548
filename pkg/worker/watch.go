package worker

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/booklore-app/booklore/pkg/libraries"
	"github.com/booklore-app/booklore/pkg/processor"
	"github.com/robinjoseph08/golib/logger"
)

// watchEvents drains the filesystem monitor feed and pushes each file
// through the pipeline. A nil feed just waits for shutdown.
func (w *Worker) watchEvents() {
	watch := w.watch
	for {
		select {
		case <-w.shutdown:
			w.doneWatching <- struct{}{}
			return
		case path, ok := <-watch:
			if !ok {
				watch = nil
				continue
			}
			w.handleFileEvent(path)
		}
	}
}

func (w *Worker) handleFileEvent(path string) {
	ctx := w.log.WithContext(context.Background())
	log := w.log.Data(logger.Data{"path": path})

	file, err := w.resolveLibraryFile(ctx, path)
	if err != nil {
		log.Err(err).Warn("resolve watched file error")
		return
	}
	if file == nil {
		// Registered watches can briefly outlive a deleted library.
		log.Warn("watched file is outside every library path")
		return
	}

	_, err = w.pipeline.ProcessFile(ctx, file)
	if err != nil {
		log.Err(err).Warn("watched file processing failed")
	}
}

// resolveLibraryFile maps an absolute file path back to the library path
// that contains it. Returns nil when no library claims the path.
func (w *Worker) resolveLibraryFile(ctx context.Context, path string) (*processor.LibraryFile, error) {
	all, err := w.libraryService.ListLibraries(ctx, libraries.ListLibrariesOptions{})
	if err != nil {
		return nil, err
	}

	for _, library := range all {
		for _, libraryPath := range library.LibraryPaths {
			root := filepath.Clean(libraryPath.Path)
			if !strings.HasPrefix(path, root+string(filepath.Separator)) {
				continue
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil, err
			}
			subPath := filepath.Dir(rel)
			if subPath == "." {
				subPath = ""
			}

			return &processor.LibraryFile{
				Library:     library,
				LibraryPath: libraryPath,
				FileSubPath: subPath,
				FileName:    filepath.Base(rel),
			}, nil
		}
	}

	return nil, nil
}
