// Package filemove relocates book files according to naming patterns: bulk
// library reassignment and single-file auto-correction after metadata edits.
package filemove

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/booklore-app/booklore/pkg/books"
	"github.com/booklore-app/booklore/pkg/errcodes"
	"github.com/booklore-app/booklore/pkg/events"
	"github.com/booklore-app/booklore/pkg/fileutils"
	"github.com/booklore-app/booklore/pkg/libraries"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/booklore-app/booklore/pkg/pathpattern"
	"github.com/booklore-app/booklore/pkg/settings"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// FallbackPattern is the end of the naming-pattern default chain. It is
// always resolvable because every book has a current filename.
const FallbackPattern = "{currentFilename}"

// Registrar pauses or detaches filesystem monitoring while the orchestrator
// moves files, so the monitor never observes its own writes. All methods are
// safe to call redundantly.
type Registrar interface {
	RegisterPaths(paths []string)
	UnregisterPath(path string)
	Pause(path string)
	Resume(path string)
}

// MoveRequest asks for one book to be moved into a target library path.
type MoveRequest struct {
	BookID        int `json:"book_id" validate:"required,min=1"`
	LibraryID     int `json:"library_id" validate:"required,min=1"`
	LibraryPathID int `json:"library_path_id" validate:"required,min=1"`
}

type Service struct {
	log             logger.Logger
	bookService     *books.Service
	libraryService  *libraries.Service
	settingsService *settings.Service
	hub             *events.Hub
	registrar       Registrar
}

func NewService(db *bun.DB, log logger.Logger, hub *events.Hub, settingsService *settings.Service, registrar Registrar) *Service {
	return &Service{
		log:             log,
		bookService:     books.NewService(db),
		libraryService:  libraries.NewService(db),
		settingsService: settingsService,
		hub:             hub,
		registrar:       registrar,
	}
}

// BulkMove processes each request independently: unresolvable books or
// targets are skipped, per-item failures are logged and never abort the
// batch. Monitoring is detached for every target library up front and for
// each source library as it is encountered, then re-registered once the
// whole batch is done, even when items failed.
func (svc *Service) BulkMove(ctx context.Context, requests []MoveRequest) {
	unregistered := map[int][]string{}

	unregister := func(libraryID int) []string {
		if roots, ok := unregistered[libraryID]; ok {
			return roots
		}
		roots := svc.libraryRoots(ctx, libraryID)
		for _, root := range roots {
			if svc.registrar != nil {
				svc.registrar.UnregisterPath(root)
			}
		}
		unregistered[libraryID] = roots
		return roots
	}

	defer func() {
		if svc.registrar == nil {
			return
		}
		for _, roots := range unregistered {
			svc.registrar.RegisterPaths(roots)
		}
	}()

	for _, req := range requests {
		unregister(req.LibraryID)
	}

	for _, req := range requests {
		err := svc.moveOne(ctx, req, unregister)
		if err != nil {
			svc.log.Err(err).Warn("bulk move item failed", logger.Data{
				"book_id":         req.BookID,
				"library_id":      req.LibraryID,
				"library_path_id": req.LibraryPathID,
			})
		}
	}
}

// AutoCorrect re-resolves a book's path from its own library's naming
// pattern and moves the file when the on-disk location drifted. It reports
// whether a move happened. Monitoring for the library is paused for the
// duration and always resumed.
func (svc *Service) AutoCorrect(ctx context.Context, bookID int) (bool, error) {
	live := false
	book, err := svc.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID, Deleted: &live})
	if err != nil {
		return false, err
	}
	if book.Library == nil || book.LibraryPath == nil {
		return false, errors.Errorf("book %d has no resolvable library path", bookID)
	}
	if !book.Library.OrganizeFileStructure {
		return false, nil
	}

	pattern := svc.namingPattern(ctx, book.Library)
	rel := strings.TrimLeft(pathpattern.ResolveBook(book, pattern), "/")
	newFull := filepath.Join(book.LibraryPath.Path, filepath.FromSlash(rel))
	oldFull := book.FullPath()

	if newFull == oldFull {
		return false, nil
	}

	roots := svc.libraryRoots(ctx, book.LibraryID)
	if svc.registrar != nil {
		for _, root := range roots {
			svc.registrar.Pause(root)
		}
		defer func() {
			for _, root := range roots {
				svc.registrar.Resume(root)
			}
		}()
	}

	err = svc.relocate(ctx, book, book.LibraryID, book.LibraryPath, newFull, oldFull, roots)
	if err != nil {
		return false, err
	}

	return true, nil
}

func (svc *Service) moveOne(ctx context.Context, req MoveRequest, unregister func(int) []string) error {
	live := false
	book, err := svc.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &req.BookID, Deleted: &live})
	if err != nil {
		if errors.Is(err, errcodes.NotFound("Book")) {
			return nil
		}
		return err
	}

	targetLibrary, err := svc.libraryService.RetrieveLibrary(ctx, libraries.RetrieveLibraryOptions{ID: &req.LibraryID})
	if err != nil {
		if errors.Is(err, errcodes.NotFound("Library")) {
			return nil
		}
		return err
	}

	var targetPath *models.LibraryPath
	for _, path := range targetLibrary.LibraryPaths {
		if path.ID == req.LibraryPathID {
			targetPath = path
			break
		}
	}
	if targetPath == nil {
		return nil
	}

	if book.LibraryID == targetLibrary.ID {
		return nil
	}

	// Detach monitoring for the source library before the file moves.
	sourceRoots := unregister(book.LibraryID)

	pattern := svc.namingPattern(ctx, targetLibrary)
	rel := strings.TrimLeft(pathpattern.ResolveBook(book, pattern), "/")
	newFull := filepath.Join(targetPath.Path, filepath.FromSlash(rel))
	oldFull := book.FullPath()

	if newFull == oldFull {
		return nil
	}

	return svc.relocate(ctx, book, targetLibrary.ID, targetPath, newFull, oldFull, sourceRoots)
}

// relocate performs the shared physical move, the single-statement location
// rebind, source directory cleanup, and the book-updated broadcast.
func (svc *Service) relocate(ctx context.Context, book *models.Book, targetLibraryID int, targetPath *models.LibraryPath, newFull, oldFull string, sourceRoots []string) error {
	err := fileutils.MoveFile(oldFull, newFull)
	if err != nil {
		return err
	}

	subPath, err := fileutils.ExtractSubPath(newFull, targetPath.Path)
	if err != nil {
		return err
	}

	err = svc.bookService.UpdateFileLocation(ctx, book.ID, targetLibraryID, targetPath.ID, subPath, filepath.Base(newFull))
	if err != nil {
		return err
	}

	fileutils.DeleteEmptyParentDirs(svc.log, filepath.Dir(oldFull), sourceRoots)

	fresh, err := svc.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &book.ID})
	if err != nil {
		return err
	}

	if svc.hub != nil {
		svc.hub.Publish(events.Event{
			Type:      events.TypeBookUpdated,
			BookID:    fresh.ID,
			LibraryID: fresh.LibraryID,
			FilePath:  fresh.FullPath(),
		})
	}

	return nil
}

// namingPattern walks the default chain: library override, global upload
// pattern, then the bare current filename. A trailing slash means "directory
// only" and gets the filename appended.
func (svc *Service) namingPattern(ctx context.Context, library *models.Library) string {
	pattern := strings.TrimSpace(library.FileNamingPattern)
	if pattern == "" && svc.settingsService != nil {
		if s, err := svc.settingsService.AppSettings(ctx); err == nil {
			pattern = strings.TrimSpace(s.UploadPattern)
		}
	}
	if pattern == "" {
		pattern = FallbackPattern
	}
	if strings.HasSuffix(pattern, "/") {
		pattern += FallbackPattern
	}
	return pattern
}

func (svc *Service) libraryRoots(ctx context.Context, libraryID int) []string {
	library, err := svc.libraryService.RetrieveLibrary(ctx, libraries.RetrieveLibraryOptions{ID: &libraryID})
	if err != nil {
		svc.log.Warn("failed to resolve library roots", logger.Data{"library_id": libraryID, "error": err.Error()})
		return nil
	}

	roots := make([]string, 0, len(library.LibraryPaths))
	for _, path := range library.LibraryPaths {
		roots = append(roots, path.Path)
	}
	return roots
}
