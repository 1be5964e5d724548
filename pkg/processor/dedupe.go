package processor

import (
	"context"
	"time"

	"github.com/booklore-app/booklore/pkg/books"
	"github.com/booklore-app/booklore/pkg/errcodes"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Resolver decides a discovered file's identity against the catalog. The
// lookup order is a correctness contract: soft-deleted hash match, active
// hash match, additional-file hash match, filename fallback, then new.
type Resolver struct {
	bookService *books.Service
	log         logger.Logger
}

func NewResolver(bookService *books.Service, log logger.Logger) *Resolver {
	return &Resolver{
		bookService: bookService,
		log:         log,
	}
}

// Resolve classifies the file by content hash. It mutates matched books
// (revival, location rebind, hash refresh) and returns the committed state,
// so callers always observe their own writes. An empty hash is an error; the
// file must be skipped rather than misclassified as new.
func (r *Resolver) Resolve(ctx context.Context, file *LibraryFile, hash string) (*Result, error) {
	if hash == "" {
		return nil, errors.New("cannot resolve a file without a content hash")
	}

	deleted := true
	live := false

	// A soft-deleted book with identical bytes comes back instead of
	// spawning a duplicate.
	book, err := r.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{CurrentHash: &hash, Deleted: &deleted})
	if err == nil {
		return r.revive(ctx, book, file)
	}
	if !errors.Is(err, errcodes.NotFound("Book")) {
		return nil, err
	}

	book, err = r.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{CurrentHash: &hash, Deleted: &live})
	if err == nil {
		return r.rebind(ctx, book, file, hash)
	}
	if !errors.Is(err, errcodes.NotFound("Book")) {
		return nil, err
	}

	additional, err := r.bookService.RetrieveAdditionalFile(ctx, books.RetrieveAdditionalFileOptions{CurrentHash: &hash})
	if err == nil {
		owner, err := r.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &additional.BookID})
		if err != nil {
			return nil, err
		}
		// The owning book's primary file fields stay untouched.
		return &Result{
			Status:    StatusDuplicateAdditionalFormat,
			Book:      owner,
			Duplicate: r.duplicateInfo(owner, file, hash),
		}, nil
	}
	if !errors.Is(err, errcodes.NotFound("Additional file")) {
		return nil, err
	}

	// Legacy fallback for rows ingested before hashing existed.
	book, err = r.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{
		FileName:  &file.FileName,
		LibraryID: &file.Library.ID,
		Deleted:   &live,
	})
	if err == nil {
		return &Result{
			Status:    StatusDuplicate,
			Book:      book,
			Duplicate: r.duplicateInfo(book, file, hash),
		}, nil
	}
	if !errors.Is(err, errcodes.NotFound("Book")) {
		return nil, err
	}

	return &Result{Status: StatusNew}, nil
}

func (r *Resolver) revive(ctx context.Context, book *models.Book, file *LibraryFile) (*Result, error) {
	r.log.Info("reviving soft-deleted book", logger.Data{"book_id": book.ID, "file_name": file.FileName})

	book.Deleted = false
	book.DeletedAt = nil
	err := r.bookService.UpdateBook(ctx, book, books.UpdateBookOptions{Columns: []string{"deleted", "deleted_at"}})
	if err != nil {
		return nil, err
	}

	err = r.bookService.UpdateFileLocation(ctx, book.ID, file.Library.ID, file.LibraryPath.ID, file.FileSubPath, file.FileName)
	if err != nil {
		return nil, err
	}

	fresh, err := r.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &book.ID})
	if err != nil {
		return nil, err
	}

	return &Result{Status: StatusRevived, Book: fresh}, nil
}

func (r *Resolver) rebind(ctx context.Context, book *models.Book, file *LibraryFile, hash string) (*Result, error) {
	changed := book.FileName != file.FileName ||
		book.LibraryPathID != file.LibraryPath.ID ||
		book.FileSubPath != file.FileSubPath

	// The hash is refreshed even when nothing moved; a byte-identical
	// re-read still reflects the latest pass.
	book.CurrentHash = hash
	err := r.bookService.UpdateBook(ctx, book, books.UpdateBookOptions{Columns: []string{"current_hash"}})
	if err != nil {
		return nil, err
	}

	if !changed {
		return &Result{
			Status:    StatusDuplicate,
			Book:      book,
			Duplicate: r.duplicateInfo(book, file, hash),
		}, nil
	}

	// Location fields move as a unit; a sub path is meaningless without its
	// library path.
	err = r.bookService.UpdateFileLocation(ctx, book.ID, file.Library.ID, file.LibraryPath.ID, file.FileSubPath, file.FileName)
	if err != nil {
		return nil, err
	}

	fresh, err := r.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &book.ID})
	if err != nil {
		return nil, err
	}

	return &Result{
		Status:    StatusUpdated,
		Book:      fresh,
		Duplicate: r.duplicateInfo(fresh, file, hash),
	}, nil
}

func (r *Resolver) duplicateInfo(book *models.Book, file *LibraryFile, hash string) *DuplicateInfo {
	info := &DuplicateInfo{
		BookID:    book.ID,
		FileName:  file.FileName,
		FullPath:  file.FullPath(),
		Hash:      hash,
		Timestamp: time.Now(),
	}
	if file.Library != nil {
		info.LibraryID = file.Library.ID
		info.LibraryName = file.Library.Name
	}
	return info
}
