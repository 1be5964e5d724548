// Package processor turns discovered library files into catalog entries. The
// resolver decides a file's identity against the existing catalog by content
// hash; per-type extractors build shell records for genuinely new files.
package processor

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/booklore-app/booklore/pkg/bookmeta"
	"github.com/booklore-app/booklore/pkg/books"
	"github.com/booklore-app/booklore/pkg/events"
	"github.com/booklore-app/booklore/pkg/fingerprint"
	"github.com/booklore-app/booklore/pkg/fileutils"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/booklore-app/booklore/pkg/settings"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// LibraryFile is one discovered file within a registered library path.
type LibraryFile struct {
	Library     *models.Library
	LibraryPath *models.LibraryPath
	FileSubPath string
	FileName    string
}

func (f *LibraryFile) FullPath() string {
	return filepath.Join(f.LibraryPath.Path, f.FileSubPath, f.FileName)
}

func (f *LibraryFile) BookType() string {
	return models.BookTypeForExtension(strings.ToLower(filepath.Ext(f.FileName)))
}

type Status string

const (
	StatusNew                       Status = "new"
	StatusDuplicate                 Status = "duplicate"
	StatusDuplicateAdditionalFormat Status = "duplicate_additional_format"
	StatusUpdated                   Status = "updated"
	StatusRevived                   Status = "revived"
)

// DuplicateInfo is the notification payload for a file that matched an
// existing book.
type DuplicateInfo struct {
	BookID      int       `json:"book_id"`
	LibraryID   int       `json:"library_id"`
	LibraryName string    `json:"library_name"`
	FileName    string    `json:"file_name"`
	FullPath    string    `json:"full_path"`
	Hash        string    `json:"hash"`
	Timestamp   time.Time `json:"timestamp"`
}

// Result is the outcome of processing one file. Book is nil only when the
// resolver reports StatusNew before the record is created.
type Result struct {
	Status    Status
	Book      *models.Book
	Duplicate *DuplicateInfo
}

// Extractor parses type-specific metadata for a newly discovered file.
type Extractor interface {
	BookType() string
	Extract(file *LibraryFile) (*bookmeta.Parsed, error)
}

// Pipeline is the shared per-file orchestration: hash, resolve, and create
// when nothing matched. Each file runs in its own transactions so one bad
// file never rolls back the rest of a scan.
type Pipeline struct {
	log             logger.Logger
	bookService     *books.Service
	settingsService *settings.Service
	resolver        *Resolver
	extractors      map[string]Extractor
	hub             *events.Hub
}

func NewPipeline(db *bun.DB, log logger.Logger, hub *events.Hub, settingsService *settings.Service) *Pipeline {
	bookService := books.NewService(db)

	extractors := map[string]Extractor{}
	for _, e := range []Extractor{epubExtractor{}, pdfExtractor{}, cbxExtractor{}} {
		extractors[e.BookType()] = e
	}

	return &Pipeline{
		log:             log,
		bookService:     bookService,
		settingsService: settingsService,
		resolver:        NewResolver(bookService, log),
		extractors:      extractors,
		hub:             hub,
	}
}

// ProcessFile classifies one discovered file and persists a new book when
// nothing in the catalog matches its content. A file whose hash cannot be
// computed is skipped with an error so it is never misfiled as new.
func (p *Pipeline) ProcessFile(ctx context.Context, file *LibraryFile) (*Result, error) {
	fullPath := file.FullPath()

	hash, err := fingerprint.File(fullPath)
	if err != nil {
		p.log.Warn("skipping file, fingerprint failed", logger.Data{"path": fullPath, "error": err.Error()})
		return nil, errors.WithStack(err)
	}

	result, err := p.resolver.Resolve(ctx, file, hash)
	if err != nil {
		return nil, err
	}

	if result.Status != StatusNew {
		p.publish(result, file)
		return result, nil
	}

	book, err := p.createBook(ctx, file, hash)
	if err != nil {
		return nil, err
	}

	result = &Result{Status: StatusNew, Book: book}
	p.publish(result, file)

	return result, nil
}

func (p *Pipeline) createBook(ctx context.Context, file *LibraryFile, hash string) (*models.Book, error) {
	bookType := file.BookType()
	extractor, ok := p.extractors[bookType]
	if !ok {
		return nil, errors.Errorf("no processor registered for file type %q", bookType)
	}

	fullPath := file.FullPath()

	parsed, err := extractor.Extract(file)
	if err != nil {
		// A malformed file still gets a shell record keyed off its filename.
		p.log.Warn("metadata extraction failed, creating shell record", logger.Data{"path": fullPath, "error": err.Error()})
		parsed = &bookmeta.Parsed{}
	}
	if parsed.Title == "" {
		parsed.Title = CleanFileName(file.FileName)
	}

	sizeKB, err := fileutils.FileSizeKB(fullPath)
	if err != nil {
		p.log.Warn("failed to stat file size", logger.Data{"path": fullPath, "error": err.Error()})
	}

	book := &models.Book{
		LibraryID:     file.Library.ID,
		LibraryPathID: file.LibraryPath.ID,
		FileSubPath:   file.FileSubPath,
		FileName:      file.FileName,
		BookType:      bookType,
		FileSizeKB:    sizeKB,
		InitialHash:   hash,
		CurrentHash:   hash,
		Metadata:      metadataFromParsed(parsed),
	}

	weights := books.DefaultMatchWeights()
	if p.settingsService != nil {
		if s, err := p.settingsService.AppSettings(ctx); err == nil {
			weights = s.MatchWeights
		}
	}
	score := books.CalculateMatchScore(book.Metadata, weights)
	book.MetadataMatchScore = &score

	err = p.bookService.CreateBook(ctx, book)
	if err != nil {
		return nil, err
	}

	return p.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &book.ID})
}

func (p *Pipeline) publish(result *Result, file *LibraryFile) {
	if p.hub == nil {
		return
	}

	evt := events.Event{
		LibraryID: file.Library.ID,
		FilePath:  file.FullPath(),
	}
	if result.Book != nil {
		evt.BookID = result.Book.ID
	}

	switch result.Status {
	case StatusNew:
		evt.Type = events.TypeBookAdded
	case StatusUpdated:
		evt.Type = events.TypeBookUpdated
	case StatusRevived:
		evt.Type = events.TypeBookRevived
	case StatusDuplicate, StatusDuplicateAdditionalFormat:
		evt.Type = events.TypeDuplicateDetected
		evt.Message = "File matches an existing book."
	default:
		return
	}

	p.hub.Publish(evt)
}
