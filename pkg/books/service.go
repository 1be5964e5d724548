package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/booklore-app/booklore/pkg/errcodes"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID            *int
	CurrentHash   *string
	FileName      *string
	LibraryID     *int
	LibraryPathID *int
	FileSubPath   *string
	// Deleted filters on the soft-delete flag; nil matches both live and
	// soft-deleted rows.
	Deleted *bool
}

type ListBooksOptions struct {
	Limit     *int
	Offset    *int
	LibraryID *int
	Deleted   *bool

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
}

type UpdateMetadataOptions struct {
	Columns []string
}

type RetrieveAdditionalFileOptions struct {
	ID          *int
	CurrentHash *string
	BookID      *int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBook inserts the book together with its metadata row and any
// author/category names already attached to the metadata.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if book.Metadata == nil {
			book.Metadata = &models.Metadata{}
		}
		book.Metadata.BookID = book.ID
		book.Metadata.CreatedAt = book.CreatedAt
		book.Metadata.UpdatedAt = book.UpdatedAt

		_, err = tx.
			NewInsert().
			Model(book.Metadata).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if len(book.Metadata.Authors) > 0 {
			err = svc.replaceAuthors(ctx, tx, book.ID, authorNames(book.Metadata.Authors))
			if err != nil {
				return err
			}
		}
		if len(book.Metadata.Categories) > 0 {
			err = svc.replaceCategories(ctx, tx, book.ID, categoryNames(book.Metadata.Categories))
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Library").
		Relation("LibraryPath").
		Relation("Metadata").
		Relation("Metadata.Authors").
		Relation("Metadata.Categories").
		Relation("AdditionalFiles")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.CurrentHash != nil {
		q = q.Where("b.current_hash = ?", *opts.CurrentHash)
	}
	if opts.FileName != nil {
		q = q.Where("b.file_name = ?", *opts.FileName)
	}
	if opts.LibraryID != nil {
		q = q.Where("b.library_id = ?", *opts.LibraryID)
	}
	if opts.LibraryPathID != nil {
		q = q.Where("b.library_path_id = ?", *opts.LibraryPathID)
	}
	if opts.FileSubPath != nil {
		q = q.Where("b.file_sub_path = ?", *opts.FileSubPath)
	}
	if opts.Deleted != nil {
		q = q.Where("b.deleted = ?", *opts.Deleted)
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Library").
		Relation("LibraryPath").
		Relation("Metadata").
		Relation("Metadata.Authors").
		Relation("Metadata.Categories").
		Relation("AdditionalFiles").
		Order("b.created_at ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.LibraryID != nil {
		q = q.Where("b.library_id = ?", *opts.LibraryID)
	}
	if opts.Deleted != nil {
		q = q.Where("b.deleted = ?", *opts.Deleted)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	book.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return errcodes.NotFound("Book")
	}

	return nil
}

func (svc *Service) UpdateMetadata(ctx context.Context, meta *models.Metadata, opts UpdateMetadataOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	meta.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(meta).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return errcodes.NotFound("Book")
	}

	return nil
}

// UpdateFileLocation rebinds a book's on-disk location in a single statement
// so the library path, sub path, and filename always change together.
func (svc *Service) UpdateFileLocation(ctx context.Context, bookID, libraryID, libraryPathID int, fileSubPath, fileName string) error {
	res, err := svc.db.
		NewUpdate().
		Model((*models.Book)(nil)).
		Set("library_id = ?", libraryID).
		Set("library_path_id = ?", libraryPathID).
		Set("file_sub_path = ?", fileSubPath).
		Set("file_name = ?", fileName).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return errcodes.NotFound("Book")
	}

	return nil
}

// SoftDeleteBook marks the book deleted without touching the row's identity,
// so a future rescan of the same bytes can revive it.
func (svc *Service) SoftDeleteBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	book.Deleted = true
	book.DeletedAt = &now
	return svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"deleted", "deleted_at"}})
}

func (svc *Service) CountSoftDeleted(ctx context.Context) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("deleted = ?", true).
		Count(ctx)
	return count, errors.WithStack(err)
}

// PurgeSoftDeletedBefore hard-deletes books that were soft-deleted before the
// cutoff, together with their metadata, vocabulary links, and additional
// files. It returns the number of purged books.
func (svc *Service) PurgeSoftDeletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	purged := 0

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var ids []int
		err := tx.
			NewSelect().
			Model((*models.Book)(nil)).
			Column("id").
			Where("deleted = ?", true).
			Where("deleted_at < ?", cutoff).
			Scan(ctx, &ids)
		if err != nil {
			return errors.WithStack(err)
		}
		if len(ids) == 0 {
			return nil
		}

		_, err = tx.
			NewDelete().
			Model((*models.MetadataAuthor)(nil)).
			Where("book_id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = tx.
			NewDelete().
			Model((*models.MetadataCategory)(nil)).
			Where("book_id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = tx.
			NewDelete().
			Model((*models.Metadata)(nil)).
			Where("book_id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = tx.
			NewDelete().
			Model((*models.AdditionalFile)(nil)).
			Where("book_id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = tx.
			NewDelete().
			Model((*models.Book)(nil)).
			Where("id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		purged = len(ids)
		return nil
	})
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return purged, nil
}

func (svc *Service) CreateAdditionalFile(ctx context.Context, file *models.AdditionalFile) error {
	now := time.Now()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	file.UpdatedAt = file.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(file).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveAdditionalFile(ctx context.Context, opts RetrieveAdditionalFileOptions) (*models.AdditionalFile, error) {
	file := &models.AdditionalFile{}

	q := svc.db.
		NewSelect().
		Model(file).
		Relation("Book")

	if opts.ID != nil {
		q = q.Where("af.id = ?", *opts.ID)
	}
	if opts.CurrentHash != nil {
		q = q.Where("af.current_hash = ?", *opts.CurrentHash)
	}
	if opts.BookID != nil {
		q = q.Where("af.book_id = ?", *opts.BookID)
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Additional file")
		}
		return nil, errors.WithStack(err)
	}

	return file, nil
}

func authorNames(authors []*models.Author) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}
	return names
}

func categoryNames(categories []*models.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}
