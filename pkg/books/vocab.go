package books

import (
	"context"
	"database/sql"

	"github.com/booklore-app/booklore/pkg/fileutils"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Vocabulary rows are deduplicated by exact name, capped to the column width.
const maxNameLength = 255

// FindOrCreateAuthor returns the author row for name, creating it if absent.
func (svc *Service) FindOrCreateAuthor(ctx context.Context, name string) (*models.Author, error) {
	return svc.findOrCreateAuthor(ctx, svc.db, name)
}

// FindOrCreateCategory returns the category row for name, creating it if
// absent.
func (svc *Service) FindOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	return svc.findOrCreateCategory(ctx, svc.db, name)
}

// ReplaceBookAuthors swaps out the full author list of a book's metadata.
func (svc *Service) ReplaceBookAuthors(ctx context.Context, bookID int, names []string) error {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return svc.replaceAuthors(ctx, tx, bookID, names)
	})
	return errors.WithStack(err)
}

// ReplaceBookCategories swaps out the full category list of a book's
// metadata.
func (svc *Service) ReplaceBookCategories(ctx context.Context, bookID int, names []string) error {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return svc.replaceCategories(ctx, tx, bookID, names)
	})
	return errors.WithStack(err)
}

func (svc *Service) replaceAuthors(ctx context.Context, idb bun.IDB, bookID int, names []string) error {
	_, err := idb.
		NewDelete().
		Model((*models.MetadataAuthor)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, name := range dedupeNames(names) {
		author, err := svc.findOrCreateAuthor(ctx, idb, name)
		if err != nil {
			return err
		}

		_, err = idb.
			NewInsert().
			Model(&models.MetadataAuthor{BookID: bookID, AuthorID: author.ID}).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

func (svc *Service) replaceCategories(ctx context.Context, idb bun.IDB, bookID int, names []string) error {
	_, err := idb.
		NewDelete().
		Model((*models.MetadataCategory)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, name := range dedupeNames(names) {
		category, err := svc.findOrCreateCategory(ctx, idb, name)
		if err != nil {
			return err
		}

		_, err = idb.
			NewInsert().
			Model(&models.MetadataCategory{BookID: bookID, CategoryID: category.ID}).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

func (svc *Service) findOrCreateAuthor(ctx context.Context, idb bun.IDB, name string) (*models.Author, error) {
	name = fileutils.Truncate(name, maxNameLength)

	author := &models.Author{}
	err := idb.
		NewSelect().
		Model(author).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	author = &models.Author{Name: name}
	_, err = idb.
		NewInsert().
		Model(author).
		On("CONFLICT (name) DO NOTHING").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// A concurrent insert can win the conflict; re-read to get the row.
	if author.ID == 0 {
		err = idb.
			NewSelect().
			Model(author).
			Where("name = ?", name).
			Limit(1).
			Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return author, nil
}

func (svc *Service) findOrCreateCategory(ctx context.Context, idb bun.IDB, name string) (*models.Category, error) {
	name = fileutils.Truncate(name, maxNameLength)

	category := &models.Category{}
	err := idb.
		NewSelect().
		Model(category).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	category = &models.Category{Name: name}
	_, err = idb.
		NewInsert().
		Model(category).
		On("CONFLICT (name) DO NOTHING").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if category.ID == 0 {
		err = idb.
			NewSelect().
			Model(category).
			Where("name = ?", name).
			Limit(1).
			Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return category, nil
}

func dedupeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
