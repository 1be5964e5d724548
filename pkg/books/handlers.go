package books

import (
	"context"
	"net/http"
	"strconv"

	"github.com/booklore-app/booklore/pkg/errcodes"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// WeightsSource supplies the currently configured match-score weights.
type WeightsSource interface {
	MatchWeights(ctx context.Context) (MatchWeights, error)
}

// Mover re-homes a book's file after its metadata changed, when the
// library organizes its file structure.
type Mover interface {
	AutoCorrect(ctx context.Context, bookID int) (bool, error)
}

type handler struct {
	bookService *Service
	weights     WeightsSource
	mover       Mover
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	deleted := false
	if params.Deleted != nil {
		deleted = *params.Deleted
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:     &params.Limit,
		Offset:    &params.Offset,
		LibraryID: params.LibraryID,
		Deleted:   &deleted,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) updateMetadata(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	// Bind params.
	params := UpdateMetadataPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	live := false
	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID:      &id,
		Deleted: &live,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	meta := book.Metadata
	if meta == nil {
		meta = &models.Metadata{BookID: book.ID}
	}

	// Keep track of what's been changed.
	columns := []string{}

	// A value edit is blocked only when the field was locked before the
	// request and the request leaves it locked. Set-and-lock and
	// unlock-and-set each work in one request.
	before := *meta
	locked := func(field MetadataField) bool {
		return IsFieldLocked(&before, field) && IsFieldLocked(meta, field)
	}

	// Lock edits first.
	if params.AllLocked != nil {
		SetAllLocks(meta, *params.AllLocked)
		columns = append(columns, lockColumns...)
	}
	lockEdits := []struct {
		value *bool
		dst   *bool
		col   string
	}{
		{params.TitleLocked, &meta.TitleLocked, "title_locked"},
		{params.SubtitleLocked, &meta.SubtitleLocked, "subtitle_locked"},
		{params.DescriptionLocked, &meta.DescriptionLocked, "description_locked"},
		{params.PublisherLocked, &meta.PublisherLocked, "publisher_locked"},
		{params.PublishedDateLocked, &meta.PublishedDateLocked, "published_date_locked"},
		{params.LanguageLocked, &meta.LanguageLocked, "language_locked"},
		{params.SeriesNameLocked, &meta.SeriesNameLocked, "series_name_locked"},
		{params.SeriesNumberLocked, &meta.SeriesNumberLocked, "series_number_locked"},
		{params.ISBNLocked, &meta.ISBNLocked, "isbn_locked"},
		{params.AuthorsLocked, &meta.AuthorsLocked, "authors_locked"},
		{params.CategoriesLocked, &meta.CategoriesLocked, "categories_locked"},
		{params.CoverLocked, &meta.CoverLocked, "cover_locked"},
	}
	for _, edit := range lockEdits {
		if edit.value != nil && *edit.value != *edit.dst {
			*edit.dst = *edit.value
			columns = append(columns, edit.col)
		}
	}

	if params.Title != nil && !locked(FieldTitle) {
		meta.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Subtitle != nil && !locked(FieldSubtitle) {
		meta.Subtitle = *params.Subtitle
		columns = append(columns, "subtitle")
	}
	if params.Description != nil && !locked(FieldDescription) {
		meta.Description = *params.Description
		columns = append(columns, "description")
	}
	if params.Publisher != nil && !locked(FieldPublisher) {
		meta.Publisher = *params.Publisher
		columns = append(columns, "publisher")
	}
	if params.PublishedDate != nil && !locked(FieldPublishedDate) {
		meta.PublishedDate = params.PublishedDate
		columns = append(columns, "published_date")
	}
	if params.Language != nil && !locked(FieldLanguage) {
		meta.Language = *params.Language
		columns = append(columns, "language")
	}
	if params.SeriesName != nil && !locked(FieldSeriesName) {
		meta.SeriesName = *params.SeriesName
		columns = append(columns, "series_name")
	}
	if params.SeriesNumber != nil && !locked(FieldSeriesNumber) {
		meta.SeriesNumber = params.SeriesNumber
		columns = append(columns, "series_number")
	}
	if params.SeriesTotal != nil {
		meta.SeriesTotal = params.SeriesTotal
		columns = append(columns, "series_total")
	}
	if params.ISBN10 != nil && !locked(FieldISBN) {
		meta.ISBN10 = *params.ISBN10
		columns = append(columns, "isbn10")
	}
	if params.ISBN13 != nil && !locked(FieldISBN) {
		meta.ISBN13 = *params.ISBN13
		columns = append(columns, "isbn13")
	}
	if params.PageCount != nil {
		meta.PageCount = params.PageCount
		columns = append(columns, "page_count")
	}

	columns = dedupeNames(columns)
	if len(columns) > 0 {
		err = h.bookService.UpdateMetadata(ctx, meta, UpdateMetadataOptions{Columns: columns})
		if err != nil {
			return errors.WithStack(err)
		}
	}

	if params.Authors != nil && !locked(FieldAuthors) {
		err = h.bookService.ReplaceBookAuthors(ctx, book.ID, params.Authors)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	if params.Categories != nil && !locked(FieldCategories) {
		err = h.bookService.ReplaceBookCategories(ctx, book.ID, params.Categories)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	// Reload the model and refresh the completeness score.
	book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	weights := DefaultMatchWeights()
	if h.weights != nil {
		if w, werr := h.weights.MatchWeights(ctx); werr == nil {
			weights = w
		}
	}
	err = h.bookService.RecalculateMatchScore(ctx, book, weights)
	if err != nil {
		return errors.WithStack(err)
	}

	// Re-home the file when the library organizes its structure. Failure
	// here never fails the edit itself.
	if h.mover != nil {
		log := logger.FromContext(ctx)
		moved, merr := h.mover.AutoCorrect(ctx, book.ID)
		if merr != nil {
			log.Err(merr).Warn("auto correct after metadata edit failed", logger.Data{"book_id": book.ID})
		}
		if moved {
			book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
			if err != nil {
				return errors.WithStack(err)
			}
		}
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) softDelete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	live := false
	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID:      &id,
		Deleted: &live,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	err = h.bookService.SoftDeleteBook(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// lockColumns are the metadata lock-flag columns in table order.
var lockColumns = []string{
	"title_locked",
	"subtitle_locked",
	"description_locked",
	"publisher_locked",
	"published_date_locked",
	"language_locked",
	"series_name_locked",
	"series_number_locked",
	"isbn_locked",
	"authors_locked",
	"categories_locked",
	"cover_locked",
}
