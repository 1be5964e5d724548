package libraries

import (
	"net/http"
	"strconv"
	"time"

	"github.com/booklore-app/booklore/pkg/errcodes"
	"github.com/booklore-app/booklore/pkg/jobs"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
)

// PathWatcher receives library root changes so filesystem monitoring can
// follow library configuration. Registration is safe to repeat.
type PathWatcher interface {
	RegisterPaths(paths []string)
	UnregisterPath(path string)
}

type handler struct {
	libraryService *Service
	jobService     *jobs.Service
	watcher        PathWatcher
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateLibraryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	organizeFileStructure := true
	if params.OrganizeFileStructure != nil {
		organizeFileStructure = *params.OrganizeFileStructure
	}

	library := &models.Library{
		Name:                  params.Name,
		OrganizeFileStructure: organizeFileStructure,
		LibraryPaths:          make([]*models.LibraryPath, 0, len(params.LibraryPaths)),
	}
	if params.FileNamingPattern != nil {
		library.FileNamingPattern = *params.FileNamingPattern
	}
	for _, path := range params.LibraryPaths {
		library.LibraryPaths = append(library.LibraryPaths, &models.LibraryPath{
			Path: path,
		})
	}

	err := h.libraryService.CreateLibrary(ctx, library)
	if err != nil {
		return errors.WithStack(err)
	}

	if h.watcher != nil {
		h.watcher.RegisterPaths(params.LibraryPaths)
	}

	// Kick off an initial scan scoped to the new library. Failing to enqueue
	// is not fatal to the create.
	scanJob := &models.Job{
		Type:       models.JobTypeScan,
		Status:     models.JobStatusPending,
		DataParsed: &models.JobScanData{LibraryIDs: []int{library.ID}},
	}
	if err := h.jobService.CreateJob(ctx, scanJob); err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to enqueue scan after library create")
	}

	library, err = h.libraryService.RetrieveLibrary(ctx, RetrieveLibraryOptions{
		ID: &library.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, library))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Library")
	}

	library, err := h.libraryService.RetrieveLibrary(ctx, RetrieveLibraryOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, library))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListLibrariesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	libraries, total, err := h.libraryService.ListLibrariesWithTotal(ctx, ListLibrariesOptions{
		Limit:          &params.Limit,
		Offset:         &params.Offset,
		IncludeDeleted: params.Deleted,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Libraries []*models.Library `json:"libraries"`
		Total     int               `json:"total"`
	}{libraries, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Library")
	}

	params := UpdateLibraryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	library, err := h.libraryService.RetrieveLibrary(ctx, RetrieveLibraryOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	oldPaths := make([]string, 0, len(library.LibraryPaths))
	for _, path := range library.LibraryPaths {
		oldPaths = append(oldPaths, path.Path)
	}

	// Keep track of what's been changed.
	opts := UpdateLibraryOptions{Columns: []string{}}

	if params.Name != nil && *params.Name != library.Name {
		library.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.FileNamingPattern != nil && *params.FileNamingPattern != library.FileNamingPattern {
		library.FileNamingPattern = *params.FileNamingPattern
		opts.Columns = append(opts.Columns, "file_naming_pattern")
	}
	if params.OrganizeFileStructure != nil && *params.OrganizeFileStructure != library.OrganizeFileStructure {
		library.OrganizeFileStructure = *params.OrganizeFileStructure
		opts.Columns = append(opts.Columns, "organize_file_structure")
	}
	if params.LibraryPaths != nil {
		library.LibraryPaths = make([]*models.LibraryPath, 0, len(params.LibraryPaths))
		for _, path := range params.LibraryPaths {
			library.LibraryPaths = append(library.LibraryPaths, &models.LibraryPath{
				Path: path,
			})
		}
		opts.UpdateLibraryPaths = true
	}
	if params.Deleted != nil && (*params.Deleted && library.DeletedAt == nil || !*params.Deleted && library.DeletedAt != nil) {
		if *params.Deleted {
			library.DeletedAt = pointerutil.Time(time.Now())
		} else {
			library.DeletedAt = nil
		}
		opts.Columns = append(opts.Columns, "deleted_at")
	}

	err = h.libraryService.UpdateLibrary(ctx, library, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	if h.watcher != nil && (opts.UpdateLibraryPaths || params.Deleted != nil) {
		for _, path := range oldPaths {
			h.watcher.UnregisterPath(path)
		}
		if library.DeletedAt == nil {
			paths := make([]string, 0, len(library.LibraryPaths))
			for _, path := range library.LibraryPaths {
				paths = append(paths, path.Path)
			}
			h.watcher.RegisterPaths(paths)
		}
	}

	library, err = h.libraryService.RetrieveLibrary(ctx, RetrieveLibraryOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, library))
}
