package libraries

import (
	"github.com/booklore-app/booklore/pkg/jobs"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, watcher PathWatcher) {
	h := &handler{
		libraryService: NewService(db),
		jobService:     jobs.NewService(db),
		watcher:        watcher,
	}

	e.POST("/libraries", h.create)
	e.GET("/libraries/:id", h.retrieve)
	e.GET("/libraries", h.list)
	e.POST("/libraries/:id", h.update)
}
