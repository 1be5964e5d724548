// Package server wires the HTTP API: route registration, binding,
// middleware, and error translation.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/booklore-app/booklore/pkg/binder"
	"github.com/booklore-app/booklore/pkg/books"
	"github.com/booklore-app/booklore/pkg/config"
	"github.com/booklore-app/booklore/pkg/errcodes"
	"github.com/booklore-app/booklore/pkg/events"
	"github.com/booklore-app/booklore/pkg/filemove"
	"github.com/booklore-app/booklore/pkg/jobs"
	"github.com/booklore-app/booklore/pkg/libraries"
	"github.com/booklore-app/booklore/pkg/monitoring"
	"github.com/booklore-app/booklore/pkg/settings"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	golog "github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// New builds the HTTP server. The settings service is shared with the
// worker pipeline so cache invalidation reaches every consumer.
func New(cfg *config.Config, db *bun.DB, hub *events.Hub, monitor *monitoring.Monitor, settingsService *settings.Service) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	moveService := filemove.NewService(db, golog.New(), hub, settingsService, monitor)

	libraries.RegisterRoutes(e, db, monitor)
	books.RegisterRoutes(e, db, settingsService, moveService)
	jobs.RegisterRoutes(e, db)
	settings.RegisterRoutes(e, settingsService)
	filemove.RegisterRoutes(e, moveService)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
