package books

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, weights WeightsSource, mover Mover) {
	h := &handler{
		bookService: NewService(db),
		weights:     weights,
		mover:       mover,
	}

	e.GET("/books/:id", h.retrieve)
	e.GET("/books", h.list)
	e.POST("/books/:id/metadata", h.updateMetadata)
	e.DELETE("/books/:id", h.softDelete)
}
