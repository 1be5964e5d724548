package filemove

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, svc *Service) {
	h := &handler{
		moveService: svc,
	}

	e.POST("/books/move", h.bulkMove)
}
