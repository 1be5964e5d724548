package settings

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, svc *Service) {
	h := &handler{
		settingsService: svc,
	}

	e.GET("/settings", h.retrieve)
	e.POST("/settings", h.update)
}
