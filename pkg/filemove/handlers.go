package filemove

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	moveService *Service
}

func (h *handler) bulkMove(c echo.Context) error {
	ctx := c.Request().Context()

	params := BulkMovePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Per-item failures are logged and skipped; the batch itself always
	// completes.
	h.moveService.BulkMove(ctx, params.Moves)

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
