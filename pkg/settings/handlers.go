package settings

import (
	"net/http"

	"github.com/booklore-app/booklore/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

type handler struct {
	settingsService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	settings, err := h.settingsService.AppSettings(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, settings))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	params := UpdateSettingsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if params.UploadPattern != nil {
		err := h.settingsService.SetSetting(ctx, SettingUploadPattern, *params.UploadPattern)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	if params.MatchWeights != nil {
		if params.MatchWeights.Total() <= 0 {
			return errcodes.ValidationError("metadata_match_weights must have a positive total weight")
		}
		raw, err := json.Marshal(params.MatchWeights)
		if err != nil {
			return errors.WithStack(err)
		}
		err = h.settingsService.SetSetting(ctx, SettingMatchWeights, string(raw))
		if err != nil {
			return errors.WithStack(err)
		}
	}

	settings, err := h.settingsService.AppSettings(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, settings))
}
