package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core/settings"
)

type settingsApi struct {
	svc      *settings.Service
	validate *validator.Validate
}

func registerSettingsAPI(g *echo.Group, svc *settings.Service, validate *validator.Validate) {
	api := settingsApi{svc: svc, validate: validate}

	sg := g.Group("/settings", adminMiddleware())
	sg.GET("", api.query)
	sg.PUT("/:key", api.upsert)
	sg.DELETE("/:key", api.destroy)

	fg := g.Group("/flags", adminMiddleware())
	fg.GET("", api.queryFlags)
	fg.PUT("/:name", api.upsertFlag)
}

func (api *settingsApi) query(ctx echo.Context) error {
	stgs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying settings")
	}
	if stgs == nil {
		stgs = []settings.Setting{}
	}
	return ctx.JSON(http.StatusOK, stgs)
}

func (api *settingsApi) upsert(ctx echo.Context) error {
	var data settings.UpsertSetting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertSetting")
	}
	data.Key = ctx.Param("key")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stg, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting setting")
	}
	return ctx.JSON(http.StatusOK, stg)
}

func (api *settingsApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.QueryParam("namespace"), ctx.Param("key")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *settingsApi) queryFlags(ctx echo.Context) error {
	flags, err := api.svc.QueryAllFlags(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying feature flags")
	}
	if flags == nil {
		flags = []settings.Flag{}
	}
	return ctx.JSON(http.StatusOK, flags)
}

func (api *settingsApi) upsertFlag(ctx echo.Context) error {
	var data settings.UpsertFlag
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertFlag")
	}
	data.Name = ctx.Param("name")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	flg, err := api.svc.UpsertFlag(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting feature flag")
	}
	return ctx.JSON(http.StatusOK, flg)
}
