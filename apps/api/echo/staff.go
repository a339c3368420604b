package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core/staff"
)

type staffApi struct {
	svc      *staff.Service
	validate *validator.Validate
}

func registerStaffAPI(g *echo.Group, svc *staff.Service, validate *validator.Validate) {
	api := staffApi{svc: svc, validate: validate}

	sg := g.Group("/staff", editorMiddleware())
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.PUT("/reorder", api.reorder)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.PUT("/:id/visible", api.setVisible)
}

func (api *staffApi) query(ctx echo.Context) error {
	members, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying staff members")
	}
	if members == nil {
		members = []staff.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mbr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff member")
	}
	return ctx.JSON(http.StatusCreated, mbr)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	mbr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *staffApi) update(ctx echo.Context) error {
	var data staff.UpdateMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMember")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mbr, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *staffApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) reorder(ctx echo.Context) error {
	var data ReorderRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReorderRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	if err := api.svc.Reorder(ctx.Request().Context(), data.Items); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) setVisible(ctx echo.Context) error {
	var data VisibleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VisibleRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	mbr, err := api.svc.SetVisible(ctx.Request().Context(), ctx.Param("id"), *data.Visible)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mbr)
}
