package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core/content"
)

type contentApi struct {
	svc      *content.Service
	validate *validator.Validate
}

func registerContentAPI(g *echo.Group, svc *content.Service, validate *validator.Validate) {
	api := contentApi{svc: svc, validate: validate}

	cg := g.Group("/content/:kind", editorMiddleware())
	cg.GET("", api.query)
	cg.GET("/tree", api.tree)
	cg.POST("", api.create)
	cg.PUT("/reorder", api.reorder)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
	cg.PUT("/:id/visible", api.setVisible)
	cg.PUT("/:id/published", api.setPublished)
}

func bindKind(ctx echo.Context) (content.Kind, error) {
	return content.ParseKind(ctx.Param("kind"))
}

// Handlers

func (api *contentApi) query(ctx echo.Context) error {
	kind, err := bindKind(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.Query(ctx.Request().Context(), content.Filter{
		Kind: kind,
		Page: ctx.QueryParam("page"),
	})
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	if records == nil {
		records = []content.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

// tree returns the admin view of a hierarchical collection; orphans surface
// as top-level so they can be re-homed.
func (api *contentApi) tree(ctx echo.Context) error {
	kind, err := bindKind(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.Query(ctx.Request().Context(), content.Filter{Kind: kind})
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	nodes := content.ResolveTree(records)
	if nodes == nil {
		nodes = []content.Node{}
	}
	return ctx.JSON(http.StatusOK, nodes)
}

func (api *contentApi) create(ctx echo.Context) error {
	kind, err := bindKind(ctx)
	if err != nil {
		return err
	}

	var data content.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(kind, api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Create(ctx.Request().Context(), kind, data)
	if err != nil {
		return errors.Wrap(err, "creating record")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *contentApi) retrieve(ctx echo.Context) error {
	kind, err := bindKind(ctx)
	if err != nil {
		return err
	}

	rec, err := api.svc.GetByID(ctx.Request().Context(), kind, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *contentApi) update(ctx echo.Context) error {
	kind, err := bindKind(ctx)
	if err != nil {
		return err
	}

	var data content.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err := data.Validate(kind, api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Update(ctx.Request().Context(), kind, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *contentApi) destroy(ctx echo.Context) error {
	kind, err := bindKind(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), kind, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) reorder(ctx echo.Context) error {
	kind, err := bindKind(ctx)
	if err != nil {
		return err
	}

	var data ReorderRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReorderRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	if err := api.svc.Reorder(ctx.Request().Context(), kind, data.Page, data.Items); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) setVisible(ctx echo.Context) error {
	kind, err := bindKind(ctx)
	if err != nil {
		return err
	}

	var data VisibleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VisibleRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	rec, err := api.svc.SetVisible(ctx.Request().Context(), kind, ctx.Param("id"), *data.Visible)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *contentApi) setPublished(ctx echo.Context) error {
	kind, err := bindKind(ctx)
	if err != nil {
		return err
	}

	var data PublishedRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PublishedRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	rec, err := api.svc.SetPublished(ctx.Request().Context(), kind, ctx.Param("id"), *data.Published)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

type (
	ReorderRequest struct {
		Page  string              `json:"page"`
		Items []content.OrderPair `json:"items" validate:"required,min=1,dive"`
	}

	VisibleRequest struct {
		Visible *bool `json:"visible" validate:"required"`
	}

	PublishedRequest struct {
		Published *bool `json:"published" validate:"required"`
	}
)
