package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core/post"
)

type postApi struct {
	svc      *post.Service
	validate *validator.Validate
}

func registerPostAPI(g *echo.Group, svc *post.Service, validate *validator.Validate) {
	api := postApi{svc: svc, validate: validate}

	pg := g.Group("/posts", editorMiddleware())
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
	pg.PUT("/:id/published", api.setPublished)
}

func (api *postApi) query(ctx echo.Context) error {
	var filter post.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	posts, total, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	if posts == nil {
		posts = []post.Post{}
	}
	return ctx.JSON(http.StatusOK, PostListResponse{Posts: posts, Total: total})
}

func (api *postApi) create(ctx echo.Context) error {
	var data post.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	pst, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, pst)
}

func (api *postApi) retrieve(ctx echo.Context) error {
	pst, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pst)
}

func (api *postApi) update(ctx echo.Context) error {
	var data post.UpdatePost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	pst, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pst)
}

func (api *postApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *postApi) setPublished(ctx echo.Context) error {
	var data PublishedRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PublishedRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	pst, err := api.svc.SetPublished(ctx.Request().Context(), ctx.Param("id"), *data.Published)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pst)
}

type PostListResponse struct {
	Posts []post.Post `json:"posts"`
	Total int         `json:"total"`
}
