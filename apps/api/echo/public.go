package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/post"
	"github.com/trezcool/shulesite/core/settings"
	"github.com/trezcool/shulesite/core/staff"
)

// cacheTTL is a backstop only; mutations invalidate the affected keys.
const cacheTTL = time.Hour

type siteApi struct {
	conf        *core.Config
	contentSvc  *content.Service
	postSvc     *post.Service
	staffSvc    *staff.Service
	settingsSvc *settings.Service
	mailSvc     core.EmailService
	cache       core.Cache
	validate    *validator.Validate
}

func registerPublicAPI(g *echo.Group, opts *Options, validate *validator.Validate) {
	api := siteApi{
		conf:        opts.Conf,
		contentSvc:  opts.ContentSvc,
		postSvc:     opts.PostSvc,
		staffSvc:    opts.StaffSvc,
		settingsSvc: opts.SettingsSvc,
		mailSvc:     opts.MailSvc,
		cache:       opts.Cache,
		validate:    validate,
	}

	g.GET("/navigation", api.navigation)
	g.GET("/footer", api.collection(content.KindFooterLink))
	g.GET("/statistics", api.collection(content.KindStatistic))
	g.GET("/testimonials", api.collection(content.KindTestimonial))
	g.GET("/pages/:page/sections", api.pageSections)
	g.GET("/team", api.team)
	g.GET("/posts", api.posts)
	g.GET("/posts/:slug", api.postDetail)
	g.GET("/settings", api.settings)
	g.POST("/contact", api.contact)
}

// cached serves the cache entry under key, or computes the payload, stores
// it and serves it.
func (api *siteApi) cached(ctx echo.Context, key string, compute func() (interface{}, error)) error {
	reqCtx := ctx.Request().Context()
	if blob, ok := api.cache.Get(reqCtx, key); ok {
		return ctx.JSONBlob(http.StatusOK, blob)
	}

	payload, err := compute()
	if err != nil {
		return err
	}
	blob, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshaling cached payload")
	}
	api.cache.Set(reqCtx, key, blob, cacheTTL)
	return ctx.JSONBlob(http.StatusOK, blob)
}

// Handlers

// navigation returns the resolved public navigation tree: visible records
// only, hidden parents hiding their children.
func (api *siteApi) navigation(ctx echo.Context) error {
	return api.cached(ctx, content.PublicCacheKey(content.KindNavigation, ""), func() (interface{}, error) {
		records, err := api.contentSvc.Query(ctx.Request().Context(), content.Filter{Kind: content.KindNavigation})
		if err != nil {
			return nil, errors.Wrap(err, "querying navigation")
		}
		nodes := content.ResolvePublicTree(records)
		if nodes == nil {
			nodes = []content.Node{}
		}
		return nodes, nil
	})
}

// collection serves the visible (and published, where applicable) records of
// a flat kind in display order.
func (api *siteApi) collection(kind content.Kind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return api.cached(ctx, content.PublicCacheKey(kind, ""), func() (interface{}, error) {
			records, err := api.contentSvc.Query(ctx.Request().Context(), content.Filter{Kind: kind})
			if err != nil {
				return nil, errors.Wrap(err, "querying records")
			}
			return content.PublicOnly(records), nil
		})
	}
}

func (api *siteApi) pageSections(ctx echo.Context) error {
	page := ctx.Param("page")
	return api.cached(ctx, content.PublicCacheKey(content.KindPageSection, page), func() (interface{}, error) {
		records, err := api.contentSvc.Query(ctx.Request().Context(), content.Filter{
			Kind: content.KindPageSection,
			Page: page,
		})
		if err != nil {
			return nil, errors.Wrap(err, "querying page sections")
		}
		return content.PublicOnly(records), nil
	})
}

func (api *siteApi) team(ctx echo.Context) error {
	members, err := api.staffSvc.QueryVisible(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying team")
	}
	if members == nil {
		members = []staff.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *siteApi) posts(ctx echo.Context) error {
	var pagination Pagination
	pagination.Bind(ctx)

	published := true
	posts, total, err := api.postSvc.Filter(ctx.Request().Context(), post.QueryFilter{
		Search:    ctx.QueryParam("search"),
		Published: &published,
		Limit:     pagination.Limit(),
		Offset:    pagination.Offset(),
	})
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	if posts == nil {
		posts = []post.Post{}
	}
	return ctx.JSON(http.StatusOK, PublicPostListResponse{
		Posts:    posts,
		Total:    total,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	})
}

func (api *siteApi) postDetail(ctx echo.Context) error {
	pst, err := api.postSvc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return err
	}
	// drafts are not public
	if !pst.Published {
		return post.ErrNotFound
	}
	return ctx.JSON(http.StatusOK, pst)
}

// settings serves the site-facing settings plus the feature flag set.
func (api *siteApi) settings(ctx echo.Context) error {
	return api.cached(ctx, "site:settings", func() (interface{}, error) {
		reqCtx := ctx.Request().Context()

		stgs, err := api.settingsSvc.QueryAll(reqCtx)
		if err != nil {
			return nil, errors.Wrap(err, "querying settings")
		}
		values := make(map[string]map[string]string)
		for _, stg := range stgs {
			if values[stg.Namespace] == nil {
				values[stg.Namespace] = make(map[string]string)
			}
			values[stg.Namespace][stg.Key] = stg.Value
		}

		flags, err := api.settingsSvc.QueryAllFlags(reqCtx)
		if err != nil {
			return nil, errors.Wrap(err, "querying feature flags")
		}
		flagValues := make(map[string]bool, len(flags))
		for _, flg := range flags {
			flagValues[flg.Name] = flg.Enabled
		}

		return PublicSettingsResponse{Settings: values, Flags: flagValues}, nil
	})
}

func (api *siteApi) contact(ctx echo.Context) error {
	var data ContactRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContactRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	replyTo := mail.Address{Name: data.Name, Address: data.Email}
	api.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{api.conf.ContactEmail},
		ReplyTo: &replyTo,
		Subject: fmt.Sprintf("Contact form: %s", data.Subject),
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s", data.Name, data.Email, data.Message),
	})
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Thank you for reaching out. We will get back to you shortly."})
}

type (
	PublicPostListResponse struct {
		Posts    []post.Post `json:"posts"`
		Total    int         `json:"total"`
		Page     int         `json:"page"`
		PageSize int         `json:"page_size"`
	}

	PublicSettingsResponse struct {
		Settings map[string]map[string]string `json:"settings"`
		Flags    map[string]bool              `json:"flags"`
	}

	ContactRequest struct {
		Name    string `json:"name" validate:"required,max=100"`
		Email   string `json:"email" validate:"required,email"`
		Subject string `json:"subject" validate:"required,max=200"`
		Message string `json:"message" validate:"required,max=5000"`
	}
)

func (cr *ContactRequest) Validate(validate *validator.Validate) error {
	cr.Name = core.CleanString(cr.Name)
	cr.Email = core.CleanString(cr.Email, true /* lower */)
	cr.Subject = core.CleanString(cr.Subject)
	return validate.Struct(cr)
}
