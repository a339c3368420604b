package echoapi

import (
	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

type SuccessResponse struct {
	Success string `json:"success"`
}

// Pagination binds the public explorer's page/page_size query params and
// translates them to limit/offset.
type Pagination struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

func (p *Pagination) Bind(ctx echo.Context) {
	_ = ctx.Bind(p)
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
}

func (p Pagination) Limit() int  { return p.PageSize }
func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }
