package post

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shulesite/core"
)

var (
	// errors
	ErrNotFound   = errors.New("post not found")
	ErrSlugExists = errors.New("a post with this slug already exists")
)

type Post struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Body          string     `json:"body"` // rich text HTML, stored opaque
	Excerpt       string     `json:"excerpt,omitempty"`
	CoverImageURL string     `json:"cover_image_url,omitempty"`

	// SEO
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`

	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"` // UTC; first publish only
	CreatedAt   time.Time  `json:"created_at"`             // UTC
	UpdatedAt   time.Time  `json:"updated_at"`             // UTC
}

// QueryFilter applies AND on available fields; Search does a
// case-insensitive match on Title or Slug.
type QueryFilter struct {
	Search    string `json:"search" query:"search"`
	Published *bool  `json:"published" query:"published"`
	Limit     int    `json:"limit" query:"limit"`
	Offset    int    `json:"offset" query:"offset"`
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	if f.Limit < 0 {
		f.Limit = 0
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

type NewPost struct {
	Title           string `json:"title" validate:"required,max=200"`
	Slug            string `json:"slug" validate:"omitempty,slug,max=200"`
	Body            string `json:"body" validate:"required"`
	Excerpt         string `json:"excerpt" validate:"max=500"`
	CoverImageURL   string `json:"cover_image_url" validate:"omitempty,url"`
	MetaTitle       string `json:"meta_title" validate:"max=200"`
	MetaDescription string `json:"meta_description" validate:"max=300"`
	Published       bool   `json:"published"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	if np.Slug == "" {
		np.Slug = core.Slugify(np.Title)
	}
	return validate.Struct(np)
}

// UpdatePost is a partial edit: empty Title/Slug/Body keep the stored value,
// while the optional pointer fields only apply when set (an explicit empty
// string clears them).
type UpdatePost struct {
	Title           string  `json:"title" validate:"omitempty,max=200"`
	Slug            string  `json:"slug" validate:"omitempty,slug,max=200"`
	Body            string  `json:"body"`
	Excerpt         *string `json:"excerpt" validate:"omitempty,max=500"`
	CoverImageURL   *string `json:"cover_image_url" validate:"omitempty,url"`
	MetaTitle       *string `json:"meta_title" validate:"omitempty,max=200"`
	MetaDescription *string `json:"meta_description" validate:"omitempty,max=300"`
}

func (up *UpdatePost) Validate(validate *validator.Validate) error {
	up.Title = core.CleanString(up.Title)
	return validate.Struct(up)
}
