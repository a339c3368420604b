package settings

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shulesite/core"
)

var (
	// errors
	ErrNotFound     = errors.New("setting not found")
	ErrFlagNotFound = errors.New("feature flag not found")
)

// Setting namespaces
const (
	NamespaceSite = "site" // school name, contact details, social links...
	NamespaceSEO  = "seo"  // default meta title/description, og image...
)

// Setting is one namespaced key/value pair; values are opaque strings the
// admin UI interprets.
type Setting struct {
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type UpsertSetting struct {
	Namespace string `json:"namespace" validate:"required,oneof=site seo"`
	Key       string `json:"key" validate:"required,slug,max=100"`
	Value     string `json:"value" validate:"max=5000"`
}

func (us *UpsertSetting) Validate(validate *validator.Validate) error {
	us.Namespace = core.CleanString(us.Namespace, true /* lower */)
	us.Key = core.CleanString(us.Key, true /* lower */)
	return validate.Struct(us)
}

// Flag gates a site feature (e.g. the testimonials carousel) on and off
// without a deploy.
type Flag struct {
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type UpsertFlag struct {
	Name    string `json:"name" validate:"required,slug,max=100"`
	Enabled bool   `json:"enabled"`
}

func (uf *UpsertFlag) Validate(validate *validator.Validate) error {
	uf.Name = core.CleanString(uf.Name, true /* lower */)
	return validate.Struct(uf)
}
