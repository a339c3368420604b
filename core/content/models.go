package content

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shulesite/core"
)

var (
	// errors
	ErrNotFound      = errors.New("record not found")
	ErrUnknownKind   = errors.New("unknown content kind")
	ErrNoPublishFlag = errors.New("this content kind has no published flag")
)

// Kind identifies one of the parallel ordered collections managed by the admin panel.
type Kind string

const (
	KindNavigation  Kind = "navigation"
	KindFooterLink  Kind = "footer-link"
	KindStatistic   Kind = "statistic"
	KindTestimonial Kind = "testimonial"
	KindPageSection Kind = "page-section"
)

var Kinds = []Kind{KindNavigation, KindFooterLink, KindStatistic, KindTestimonial, KindPageSection}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

// SupportsHierarchy reports whether records of this kind may carry a parent (one level only).
func (k Kind) SupportsHierarchy() bool { return k == KindNavigation }

// SupportsPublish reports whether records of this kind carry a published flag on top of visible.
func (k Kind) SupportsPublish() bool { return k == KindPageSection || k == KindTestimonial }

// SupportsPage reports whether records of this kind are scoped to a page name.
func (k Kind) SupportsPage() bool { return k == KindPageSection }

// Record is one entry of an ordered content collection. Order defines the
// ascending display sequence within its sibling scope; values need not be
// contiguous, ties break on (CreatedAt, ID).
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Page      string    `json:"page,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
	Order     int       `json:"order"`
	Visible   bool      `json:"visible"`
	Published *bool     `json:"published,omitempty"`
	Payload   Payload   `json:"payload"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// IsPublic reports whether the record may be rendered on the public site.
func (r Record) IsPublic() bool {
	if !r.Visible {
		return false
	}
	if r.Published != nil {
		return *r.Published
	}
	return true
}

// SortRecords orders records for display: (Order, CreatedAt, ID) ascending.
// The trailing keys make the sequence deterministic when orders tie.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// PublicOnly filters records down to those renderable on the public site.
func PublicOnly(records []Record) []Record {
	public := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsPublic() {
			public = append(public, r)
		}
	}
	return public
}

// Payload is a tagged union keyed by Record.Kind: exactly the variant
// matching the kind must be set.
type Payload struct {
	Link        *LinkPayload        `json:"link,omitempty"`
	Statistic   *StatisticPayload   `json:"statistic,omitempty"`
	Testimonial *TestimonialPayload `json:"testimonial,omitempty"`
	Section     *SectionPayload     `json:"section,omitempty"`
}

// LinkPayload backs navigation items and footer links.
type LinkPayload struct {
	Label  string `json:"label" validate:"required,max=100"`
	Href   string `json:"href" validate:"required,max=500"`
	Target string `json:"target,omitempty" validate:"omitempty,oneof=_self _blank"`
}

type StatisticPayload struct {
	Number      string `json:"number" validate:"required,max=20"`
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=300"`
	Icon        string `json:"icon,omitempty" validate:"max=50"`
	Color       string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Background  string `json:"background,omitempty" validate:"omitempty,hexcolor"`
}

type TestimonialPayload struct {
	Name     string `json:"name" validate:"required,max=100"`
	Role     string `json:"role,omitempty" validate:"max=100"`
	Quote    string `json:"quote" validate:"required,max=2000"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// Section variants
const (
	SectionHero     = "hero"
	SectionRichText = "richText"
	SectionGallery  = "imageGallery"
	SectionCTA      = "cta"
	SectionOpaque   = "opaque"
)

// SectionPayload is itself a tagged union: known section schemas are
// validated field by field, anything else rides along as opaque JSON.
type SectionPayload struct {
	Variant  string           `json:"variant" validate:"required"`
	Hero     *HeroSection     `json:"hero,omitempty"`
	RichText *RichTextSection `json:"rich_text,omitempty"`
	Gallery  *GallerySection  `json:"gallery,omitempty"`
	CTA      *CTASection      `json:"cta,omitempty"`
	Opaque   json.RawMessage  `json:"opaque,omitempty"`
}

type HeroSection struct {
	Heading     string `json:"heading" validate:"required,max=200"`
	Subheading  string `json:"subheading,omitempty" validate:"max=500"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,url"`
	ButtonLabel string `json:"button_label,omitempty" validate:"max=50"`
	ButtonHref  string `json:"button_href,omitempty" validate:"max=500"`
}

type RichTextSection struct {
	// HTML comes straight from the rich text editor; stored opaque.
	HTML string `json:"html" validate:"required"`
}

type GallerySection struct {
	Images []GalleryImage `json:"images" validate:"required,min=1,dive"`
}

type GalleryImage struct {
	URL     string `json:"url" validate:"required,url"`
	Caption string `json:"caption,omitempty" validate:"max=200"`
}

type CTASection struct {
	Heading     string `json:"heading" validate:"required,max=200"`
	ButtonLabel string `json:"button_label" validate:"required,max=50"`
	ButtonHref  string `json:"button_href" validate:"required,max=500"`
}

// Validate checks that the variant set matches the record kind and that the
// variant's fields pass; called at the API boundary before anything is stored.
func (p Payload) Validate(kind Kind, validate *validator.Validate) error {
	switch kind {
	case KindNavigation, KindFooterLink:
		if p.Link == nil {
			return payloadMissingErr("link")
		}
		return validate.Struct(p.Link)
	case KindStatistic:
		if p.Statistic == nil {
			return payloadMissingErr("statistic")
		}
		return validate.Struct(p.Statistic)
	case KindTestimonial:
		if p.Testimonial == nil {
			return payloadMissingErr("testimonial")
		}
		return validate.Struct(p.Testimonial)
	case KindPageSection:
		if p.Section == nil {
			return payloadMissingErr("section")
		}
		return p.Section.validate(validate)
	}
	return ErrUnknownKind
}

func (s *SectionPayload) validate(validate *validator.Validate) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	switch s.Variant {
	case SectionHero:
		if s.Hero == nil {
			return payloadMissingErr("hero")
		}
		return validate.Struct(s.Hero)
	case SectionRichText:
		if s.RichText == nil {
			return payloadMissingErr("rich_text")
		}
		return validate.Struct(s.RichText)
	case SectionGallery:
		if s.Gallery == nil {
			return payloadMissingErr("gallery")
		}
		return validate.Struct(s.Gallery)
	case SectionCTA:
		if s.CTA == nil {
			return payloadMissingErr("cta")
		}
		return validate.Struct(s.CTA)
	default:
		// unknown section shapes are allowed but must at least be valid JSON
		if len(s.Opaque) == 0 || !json.Valid(s.Opaque) {
			return payloadMissingErr("opaque")
		}
		return nil
	}
}

func payloadMissingErr(field string) error {
	return core.NewValidationError(
		errors.New("payload does not match content kind"),
		core.FieldError{Field: field, Error: "this field is required"},
	)
}
