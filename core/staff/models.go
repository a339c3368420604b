package staff

import (
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shulesite/core"
)

var ErrNotFound = errors.New("staff member not found")

// Member is one staff profile on the "Our Team" page; the list follows the
// same order/visible discipline as the content collections.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Bio      string `json:"bio,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
	Email    string `json:"email,omitempty"`

	Order     int       `json:"order"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// SortMembers orders members for display: (Order, CreatedAt, ID) ascending.
func SortMembers(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

type NewMember struct {
	Name     string `json:"name" validate:"required,max=100"`
	Role     string `json:"role" validate:"required,max=100"`
	Bio      string `json:"bio" validate:"max=2000"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
	Email    string `json:"email" validate:"omitempty,email"`
	Visible  *bool  `json:"visible"`
}

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Role = core.CleanString(nm.Role)
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	return validate.Struct(nm)
}

// UpdateMember is a partial edit: empty Name/Role keep the stored value,
// while the optional pointer fields only apply when set (an explicit empty
// string clears them).
type UpdateMember struct {
	Name     string  `json:"name" validate:"omitempty,max=100"`
	Role     string  `json:"role" validate:"omitempty,max=100"`
	Bio      *string `json:"bio" validate:"omitempty,max=2000"`
	PhotoURL *string `json:"photo_url" validate:"omitempty,url"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Visible  *bool   `json:"visible"`
}

func (um *UpdateMember) Validate(validate *validator.Validate) error {
	um.Name = core.CleanString(um.Name)
	um.Role = core.CleanString(um.Role)
	if um.Email != nil {
		*um.Email = core.CleanString(*um.Email, true /* lower */)
	}
	return validate.Struct(um)
}
