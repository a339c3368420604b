package staff

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
)

const orderStep = 10

type (
	Repository interface {
		CreateMember(ctx context.Context, mbr Member, exec ...core.DBExecutor) (Member, error)
		QueryAllMembers(ctx context.Context, exec ...core.DBExecutor) ([]Member, error)
		GetMemberByID(ctx context.Context, id string, exec ...core.DBExecutor) (Member, error)
		UpdateMember(ctx context.Context, mbr Member, exec ...core.DBExecutor) (Member, error)
		// UpdateOrders fails with ErrNotFound on any unknown id so the
		// wrapping transaction rolls the whole batch back.
		UpdateOrders(ctx context.Context, pairs []content.OrderPair, exec ...core.DBExecutor) error
		DeleteMember(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		db   core.TxBeginner
		repo Repository
	}
)

func NewService(db core.TxBeginner, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

func (svc *Service) Create(ctx context.Context, nm NewMember) (Member, error) {
	now := time.Now().UTC()
	mbr := Member{
		Name:      nm.Name,
		Role:      nm.Role,
		Bio:       nm.Bio,
		PhotoURL:  nm.PhotoURL,
		Email:     nm.Email,
		Visible:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nm.Visible != nil {
		mbr.Visible = *nm.Visible
	}

	members, err := svc.repo.QueryAllMembers(ctx)
	if err != nil {
		return Member{}, errors.Wrap(err, "querying members for next order")
	}
	max := -orderStep
	for _, m := range members {
		if m.Order > max {
			max = m.Order
		}
	}
	mbr.Order = max + orderStep

	return svc.repo.CreateMember(ctx, mbr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Member, error) {
	members, err := svc.repo.QueryAllMembers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	SortMembers(members)
	return members, nil
}

// QueryVisible returns the public team listing.
func (svc *Service) QueryVisible(ctx context.Context) ([]Member, error) {
	members, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]Member, 0, len(members))
	for _, m := range members {
		if m.Visible {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Member, error) {
	return svc.repo.GetMemberByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, um UpdateMember) (Member, error) {
	mbr, err := svc.repo.GetMemberByID(ctx, id)
	if err != nil {
		return Member{}, err
	}

	if um.Name != "" {
		mbr.Name = um.Name
	}
	if um.Role != "" {
		mbr.Role = um.Role
	}
	if um.Bio != nil {
		mbr.Bio = *um.Bio
	}
	if um.PhotoURL != nil {
		mbr.PhotoURL = *um.PhotoURL
	}
	if um.Email != nil {
		mbr.Email = *um.Email
	}
	if um.Visible != nil {
		mbr.Visible = *um.Visible
	}
	mbr.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateMember(ctx, mbr)
}

func (svc *Service) SetVisible(ctx context.Context, id string, visible bool) (Member, error) {
	mbr, err := svc.repo.GetMemberByID(ctx, id)
	if err != nil {
		return Member{}, err
	}
	mbr.Visible = visible
	mbr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMember(ctx, mbr)
}

// Reorder atomically renumbers the team listing.
func (svc *Service) Reorder(ctx context.Context, pairs []content.OrderPair) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := svc.db.BeginTransaction(ctx)
	if err != nil {
		return errors.Wrap(err, "beginning reorder tx")
	}
	if err = svc.repo.UpdateOrders(ctx, pairs, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing reorder tx")
	}
	return nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteMember(ctx, id)
}
