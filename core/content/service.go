package content

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core"
)

type (
	// Filter narrows a collection query; Kind is required, Page only applies
	// to page sections.
	Filter struct {
		Kind Kind
		Page string
	}

	Repository interface {
		QueryRecords(ctx context.Context, filter Filter, exec ...core.DBExecutor) ([]Record, error)
		GetRecordByID(ctx context.Context, kind Kind, id string, exec ...core.DBExecutor) (Record, error)
		CreateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		UpdateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		// UpdateOrders applies the new order values; it must fail with
		// ErrNotFound when any id is unknown so the wrapping transaction
		// rolls the whole batch back.
		UpdateOrders(ctx context.Context, kind Kind, pairs []OrderPair, exec ...core.DBExecutor) error
		DeleteRecord(ctx context.Context, kind Kind, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		db    core.TxBeginner
		repo  Repository
		cache core.Cache
	}
)

func NewService(db core.TxBeginner, repo Repository, cache core.Cache) *Service {
	return &Service{db: db, repo: repo, cache: cache}
}

// NewRecord is the payload of an admin "add" action.
type NewRecord struct {
	Page      string  `json:"page"`
	ParentID  string  `json:"parent_id"`
	Order     *int    `json:"order"`
	Visible   *bool   `json:"visible"`
	Published *bool   `json:"published"`
	Payload   Payload `json:"payload"`
}

func (nr NewRecord) Validate(kind Kind, validate *validator.Validate) error {
	if kind.SupportsPage() && core.CleanString(nr.Page) == "" {
		return core.NewValidationError(errors.New("page is required"),
			core.FieldError{Field: "page", Error: "this field is required"})
	}
	if nr.ParentID != "" && !kind.SupportsHierarchy() {
		return core.NewValidationError(errors.New("kind does not support nesting"),
			core.FieldError{Field: "parent_id", Error: "this content kind does not support nesting"})
	}
	return nr.Payload.Validate(kind, validate)
}

// UpdateRecord carries a partial edit; nil/empty fields keep their current value.
type UpdateRecord struct {
	Page     string   `json:"page"`
	ParentID *string  `json:"parent_id"`
	Visible  *bool    `json:"visible"`
	Payload  *Payload `json:"payload"`
}

func (ur UpdateRecord) Validate(kind Kind, validate *validator.Validate) error {
	if ur.ParentID != nil && *ur.ParentID != "" && !kind.SupportsHierarchy() {
		return core.NewValidationError(errors.New("kind does not support nesting"),
			core.FieldError{Field: "parent_id", Error: "this content kind does not support nesting"})
	}
	if ur.Payload != nil {
		return ur.Payload.Validate(kind, validate)
	}
	return nil
}

// Query returns the full collection for a kind in display order.
func (svc *Service) Query(ctx context.Context, filter Filter) ([]Record, error) {
	records, err := svc.repo.QueryRecords(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	SortRecords(records)
	return records, nil
}

func (svc *Service) GetByID(ctx context.Context, kind Kind, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, kind, id)
}

func (svc *Service) Create(ctx context.Context, kind Kind, nr NewRecord) (Record, error) {
	now := time.Now().UTC()
	rec := Record{
		Kind:      kind,
		Page:      core.CleanString(nr.Page),
		ParentID:  nr.ParentID,
		Visible:   true,
		Payload:   nr.Payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nr.Visible != nil {
		rec.Visible = *nr.Visible
	}
	if kind.SupportsPublish() {
		published := false
		if nr.Published != nil {
			published = *nr.Published
		}
		rec.Published = &published
	}

	if rec.ParentID != "" {
		if err := svc.checkParent(ctx, kind, rec.ParentID); err != nil {
			return Record{}, err
		}
	}

	if nr.Order != nil {
		rec.Order = *nr.Order
	} else {
		ord, err := svc.nextOrder(ctx, Filter{Kind: kind, Page: rec.Page})
		if err != nil {
			return Record{}, err
		}
		rec.Order = ord
	}

	created, err := svc.repo.CreateRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "creating record")
	}
	svc.invalidate(ctx, kind, created.Page)
	return created, nil
}

func (svc *Service) Update(ctx context.Context, kind Kind, id string, ur UpdateRecord) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, kind, id)
	if err != nil {
		return Record{}, err
	}

	if ur.Page != "" && kind.SupportsPage() {
		rec.Page = core.CleanString(ur.Page)
	}
	if ur.ParentID != nil {
		if *ur.ParentID != "" {
			if *ur.ParentID == rec.ID {
				return Record{}, core.NewValidationError(errors.New("record cannot be its own parent"),
					core.FieldError{Field: "parent_id", Error: "record cannot be its own parent"})
			}
			if err = svc.checkParent(ctx, kind, *ur.ParentID); err != nil {
				return Record{}, err
			}
		}
		rec.ParentID = *ur.ParentID
	}
	if ur.Visible != nil {
		rec.Visible = *ur.Visible
	}
	if ur.Payload != nil {
		rec.Payload = *ur.Payload
	}
	rec.UpdatedAt = time.Now().UTC()

	updated, err := svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "updating record")
	}
	svc.invalidate(ctx, kind, updated.Page)
	return updated, nil
}

// SetVisible flips the visible flag and nothing else.
func (svc *Service) SetVisible(ctx context.Context, kind Kind, id string, visible bool) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, kind, id)
	if err != nil {
		return Record{}, err
	}
	rec.Visible = visible
	rec.UpdatedAt = time.Now().UTC()

	updated, err := svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "updating visible flag")
	}
	svc.invalidate(ctx, kind, updated.Page)
	return updated, nil
}

// SetPublished flips the published flag; only valid for kinds that carry one.
func (svc *Service) SetPublished(ctx context.Context, kind Kind, id string, published bool) (Record, error) {
	if !kind.SupportsPublish() {
		return Record{}, ErrNoPublishFlag
	}
	rec, err := svc.repo.GetRecordByID(ctx, kind, id)
	if err != nil {
		return Record{}, err
	}
	rec.Published = &published
	rec.UpdatedAt = time.Now().UTC()

	updated, err := svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "updating published flag")
	}
	svc.invalidate(ctx, kind, updated.Page)
	return updated, nil
}

// Reorder atomically applies the new order values: all pairs commit or none
// do, so a failed batch can never leave the collection half renumbered.
func (svc *Service) Reorder(ctx context.Context, kind Kind, page string, pairs []OrderPair) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := svc.db.BeginTransaction(ctx)
	if err != nil {
		return errors.Wrap(err, "beginning reorder tx")
	}
	if err = svc.repo.UpdateOrders(ctx, kind, pairs, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing reorder tx")
	}

	svc.invalidate(ctx, kind, page)
	return nil
}

// Delete removes the record only; children keep their now-dangling ParentID
// and resurface as top-level through the tree resolver's orphan fallback.
func (svc *Service) Delete(ctx context.Context, kind Kind, id string) error {
	rec, err := svc.repo.GetRecordByID(ctx, kind, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteRecord(ctx, kind, id); err != nil {
		return errors.Wrap(err, "deleting record")
	}
	svc.invalidate(ctx, kind, rec.Page)
	return nil
}

func (svc *Service) checkParent(ctx context.Context, kind Kind, parentID string) error {
	parent, err := svc.repo.GetRecordByID(ctx, kind, parentID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errors.New("parent not found"),
				core.FieldError{Field: "parent_id", Error: "parent record not found"})
		}
		return errors.Wrap(err, "checking parent")
	}
	if parent.ParentID != "" {
		return core.NewValidationError(errors.New("nesting beyond one level"),
			core.FieldError{Field: "parent_id", Error: "only one level of nesting is supported"})
	}
	return nil
}

func (svc *Service) nextOrder(ctx context.Context, filter Filter) (int, error) {
	siblings, err := svc.repo.QueryRecords(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "querying siblings for next order")
	}
	max := -orderStep
	for _, r := range siblings {
		if r.Order > max {
			max = r.Order
		}
	}
	return max + orderStep, nil
}

// PublicCacheKey names the public-site cache entry for a collection.
func PublicCacheKey(kind Kind, page string) string {
	if page != "" {
		return "site:" + string(kind) + ":" + page
	}
	return "site:" + string(kind)
}

func (svc *Service) invalidate(ctx context.Context, kind Kind, page string) {
	keys := []string{PublicCacheKey(kind, "")}
	if page != "" {
		keys = append(keys, PublicCacheKey(kind, page))
	}
	svc.cache.Delete(ctx, keys...)
}
