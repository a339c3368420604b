package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
)

type contentRepository struct {
	db *contentTable
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *DB) content.Repository {
	return &contentRepository{db: db.content}
}

func (repo *contentRepository) query(filter content.Filter) []content.Record {
	records := make([]content.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		if rec.Kind != filter.Kind {
			continue
		}
		if filter.Page != "" && rec.Page != filter.Page {
			continue
		}
		records = append(records, *rec)
	}
	content.SortRecords(records)
	return records
}

func (repo *contentRepository) QueryRecords(_ context.Context, filter content.Filter, _ ...core.DBExecutor) ([]content.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(filter), nil
}

func (repo *contentRepository) GetRecordByID(_ context.Context, kind content.Kind, id string, _ ...core.DBExecutor) (content.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok && rec.Kind == kind {
		return *rec, nil
	}
	return content.Record{}, content.ErrNotFound
}

func (repo *contentRepository) CreateRecord(_ context.Context, rec content.Record, _ ...core.DBExecutor) (content.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.ID = uuid.New().String()
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *contentRepository) UpdateRecord(_ context.Context, rec content.Record, _ ...core.DBExecutor) (content.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[rec.ID]
	if !ok || orig.Kind != rec.Kind {
		return content.Record{}, content.ErrNotFound
	}
	rec.CreatedAt = orig.CreatedAt
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

// UpdateOrders validates the whole batch before touching the table so an
// unknown id leaves every order untouched.
func (repo *contentRepository) UpdateOrders(_ context.Context, kind content.Kind, pairs []content.OrderPair, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, pair := range pairs {
		if rec, ok := repo.db.table[pair.ID]; !ok || rec.Kind != kind {
			return content.ErrNotFound
		}
	}
	now := time.Now().UTC()
	for _, pair := range pairs {
		rec := repo.db.table[pair.ID]
		rec.Order = pair.Order
		rec.UpdatedAt = now
	}
	return nil
}

func (repo *contentRepository) DeleteRecord(_ context.Context, kind content.Kind, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if rec, ok := repo.db.table[id]; !ok || rec.Kind != kind {
		return content.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
