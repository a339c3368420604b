package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/staff"
)

type staffRepository struct {
	db *staffTable
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) staff.Repository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) query() []staff.Member {
	members := make([]staff.Member, 0, len(repo.db.table))
	for _, mbr := range repo.db.table {
		members = append(members, *mbr)
	}
	staff.SortMembers(members)
	return members
}

func (repo *staffRepository) CreateMember(_ context.Context, mbr staff.Member, _ ...core.DBExecutor) (staff.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mbr.ID = uuid.New().String()
	repo.db.table[mbr.ID] = &mbr
	return mbr, nil
}

func (repo *staffRepository) QueryAllMembers(_ context.Context, _ ...core.DBExecutor) ([]staff.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *staffRepository) GetMemberByID(_ context.Context, id string, _ ...core.DBExecutor) (staff.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mbr, ok := repo.db.table[id]; ok {
		return *mbr, nil
	}
	return staff.Member{}, staff.ErrNotFound
}

func (repo *staffRepository) UpdateMember(_ context.Context, mbr staff.Member, _ ...core.DBExecutor) (staff.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[mbr.ID]
	if !ok {
		return staff.Member{}, staff.ErrNotFound
	}
	mbr.CreatedAt = orig.CreatedAt
	repo.db.table[mbr.ID] = &mbr
	return mbr, nil
}

// UpdateOrders validates the whole batch before touching the table so an
// unknown id leaves every order untouched.
func (repo *staffRepository) UpdateOrders(_ context.Context, pairs []content.OrderPair, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, pair := range pairs {
		if _, ok := repo.db.table[pair.ID]; !ok {
			return staff.ErrNotFound
		}
	}
	now := time.Now().UTC()
	for _, pair := range pairs {
		mbr := repo.db.table[pair.ID]
		mbr.Order = pair.Order
		mbr.UpdatedAt = now
	}
	return nil
}

func (repo *staffRepository) DeleteMember(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return staff.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
