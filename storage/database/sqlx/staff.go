package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/staff"
)

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *sqlx.DB) *staffRepository {
	return &staffRepository{db: db}
}

type staffRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Role      string      `db:"role"`
	Bio       null.String `db:"bio"`
	PhotoURL  null.String `db:"photo_url"`
	Email     null.String `db:"email"`
	Ord       int         `db:"ord"`
	Visible   bool        `db:"visible"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (repo staffRepository) row(mbr staff.Member) staffRow {
	return staffRow{
		ID:        mbr.ID,
		Name:      mbr.Name,
		Role:      mbr.Role,
		Bio:       null.NewString(mbr.Bio, mbr.Bio != ""),
		PhotoURL:  null.NewString(mbr.PhotoURL, mbr.PhotoURL != ""),
		Email:     null.NewString(mbr.Email, mbr.Email != ""),
		Ord:       mbr.Order,
		Visible:   mbr.Visible,
		CreatedAt: null.NewTime(mbr.CreatedAt.UTC(), !mbr.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(mbr.UpdatedAt.UTC(), !mbr.UpdatedAt.IsZero()),
	}
}

func (repo staffRepository) unrow(row staffRow) staff.Member {
	return staff.Member{
		ID:        row.ID,
		Name:      row.Name,
		Role:      row.Role,
		Bio:       row.Bio.String,
		PhotoURL:  row.PhotoURL.String,
		Email:     row.Email.String,
		Order:     row.Ord,
		Visible:   row.Visible,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (repo staffRepository) CreateMember(ctx context.Context, mbr staff.Member, exec ...core.DBExecutor) (staff.Member, error) {
	mbr.ID = uuid.New().String()
	row := repo.row(mbr)

	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO staff_member (id, name, role, bio, photo_url, email, ord, visible, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		row.ID, row.Name, row.Role, row.Bio, row.PhotoURL, row.Email, row.Ord, row.Visible, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return staff.Member{}, errors.Wrap(err, "inserting staff member")
	}
	return mbr, nil
}

func (repo staffRepository) QueryAllMembers(ctx context.Context, _ ...core.DBExecutor) ([]staff.Member, error) {
	var rows []staffRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM staff_member ORDER BY ord, created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying staff members")
	}
	members := make([]staff.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, repo.unrow(row))
	}
	return members, nil
}

func (repo staffRepository) GetMemberByID(ctx context.Context, id string, _ ...core.DBExecutor) (staff.Member, error) {
	var row staffRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM staff_member WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return staff.Member{}, staff.ErrNotFound
		}
		return staff.Member{}, errors.Wrap(err, "getting staff member by ID")
	}
	return repo.unrow(row), nil
}

func (repo staffRepository) UpdateMember(ctx context.Context, mbr staff.Member, exec ...core.DBExecutor) (staff.Member, error) {
	row := repo.row(mbr)
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE staff_member
		 SET name = $1, role = $2, bio = $3, photo_url = $4, email = $5, ord = $6, visible = $7, updated_at = $8
		 WHERE id = $9`,
		row.Name, row.Role, row.Bio, row.PhotoURL, row.Email, row.Ord, row.Visible, row.UpdatedAt, row.ID,
	)
	if err != nil {
		return staff.Member{}, errors.Wrap(err, "updating staff member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return staff.Member{}, staff.ErrNotFound
	}
	return mbr, nil
}

func (repo staffRepository) UpdateOrders(ctx context.Context, pairs []content.OrderPair, exec ...core.DBExecutor) error {
	now := time.Now().UTC()
	for _, pair := range pairs {
		res, err := repo.getExec(exec).ExecContext(ctx,
			`UPDATE staff_member SET ord = $1, updated_at = $2 WHERE id = $3`, pair.Order, now, pair.ID)
		if err != nil {
			return errors.Wrap(err, "updating staff member order")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return staff.ErrNotFound
		}
	}
	return nil
}

func (repo staffRepository) DeleteMember(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM staff_member WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting staff member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return staff.ErrNotFound
	}
	return nil
}

func (repo staffRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}
