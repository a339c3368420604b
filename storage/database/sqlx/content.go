package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
)

type contentRepository struct {
	db *sqlx.DB
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *sqlx.DB) *contentRepository {
	return &contentRepository{db: db}
}

type contentRow struct {
	ID        string      `db:"id"`
	Kind      string      `db:"kind"`
	Page      null.String `db:"page"`
	ParentID  null.String `db:"parent_id"`
	Ord       int         `db:"ord"`
	Visible   bool        `db:"visible"`
	Published null.Bool   `db:"published"`
	Payload   null.JSON   `db:"payload"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (repo contentRepository) row(rec content.Record) (contentRow, error) {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return contentRow{}, errors.Wrap(err, "marshaling payload")
	}
	return contentRow{
		ID:        rec.ID,
		Kind:      string(rec.Kind),
		Page:      null.NewString(rec.Page, rec.Page != ""),
		ParentID:  null.NewString(rec.ParentID, rec.ParentID != ""),
		Ord:       rec.Order,
		Visible:   rec.Visible,
		Published: null.BoolFromPtr(rec.Published),
		Payload:   null.JSONFrom(payload),
		CreatedAt: null.NewTime(rec.CreatedAt.UTC(), !rec.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(rec.UpdatedAt.UTC(), !rec.UpdatedAt.IsZero()),
	}, nil
}

func (repo contentRepository) unrow(row contentRow) (content.Record, error) {
	rec := content.Record{
		ID:        row.ID,
		Kind:      content.Kind(row.Kind),
		Page:      row.Page.String,
		ParentID:  row.ParentID.String,
		Order:     row.Ord,
		Visible:   row.Visible,
		Published: row.Published.Ptr(),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if len(row.Payload.JSON) > 0 {
		if err := json.Unmarshal(row.Payload.JSON, &rec.Payload); err != nil {
			return content.Record{}, errors.Wrap(err, "unmarshaling payload")
		}
	}
	return rec, nil
}

func (repo contentRepository) unrowSlice(rows []contentRow) ([]content.Record, error) {
	records := make([]content.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := repo.unrow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// trapNoRowsErr maps psql "no rows" err to content.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return content.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo contentRepository) QueryRecords(ctx context.Context, filter content.Filter, _ ...core.DBExecutor) ([]content.Record, error) {
	query := `SELECT * FROM content_record WHERE kind = $1`
	args := []interface{}{string(filter.Kind)}
	if filter.Page != "" {
		query += ` AND page = $2`
		args = append(args, filter.Page)
	}
	query += ` ORDER BY ord, created_at, id`

	var rows []contentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	return repo.unrowSlice(rows)
}

func (repo contentRepository) GetRecordByID(ctx context.Context, kind content.Kind, id string, _ ...core.DBExecutor) (content.Record, error) {
	var row contentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM content_record WHERE kind = $1 AND id = $2`, string(kind), id)
	if err != nil {
		return content.Record{}, trapNoRowsErr(err, "getting record by ID")
	}
	return repo.unrow(row)
}

func (repo contentRepository) CreateRecord(ctx context.Context, rec content.Record, exec ...core.DBExecutor) (content.Record, error) {
	rec.ID = uuid.New().String()
	row, err := repo.row(rec)
	if err != nil {
		return content.Record{}, err
	}

	_, err = repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO content_record (id, kind, page, parent_id, ord, visible, published, payload, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		row.ID, row.Kind, row.Page, row.ParentID, row.Ord, row.Visible, row.Published, row.Payload, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return content.Record{}, errors.Wrap(err, "inserting record")
	}
	return rec, nil
}

func (repo contentRepository) UpdateRecord(ctx context.Context, rec content.Record, exec ...core.DBExecutor) (content.Record, error) {
	row, err := repo.row(rec)
	if err != nil {
		return content.Record{}, err
	}

	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE content_record
		 SET page = $1, parent_id = $2, ord = $3, visible = $4, published = $5, payload = $6, updated_at = $7
		 WHERE kind = $8 AND id = $9`,
		row.Page, row.ParentID, row.Ord, row.Visible, row.Published, row.Payload, row.UpdatedAt, row.Kind, row.ID,
	)
	if err != nil {
		return content.Record{}, errors.Wrap(err, "updating record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return content.Record{}, content.ErrNotFound
	}
	return rec, nil
}

func (repo contentRepository) UpdateOrders(ctx context.Context, kind content.Kind, pairs []content.OrderPair, exec ...core.DBExecutor) error {
	now := time.Now().UTC()
	for _, pair := range pairs {
		res, err := repo.getExec(exec).ExecContext(ctx,
			`UPDATE content_record SET ord = $1, updated_at = $2 WHERE kind = $3 AND id = $4`,
			pair.Order, now, string(kind), pair.ID,
		)
		if err != nil {
			return errors.Wrap(err, "updating record order")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return content.ErrNotFound
		}
	}
	return nil
}

func (repo contentRepository) DeleteRecord(ctx context.Context, kind content.Kind, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`DELETE FROM content_record WHERE kind = $1 AND id = $2`, string(kind), id)
	if err != nil {
		return errors.Wrap(err, "deleting record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (repo contentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}
