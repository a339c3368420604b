package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/settings"
)

type settingsRepository struct {
	db *sqlx.DB
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *sqlx.DB) *settingsRepository {
	return &settingsRepository{db: db}
}

type settingRow struct {
	Namespace string    `db:"namespace"`
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt null.Time `db:"updated_at"`
}

type flagRow struct {
	Name      string    `db:"name"`
	Enabled   bool      `db:"enabled"`
	UpdatedAt null.Time `db:"updated_at"`
}

func (repo settingsRepository) QueryAllSettings(ctx context.Context, _ ...core.DBExecutor) ([]settings.Setting, error) {
	var rows []settingRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM setting ORDER BY namespace, key`)
	if err != nil {
		return nil, errors.Wrap(err, "querying settings")
	}
	stgs := make([]settings.Setting, 0, len(rows))
	for _, row := range rows {
		stgs = append(stgs, settings.Setting{
			Namespace: row.Namespace,
			Key:       row.Key,
			Value:     row.Value,
			UpdatedAt: row.UpdatedAt.Time,
		})
	}
	return stgs, nil
}

func (repo settingsRepository) GetSetting(ctx context.Context, namespace, key string, _ ...core.DBExecutor) (settings.Setting, error) {
	var row settingRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM setting WHERE namespace = $1 AND key = $2`, namespace, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return settings.Setting{}, settings.ErrNotFound
		}
		return settings.Setting{}, errors.Wrap(err, "getting setting")
	}
	return settings.Setting{Namespace: row.Namespace, Key: row.Key, Value: row.Value, UpdatedAt: row.UpdatedAt.Time}, nil
}

func (repo settingsRepository) UpsertSetting(ctx context.Context, stg settings.Setting, exec ...core.DBExecutor) (settings.Setting, error) {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO setting (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		stg.Namespace, stg.Key, stg.Value, null.TimeFrom(stg.UpdatedAt.UTC()),
	)
	if err != nil {
		return settings.Setting{}, errors.Wrap(err, "upserting setting")
	}
	return stg, nil
}

func (repo settingsRepository) DeleteSetting(ctx context.Context, namespace, key string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`DELETE FROM setting WHERE namespace = $1 AND key = $2`, namespace, key)
	if err != nil {
		return errors.Wrap(err, "deleting setting")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return settings.ErrNotFound
	}
	return nil
}

func (repo settingsRepository) QueryAllFlags(ctx context.Context, _ ...core.DBExecutor) ([]settings.Flag, error) {
	var rows []flagRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM feature_flag ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying feature flags")
	}
	flags := make([]settings.Flag, 0, len(rows))
	for _, row := range rows {
		flags = append(flags, settings.Flag{Name: row.Name, Enabled: row.Enabled, UpdatedAt: row.UpdatedAt.Time})
	}
	return flags, nil
}

func (repo settingsRepository) UpsertFlag(ctx context.Context, flg settings.Flag, exec ...core.DBExecutor) (settings.Flag, error) {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO feature_flag (name, enabled, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`,
		flg.Name, flg.Enabled, null.TimeFrom(flg.UpdatedAt.UTC()),
	)
	if err != nil {
		return settings.Flag{}, errors.Wrap(err, "upserting feature flag")
	}
	return flg, nil
}

func (repo settingsRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}
