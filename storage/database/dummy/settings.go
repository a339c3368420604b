package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/settings"
)

type settingsRepository struct {
	db *settingsTable
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) settings.Repository {
	return &settingsRepository{db: db.settings}
}

func settingKey(namespace, key string) string {
	return namespace + "/" + key
}

func (repo *settingsRepository) QueryAllSettings(_ context.Context, _ ...core.DBExecutor) ([]settings.Setting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	stgs := make([]settings.Setting, 0, len(repo.db.settings))
	for _, stg := range repo.db.settings {
		stgs = append(stgs, *stg)
	}
	sort.Slice(stgs, func(i, j int) bool {
		if stgs[i].Namespace != stgs[j].Namespace {
			return stgs[i].Namespace < stgs[j].Namespace
		}
		return stgs[i].Key < stgs[j].Key
	})
	return stgs, nil
}

func (repo *settingsRepository) GetSetting(_ context.Context, namespace, key string, _ ...core.DBExecutor) (settings.Setting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if stg, ok := repo.db.settings[settingKey(namespace, key)]; ok {
		return *stg, nil
	}
	return settings.Setting{}, settings.ErrNotFound
}

func (repo *settingsRepository) UpsertSetting(_ context.Context, stg settings.Setting, _ ...core.DBExecutor) (settings.Setting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.settings[settingKey(stg.Namespace, stg.Key)] = &stg
	return stg, nil
}

func (repo *settingsRepository) DeleteSetting(_ context.Context, namespace, key string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := settingKey(namespace, key)
	if _, ok := repo.db.settings[k]; !ok {
		return settings.ErrNotFound
	}
	delete(repo.db.settings, k)
	return nil
}

func (repo *settingsRepository) QueryAllFlags(_ context.Context, _ ...core.DBExecutor) ([]settings.Flag, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	flags := make([]settings.Flag, 0, len(repo.db.flags))
	for _, flg := range repo.db.flags {
		flags = append(flags, *flg)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags, nil
}

func (repo *settingsRepository) UpsertFlag(_ context.Context, flg settings.Flag, _ ...core.DBExecutor) (settings.Flag, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.flags[flg.Name] = &flg
	return flg, nil
}
