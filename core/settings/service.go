package settings

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core"
)

const cacheKey = "site:settings"

type (
	Repository interface {
		QueryAllSettings(ctx context.Context, exec ...core.DBExecutor) ([]Setting, error)
		GetSetting(ctx context.Context, namespace, key string, exec ...core.DBExecutor) (Setting, error)
		UpsertSetting(ctx context.Context, stg Setting, exec ...core.DBExecutor) (Setting, error)
		DeleteSetting(ctx context.Context, namespace, key string, exec ...core.DBExecutor) error

		QueryAllFlags(ctx context.Context, exec ...core.DBExecutor) ([]Flag, error)
		UpsertFlag(ctx context.Context, flg Flag, exec ...core.DBExecutor) (Flag, error)
	}

	Service struct {
		repo  Repository
		cache core.Cache
	}
)

func NewService(repo Repository, cache core.Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Setting, error) {
	return svc.repo.QueryAllSettings(ctx)
}

func (svc *Service) Get(ctx context.Context, namespace, key string) (Setting, error) {
	return svc.repo.GetSetting(ctx, core.CleanString(namespace, true), core.CleanString(key, true))
}

func (svc *Service) Upsert(ctx context.Context, us UpsertSetting) (Setting, error) {
	stg, err := svc.repo.UpsertSetting(ctx, Setting{
		Namespace: us.Namespace,
		Key:       us.Key,
		Value:     us.Value,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Setting{}, errors.Wrap(err, "upserting setting")
	}
	svc.cache.Delete(ctx, cacheKey)
	return stg, nil
}

func (svc *Service) Delete(ctx context.Context, namespace, key string) error {
	if err := svc.repo.DeleteSetting(ctx, core.CleanString(namespace, true), core.CleanString(key, true)); err != nil {
		return err
	}
	svc.cache.Delete(ctx, cacheKey)
	return nil
}

func (svc *Service) QueryAllFlags(ctx context.Context) ([]Flag, error) {
	return svc.repo.QueryAllFlags(ctx)
}

func (svc *Service) UpsertFlag(ctx context.Context, uf UpsertFlag) (Flag, error) {
	flg, err := svc.repo.UpsertFlag(ctx, Flag{
		Name:      uf.Name,
		Enabled:   uf.Enabled,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Flag{}, errors.Wrap(err, "upserting flag")
	}
	svc.cache.Delete(ctx, cacheKey)
	return flg, nil
}
