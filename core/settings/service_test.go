package settings_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/settings"
	"github.com/trezcool/shulesite/storage/database/dummy"
)

type spyCache struct {
	core.Cache
	deleted []string
}

func (c *spyCache) Delete(_ context.Context, keys ...string) { c.deleted = append(c.deleted, keys...) }

func setup(t *testing.T) (*settings.Service, *spyCache) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	cache := &spyCache{Cache: core.NewNopCache()}
	return settings.NewService(dummydb.NewSettingsRepository(db), cache), cache
}

func TestService_Upsert(t *testing.T) {
	ctx := context.Background()
	svc, cache := setup(t)

	stg, err := svc.Upsert(ctx, settings.UpsertSetting{
		Namespace: settings.NamespaceSite,
		Key:       "school-name",
		Value:     "Shule Primary",
	})
	require.NoError(t, err)
	assert.Equal(t, "Shule Primary", stg.Value)

	// upsert overwrites in place
	stg, err = svc.Upsert(ctx, settings.UpsertSetting{
		Namespace: settings.NamespaceSite,
		Key:       "school-name",
		Value:     "Shule Academy",
	})
	require.NoError(t, err)
	assert.Equal(t, "Shule Academy", stg.Value)

	all, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// same key in another namespace is a separate entry
	_, err = svc.Upsert(ctx, settings.UpsertSetting{
		Namespace: settings.NamespaceSEO,
		Key:       "school-name",
		Value:     "Shule Academy | Home",
	})
	require.NoError(t, err)

	all, err = svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// every write drops the public cache entry
	assert.Equal(t, []string{"site:settings", "site:settings", "site:settings"}, cache.deleted)
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.Upsert(ctx, settings.UpsertSetting{
		Namespace: settings.NamespaceSite,
		Key:       "phone",
		Value:     "+243 000 000",
	})
	require.NoError(t, err)

	// lookup cleans namespace and key
	stg, err := svc.Get(ctx, " SITE ", " PHONE ")
	require.NoError(t, err)
	assert.Equal(t, "+243 000 000", stg.Value)

	_, err = svc.Get(ctx, settings.NamespaceSite, "nope")
	assert.Equal(t, settings.ErrNotFound, errors.Cause(err))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, cache := setup(t)

	_, err := svc.Upsert(ctx, settings.UpsertSetting{
		Namespace: settings.NamespaceSite,
		Key:       "phone",
		Value:     "+243 000 000",
	})
	require.NoError(t, err)
	cache.deleted = nil

	require.NoError(t, svc.Delete(ctx, settings.NamespaceSite, "phone"))
	assert.Equal(t, []string{"site:settings"}, cache.deleted)

	_, err = svc.Get(ctx, settings.NamespaceSite, "phone")
	assert.Equal(t, settings.ErrNotFound, errors.Cause(err))

	err = svc.Delete(ctx, settings.NamespaceSite, "phone")
	assert.Equal(t, settings.ErrNotFound, errors.Cause(err))
}

func TestService_Flags(t *testing.T) {
	ctx := context.Background()
	svc, cache := setup(t)

	flg, err := svc.UpsertFlag(ctx, settings.UpsertFlag{Name: "testimonials-carousel", Enabled: true})
	require.NoError(t, err)
	assert.True(t, flg.Enabled)

	flg, err = svc.UpsertFlag(ctx, settings.UpsertFlag{Name: "testimonials-carousel", Enabled: false})
	require.NoError(t, err)
	assert.False(t, flg.Enabled)

	flags, err := svc.QueryAllFlags(ctx)
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, "testimonials-carousel", flags[0].Name)

	assert.Contains(t, cache.deleted, "site:settings")
}
