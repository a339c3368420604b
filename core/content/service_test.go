package content_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/storage/database/dummy"
)

type spyCache struct {
	core.Cache
	deleted []string
}

func (c *spyCache) Delete(_ context.Context, keys ...string) { c.deleted = append(c.deleted, keys...) }

func setup(t *testing.T) (*content.Service, *spyCache) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	cache := &spyCache{Cache: core.NewNopCache()}
	return content.NewService(db, dummydb.NewContentRepository(db), cache), cache
}

func createRecord(t *testing.T, svc *content.Service, kind content.Kind, nr content.NewRecord) content.Record {
	t.Helper()

	if nr.Payload == (content.Payload{}) {
		nr.Payload = content.Payload{Link: &content.LinkPayload{Label: "x", Href: "/x"}}
	}
	rec, err := svc.Create(context.Background(), kind, nr)
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	return rec
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, cache := setup(t)

	// orders auto-increment by 10 per sibling scope
	a := createRecord(t, svc, content.KindNavigation, content.NewRecord{})
	b := createRecord(t, svc, content.KindNavigation, content.NewRecord{})
	assert.Equal(t, 0, a.Order)
	assert.Equal(t, 10, b.Order)
	assert.True(t, a.Visible)
	assert.Nil(t, a.Published)

	// page sections get their own scope per page and a publish flag
	s1 := createRecord(t, svc, content.KindPageSection, content.NewRecord{
		Page:    "home",
		Payload: content.Payload{Section: &content.SectionPayload{
			Variant:  content.SectionRichText,
			RichText: &content.RichTextSection{HTML: "<p>hi</p>"},
		}},
	})
	assert.Equal(t, 0, s1.Order)
	require.NotNil(t, s1.Published)
	assert.False(t, *s1.Published)

	// mutations invalidate the public cache for the collection
	assert.Contains(t, cache.deleted, content.PublicCacheKey(content.KindNavigation, ""))
	assert.Contains(t, cache.deleted, content.PublicCacheKey(content.KindPageSection, "home"))

	// nesting is rejected beyond one level
	child := createRecord(t, svc, content.KindNavigation, content.NewRecord{ParentID: a.ID})
	_, err := svc.Create(ctx, content.KindNavigation, content.NewRecord{
		ParentID: child.ID,
		Payload:  content.Payload{Link: &content.LinkPayload{Label: "x", Href: "/x"}},
	})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))

	// unknown parent is rejected
	_, err = svc.Create(ctx, content.KindNavigation, content.NewRecord{
		ParentID: "nope",
		Payload:  content.Payload{Link: &content.LinkPayload{Label: "x", Href: "/x"}},
	})
	require.True(t, errors.As(err, &vErr))
}

func TestService_Reorder(t *testing.T) {
	ctx := context.Background()
	svc, cache := setup(t)

	a := createRecord(t, svc, content.KindNavigation, content.NewRecord{})
	b := createRecord(t, svc, content.KindNavigation, content.NewRecord{})
	c := createRecord(t, svc, content.KindNavigation, content.NewRecord{})
	cache.deleted = nil

	// move a to the end
	pairs := []content.OrderPair{{ID: b.ID, Order: 0}, {ID: c.ID, Order: 10}, {ID: a.ID, Order: 20}}
	require.NoError(t, svc.Reorder(ctx, content.KindNavigation, "", pairs))

	records, err := svc.Query(ctx, content.Filter{Kind: content.KindNavigation})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, recordIDs(records))
	assert.Equal(t, []string{content.PublicCacheKey(content.KindNavigation, "")}, cache.deleted)

	// one bad id fails the whole batch; nothing is applied
	cache.deleted = nil
	bad := []content.OrderPair{{ID: c.ID, Order: 0}, {ID: "nope", Order: 10}}
	err = svc.Reorder(ctx, content.KindNavigation, "", bad)
	assert.Equal(t, content.ErrNotFound, errors.Cause(err))

	records, err = svc.Query(ctx, content.Filter{Kind: content.KindNavigation})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, recordIDs(records))
	assert.Empty(t, cache.deleted)

	// empty batch is a no-op
	require.NoError(t, svc.Reorder(ctx, content.KindNavigation, "", nil))
}

func TestService_SetVisible(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	rec := createRecord(t, svc, content.KindFooterLink, content.NewRecord{})

	updated, err := svc.SetVisible(ctx, content.KindFooterLink, rec.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Visible)
	assert.Equal(t, rec.Order, updated.Order) // nothing else moved

	_, err = svc.SetVisible(ctx, content.KindFooterLink, "nope", false)
	assert.Equal(t, content.ErrNotFound, errors.Cause(err))
}

func TestService_SetPublished(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	rec := createRecord(t, svc, content.KindTestimonial, content.NewRecord{
		Payload: content.Payload{Testimonial: &content.TestimonialPayload{Name: "A", Quote: "Q"}},
	})
	require.NotNil(t, rec.Published)
	assert.False(t, *rec.Published)

	updated, err := svc.SetPublished(ctx, content.KindTestimonial, rec.ID, true)
	require.NoError(t, err)
	require.NotNil(t, updated.Published)
	assert.True(t, *updated.Published)
	assert.True(t, updated.Visible) // untouched

	// kinds without a publish flag refuse the toggle
	link := createRecord(t, svc, content.KindNavigation, content.NewRecord{})
	_, err = svc.SetPublished(ctx, content.KindNavigation, link.ID, true)
	assert.Equal(t, content.ErrNoPublishFlag, errors.Cause(err))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	parent := createRecord(t, svc, content.KindNavigation, content.NewRecord{})
	child := createRecord(t, svc, content.KindNavigation, content.NewRecord{ParentID: parent.ID})

	require.NoError(t, svc.Delete(ctx, content.KindNavigation, parent.ID))

	_, err := svc.GetByID(ctx, content.KindNavigation, parent.ID)
	assert.Equal(t, content.ErrNotFound, errors.Cause(err))

	// delete never cascades: the child survives with a dangling ParentID
	// and resurfaces as top-level in the tree
	records, err := svc.Query(ctx, content.Filter{Kind: content.KindNavigation})
	require.NoError(t, err)
	require.Equal(t, []string{child.ID}, recordIDs(records))
	assert.Equal(t, parent.ID, records[0].ParentID)

	nodes := content.ResolveTree(records)
	require.Len(t, nodes, 1)
	assert.Equal(t, child.ID, nodes[0].ID)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	rec := createRecord(t, svc, content.KindNavigation, content.NewRecord{})
	other := createRecord(t, svc, content.KindNavigation, content.NewRecord{})

	// re-home under another record
	updated, err := svc.Update(ctx, content.KindNavigation, rec.ID, content.UpdateRecord{ParentID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, updated.ParentID)

	// self-parenting is rejected
	_, err = svc.Update(ctx, content.KindNavigation, other.ID, content.UpdateRecord{ParentID: &other.ID})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))

	// detach
	empty := ""
	updated, err = svc.Update(ctx, content.KindNavigation, rec.ID, content.UpdateRecord{ParentID: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.ParentID)
}

func recordIDs(records []content.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
