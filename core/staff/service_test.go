package staff_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/staff"
	"github.com/trezcool/shulesite/storage/database/dummy"
)

func setup(t *testing.T) *staff.Service {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	return staff.NewService(db, dummydb.NewStaffRepository(db))
}

func createMember(t *testing.T, svc *staff.Service, name, role string) staff.Member {
	t.Helper()

	mbr, err := svc.Create(context.Background(), staff.NewMember{Name: name, Role: role})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	return mbr
}

func memberIDs(members []staff.Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.ID
	}
	return out
}

func TestService_Create(t *testing.T) {
	svc := setup(t)

	head := createMember(t, svc, "A. Head", "Head Teacher")
	deputy := createMember(t, svc, "D. Deputy", "Deputy Head")

	// orders auto-increment by 10, everyone starts visible
	assert.Equal(t, 0, head.Order)
	assert.Equal(t, 10, deputy.Order)
	assert.True(t, head.Visible)
}

func TestService_Reorder(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	a := createMember(t, svc, "A", "Teacher")
	b := createMember(t, svc, "B", "Teacher")
	c := createMember(t, svc, "C", "Teacher")

	pairs := []content.OrderPair{{ID: c.ID, Order: 0}, {ID: a.ID, Order: 10}, {ID: b.ID, Order: 20}}
	require.NoError(t, svc.Reorder(ctx, pairs))

	members, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, memberIDs(members))

	// one bad id fails the whole batch
	bad := []content.OrderPair{{ID: a.ID, Order: 0}, {ID: "nope", Order: 10}}
	err = svc.Reorder(ctx, bad)
	assert.Equal(t, staff.ErrNotFound, errors.Cause(err))

	members, err = svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, memberIDs(members))
}

func TestService_QueryVisible(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	shown := createMember(t, svc, "Shown", "Teacher")
	hidden := createMember(t, svc, "Hidden", "Teacher")

	_, err := svc.SetVisible(ctx, hidden.ID, false)
	require.NoError(t, err)

	members, err := svc.QueryVisible(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{shown.ID}, memberIDs(members))

	// the admin listing still has both
	members, err = svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	mbr := createMember(t, svc, "A. Head", "Head Teacher")

	updated, err := svc.Update(ctx, mbr.ID, staff.UpdateMember{Role: "Principal", Bio: sPtr("Since 1999")})
	require.NoError(t, err)
	assert.Equal(t, "A. Head", updated.Name)
	assert.Equal(t, "Principal", updated.Role)
	assert.Equal(t, "Since 1999", updated.Bio)
	assert.Equal(t, mbr.Order, updated.Order)

	// omitted optional fields keep their value
	updated, err = svc.Update(ctx, mbr.ID, staff.UpdateMember{Name: "A. Head Sr."})
	require.NoError(t, err)
	assert.Equal(t, "Since 1999", updated.Bio)

	// an explicit empty string clears them
	updated, err = svc.Update(ctx, mbr.ID, staff.UpdateMember{Bio: sPtr("")})
	require.NoError(t, err)
	assert.Empty(t, updated.Bio)

	_, err = svc.Update(ctx, "nope", staff.UpdateMember{})
	assert.Equal(t, staff.ErrNotFound, errors.Cause(err))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	mbr := createMember(t, svc, "A", "Teacher")
	require.NoError(t, svc.Delete(ctx, mbr.ID))

	_, err := svc.GetByID(ctx, mbr.ID)
	assert.Equal(t, staff.ErrNotFound, errors.Cause(err))
}

func sPtr(s string) *string { return &s }
