package member

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reportentity "github.com/ovaphlow/cellgroup/internal/report/entity"
	"github.com/ovaphlow/cellgroup/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestService(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := NewService(db)
	ctx := context.Background()

	faith, _ := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	hope, _ := testutil.CreateGroup(t, db, "Hope Cell", "cell002", "pw")

	t.Run("create", func(t *testing.T) {
		m, err := svc.Create(ctx, CreateInput{Name: " Alice Johnson ", CellGroupID: faith.ID})
		require.NoError(t, err)
		assert.Equal(t, "Alice Johnson", m.Name)
		assert.True(t, m.IsActive)

		_, err = svc.Create(ctx, CreateInput{Name: "Nobody", CellGroupID: "missing"})
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("list joins group and orders by group then name", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{Name: "Emma Wilson", CellGroupID: hope.ID})
		require.NoError(t, err)
		_, err = svc.Create(ctx, CreateInput{Name: "Aaron", CellGroupID: faith.ID})
		require.NoError(t, err)

		all, err := svc.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Aaron", all[0].Name)
		assert.Equal(t, "Faith Cell", all[0].CellGroup.Name)
		assert.Equal(t, "Emma Wilson", all[2].Name)
		assert.Equal(t, hope.ID, all[2].CellGroup.ID)

		one, err := svc.List(ctx, hope.ID)
		require.NoError(t, err)
		require.Len(t, one, 1)
	})

	t.Run("update moves and deactivates", func(t *testing.T) {
		m := testutil.CreateMember(t, db, faith.ID, "Bob Williams", true)
		got, err := svc.Update(ctx, m.ID, UpdateInput{IsActive: ptr(false), CellGroupID: ptr(hope.ID)})
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.Equal(t, hope.ID, got.CellGroupID)
		assert.Equal(t, "Bob Williams", got.Name)

		_, err = svc.Update(ctx, m.ID, UpdateInput{CellGroupID: ptr("missing")})
		assert.ErrorIs(t, err, ErrGroupNotFound)
		_, err = svc.Update(ctx, "missing", UpdateInput{Name: ptr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("scoped update", func(t *testing.T) {
		m := testutil.CreateMember(t, db, faith.ID, "Carol Davis", true)
		_, err := svc.UpdateInGroup(ctx, hope.ID, m.ID, ScopedUpdateInput{Name: ptr("Hijack")})
		assert.ErrorIs(t, err, ErrNotInGroup)

		got, err := svc.UpdateInGroup(ctx, faith.ID, m.ID, ScopedUpdateInput{Name: ptr("Carol D.")})
		require.NoError(t, err)
		assert.Equal(t, "Carol D.", got.Name)
	})

	t.Run("delete cascades reports", func(t *testing.T) {
		m := testutil.CreateMember(t, db, faith.ID, "David Brown", true)
		testutil.CreateReport(t, db, m.ID, testutil.Week(t, "2024-01-07"), reportentity.Attendance{CellMeeting: true}, 1, 1)
		before := testutil.CountRows(t, db, "weekly_reports")

		require.NoError(t, svc.Delete(ctx, m.ID))
		assert.Equal(t, before-1, testutil.CountRows(t, db, "weekly_reports"))
		assert.ErrorIs(t, svc.Delete(ctx, m.ID), ErrNotFound)
	})

	t.Run("active roster", func(t *testing.T) {
		active, err := svc.ActiveInGroup(ctx, faith.ID)
		require.NoError(t, err)
		for _, m := range active {
			assert.True(t, m.IsActive)
			assert.Equal(t, faith.ID, m.CellGroupID)
		}
	})
}
