package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/cellgroup/internal/meetingnote"
	"github.com/ovaphlow/cellgroup/internal/report/entity"
	"github.com/ovaphlow/cellgroup/internal/testutil"
)

func TestService(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := NewService(db, meetingnote.NewService(db))
	ctx := context.Background()

	hope, _ := testutil.CreateGroup(t, db, "Hope Cell", "cell002", "pw")
	faith, _ := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	alice := testutil.CreateMember(t, db, faith.ID, "Alice Johnson", true)
	bob := testutil.CreateMember(t, db, faith.ID, "Bob Williams", false)
	emma := testutil.CreateMember(t, db, hope.ID, "Emma Wilson", true)
	w1 := testutil.Week(t, "2024-01-07")
	w2 := testutil.Week(t, "2024-01-14")
	testutil.CreateReport(t, db, alice.ID, w1, entity.Attendance{CellMeeting: true}, 3, 5)
	testutil.CreateReport(t, db, bob.ID, w1, entity.Attendance{CellMeeting: true}, 9, 9)
	testutil.CreateReport(t, db, alice.ID, w2, entity.Attendance{}, 1, 0)
	testutil.CreateReport(t, db, emma.ID, w2, entity.Attendance{EarlySermon: true}, 2, 2)

	t.Run("rows ordered by week then group then member", func(t *testing.T) {
		rows, err := svc.Rows(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "Alice Johnson", rows[0].Member.Name)
		assert.Equal(t, "Emma Wilson", rows[1].Member.Name)
		assert.Equal(t, "Alice Johnson", rows[2].Member.Name)
		assert.Equal(t, "Bob Williams", rows[3].Member.Name)
	})

	t.Run("rows filtered by range and group", func(t *testing.T) {
		rows, err := svc.Rows(ctx, Filter{CellGroupID: faith.ID, WeekStart: w1, WeekEnd: w2})
		require.NoError(t, err)
		assert.Len(t, rows, 3)

		rows, err = svc.Rows(ctx, Filter{WeekStart: w2})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("summary counts active members only", func(t *testing.T) {
		groups, err := svc.Summary(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, groups, 2)

		f := groups[0]
		assert.Equal(t, "Faith Cell", f.CellGroup)
		assert.Equal(t, "Faith Cell Leader", f.Leader)
		assert.Equal(t, 1, f.Members)
		assert.Equal(t, 1, f.TotalAttendance)
		assert.Equal(t, 4, f.TotalBibleChapters)
		assert.Equal(t, 5, f.TotalPrayers)

		h := groups[1]
		assert.Equal(t, "Hope Cell", h.CellGroup)
		assert.Equal(t, 1, h.TotalAttendance)
	})

	t.Run("summary for one group", func(t *testing.T) {
		groups, err := svc.Summary(ctx, Filter{CellGroupID: hope.ID, WeekStart: w1})
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Zero(t, groups[0].TotalAttendance)
	})

	t.Run("missing note", func(t *testing.T) {
		_, err := svc.Note(ctx, "missing")
		assert.ErrorIs(t, err, meetingnote.ErrNotFound)
	})
}
