package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/report/entity"
	"github.com/ovaphlow/cellgroup/internal/testutil"
	"github.com/ovaphlow/cellgroup/internal/week"
)

func TestService_SaveAttendance(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	g, _ := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	alice := testutil.CreateMember(t, db, g.ID, "Alice Johnson", true)
	bob := testutil.CreateMember(t, db, g.ID, "Bob Williams", true)
	// a Wednesday; stored under the following Sunday
	wed := week.NewDate(2024, time.January, 3)
	sunday := testutil.Week(t, "2024-01-07")

	t.Run("week required", func(t *testing.T) {
		_, err := svc.SaveAttendance(ctx, AttendanceBatchInput{Attendance: []AttendanceEntry{{MemberID: alice.ID}}})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("unknown member writes nothing", func(t *testing.T) {
		_, err := svc.SaveAttendance(ctx, AttendanceBatchInput{
			WeekStart: wed,
			Attendance: []AttendanceEntry{
				{MemberID: alice.ID, CellMeeting: true},
				{MemberID: "ghost", CellMeeting: true},
			},
		})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
		var ae *apperr.Error
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "ghost", ae.Fields["memberId"])

		n, err := svc.repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("upsert keeps counters and notes", func(t *testing.T) {
		notes := "visited family"
		testutil.CreateReport(t, db, bob.ID, sunday, entity.Attendance{}, 5, 3)
		_, err := db.ExecContext(ctx, db.Rebind(`UPDATE weekly_reports SET notes = ? WHERE member_id = ?`), notes, bob.ID)
		require.NoError(t, err)

		n, err := svc.SaveAttendance(ctx, AttendanceBatchInput{
			WeekStart: wed,
			Attendance: []AttendanceEntry{
				{MemberID: alice.ID, EarlySermon: true},
				{MemberID: bob.ID, CharisSermon: true, CellMeeting: true},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		rep, err := svc.repo.GetByMemberWeek(ctx, bob.ID, sunday)
		require.NoError(t, err)
		assert.True(t, rep.CharisSermon)
		assert.True(t, rep.CellMeeting)
		assert.False(t, rep.EarlySermon)
		assert.True(t, rep.IsPresent)
		assert.Equal(t, 5, rep.BibleChaptersRead)
		assert.Equal(t, 3, rep.PrayerCount)
		require.NotNil(t, rep.Notes)
		assert.Equal(t, notes, *rep.Notes)

		rep, err = svc.repo.GetByMemberWeek(ctx, alice.ID, sunday)
		require.NoError(t, err)
		assert.Zero(t, rep.BibleChaptersRead)
		assert.Nil(t, rep.Notes)
	})

	t.Run("idempotent", func(t *testing.T) {
		in := AttendanceBatchInput{WeekStart: sunday, Attendance: []AttendanceEntry{{MemberID: alice.ID}}}
		_, err := svc.SaveAttendance(ctx, in)
		require.NoError(t, err)
		_, err = svc.SaveAttendance(ctx, in)
		require.NoError(t, err)

		n, err := svc.repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		rep, err := svc.repo.GetByMemberWeek(ctx, alice.ID, sunday)
		require.NoError(t, err)
		assert.False(t, rep.IsPresent)
	})
}

func TestService_AttendanceWeek(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	hope, _ := testutil.CreateGroup(t, db, "Hope Cell", "cell002", "pw")
	faith, _ := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	bob := testutil.CreateMember(t, db, faith.ID, "Bob Williams", true)
	testutil.CreateMember(t, db, faith.ID, "Alice Johnson", true)
	testutil.CreateMember(t, db, faith.ID, "Inactive", false)
	wk := testutil.Week(t, "2024-01-07")
	testutil.CreateReport(t, db, bob.ID, wk, entity.Attendance{CellMeeting: true}, 0, 0)

	got, err := svc.AttendanceWeek(ctx, wk)
	require.NoError(t, err)
	assert.Equal(t, wk, got.WeekStart)
	require.Len(t, got.CellGroups, 2)

	f := got.CellGroups[0]
	assert.Equal(t, faith.ID, f.ID)
	assert.Equal(t, "Faith Cell Leader", f.Leader.Name)
	require.Len(t, f.Members, 2)
	assert.Equal(t, "Alice Johnson", f.Members[0].Name)
	assert.False(t, f.Members[0].Attendance.Any())
	assert.Equal(t, "Bob Williams", f.Members[1].Name)
	assert.True(t, f.Members[1].Attendance.CellMeeting)

	assert.Equal(t, hope.ID, got.CellGroups[1].ID)
	assert.NotNil(t, got.CellGroups[1].Members)
	assert.Empty(t, got.CellGroups[1].Members)
}

func TestService_List(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	faith, _ := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	hope, _ := testutil.CreateGroup(t, db, "Hope Cell", "cell002", "pw")
	alice := testutil.CreateMember(t, db, faith.ID, "Alice Johnson", true)
	emma := testutil.CreateMember(t, db, hope.ID, "Emma Wilson", true)
	w1 := testutil.Week(t, "2024-01-07")
	w2 := testutil.Week(t, "2024-01-14")
	testutil.CreateReport(t, db, alice.ID, w1, entity.Attendance{CellMeeting: true}, 1, 1)
	testutil.CreateReport(t, db, alice.ID, w2, entity.Attendance{}, 2, 2)
	testutil.CreateReport(t, db, emma.ID, w2, entity.Attendance{EarlySermon: true}, 3, 3)

	all, err := svc.List(ctx, entity.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, w2, all[0].WeekStart)
	assert.Equal(t, w1, all[2].WeekStart)
	require.NotNil(t, all[2].Member.CellGroup)
	assert.Equal(t, "Faith Cell", all[2].Member.CellGroup.Name)

	byGroup, err := svc.List(ctx, entity.Filter{CellGroupID: hope.ID})
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, emma.ID, byGroup[0].MemberID)

	byWeek, err := svc.List(ctx, entity.Filter{WeekStart: w1})
	require.NoError(t, err)
	require.Len(t, byWeek, 1)

	byMember, err := svc.List(ctx, entity.Filter{MemberID: alice.ID})
	require.NoError(t, err)
	assert.Len(t, byMember, 2)
}

func TestService_Summary(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	g, _ := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	alice := testutil.CreateMember(t, db, g.ID, "Alice Johnson", true)
	bob := testutil.CreateMember(t, db, g.ID, "Bob Williams", true)

	t.Run("empty", func(t *testing.T) {
		got, err := svc.Summary(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("weeks long past still show", func(t *testing.T) {
		for _, d := range []string{"2024-01-28", "2024-02-04", "2024-02-11"} {
			testutil.CreateReport(t, db, alice.ID, testutil.Week(t, d), entity.Attendance{CellMeeting: true}, 1, 1)
		}
		got, err := svc.Summary(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, testutil.Week(t, "2024-02-11"), got[0].WeekStart)
		assert.Equal(t, testutil.Week(t, "2024-01-28"), got[2].WeekStart)
	})

	t.Run("keeps the most recent reported weeks", func(t *testing.T) {
		latest := testutil.Week(t, "2025-06-29")
		// every other week, so the window counts reported weeks
		for i := 0; i < SummaryWeeks; i++ {
			testutil.CreateReport(t, db, alice.ID, latest.AddWeeks(-2*i), entity.Attendance{CharisSermon: true}, 2, 0)
		}
		testutil.CreateReport(t, db, alice.ID, latest, entity.Attendance{EarlySermon: true, CellMeeting: true}, 4, 2)
		testutil.CreateReport(t, db, bob.ID, latest, entity.Attendance{}, 1, 1)

		got, err := svc.Summary(ctx)
		require.NoError(t, err)
		require.Len(t, got, SummaryWeeks)

		assert.Equal(t, latest, got[0].WeekStart)
		assert.Equal(t, 2, got[0].ReportCount)
		assert.Equal(t, 5, got[0].TotalBibleChaptersRead)
		assert.Equal(t, 3, got[0].TotalPrayerCount)
		assert.Equal(t, 1, got[0].EarlySermonCount)
		assert.Equal(t, 1, got[0].CellMeetingCount)
		assert.Equal(t, 0, got[0].CharisSermonCount)
		assert.Equal(t, 1, got[0].PresentCount)

		oldest := latest.AddWeeks(-2 * (SummaryWeeks - 1))
		assert.Equal(t, oldest, got[SummaryWeeks-1].WeekStart)
		assert.Equal(t, 1, got[SummaryWeeks-1].CharisSermonCount)
		for _, ws := range got {
			assert.True(t, ws.WeekStart.After(testutil.Week(t, "2024-02-11")), ws.WeekStart.String())
		}
	})
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
