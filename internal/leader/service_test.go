package leader

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/cellgroup"
	"github.com/ovaphlow/cellgroup/internal/member"
	"github.com/ovaphlow/cellgroup/internal/report/entity"
	"github.com/ovaphlow/cellgroup/internal/testutil"
	"github.com/ovaphlow/cellgroup/internal/user"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
	"github.com/ovaphlow/cellgroup/internal/week"
)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T) (*Service, *sqlx.DB) {
	t.Helper()
	db := testutil.PrepareDB(t)
	users := user.NewUserService(db, nil, user.BcryptHasher{Cost: testutil.BcryptCost})
	groups := cellgroup.NewService(db, nil, users)
	return NewService(db, nil, groups, member.NewService(db)), db
}

func TestSubmitBatch_FaithCell(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	d, err := svc.groups.Create(ctx, cellgroup.CreateInput{Name: "Faith Cell", LeaderName: "John Smith", CellID: "cell001", Password: "leader123"})
	require.NoError(t, err)
	alice, err := svc.AddMember(ctx, d.LeaderID, AddMemberInput{Name: "Alice Johnson"})
	require.NoError(t, err)
	assert.Equal(t, d.ID, alice.CellGroupID)

	wk := testutil.Week(t, "2024-01-07")
	n, err := svc.SubmitBatch(ctx, d.LeaderID, BatchInput{
		WeekStart: wk,
		Reports:   []ReportEntry{{MemberID: alice.ID, BibleChaptersRead: ptr(3), PrayerCount: ptr(5)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := svc.reports.ListJoined(ctx, entity.Filter{CellGroupID: d.ID, WeekStart: wk})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].BibleChaptersRead)
	assert.Equal(t, 5, rows[0].PrayerCount)
	assert.False(t, rows[0].Present())
	require.NotNil(t, rows[0].Member.CellGroup)
	assert.Equal(t, "Faith Cell", rows[0].Member.CellGroup.Name)
}

func TestSubmitBatch(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	faith, faithLeader := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	hope, _ := testutil.CreateGroup(t, db, "Hope Cell", "cell002", "pw")
	alice := testutil.CreateMember(t, db, faith.ID, "Alice Johnson", true)
	emma := testutil.CreateMember(t, db, hope.ID, "Emma Wilson", true)
	admin := testutil.CreateUser(t, db, "admin", "Admin", "pw", userentity.RoleAdmin)
	wk := testutil.Week(t, "2024-01-07")

	t.Run("foreign member rejects whole batch", func(t *testing.T) {
		_, err := svc.SubmitBatch(ctx, faithLeader.ID, BatchInput{
			WeekStart: wk,
			Reports: []ReportEntry{
				{MemberID: alice.ID, CellMeeting: ptr(true)},
				{MemberID: emma.ID, CellMeeting: ptr(true)},
			},
		})
		assert.ErrorIs(t, err, ErrForeignMembers)
		assert.True(t, apperr.IsKind(err, apperr.Forbidden))
		assert.Zero(t, testutil.CountRows(t, db, "weekly_reports"))
	})

	t.Run("unknown member is foreign too", func(t *testing.T) {
		_, err := svc.SubmitBatch(ctx, faithLeader.ID, BatchInput{WeekStart: wk, Reports: []ReportEntry{{MemberID: "ghost"}}})
		assert.ErrorIs(t, err, ErrForeignMembers)
	})

	t.Run("week required", func(t *testing.T) {
		_, err := svc.SubmitBatch(ctx, faithLeader.ID, BatchInput{Reports: []ReportEntry{{MemberID: alice.ID}}})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("caller without a group", func(t *testing.T) {
		_, err := svc.SubmitBatch(ctx, admin.ID, BatchInput{WeekStart: wk, Reports: []ReportEntry{{MemberID: alice.ID}}})
		assert.ErrorIs(t, err, ErrNoCellGroup)
	})

	t.Run("last write wins and anchors the week", func(t *testing.T) {
		tue := week.NewDate(2024, time.January, 2)
		_, err := svc.SubmitBatch(ctx, faithLeader.ID, BatchInput{
			WeekStart: tue,
			Reports:   []ReportEntry{{MemberID: alice.ID, EarlySermon: ptr(true), BibleChaptersRead: ptr(7), Notes: ptr("first")}},
		})
		require.NoError(t, err)
		_, err = svc.SubmitBatch(ctx, faithLeader.ID, BatchInput{
			WeekStart: wk,
			Reports:   []ReportEntry{{MemberID: alice.ID, CellMeeting: ptr(true), Notes: ptr("  ")}},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, testutil.CountRows(t, db, "weekly_reports"))
		rep, err := svc.reports.GetByMemberWeek(ctx, alice.ID, wk)
		require.NoError(t, err)
		assert.False(t, rep.EarlySermon)
		assert.True(t, rep.CellMeeting)
		assert.True(t, rep.IsPresent)
		assert.Zero(t, rep.BibleChaptersRead)
		assert.Nil(t, rep.Notes)
	})
}

func TestWeekFormAndHistory(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	faith, leader := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	alice := testutil.CreateMember(t, db, faith.ID, "Alice Johnson", true)
	bob := testutil.CreateMember(t, db, faith.ID, "Bob Williams", true)
	w1 := testutil.Week(t, "2024-01-07")
	w2 := testutil.Week(t, "2024-01-14")

	_, err := svc.SubmitBatch(ctx, leader.ID, BatchInput{
		WeekStart: w1,
		Reports: []ReportEntry{
			{MemberID: bob.ID, CellMeeting: ptr(true), PrayerCount: ptr(2)},
			{MemberID: alice.ID, CharisSermon: ptr(true)},
		},
	})
	require.NoError(t, err)

	form, err := svc.WeekForm(ctx, leader.ID, w1)
	require.NoError(t, err)
	assert.Equal(t, "Faith Cell", form.CellGroup.Name)
	require.Len(t, form.Members, 2)
	require.NotNil(t, form.Members[0].Report)
	assert.True(t, form.Members[0].Report.CharisSermon)

	empty, err := svc.WeekForm(ctx, leader.ID, w2)
	require.NoError(t, err)
	require.Len(t, empty.Members, 2)
	assert.Nil(t, empty.Members[0].Report)

	// deactivating bob drops him from the form but not from history
	_, err = svc.UpdateMember(ctx, leader.ID, bob.ID, member.ScopedUpdateInput{IsActive: ptr(false)})
	require.NoError(t, err)

	form, err = svc.WeekForm(ctx, leader.ID, w1)
	require.NoError(t, err)
	require.Len(t, form.Members, 1)
	assert.Equal(t, alice.ID, form.Members[0].ID)

	history, err := svc.History(ctx, leader.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	rows := history["2024-01-07"]
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice Johnson", rows[0].Member.Name)
	assert.Equal(t, "Bob Williams", rows[1].Member.Name)
	assert.False(t, rows[1].Member.IsActive)
	assert.Nil(t, rows[1].Member.CellGroup)
}

func TestUpdateMember_OtherGroup(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	_, leader := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	hope, _ := testutil.CreateGroup(t, db, "Hope Cell", "cell002", "pw")
	emma := testutil.CreateMember(t, db, hope.ID, "Emma Wilson", true)

	_, err := svc.UpdateMember(ctx, leader.ID, emma.ID, member.ScopedUpdateInput{Name: ptr("x")})
	assert.ErrorIs(t, err, member.ErrNotInGroup)
}

func TestMyCellGroup(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	g, leader := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "pw")
	testutil.CreateMember(t, db, g.ID, "Alice Johnson", true)
	testutil.CreateMember(t, db, g.ID, "Gone", false)

	d, err := svc.MyCellGroup(ctx, leader.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, d.ID)
	assert.Equal(t, leader.Name, d.Leader.Name)
	assert.Len(t, d.Members, 1)

	_, err = svc.MyCellGroup(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNoCellGroup)
}
