package repo

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/report/entity"
	"github.com/ovaphlow/cellgroup/internal/week"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

// ReportRepo provides data access for weekly_reports.
type ReportRepo struct {
	db sqlx.ExtContext
}

// NewReportRepo constructs a ReportRepo over a DB or transaction.
func NewReportRepo(db sqlx.ExtContext) *ReportRepo { return &ReportRepo{db: db} }

const reportColumns = `id, member_id, week_start, early_sermon, charis_sermon, cell_meeting, is_present,
	bible_chapters_read, prayer_count, notes, created_at, updated_at`

// UpsertAttendance writes only the attendance flags for (memberID, wk).
// A new row starts with zero counters; an existing row keeps its counters
// and notes.
func (r *ReportRepo) UpsertAttendance(ctx context.Context, memberID string, wk week.Date, a entity.Attendance) error {
	now := time.Now().UTC()
	q := r.db.Rebind(`INSERT INTO weekly_reports (id, member_id, week_start, early_sermon, charis_sermon, cell_meeting,
		is_present, bible_chapters_read, prayer_count, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, NULL, ?, ?)
		ON CONFLICT (member_id, week_start) DO UPDATE SET
			early_sermon = excluded.early_sermon,
			charis_sermon = excluded.charis_sermon,
			cell_meeting = excluded.cell_meeting,
			is_present = excluded.is_present,
			updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, q, utilities.NewSnowflakeID(), memberID, wk,
		a.EarlySermon, a.CharisSermon, a.CellMeeting, a.Any(), now, now)
	return err
}

// Upsert writes every field of rep keyed by (MemberID, WeekStart); the last
// write wins.
func (r *ReportRepo) Upsert(ctx context.Context, rep *entity.Report) error {
	now := time.Now().UTC()
	if rep.ID == "" {
		rep.ID = utilities.NewSnowflakeID()
	}
	rep.IsPresent = rep.Attendance().Any()
	q := r.db.Rebind(`INSERT INTO weekly_reports (` + reportColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (member_id, week_start) DO UPDATE SET
			early_sermon = excluded.early_sermon,
			charis_sermon = excluded.charis_sermon,
			cell_meeting = excluded.cell_meeting,
			is_present = excluded.is_present,
			bible_chapters_read = excluded.bible_chapters_read,
			prayer_count = excluded.prayer_count,
			notes = excluded.notes,
			updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, q, rep.ID, rep.MemberID, rep.WeekStart,
		rep.EarlySermon, rep.CharisSermon, rep.CellMeeting, rep.IsPresent,
		rep.BibleChaptersRead, rep.PrayerCount, rep.Notes, now, now)
	return err
}

// GetByMemberWeek returns the report or sql.ErrNoRows.
func (r *ReportRepo) GetByMemberWeek(ctx context.Context, memberID string, wk week.Date) (*entity.Report, error) {
	var rep entity.Report
	q := r.db.Rebind(`SELECT ` + reportColumns + ` FROM weekly_reports WHERE member_id = ? AND week_start = ?`)
	if err := sqlx.GetContext(ctx, r.db, &rep, q, memberID, wk); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListByWeek returns every report of wk, optionally restricted to a group,
// keyed by member id.
func (r *ReportRepo) ListByWeek(ctx context.Context, wk week.Date, groupID string) (map[string]entity.Report, error) {
	query := `SELECT r.id, r.member_id, r.week_start, r.early_sermon, r.charis_sermon, r.cell_meeting, r.is_present,
		r.bible_chapters_read, r.prayer_count, r.notes, r.created_at, r.updated_at
		FROM weekly_reports r JOIN members m ON m.id = r.member_id
		WHERE r.week_start = ?`
	args := []any{wk}
	if groupID != "" {
		query += ` AND m.cell_group_id = ?`
		args = append(args, groupID)
	}
	var rows []entity.Report
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make(map[string]entity.Report, len(rows))
	for _, rep := range rows {
		out[rep.MemberID] = rep
	}
	return out, nil
}

// ListRecentWeeks returns every report in the n most recent weeks that have
// reports, newest week first. Weeks without reports are not counted.
func (r *ReportRepo) ListRecentWeeks(ctx context.Context, n int) ([]entity.Report, error) {
	out := []entity.Report{}
	q := r.db.Rebind(`SELECT ` + reportColumns + ` FROM weekly_reports
		WHERE week_start IN (SELECT DISTINCT week_start FROM weekly_reports ORDER BY week_start DESC LIMIT ?)
		ORDER BY week_start DESC`)
	if err := sqlx.SelectContext(ctx, r.db, &out, q, n); err != nil {
		return nil, err
	}
	return out, nil
}

type joinedRow struct {
	entity.Report
	MemberName     string `db:"member_name"`
	MemberIsActive bool   `db:"member_is_active"`
	GroupID        string `db:"group_id"`
	GroupName      string `db:"group_name"`
}

// ListJoined returns reports joined with member and group according to f.
func (r *ReportRepo) ListJoined(ctx context.Context, f entity.Filter) ([]entity.Joined, error) {
	var (
		where []string
		args  []any
	)
	if f.CellGroupID != "" {
		where = append(where, "m.cell_group_id = ?")
		args = append(args, f.CellGroupID)
	}
	if f.MemberID != "" {
		where = append(where, "r.member_id = ?")
		args = append(args, f.MemberID)
	}
	switch {
	case !f.WeekStart.IsZero() && !f.WeekEnd.IsZero():
		where = append(where, "r.week_start >= ?", "r.week_start <= ?")
		args = append(args, f.WeekStart, f.WeekEnd)
	case !f.WeekStart.IsZero():
		where = append(where, "r.week_start = ?")
		args = append(args, f.WeekStart)
	case !f.WeekEnd.IsZero():
		where = append(where, "r.week_start <= ?")
		args = append(args, f.WeekEnd)
	}
	if f.ActiveOnly {
		where = append(where, "m.is_active = ?")
		args = append(args, true)
	}

	query := `SELECT r.id, r.member_id, r.week_start, r.early_sermon, r.charis_sermon, r.cell_meeting, r.is_present,
		r.bible_chapters_read, r.prayer_count, r.notes, r.created_at, r.updated_at,
		m.name AS member_name, m.is_active AS member_is_active, g.id AS group_id, g.name AS group_name
		FROM weekly_reports r
		JOIN members m ON m.id = r.member_id
		JOIN cell_groups g ON g.id = m.cell_group_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	switch f.Order {
	case entity.OrderWeekGroupName:
		query += ` ORDER BY r.week_start DESC, g.name ASC, m.name ASC, r.member_id ASC`
	case entity.OrderWeekMemberName:
		query += ` ORDER BY r.week_start DESC, m.name ASC, r.member_id ASC`
	default:
		query += ` ORDER BY r.week_start DESC, r.member_id ASC`
	}

	var rows []joinedRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make([]entity.Joined, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.Joined{
			Report: row.Report,
			Member: entity.MemberRef{
				ID:        row.MemberID,
				Name:      row.MemberName,
				IsActive:  row.MemberIsActive,
				CellGroup: &entity.GroupRef{ID: row.GroupID, Name: row.GroupName},
			},
		})
	}
	return out, nil
}

// DeleteByGroup removes the reports of every member of a group.
func (r *ReportRepo) DeleteByGroup(ctx context.Context, groupID string) (int64, error) {
	q := r.db.Rebind(`DELETE FROM weekly_reports WHERE member_id IN (SELECT id FROM members WHERE cell_group_id = ?)`)
	res, err := r.db.ExecContext(ctx, q, groupID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of stored reports.
func (r *ReportRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM weekly_reports`); err != nil {
		return 0, err
	}
	return n, nil
}
