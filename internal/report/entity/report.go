package entity

import (
	"time"

	"github.com/ovaphlow/cellgroup/internal/week"
)

// Report represents a row in `weekly_reports`, unique per (member, week).
// IsPresent is kept in step with the three flags: true when any is set.
type Report struct {
	ID                string    `db:"id" json:"id"`
	MemberID          string    `db:"member_id" json:"memberId"`
	WeekStart         week.Date `db:"week_start" json:"weekStart"`
	EarlySermon       bool      `db:"early_sermon" json:"earlySermon"`
	CharisSermon      bool      `db:"charis_sermon" json:"charisSermon"`
	CellMeeting       bool      `db:"cell_meeting" json:"cellMeeting"`
	IsPresent         bool      `db:"is_present" json:"isPresent"`
	BibleChaptersRead int       `db:"bible_chapters_read" json:"bibleChaptersRead"`
	PrayerCount       int       `db:"prayer_count" json:"prayerCount"`
	Notes             *string   `db:"notes" json:"notes"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// Attendance is the three independent flags.
type Attendance struct {
	EarlySermon  bool `json:"earlySermon"`
	CharisSermon bool `json:"charisSermon"`
	CellMeeting  bool `json:"cellMeeting"`
}

// Any reports whether any of the three flags is set.
func (a Attendance) Any() bool { return a.EarlySermon || a.CharisSermon || a.CellMeeting }

// Attendance returns the three flags of r.
func (r *Report) Attendance() Attendance {
	return Attendance{EarlySermon: r.EarlySermon, CharisSermon: r.CharisSermon, CellMeeting: r.CellMeeting}
}

// Present reports whether the member attended anything that week.
func (r *Report) Present() bool { return r.Attendance().Any() || r.IsPresent }

// GroupRef identifies a cell group inside a joined report.
type GroupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MemberRef is the member projection embedded in report listings.
type MemberRef struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CellGroup *GroupRef `json:"cellGroup,omitempty"`
}

// Joined is a report with its member and group.
type Joined struct {
	Report
	Member MemberRef `json:"member"`
}

// Order selects the sort of a joined listing.
type Order int

// Orderings understood by ReportRepo.ListJoined.
const (
	// OrderWeekMember: week desc, member id asc.
	OrderWeekMember Order = iota
	// OrderWeekGroupName: week desc, group name asc, member name asc.
	OrderWeekGroupName
	// OrderWeekMemberName: week desc, member name asc.
	OrderWeekMemberName
)

// Filter narrows a joined listing. Zero fields are ignored. With only
// WeekStart set the match is exact; with WeekEnd too it is an inclusive range.
type Filter struct {
	CellGroupID string
	MemberID    string
	WeekStart   week.Date
	WeekEnd     week.Date
	ActiveOnly  bool
	Order       Order
}

// WeekSummary aggregates the reports of one week.
type WeekSummary struct {
	WeekStart              week.Date `json:"weekStart"`
	ReportCount            int       `json:"reportCount"`
	TotalBibleChaptersRead int       `json:"totalBibleChaptersRead"`
	TotalPrayerCount       int       `json:"totalPrayerCount"`
	EarlySermonCount       int       `json:"earlySermonCount"`
	CharisSermonCount      int       `json:"charisSermonCount"`
	CellMeetingCount       int       `json:"cellMeetingCount"`
	PresentCount           int       `json:"presentCount"`
}
