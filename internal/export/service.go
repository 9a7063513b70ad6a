// Package export renders report data to xlsx, csv and a printable meeting
// note document.
package export

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	grouprepo "github.com/ovaphlow/cellgroup/internal/cellgroup/repo"
	"github.com/ovaphlow/cellgroup/internal/meetingnote"
	noteentity "github.com/ovaphlow/cellgroup/internal/meetingnote/entity"
	memberrepo "github.com/ovaphlow/cellgroup/internal/member/repo"
	"github.com/ovaphlow/cellgroup/internal/report/entity"
	reportrepo "github.com/ovaphlow/cellgroup/internal/report/repo"
	"github.com/ovaphlow/cellgroup/internal/week"
)

// Filter narrows an export. WeekStart alone selects one week; with WeekEnd
// it is an inclusive range.
type Filter struct {
	CellGroupID string
	WeekStart   week.Date
	WeekEnd     week.Date
}

// GroupSummary is one line of the summary workbook.
type GroupSummary struct {
	CellGroup          string
	Leader             string
	Members            int
	TotalAttendance    int
	TotalBibleChapters int
	TotalPrayers       int
}

// AvgBible and AvgPrayer are per active member, 0 for an empty group.
func (g GroupSummary) AvgBible() float64  { return perMember(g.TotalBibleChapters, g.Members) }
func (g GroupSummary) AvgPrayer() float64 { return perMember(g.TotalPrayers, g.Members) }

func perMember(total, members int) float64 {
	if members == 0 {
		return 0
	}
	return float64(total) / float64(members)
}

// Service loads the data behind each export.
type Service struct {
	reports *reportrepo.ReportRepo
	groups  *grouprepo.CellGroupRepo
	members *memberrepo.MemberRepo
	notes   *meetingnote.Service
	now     func() time.Time
}

// NewService constructs a Service backed by db.
func NewService(db *sqlx.DB, notes *meetingnote.Service) *Service {
	return &Service{
		reports: reportrepo.NewReportRepo(db),
		groups:  grouprepo.NewCellGroupRepo(db),
		members: memberrepo.NewMemberRepo(db),
		notes:   notes,
		now:     time.Now,
	}
}

// Rows fetches reports ordered by week desc, group name, member name.
func (s *Service) Rows(ctx context.Context, f Filter) ([]entity.Joined, error) {
	rows, err := s.reports.ListJoined(ctx, entity.Filter{
		CellGroupID: f.CellGroupID,
		WeekStart:   f.WeekStart,
		WeekEnd:     f.WeekEnd,
		Order:       entity.OrderWeekGroupName,
	})
	if err != nil {
		return nil, apperr.Internalf(err, "list reports")
	}
	return rows, nil
}

// Summary aggregates per group. Only reports of active members count, and
// averages are per active member.
func (s *Service) Summary(ctx context.Context, f Filter) ([]GroupSummary, error) {
	groups, err := s.groups.ListWithLeader(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "list cell groups")
	}
	counts, err := s.members.CountActiveByGroup(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "count members")
	}
	rows, err := s.reports.ListJoined(ctx, entity.Filter{
		CellGroupID: f.CellGroupID,
		WeekStart:   f.WeekStart,
		WeekEnd:     f.WeekEnd,
		ActiveOnly:  true,
	})
	if err != nil {
		return nil, apperr.Internalf(err, "list reports")
	}
	index := make(map[string]int, len(groups))
	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		if f.CellGroupID != "" && g.ID != f.CellGroupID {
			continue
		}
		index[g.ID] = len(out)
		out = append(out, GroupSummary{CellGroup: g.Name, Leader: g.Leader.Name, Members: counts[g.ID]})
	}
	for _, row := range rows {
		i, ok := index[row.Member.CellGroup.ID]
		if !ok {
			continue
		}
		gs := &out[i]
		if row.Present() {
			gs.TotalAttendance++
		}
		gs.TotalBibleChapters += row.BibleChaptersRead
		gs.TotalPrayers += row.PrayerCount
	}
	return out, nil
}

// Note loads a meeting note for rendering.
func (s *Service) Note(ctx context.Context, id string) (*noteentity.MeetingNote, error) {
	return s.notes.Get(ctx, id)
}
