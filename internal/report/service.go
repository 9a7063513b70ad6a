package report

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	grouprepo "github.com/ovaphlow/cellgroup/internal/cellgroup/repo"
	memberentity "github.com/ovaphlow/cellgroup/internal/member/entity"
	memberrepo "github.com/ovaphlow/cellgroup/internal/member/repo"
	"github.com/ovaphlow/cellgroup/internal/report/entity"
	reportrepo "github.com/ovaphlow/cellgroup/internal/report/repo"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
	"github.com/ovaphlow/cellgroup/internal/week"
	"github.com/ovaphlow/cellgroup/pkg/database"
)

// SummaryWeeks is how many reported weeks the summary covers.
const SummaryWeeks = 12

// Errors returned by the report service.
var (
	ErrWeekRequired   = apperr.InvalidFields(map[string]string{"weekStart": "weekStart is required"})
	ErrMemberNotFound = apperr.NotFoundf("member not found")
)

// Service answers the admin report and attendance endpoints.
type Service struct {
	tx      database.Transactor
	repo    *reportrepo.ReportRepo
	members *memberrepo.MemberRepo
	groups  *grouprepo.CellGroupRepo
}

// NewService constructs a Service. A nil tx runs batches on db.
func NewService(db *sqlx.DB, tx database.Transactor) *Service {
	if tx == nil {
		tx = database.NewTxRunner(db)
	}
	return &Service{
		tx:      tx,
		repo:    reportrepo.NewReportRepo(db),
		members: memberrepo.NewMemberRepo(db),
		groups:  grouprepo.NewCellGroupRepo(db),
	}
}

// List returns joined reports ordered by week desc then member id.
func (s *Service) List(ctx context.Context, f entity.Filter) ([]entity.Joined, error) {
	f.Order = entity.OrderWeekMember
	out, err := s.repo.ListJoined(ctx, f)
	if err != nil {
		return nil, apperr.Internalf(err, "list reports")
	}
	return out, nil
}

// Summary aggregates the SummaryWeeks most recent weeks that have reports,
// newest first. How long ago those weeks were does not matter.
func (s *Service) Summary(ctx context.Context) ([]entity.WeekSummary, error) {
	reports, err := s.repo.ListRecentWeeks(ctx, SummaryWeeks)
	if err != nil {
		return nil, apperr.Internalf(err, "list reports")
	}
	return Summarize(reports), nil
}

// Summarize groups reports by week. Input order (week desc) is kept.
func Summarize(reports []entity.Report) []entity.WeekSummary {
	out := []entity.WeekSummary{}
	index := map[string]int{}
	for _, r := range reports {
		key := r.WeekStart.String()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, entity.WeekSummary{WeekStart: r.WeekStart})
		}
		ws := &out[i]
		ws.ReportCount++
		ws.TotalBibleChaptersRead += r.BibleChaptersRead
		ws.TotalPrayerCount += r.PrayerCount
		if r.EarlySermon {
			ws.EarlySermonCount++
		}
		if r.CharisSermon {
			ws.CharisSermonCount++
		}
		if r.CellMeeting {
			ws.CellMeetingCount++
		}
		if r.Present() {
			ws.PresentCount++
		}
	}
	return out
}

// AttendanceMember is an active member with their flags for one week.
type AttendanceMember struct {
	memberentity.Member
	Attendance entity.Attendance `json:"attendance"`
}

// AttendanceGroup is one cell group in the admin attendance grid.
type AttendanceGroup struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Leader  userentity.Summary `json:"leader"`
	Members []AttendanceMember `json:"members"`
}

// AttendanceWeek is the admin attendance grid for one week.
type AttendanceWeek struct {
	WeekStart  week.Date         `json:"weekStart"`
	CellGroups []AttendanceGroup `json:"cellGroups"`
}

// AttendanceWeek builds the admin grid for wk: every group by name with its
// active members by name. Members without a report show all flags false.
func (s *Service) AttendanceWeek(ctx context.Context, wk week.Date) (*AttendanceWeek, error) {
	groups, err := s.groups.ListWithLeader(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "list cell groups")
	}
	active, err := s.members.ListActive(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "list members")
	}
	reports, err := s.repo.ListByWeek(ctx, wk, "")
	if err != nil {
		return nil, apperr.Internalf(err, "list reports")
	}
	byGroup := map[string][]AttendanceMember{}
	for _, m := range active {
		am := AttendanceMember{Member: m}
		if rep, ok := reports[m.ID]; ok {
			am.Attendance = rep.Attendance()
		}
		byGroup[m.CellGroupID] = append(byGroup[m.CellGroupID], am)
	}
	out := &AttendanceWeek{WeekStart: wk, CellGroups: make([]AttendanceGroup, 0, len(groups))}
	for _, g := range groups {
		members := byGroup[g.ID]
		if members == nil {
			members = []AttendanceMember{}
		}
		out.CellGroups = append(out.CellGroups, AttendanceGroup{
			ID:      g.ID,
			Name:    g.Name,
			Leader:  userentity.Summary{ID: g.Leader.ID, Name: g.Leader.Name},
			Members: members,
		})
	}
	return out, nil
}

// AttendanceEntry carries the flags for one member.
type AttendanceEntry struct {
	MemberID     string `json:"memberId" validate:"notblank"`
	EarlySermon  bool   `json:"earlySermon"`
	CharisSermon bool   `json:"charisSermon"`
	CellMeeting  bool   `json:"cellMeeting"`
}

// AttendanceBatchInput is the body of POST /admin/attendance/batch.
type AttendanceBatchInput struct {
	WeekStart  week.Date         `json:"weekStart"`
	Attendance []AttendanceEntry `json:"attendance" validate:"required,dive"`
}

// SaveAttendance upserts the flags of every entry in one transaction.
// Unknown members abort the whole batch.
func (s *Service) SaveAttendance(ctx context.Context, in AttendanceBatchInput) (int, error) {
	if in.WeekStart.IsZero() {
		return 0, ErrWeekRequired
	}
	wk := in.WeekStart.Anchor()
	ids := make([]string, 0, len(in.Attendance))
	for _, e := range in.Attendance {
		ids = append(ids, e.MemberID)
	}
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		found, err := memberrepo.NewMemberRepo(tx).ExistingIDs(ctx, ids, "")
		if err != nil {
			return apperr.Internalf(err, "check members")
		}
		for _, id := range ids {
			if !found[id] {
				return &apperr.Error{Kind: apperr.NotFound, Message: "member not found", Fields: map[string]string{"memberId": id}}
			}
		}
		reports := reportrepo.NewReportRepo(tx)
		for _, e := range in.Attendance {
			a := entity.Attendance{EarlySermon: e.EarlySermon, CharisSermon: e.CharisSermon, CellMeeting: e.CellMeeting}
			if err := reports.UpsertAttendance(ctx, e.MemberID, wk, a); err != nil {
				return apperr.Internalf(err, "save attendance")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(in.Attendance), nil
}
