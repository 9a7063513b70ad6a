// Package leader serves the endpoints a cell group leader uses for their own
// group. Every call resolves the caller's group first.
package leader

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/cellgroup"
	groupentity "github.com/ovaphlow/cellgroup/internal/cellgroup/entity"
	"github.com/ovaphlow/cellgroup/internal/member"
	memberentity "github.com/ovaphlow/cellgroup/internal/member/entity"
	memberrepo "github.com/ovaphlow/cellgroup/internal/member/repo"
	"github.com/ovaphlow/cellgroup/internal/report/entity"
	reportrepo "github.com/ovaphlow/cellgroup/internal/report/repo"
	"github.com/ovaphlow/cellgroup/internal/week"
	"github.com/ovaphlow/cellgroup/pkg/database"
)

// Errors returned by the leader service.
var (
	ErrNoCellGroup    = apperr.NotFoundf("cell group not found")
	ErrForeignMembers = apperr.Forbiddenf("some members do not belong to your cell group")
	ErrWeekRequired   = apperr.InvalidFields(map[string]string{"weekStart": "weekStart is required"})
)

// Service scopes member and report operations to the caller's cell group.
type Service struct {
	tx      database.Transactor
	groups  *cellgroup.Service
	members *member.Service
	reports *reportrepo.ReportRepo
}

// NewService constructs a Service. A nil tx runs batches on db.
func NewService(db *sqlx.DB, tx database.Transactor, groups *cellgroup.Service, members *member.Service) *Service {
	if tx == nil {
		tx = database.NewTxRunner(db)
	}
	return &Service{
		tx:      tx,
		groups:  groups,
		members: members,
		reports: reportrepo.NewReportRepo(db),
	}
}

// Group resolves the group led by userID.
func (s *Service) Group(ctx context.Context, userID string) (*groupentity.CellGroup, error) {
	g, err := s.groups.GetByLeader(ctx, userID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil, ErrNoCellGroup
		}
		return nil, err
	}
	return g, nil
}

// MyCellGroup returns the caller's group with leader and active roster.
func (s *Service) MyCellGroup(ctx context.Context, userID string) (*groupentity.Detail, error) {
	g, err := s.Group(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.groups.DetailOf(ctx, g)
}

// AddMemberInput is the body of POST /leader/members.
type AddMemberInput struct {
	Name string `json:"name" validate:"notblank"`
}

// AddMember adds an active member to the caller's group.
func (s *Service) AddMember(ctx context.Context, userID string, in AddMemberInput) (*memberentity.Member, error) {
	g, err := s.Group(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.members.CreateInGroup(ctx, g.ID, in.Name)
}

// UpdateMember renames or (de)activates a member of the caller's group.
// Members of other groups are forbidden.
func (s *Service) UpdateMember(ctx context.Context, userID, memberID string, in member.ScopedUpdateInput) (*memberentity.Member, error) {
	g, err := s.Group(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.members.UpdateInGroup(ctx, g.ID, memberID, in)
}

// MemberWithReport pairs an active member with the week's report, nil when
// none was submitted.
type MemberWithReport struct {
	memberentity.Member
	Report *entity.Report `json:"report"`
}

// WeekForm is the leader's report form for one week.
type WeekForm struct {
	CellGroup groupentity.Ref    `json:"cellGroup"`
	WeekStart week.Date          `json:"weekStart"`
	Members   []MemberWithReport `json:"members"`
}

// WeekForm lists the active roster merged with existing reports for wk.
func (s *Service) WeekForm(ctx context.Context, userID string, wk week.Date) (*WeekForm, error) {
	g, err := s.Group(ctx, userID)
	if err != nil {
		return nil, err
	}
	roster, err := s.members.ActiveInGroup(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ListByWeek(ctx, wk, g.ID)
	if err != nil {
		return nil, apperr.Internalf(err, "list reports")
	}
	form := &WeekForm{
		CellGroup: groupentity.Ref{ID: g.ID, Name: g.Name},
		WeekStart: wk,
		Members:   make([]MemberWithReport, 0, len(roster)),
	}
	for _, m := range roster {
		mr := MemberWithReport{Member: m}
		if rep, ok := reports[m.ID]; ok {
			rep := rep
			mr.Report = &rep
		}
		form.Members = append(form.Members, mr)
	}
	return form, nil
}

// ReportEntry is one member's submission. Omitted flags and counters mean
// false and zero.
type ReportEntry struct {
	MemberID          string  `json:"memberId" validate:"notblank"`
	EarlySermon       *bool   `json:"earlySermon"`
	CharisSermon      *bool   `json:"charisSermon"`
	CellMeeting       *bool   `json:"cellMeeting"`
	BibleChaptersRead *int    `json:"bibleChaptersRead" validate:"omitempty,min=0"`
	PrayerCount       *int    `json:"prayerCount" validate:"omitempty,min=0"`
	Notes             *string `json:"notes"`
}

// BatchInput is the body of POST /leader/reports/batch.
type BatchInput struct {
	WeekStart week.Date     `json:"weekStart"`
	Reports   []ReportEntry `json:"reports" validate:"required,dive"`
}

// SubmitBatch upserts every entry in one transaction. A single member outside
// the caller's group rejects the whole batch.
func (s *Service) SubmitBatch(ctx context.Context, userID string, in BatchInput) (int, error) {
	if in.WeekStart.IsZero() {
		return 0, ErrWeekRequired
	}
	g, err := s.Group(ctx, userID)
	if err != nil {
		return 0, err
	}
	wk := in.WeekStart.Anchor()
	ids := make([]string, 0, len(in.Reports))
	for _, e := range in.Reports {
		ids = append(ids, e.MemberID)
	}
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		own, err := memberrepo.NewMemberRepo(tx).ExistingIDs(ctx, ids, g.ID)
		if err != nil {
			return apperr.Internalf(err, "check members")
		}
		for _, id := range ids {
			if !own[id] {
				return ErrForeignMembers
			}
		}
		reports := reportrepo.NewReportRepo(tx)
		for _, e := range in.Reports {
			rep := toReport(e, wk)
			if err := reports.Upsert(ctx, &rep); err != nil {
				return apperr.Internalf(err, "save report")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(in.Reports), nil
}

func toReport(e ReportEntry, wk week.Date) entity.Report {
	rep := entity.Report{
		MemberID:     e.MemberID,
		WeekStart:    wk,
		EarlySermon:  deref(e.EarlySermon),
		CharisSermon: deref(e.CharisSermon),
		CellMeeting:  deref(e.CellMeeting),
	}
	if e.BibleChaptersRead != nil {
		rep.BibleChaptersRead = *e.BibleChaptersRead
	}
	if e.PrayerCount != nil {
		rep.PrayerCount = *e.PrayerCount
	}
	if e.Notes != nil {
		if n := strings.TrimSpace(*e.Notes); n != "" {
			rep.Notes = &n
		}
	}
	return rep
}

func deref(b *bool) bool { return b != nil && *b }

// History groups every report of the caller's group by week, members by name.
// Deactivated members are included.
func (s *Service) History(ctx context.Context, userID string) (map[string][]entity.Joined, error) {
	g, err := s.Group(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.ListJoined(ctx, entity.Filter{CellGroupID: g.ID, Order: entity.OrderWeekMemberName})
	if err != nil {
		return nil, apperr.Internalf(err, "list reports")
	}
	out := make(map[string][]entity.Joined)
	for _, row := range rows {
		row.Member.CellGroup = nil
		key := row.WeekStart.String()
		out[key] = append(out[key], row)
	}
	return out, nil
}
