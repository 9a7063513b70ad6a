package weekevent

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/week"
	"github.com/ovaphlow/cellgroup/internal/weekevent/entity"
	eventrepo "github.com/ovaphlow/cellgroup/internal/weekevent/repo"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

var ErrWeekRequired = apperr.InvalidFields(map[string]string{"weekDate": "weekDate is required"})

// Service keeps at most one event label per week.
type Service struct {
	repo *eventrepo.EventRepo
}

// NewService constructs a Service backed by db.
func NewService(db *sqlx.DB) *Service {
	return &Service{repo: eventrepo.NewEventRepo(db)}
}

// List returns every event, newest week first.
func (s *Service) List(ctx context.Context) ([]entity.WeekEvent, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "list week events")
	}
	return out, nil
}

// SetInput is the body of POST /week-events.
type SetInput struct {
	WeekDate week.Date `json:"weekDate"`
	Event    string    `json:"event" validate:"max=200"`
}

// Set upserts the label for a week. A blank label deletes the row instead;
// the returned event is nil in that case.
func (s *Service) Set(ctx context.Context, in SetInput) (*entity.WeekEvent, error) {
	if in.WeekDate.IsZero() {
		return nil, ErrWeekRequired
	}
	wk := in.WeekDate.Anchor()
	label := strings.TrimSpace(in.Event)
	if label == "" {
		if _, err := s.repo.DeleteByWeek(ctx, wk); err != nil {
			return nil, apperr.Internalf(err, "delete week event")
		}
		return nil, nil
	}
	now := time.Now().UTC()
	e := &entity.WeekEvent{
		ID:        utilities.NewSnowflakeID(),
		WeekDate:  wk,
		Event:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, e); err != nil {
		return nil, apperr.Internalf(err, "save week event")
	}
	saved, err := s.repo.GetByWeek(ctx, wk)
	if err != nil {
		return nil, apperr.Internalf(err, "reload week event")
	}
	return saved, nil
}
