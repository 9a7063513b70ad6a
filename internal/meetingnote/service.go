package meetingnote

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/meetingnote/entity"
	noterepo "github.com/ovaphlow/cellgroup/internal/meetingnote/repo"
	"github.com/ovaphlow/cellgroup/internal/week"
	"github.com/ovaphlow/cellgroup/pkg/database"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

// Errors returned by the meeting note service.
var (
	ErrNotFound      = apperr.NotFoundf("meeting note not found")
	ErrWeekTaken     = apperr.Conflictf("a meeting note already exists for this week")
	ErrWeekRequired  = apperr.InvalidFields(map[string]string{"weekDate": "weekDate is required"})
	ErrTitleRequired = apperr.InvalidFields(map[string]string{"title": "title cannot be blank"})
)

// Service manages meeting notes. Content is sanitized before it is stored.
type Service struct {
	repo *noterepo.NoteRepo
}

// NewService constructs a Service backed by db.
func NewService(db *sqlx.DB) *Service {
	return &Service{repo: noterepo.NewNoteRepo(db)}
}

// List returns every note, newest week first.
func (s *Service) List(ctx context.Context) ([]entity.MeetingNote, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "list meeting notes")
	}
	return out, nil
}

// Get returns the note with id.
func (s *Service) Get(ctx context.Context, id string) (*entity.MeetingNote, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, apperr.Internalf(err, "get meeting note")
	}
	return n, nil
}

// CreateInput is the body of POST /meeting-notes.
type CreateInput struct {
	WeekDate week.Date `json:"weekDate"`
	Title    string    `json:"title" validate:"notblank"`
	Content  string    `json:"content"`
}

// Create stores a note with sanitized content. One note per week.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.MeetingNote, error) {
	if in.WeekDate.IsZero() {
		return nil, ErrWeekRequired
	}
	now := time.Now().UTC()
	n := &entity.MeetingNote{
		ID:        utilities.NewSnowflakeID(),
		WeekDate:  in.WeekDate.Anchor(),
		Title:     strings.TrimSpace(in.Title),
		Content:   Sanitize(in.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrWeekTaken
		}
		return nil, apperr.Internalf(err, "create meeting note")
	}
	return n, nil
}

// UpdateInput is a partial update; nil fields are kept.
type UpdateInput struct {
	WeekDate *week.Date `json:"weekDate"`
	Title    *string    `json:"title"`
	Content  *string    `json:"content"`
}

// Update applies a partial edit. Moving to a week that has a note is a
// conflict.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*entity.MeetingNote, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.WeekDate != nil {
		if in.WeekDate.IsZero() {
			return nil, ErrWeekRequired
		}
		n.WeekDate = in.WeekDate.Anchor()
	}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, ErrTitleRequired
		}
		n.Title = t
	}
	if in.Content != nil {
		n.Content = Sanitize(*in.Content)
	}
	n.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Update(ctx, n); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrWeekTaken
		}
		return nil, apperr.Internalf(err, "update meeting note")
	}
	return n, nil
}

// Delete removes the note with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internalf(err, "delete meeting note")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
