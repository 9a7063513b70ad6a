package member

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	grouprepo "github.com/ovaphlow/cellgroup/internal/cellgroup/repo"
	"github.com/ovaphlow/cellgroup/internal/member/entity"
	memberrepo "github.com/ovaphlow/cellgroup/internal/member/repo"
	"github.com/ovaphlow/cellgroup/pkg/database"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

// Errors returned by the member service.
var (
	ErrNotFound      = apperr.NotFoundf("member not found")
	ErrGroupNotFound = apperr.NotFoundf("cell group not found")
	ErrNotInGroup    = apperr.Forbiddenf("member does not belong to your cell group")
)

// Service owns member rosters. Scoped variants take the caller's group id
// and refuse members of other groups.
type Service struct {
	repo   *memberrepo.MemberRepo
	groups *grouprepo.CellGroupRepo
}

// NewService constructs a Service backed by db.
func NewService(db *sqlx.DB) *Service {
	return &Service{
		repo:   memberrepo.NewMemberRepo(db),
		groups: grouprepo.NewCellGroupRepo(db),
	}
}

// List returns members joined with their group; an empty groupID lists all.
func (s *Service) List(ctx context.Context, groupID string) ([]entity.WithGroup, error) {
	out, err := s.repo.ListWithGroup(ctx, groupID)
	if err != nil {
		return nil, apperr.Internalf(err, "list members")
	}
	return out, nil
}

// CreateInput is the admin payload for a new member.
type CreateInput struct {
	Name        string `json:"name" validate:"notblank"`
	CellGroupID string `json:"cellGroupId" validate:"notblank"`
}

// Create adds a member to an existing cell group.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Member, error) {
	if err := s.groupExists(ctx, in.CellGroupID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	m := &entity.Member{
		ID:          utilities.NewSnowflakeID(),
		Name:        strings.TrimSpace(in.Name),
		CellGroupID: in.CellGroupID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, apperr.Internalf(err, "create member")
	}
	return m, nil
}

// UpdateInput is a partial update; nil fields are kept.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,notblank"`
	IsActive    *bool   `json:"isActive"`
	CellGroupID *string `json:"cellGroupId" validate:"omitempty,notblank"`
}

// Update applies a partial admin edit, including moving the member to
// another group.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*entity.Member, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CellGroupID != nil && *in.CellGroupID != m.CellGroupID {
		if err := s.groupExists(ctx, *in.CellGroupID); err != nil {
			return nil, err
		}
		m.CellGroupID = *in.CellGroupID
	}
	return s.apply(ctx, m, in.Name, in.IsActive)
}

// ScopedUpdateInput is what a leader may change on a member of their group.
type ScopedUpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,notblank"`
	IsActive *bool   `json:"isActive"`
}

// UpdateInGroup updates a member only when it belongs to groupID.
func (s *Service) UpdateInGroup(ctx context.Context, groupID, id string, in ScopedUpdateInput) (*entity.Member, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.CellGroupID != groupID {
		return nil, ErrNotInGroup
	}
	return s.apply(ctx, m, in.Name, in.IsActive)
}

// CreateInGroup adds an active member to groupID.
func (s *Service) CreateInGroup(ctx context.Context, groupID, name string) (*entity.Member, error) {
	return s.Create(ctx, CreateInput{Name: name, CellGroupID: groupID})
}

// Delete removes the member and, through the foreign key, its reports.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internalf(err, "delete member")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveInGroup returns the active roster of groupID, name ascending.
func (s *Service) ActiveInGroup(ctx context.Context, groupID string) ([]entity.Member, error) {
	out, err := s.repo.ListActiveByGroup(ctx, groupID)
	if err != nil {
		return nil, apperr.Internalf(err, "list members")
	}
	return out, nil
}

func (s *Service) apply(ctx context.Context, m *entity.Member, name *string, active *bool) (*entity.Member, error) {
	if name != nil {
		m.Name = strings.TrimSpace(*name)
	}
	if active != nil {
		m.IsActive = *active
	}
	m.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Update(ctx, m); err != nil {
		return nil, apperr.Internalf(err, "update member")
	}
	return m, nil
}

func (s *Service) get(ctx context.Context, id string) (*entity.Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, apperr.Internalf(err, "get member")
	}
	return m, nil
}

func (s *Service) groupExists(ctx context.Context, groupID string) error {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if database.IsNoRows(err) {
			return ErrGroupNotFound
		}
		return apperr.Internalf(err, "get cell group")
	}
	return nil
}
