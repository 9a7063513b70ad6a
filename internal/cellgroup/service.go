package cellgroup

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/cellgroup/entity"
	grouprepo "github.com/ovaphlow/cellgroup/internal/cellgroup/repo"
	memberentity "github.com/ovaphlow/cellgroup/internal/member/entity"
	memberrepo "github.com/ovaphlow/cellgroup/internal/member/repo"
	reportrepo "github.com/ovaphlow/cellgroup/internal/report/repo"
	"github.com/ovaphlow/cellgroup/internal/user"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
	userrepo "github.com/ovaphlow/cellgroup/internal/user/repo"
	"github.com/ovaphlow/cellgroup/pkg/database"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

// Errors returned by the cell group service.
var (
	ErrNotFound    = apperr.NotFoundf("cell group not found")
	ErrCellIDTaken = apperr.Conflictf("cell id already exists")
)

// Service manages cell groups together with their leader accounts. Writes
// spanning users and groups run inside one transaction.
type Service struct {
	tx      database.Transactor
	repo    *grouprepo.CellGroupRepo
	members *memberrepo.MemberRepo
	users   *user.UserService
}

// NewService constructs a Service. A nil tx runs on db.
func NewService(db *sqlx.DB, tx database.Transactor, users *user.UserService) *Service {
	if tx == nil {
		tx = database.NewTxRunner(db)
	}
	return &Service{
		tx:      tx,
		repo:    grouprepo.NewCellGroupRepo(db),
		members: memberrepo.NewMemberRepo(db),
		users:   users,
	}
}

// CreateInput is the admin payload for a new group and its leader.
type CreateInput struct {
	Name       string `json:"name" validate:"notblank"`
	LeaderName string `json:"leaderName" validate:"notblank"`
	CellID     string `json:"cellId" validate:"notblank"`
	Password   string `json:"password" validate:"required"`
}

// Create stores the leader user and the group atomically.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Detail, error) {
	leader, err := s.users.NewUser(in.CellID, in.LeaderName, in.Password, userentity.RoleLeader)
	if err != nil {
		return nil, err
	}
	g := &entity.CellGroup{
		ID:        utilities.NewSnowflakeID(),
		Name:      strings.TrimSpace(in.Name),
		LeaderID:  leader.ID,
		CreatedAt: leader.CreatedAt,
		UpdatedAt: leader.UpdatedAt,
	}
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		users := userrepo.NewUserRepo(tx)
		taken, err := users.CellIDTaken(ctx, leader.CellID, "")
		if err != nil {
			return apperr.Internalf(err, "check cell id")
		}
		if taken {
			return ErrCellIDTaken
		}
		if err := users.Create(ctx, leader); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrCellIDTaken
			}
			return apperr.Internalf(err, "create leader")
		}
		if err := grouprepo.NewCellGroupRepo(tx).Create(ctx, g); err != nil {
			return apperr.Internalf(err, "create cell group")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity.Detail{
		CellGroup: *g,
		Leader:    userentity.Summary{ID: leader.ID, Name: leader.Name, CellID: leader.CellID},
		Members:   []memberentity.Member{},
	}, nil
}

// List returns every group (name ascending) with leader and active members.
func (s *Service) List(ctx context.Context) ([]entity.Detail, error) {
	groups, err := s.repo.ListWithLeader(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "list cell groups")
	}
	active, err := s.members.ListActive(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "list members")
	}
	byGroup := make(map[string][]memberentity.Member, len(groups))
	for _, m := range active {
		byGroup[m.CellGroupID] = append(byGroup[m.CellGroupID], m)
	}
	out := make([]entity.Detail, 0, len(groups))
	for _, g := range groups {
		members := byGroup[g.ID]
		if members == nil {
			members = []memberentity.Member{}
		}
		out = append(out, entity.Detail{CellGroup: g.CellGroup, Leader: g.Leader, Members: members})
	}
	return out, nil
}

// Get returns the group with id.
func (s *Service) Get(ctx context.Context, id string) (*entity.CellGroup, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, apperr.Internalf(err, "get cell group")
	}
	return g, nil
}

// GetByLeader resolves the group led by userID.
func (s *Service) GetByLeader(ctx context.Context, userID string) (*entity.CellGroup, error) {
	g, err := s.repo.GetByLeaderID(ctx, userID)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, apperr.Internalf(err, "get cell group by leader")
	}
	return g, nil
}

// DetailOf loads the leader and active roster of g.
func (s *Service) DetailOf(ctx context.Context, g *entity.CellGroup) (*entity.Detail, error) {
	leader, err := s.users.Get(ctx, g.LeaderID)
	if err != nil {
		return nil, err
	}
	members, err := s.members.ListActiveByGroup(ctx, g.ID)
	if err != nil {
		return nil, apperr.Internalf(err, "list members")
	}
	return &entity.Detail{
		CellGroup: *g,
		Leader:    userentity.Summary{ID: leader.ID, Name: leader.Name},
		Members:   members,
	}, nil
}

// UpdateInput renames a group.
type UpdateInput struct {
	Name string `json:"name" validate:"notblank"`
}

// Update renames a group.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*entity.CellGroup, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Name = strings.TrimSpace(in.Name)
	g.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.UpdateName(ctx, g); err != nil {
		return nil, apperr.Internalf(err, "update cell group")
	}
	return g, nil
}

// Delete removes the group's reports, members, the group and its leader in
// one transaction.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		groups := grouprepo.NewCellGroupRepo(tx)
		g, err := groups.GetByID(ctx, id)
		if err != nil {
			if database.IsNoRows(err) {
				return ErrNotFound
			}
			return apperr.Internalf(err, "get cell group")
		}
		if _, err := reportrepo.NewReportRepo(tx).DeleteByGroup(ctx, g.ID); err != nil {
			return apperr.Internalf(err, "delete reports")
		}
		if _, err := memberrepo.NewMemberRepo(tx).DeleteByGroup(ctx, g.ID); err != nil {
			return apperr.Internalf(err, "delete members")
		}
		if _, err := groups.Delete(ctx, g.ID); err != nil {
			return apperr.Internalf(err, "delete cell group")
		}
		if _, err := userrepo.NewUserRepo(tx).Delete(ctx, g.LeaderID); err != nil {
			return apperr.Internalf(err, "delete leader")
		}
		return nil
	})
}
