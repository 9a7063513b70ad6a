package user

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/user/entity"
	userrepo "github.com/ovaphlow/cellgroup/internal/user/repo"
	"github.com/ovaphlow/cellgroup/pkg/database"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

// PasswordHasher defines the hashing interface so tests can use a cheap cost.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

// Hash returns the bcrypt hash of pw.
func (b BcryptHasher) Hash(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether pw matches hash.
func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NeedsRehash reports whether hash was produced with a different cost than
// the one currently configured. Format: $2b$12$...
func (b BcryptHasher) NeedsRehash(hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) < 3 {
		return true
	}
	c, err := strconv.Atoi(parts[2])
	if err != nil {
		return true
	}
	return c != b.cost()
}

// Errors returned by the user service.
var (
	ErrUserNotFound   = apperr.NotFoundf("user not found")
	ErrLeaderNotFound = apperr.NotFoundf("leader not found")
	ErrCellIDTaken    = apperr.Conflictf("cell id already exists")
)

// UserService owns credential records: creation with hashing, lookups, and
// admin edits of leader credentials.
type UserService struct {
	repo   *userrepo.UserRepo
	hasher PasswordHasher
}

// NewUserService constructs a UserService. A nil repo is built from db and a
// nil hasher defaults to bcrypt cost 12.
func NewUserService(db *sqlx.DB, r *userrepo.UserRepo, hasher PasswordHasher) *UserService {
	if r == nil {
		r = userrepo.NewUserRepo(db)
	}
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{repo: r, hasher: hasher}
}

// NewUser hashes password and builds an unsaved user row.
func (s *UserService) NewUser(cellID, name, password, role string) (*entity.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internalf(err, "hash password")
	}
	now := time.Now().UTC()
	return &entity.User{
		ID:           utilities.NewSnowflakeID(),
		CellID:       strings.TrimSpace(cellID),
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Create stores a new user. A duplicate cellId is a conflict.
func (s *UserService) Create(ctx context.Context, cellID, name, password, role string) (*entity.User, error) {
	if role != entity.RoleAdmin && role != entity.RoleLeader {
		return nil, apperr.Validationf("role must be admin or leader")
	}
	u, err := s.NewUser(cellID, name, password, role)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrCellIDTaken
		}
		return nil, apperr.Internalf(err, "create user")
	}
	return u, nil
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internalf(err, "get user")
	}
	return u, nil
}

// GetByCellID returns sql.ErrNoRows (unwrapped) when absent so callers can
// decide how much to reveal.
func (s *UserService) GetByCellID(ctx context.Context, cellID string) (*entity.User, error) {
	return s.repo.GetByCellID(ctx, strings.TrimSpace(cellID))
}

// VerifyPassword checks pw against u and upgrades the stored hash when the
// configured cost changed. Rehash failures are not fatal.
func (s *UserService) VerifyPassword(ctx context.Context, u *entity.User, pw string) bool {
	if u.PasswordHash == "" || !s.hasher.Verify(u.PasswordHash, pw) {
		return false
	}
	if s.hasher.NeedsRehash(u.PasswordHash) {
		if h, err := s.hasher.Hash(pw); err == nil {
			if _, err := s.repo.UpdatePassword(ctx, u.ID, h); err == nil {
				u.PasswordHash = h
			}
		}
	}
	return true
}

// LeaderUpdate is a partial update of leader credentials; nil fields are kept.
type LeaderUpdate struct {
	Name     *string `json:"name" validate:"omitempty,notblank"`
	CellID   *string `json:"cellId" validate:"omitempty,notblank"`
	Password *string `json:"password" validate:"omitempty,min=1"`
}

// UpdateLeader applies in to the leader identified by id. Fields that are nil
// or blank after trimming are left unchanged.
func (s *UserService) UpdateLeader(ctx context.Context, id string, in LeaderUpdate) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrLeaderNotFound
		}
		return nil, apperr.Internalf(err, "get leader")
	}
	if u.Role != entity.RoleLeader {
		return nil, ErrLeaderNotFound
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			u.Name = name
		}
	}
	if in.CellID != nil {
		cellID := strings.TrimSpace(*in.CellID)
		if cellID != "" && cellID != u.CellID {
			taken, err := s.repo.CellIDTaken(ctx, cellID, u.ID)
			if err != nil {
				return nil, apperr.Internalf(err, "check cell id")
			}
			if taken {
				return nil, ErrCellIDTaken
			}
			u.CellID = cellID
		}
	}
	if in.Password != nil && *in.Password != "" {
		h, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, apperr.Internalf(err, "hash password")
		}
		u.PasswordHash = h
	}
	u.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Update(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrCellIDTaken
		}
		return nil, apperr.Internalf(err, "update leader")
	}
	return u, nil
}

// ResetPassword sets a new password for the user with cellID.
func (s *UserService) ResetPassword(ctx context.Context, cellID, password string) error {
	u, err := s.repo.GetByCellID(ctx, strings.TrimSpace(cellID))
	if err != nil {
		if database.IsNoRows(err) {
			return ErrUserNotFound
		}
		return apperr.Internalf(err, "get user")
	}
	h, err := s.hasher.Hash(password)
	if err != nil {
		return apperr.Internalf(err, "hash password")
	}
	if _, err := s.repo.UpdatePassword(ctx, u.ID, h); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CountAdmins reports how many admin accounts exist.
func (s *UserService) CountAdmins(ctx context.Context) (int, error) {
	return s.repo.CountByRole(ctx, entity.RoleAdmin)
}
