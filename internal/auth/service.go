package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/cellgroup"
	groupentity "github.com/ovaphlow/cellgroup/internal/cellgroup/entity"
	"github.com/ovaphlow/cellgroup/internal/user"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
	"github.com/ovaphlow/cellgroup/pkg/database"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

// Errors returned by the auth service and middleware.
var (
	// ErrInvalidCredentials is returned for an unknown cellId and for a wrong
	// password alike.
	ErrInvalidCredentials = apperr.New(apperr.Unauthenticated, "invalid credentials")
	ErrMissingToken       = apperr.New(apperr.Unauthenticated, "access token required")
	ErrInvalidToken       = apperr.New(apperr.InvalidToken, "invalid or expired token")
	ErrForbidden          = apperr.New(apperr.Forbidden, "insufficient permissions")
)

// Claims is the token payload. It carries enough to authorize a request
// without a database round trip.
type Claims struct {
	UserID      string `json:"id"`
	CellID      string `json:"cellId"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	CellGroupID string `json:"cellGroupId,omitempty"`
	jwt.RegisteredClaims
}


// Profile is the user as shown to clients.
type Profile struct {
	ID        string               `json:"id"`
	CellID    string               `json:"cellId"`
	Name      string               `json:"name"`
	Role      string               `json:"role"`
	CellGroup *groupentity.Profile `json:"cellGroup"`
}

// LoginResult is the body returned by a successful login.
type LoginResult struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// Service issues and verifies HS256 tokens. It keeps no session state.
type Service struct {
	users  *user.UserService
	groups *cellgroup.Service
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Options configures token signing.
type Options struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// NewService constructs a Service. A zero TTL means 24 hours.
func NewService(users *user.UserService, groups *cellgroup.Service, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Service{
		users:  users,
		groups: groups,
		secret: []byte(opts.Secret),
		issuer: opts.Issuer,
		ttl:    opts.TTL,
		now:    time.Now,
	}
}

// Login verifies credentials and returns a fresh token with the profile.
func (s *Service) Login(ctx context.Context, cellID, password string) (*LoginResult, error) {
	cellID = strings.TrimSpace(cellID)
	if cellID == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByCellID(ctx, cellID)
	if err != nil {
		// unknown cellId and wrong password look the same
		if database.IsNoRows(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internalf(err, "get user")
	}
	if !s.users.VerifyPassword(ctx, u, password) {
		return nil, ErrInvalidCredentials
	}
	group, err := s.groupOf(ctx, u)
	if err != nil {
		return nil, err
	}
	token, err := s.Issue(u, group)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: profileOf(u, group)}, nil
}

// Issue signs a token for u. group may be nil.
func (s *Service) Issue(u *userentity.User, group *groupentity.CellGroup) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.ID,
		CellID: u.CellID,
		Role:   u.Role,
		Name:   u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        utilities.NewKSUID(),
		},
	}
	if group != nil {
		claims.CellGroupID = group.ID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperr.Internalf(err, "sign token")
	}
	return signed, nil
}

// Parse validates signature, algorithm, issuer and expiry.
func (s *Service) Parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidToken, ErrInvalidToken.Message, err)
	}
	if claims.UserID == "" {
		return nil, apperr.Wrap(apperr.InvalidToken, ErrInvalidToken.Message, errors.New("token has no user id"))
	}
	return &claims, nil
}

// WhoAmI resolves the current profile from a raw token.
func (s *Service) WhoAmI(ctx context.Context, token string) (*Profile, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, claims.UserID)
}

// Profile re-reads the user so renamed or deleted accounts show up.
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	group, err := s.groupOf(ctx, u)
	if err != nil {
		return nil, err
	}
	p := profileOf(u, group)
	return &p, nil
}

func (s *Service) groupOf(ctx context.Context, u *userentity.User) (*groupentity.CellGroup, error) {
	if u.Role != userentity.RoleLeader {
		return nil, nil
	}
	g, err := s.groups.GetByLeader(ctx, u.ID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve cell group: %w", err)
	}
	return g, nil
}

func profileOf(u *userentity.User, g *groupentity.CellGroup) Profile {
	p := Profile{ID: u.ID, CellID: u.CellID, Name: u.Name, Role: u.Role}
	if g != nil {
		p.CellGroup = g.Profile()
	}
	return p
}
