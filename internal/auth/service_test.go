package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/cellgroup"
	"github.com/ovaphlow/cellgroup/internal/testutil"
	"github.com/ovaphlow/cellgroup/internal/user"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
)

const testSecret = "test-secret"

type fixture struct {
	svc    *Service
	admin  *userentity.User
	leader *userentity.User
	group  string
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.PrepareDB(t)
	users := user.NewUserService(db, nil, user.BcryptHasher{Cost: testutil.BcryptCost})
	groups := cellgroup.NewService(db, nil, users)
	admin := testutil.CreateUser(t, db, "admin", "Administrator", "admin123", userentity.RoleAdmin)
	g, leader := testutil.CreateGroup(t, db, "Faith Cell", "cell001", "leader123")
	return fixture{
		svc:    NewService(users, groups, Options{Secret: testSecret, Issuer: "cellgroup", TTL: time.Hour}),
		admin:  admin,
		leader: leader,
		group:  g.ID,
	}
}

func TestLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		res, err := f.svc.Login(ctx, "admin", "admin123")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, f.admin.ID, res.User.ID)
		assert.Equal(t, userentity.RoleAdmin, res.User.Role)
		assert.Nil(t, res.User.CellGroup)

		claims, err := f.svc.Parse(res.Token)
		require.NoError(t, err)
		assert.Equal(t, f.admin.ID, claims.UserID)
		assert.Equal(t, userentity.RoleAdmin, claims.Role)
		assert.Empty(t, claims.CellGroupID)
	})

	t.Run("leader carries group", func(t *testing.T) {
		res, err := f.svc.Login(ctx, " cell001 ", "leader123")
		require.NoError(t, err)
		require.NotNil(t, res.User.CellGroup)
		assert.Equal(t, f.group, res.User.CellGroup.ID)
		assert.Equal(t, "Faith Cell", res.User.CellGroup.Name)

		claims, err := f.svc.Parse(res.Token)
		require.NoError(t, err)
		assert.Equal(t, f.group, claims.CellGroupID)
		assert.Equal(t, userentity.RoleLeader, claims.Role)
	})

	t.Run("unknown and wrong password look alike", func(t *testing.T) {
		_, errUnknown := f.svc.Login(ctx, "nobody", "admin123")
		_, errWrong := f.svc.Login(ctx, "admin", "wrong")
		require.Error(t, errUnknown)
		require.Error(t, errWrong)
		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
	})

	t.Run("blank", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestParse(t *testing.T) {
	f := setup(t)

	valid, err := f.svc.Issue(f.admin, nil)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		_, err := f.svc.Parse(valid)
		assert.NoError(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := *f.svc
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(valid)
		assert.True(t, apperr.IsKind(err, apperr.InvalidToken))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := *f.svc
		other.secret = []byte("other")
		_, err := other.Parse(valid)
		assert.True(t, apperr.IsKind(err, apperr.InvalidToken))
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := Claims{
			UserID: f.admin.ID,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "cellgroup",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = f.svc.Parse(tok)
		assert.True(t, apperr.IsKind(err, apperr.InvalidToken))
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := Claims{UserID: f.admin.ID, RegisteredClaims: jwt.RegisteredClaims{Issuer: "cellgroup"}}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = f.svc.Parse(tok)
		assert.True(t, apperr.IsKind(err, apperr.InvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.svc.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestWhoAmI(t *testing.T) {
	f := setup(t)
	tok, err := f.svc.Issue(f.leader, nil)
	require.NoError(t, err)

	p, err := f.svc.WhoAmI(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "cell001", p.CellID)
	require.NotNil(t, p.CellGroup)
	assert.Equal(t, f.group, p.CellGroup.ID)
	assert.Equal(t, f.leader.ID, p.CellGroup.LeaderID)
}

func TestMiddleware(t *testing.T) {
	f := setup(t)
	logger := testutil.Logger(t)

	adminTok, err := f.svc.Issue(f.admin, nil)
	require.NoError(t, err)
	leaderTok, err := f.svc.Issue(f.leader, nil)
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, found := ClaimsFrom(r.Context())
		require.True(t, found)
		w.Header().Set("X-User", c.UserID)
		w.WriteHeader(http.StatusNoContent)
	})
	adminOnly := Authenticate(f.svc, logger)(RequireAdmin(logger)(ok))
	leaderOrAdmin := Authenticate(f.svc, logger)(RequireLeader(logger)(ok))

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		want    int
	}{
		{name: "missing token", handler: adminOnly, want: http.StatusUnauthorized},
		{name: "not bearer", handler: adminOnly, header: "Basic abc", want: http.StatusUnauthorized},
		{name: "invalid token", handler: adminOnly, header: "Bearer nope", want: http.StatusForbidden},
		{name: "leader on admin route", handler: adminOnly, header: "Bearer " + leaderTok, want: http.StatusForbidden},
		{name: "admin on admin route", handler: adminOnly, header: "Bearer " + adminTok, want: http.StatusNoContent},
		{name: "leader on leader route", handler: leaderOrAdmin, header: "bearer " + leaderTok, want: http.StatusNoContent},
		{name: "admin on leader route", handler: leaderOrAdmin, header: "Bearer " + adminTok, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
