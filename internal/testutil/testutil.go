// Package testutil builds migrated throwaway databases and fixtures for
// package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	groupentity "github.com/ovaphlow/cellgroup/internal/cellgroup/entity"
	grouprepo "github.com/ovaphlow/cellgroup/internal/cellgroup/repo"
	memberentity "github.com/ovaphlow/cellgroup/internal/member/entity"
	memberrepo "github.com/ovaphlow/cellgroup/internal/member/repo"
	reportentity "github.com/ovaphlow/cellgroup/internal/report/entity"
	reportrepo "github.com/ovaphlow/cellgroup/internal/report/repo"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
	userrepo "github.com/ovaphlow/cellgroup/internal/user/repo"
	"github.com/ovaphlow/cellgroup/internal/week"
	"github.com/ovaphlow/cellgroup/pkg/database"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

// BcryptCost keeps password hashing fast in tests.
const BcryptCost = bcrypt.MinCost

// Logger returns a sugared logger that writes through t.
func Logger(t testing.TB) *zap.SugaredLogger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)).Sugar()
}

// PrepareDB opens a fresh SQLite file under t.TempDir and migrates it up.
func PrepareDB(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver:  database.DriverSQLite,
		DSN:     filepath.Join(t.TempDir(), "test.db"),
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "up", zap.NewNop().Sugar()))
	return db
}

// CreateUser stores a user with a cheap bcrypt hash of pwd.
func CreateUser(t testing.TB, db *sqlx.DB, cellID, name, pwd, role string) *userentity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), BcryptCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	u := &userentity.User{
		ID:           utilities.NewSnowflakeID(),
		CellID:       cellID,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, userrepo.NewUserRepo(db).Create(context.Background(), u))
	return u
}

// CreateGroup stores a leader account and a group led by it.
func CreateGroup(t testing.TB, db *sqlx.DB, name, cellID, pwd string) (*groupentity.CellGroup, *userentity.User) {
	t.Helper()
	leader := CreateUser(t, db, cellID, name+" Leader", pwd, userentity.RoleLeader)
	now := time.Now().UTC()
	g := &groupentity.CellGroup{
		ID:        utilities.NewSnowflakeID(),
		Name:      name,
		LeaderID:  leader.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, grouprepo.NewCellGroupRepo(db).Create(context.Background(), g))
	return g, leader
}

// CreateMember stores a member of groupID.
func CreateMember(t testing.TB, db *sqlx.DB, groupID, name string, active bool) *memberentity.Member {
	t.Helper()
	now := time.Now().UTC()
	m := &memberentity.Member{
		ID:          utilities.NewSnowflakeID(),
		Name:        name,
		CellGroupID: groupID,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, memberrepo.NewMemberRepo(db).Create(context.Background(), m))
	return m
}

// CreateReport upserts a report for memberID in wk.
func CreateReport(t testing.TB, db *sqlx.DB, memberID string, wk week.Date, a reportentity.Attendance, bible, prayers int) *reportentity.Report {
	t.Helper()
	now := time.Now().UTC()
	rep := &reportentity.Report{
		ID:                utilities.NewSnowflakeID(),
		MemberID:          memberID,
		WeekStart:         wk,
		EarlySermon:       a.EarlySermon,
		CharisSermon:      a.CharisSermon,
		CellMeeting:       a.CellMeeting,
		BibleChaptersRead: bible,
		PrayerCount:       prayers,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, reportrepo.NewReportRepo(db).Upsert(context.Background(), rep))
	return rep
}

// CountRows returns the number of rows in table.
func CountRows(t testing.TB, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM "+table))
	return n
}

// Week parses s and anchors it, failing t on bad input.
func Week(t testing.TB, s string) week.Date {
	t.Helper()
	d, err := week.ParseAnchor(s)
	require.NoError(t, err)
	return d
}
