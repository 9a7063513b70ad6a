package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Migrate runs a goose command ("up", "down", "status", "version") against the
// embedded migrations. The dialect follows the sqlx driver name.
func Migrate(ctx context.Context, db *sqlx.DB, command string, logger *zap.SugaredLogger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect(dialect(db.DriverName())); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db.DB, migrationsDir)
	case "down":
		err = goose.DownContext(ctx, db.DB, migrationsDir)
	case "status":
		err = goose.StatusContext(ctx, db.DB, migrationsDir)
	case "version":
		err = goose.VersionContext(ctx, db.DB, migrationsDir)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}

func dialect(driverName string) string {
	if driverName == "sqlite3" {
		return "sqlite3"
	}
	return "postgres"
}

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) { l.s.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.s.Fatalf(format, v...) }
