package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/week"
	"github.com/ovaphlow/cellgroup/internal/weekevent/entity"
)

// EventRepo stores rows of week_events.
type EventRepo struct {
	db sqlx.ExtContext
}

// NewEventRepo constructs an EventRepo over a DB or transaction.
func NewEventRepo(db sqlx.ExtContext) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, week_date, event, created_at, updated_at`

// Upsert writes the label for e.WeekDate, replacing any existing one.
func (r *EventRepo) Upsert(ctx context.Context, e *entity.WeekEvent) error {
	q := r.db.Rebind(`INSERT INTO week_events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (week_date) DO UPDATE SET event = excluded.event, updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, q, e.ID, e.WeekDate, e.Event, e.CreatedAt, e.UpdatedAt)
	return err
}

// GetByWeek returns the event of wk or sql.ErrNoRows.
func (r *EventRepo) GetByWeek(ctx context.Context, wk week.Date) (*entity.WeekEvent, error) {
	var e entity.WeekEvent
	q := r.db.Rebind(`SELECT ` + eventColumns + ` FROM week_events WHERE week_date = ?`)
	if err := sqlx.GetContext(ctx, r.db, &e, q, wk); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns every event, newest week first.
func (r *EventRepo) List(ctx context.Context) ([]entity.WeekEvent, error) {
	out := []entity.WeekEvent{}
	q := `SELECT ` + eventColumns + ` FROM week_events ORDER BY week_date DESC`
	if err := sqlx.SelectContext(ctx, r.db, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByWeek removes the event of wk. Returns rows affected.
func (r *EventRepo) DeleteByWeek(ctx context.Context, wk week.Date) (int64, error) {
	q := r.db.Rebind(`DELETE FROM week_events WHERE week_date = ?`)
	res, err := r.db.ExecContext(ctx, q, wk)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
