package entity

import (
	"time"

	"github.com/ovaphlow/cellgroup/internal/week"
)

// WeekEvent represents a row in `week_events`: one short label per week.
type WeekEvent struct {
	ID        string    `db:"id" json:"id"`
	WeekDate  week.Date `db:"week_date" json:"weekDate"`
	Event     string    `db:"event" json:"event"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
