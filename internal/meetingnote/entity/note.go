package entity

import (
	"time"

	"github.com/ovaphlow/cellgroup/internal/week"
)

// MeetingNote represents a row in `meeting_notes`; WeekDate is unique.
type MeetingNote struct {
	ID        string    `db:"id" json:"id"`
	WeekDate  week.Date `db:"week_date" json:"weekDate"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
