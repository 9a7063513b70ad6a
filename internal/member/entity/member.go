package entity

import "time"

// Member represents a row in `members`. Deactivation is logical; inactive
// members keep their reports.
type Member struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	CellGroupID string    `db:"cell_group_id" json:"cellGroupId"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// GroupRef is the {id, name} of the member's cell group.
type GroupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WithGroup is a member joined with its group name, as listed by admins.
type WithGroup struct {
	Member
	CellGroup GroupRef `json:"cellGroup"`
}
