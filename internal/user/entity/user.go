package entity

import "time"

// Roles stored in users.role.
const (
	RoleAdmin  = "admin"
	RoleLeader = "leader"
)

// User represents an account row in the `users` table. CellID is the login
// identifier; it is unique but may be changed by an admin.
type User struct {
	ID           string    `db:"id" json:"id"`
	CellID       string    `db:"cell_id" json:"cellId"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Summary is the public projection embedded in other resources.
type Summary struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	CellID string `db:"cell_id" json:"cellId,omitempty"`
}
