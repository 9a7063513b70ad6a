package entity

import (
	"time"

	memberentity "github.com/ovaphlow/cellgroup/internal/member/entity"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
)

// CellGroup represents a row in `cell_groups`. LeaderID is unique: one group
// per leader and one leader per group.
type CellGroup struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	LeaderID  string    `db:"leader_id" json:"leaderId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Ref is the {id, name} projection embedded in members and reports.
type Ref struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Profile is the {id, name, leaderId} projection carried by user profiles.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LeaderID string `json:"leaderId"`
}

// Profile returns the projection embedded in a login profile.
func (g *CellGroup) Profile() *Profile {
	return &Profile{ID: g.ID, Name: g.Name, LeaderID: g.LeaderID}
}

// Detail is a group with its leader and active roster.
type Detail struct {
	CellGroup
	Leader  userentity.Summary    `json:"leader"`
	Members []memberentity.Member `json:"members"`
}
