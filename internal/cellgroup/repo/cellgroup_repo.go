package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/cellgroup/entity"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
)

// CellGroupRepo provides data access for the cell_groups table.
type CellGroupRepo struct {
	db sqlx.ExtContext
}

// NewCellGroupRepo constructs a CellGroupRepo over a DB or transaction.
func NewCellGroupRepo(db sqlx.ExtContext) *CellGroupRepo { return &CellGroupRepo{db: db} }

const groupColumns = `id, name, leader_id, created_at, updated_at`

// Create inserts g.
func (r *CellGroupRepo) Create(ctx context.Context, g *entity.CellGroup) error {
	q := r.db.Rebind(`INSERT INTO cell_groups (` + groupColumns + `) VALUES (?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, g.ID, g.Name, g.LeaderID, g.CreatedAt, g.UpdatedAt)
	return err
}

// GetByID returns the group or sql.ErrNoRows.
func (r *CellGroupRepo) GetByID(ctx context.Context, id string) (*entity.CellGroup, error) {
	var g entity.CellGroup
	q := r.db.Rebind(`SELECT ` + groupColumns + ` FROM cell_groups WHERE id = ?`)
	if err := sqlx.GetContext(ctx, r.db, &g, q, id); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByLeaderID returns the group led by userID or sql.ErrNoRows.
func (r *CellGroupRepo) GetByLeaderID(ctx context.Context, userID string) (*entity.CellGroup, error) {
	var g entity.CellGroup
	q := r.db.Rebind(`SELECT ` + groupColumns + ` FROM cell_groups WHERE leader_id = ?`)
	if err := sqlx.GetContext(ctx, r.db, &g, q, userID); err != nil {
		return nil, err
	}
	return &g, nil
}

// GroupWithLeader is a group row joined with its leader.
type GroupWithLeader struct {
	entity.CellGroup
	Leader userentity.Summary
}

type groupLeaderRow struct {
	entity.CellGroup
	LeaderName   string `db:"leader_name"`
	LeaderCellID string `db:"leader_cell_id"`
}

// ListWithLeader returns every group with its leader, name ascending.
func (r *CellGroupRepo) ListWithLeader(ctx context.Context) ([]GroupWithLeader, error) {
	const q = `SELECT g.id, g.name, g.leader_id, g.created_at, g.updated_at,
		u.name AS leader_name, u.cell_id AS leader_cell_id
		FROM cell_groups g JOIN users u ON u.id = g.leader_id
		ORDER BY g.name ASC, g.id ASC`
	var rows []groupLeaderRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, err
	}
	out := make([]GroupWithLeader, 0, len(rows))
	for _, row := range rows {
		out = append(out, GroupWithLeader{
			CellGroup: row.CellGroup,
			Leader:    userentity.Summary{ID: row.LeaderID, Name: row.LeaderName, CellID: row.LeaderCellID},
		})
	}
	return out, nil
}

// UpdateName renames a group. Returns rows affected.
func (r *CellGroupRepo) UpdateName(ctx context.Context, g *entity.CellGroup) (int64, error) {
	q := r.db.Rebind(`UPDATE cell_groups SET name = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, g.Name, g.UpdatedAt, g.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the group row and reports how many rows went away.
func (r *CellGroupRepo) Delete(ctx context.Context, id string) (int64, error) {
	q := r.db.Rebind(`DELETE FROM cell_groups WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
