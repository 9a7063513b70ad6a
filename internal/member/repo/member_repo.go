package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/member/entity"
)

// MemberRepo provides data access for the members table.
type MemberRepo struct {
	db sqlx.ExtContext
}

// NewMemberRepo constructs a MemberRepo over a DB or transaction.
func NewMemberRepo(db sqlx.ExtContext) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = `id, name, cell_group_id, is_active, created_at, updated_at`

// Create inserts m.
func (r *MemberRepo) Create(ctx context.Context, m *entity.Member) error {
	q := r.db.Rebind(`INSERT INTO members (` + memberColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, m.ID, m.Name, m.CellGroupID, m.IsActive, m.CreatedAt, m.UpdatedAt)
	return err
}

// GetByID returns the member or sql.ErrNoRows.
func (r *MemberRepo) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	var m entity.Member
	q := r.db.Rebind(`SELECT ` + memberColumns + ` FROM members WHERE id = ?`)
	if err := sqlx.GetContext(ctx, r.db, &m, q, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActiveByGroup returns the active roster of one group, name ascending.
func (r *MemberRepo) ListActiveByGroup(ctx context.Context, groupID string) ([]entity.Member, error) {
	out := []entity.Member{}
	q := r.db.Rebind(`SELECT ` + memberColumns + ` FROM members
		WHERE cell_group_id = ? AND is_active = ? ORDER BY name ASC, id ASC`)
	if err := sqlx.SelectContext(ctx, r.db, &out, q, groupID, true); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns every active member ordered by group then name. Callers
// bucket them per group.
func (r *MemberRepo) ListActive(ctx context.Context) ([]entity.Member, error) {
	out := []entity.Member{}
	q := r.db.Rebind(`SELECT ` + memberColumns + ` FROM members
		WHERE is_active = ? ORDER BY cell_group_id ASC, name ASC, id ASC`)
	if err := sqlx.SelectContext(ctx, r.db, &out, q, true); err != nil {
		return nil, err
	}
	return out, nil
}

type withGroupRow struct {
	entity.Member
	GroupID   string `db:"group_id"`
	GroupName string `db:"group_name"`
}

// ListWithGroup lists members (active or not) joined with their group name,
// ordered by group name then member name. An empty groupID lists all.
func (r *MemberRepo) ListWithGroup(ctx context.Context, groupID string) ([]entity.WithGroup, error) {
	query := `SELECT m.id, m.name, m.cell_group_id, m.is_active, m.created_at, m.updated_at,
		g.id AS group_id, g.name AS group_name
		FROM members m JOIN cell_groups g ON g.id = m.cell_group_id`
	var args []any
	if groupID != "" {
		query += ` WHERE m.cell_group_id = ?`
		args = append(args, groupID)
	}
	query += ` ORDER BY g.name ASC, m.name ASC, m.id ASC`

	var rows []withGroupRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make([]entity.WithGroup, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.WithGroup{
			Member:    row.Member,
			CellGroup: entity.GroupRef{ID: row.GroupID, Name: row.GroupName},
		})
	}
	return out, nil
}

// ExistingIDs returns which of ids exist, optionally restricted to one group.
func (r *MemberRepo) ExistingIDs(ctx context.Context, ids []string, groupID string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	query, args, err := sqlx.In(`SELECT id FROM members WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	if groupID != "" {
		query += ` AND cell_group_id = ?`
		args = append(args, groupID)
	}
	var got []string
	if err := sqlx.SelectContext(ctx, r.db, &got, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, id := range got {
		found[id] = true
	}
	return found, nil
}

// Update writes name, group and active flag. Returns rows affected.
func (r *MemberRepo) Update(ctx context.Context, m *entity.Member) (int64, error) {
	q := r.db.Rebind(`UPDATE members SET name = ?, cell_group_id = ?, is_active = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, m.Name, m.CellGroupID, m.IsActive, m.UpdatedAt, m.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the member row and reports how many rows went away.
func (r *MemberRepo) Delete(ctx context.Context, id string) (int64, error) {
	q := r.db.Rebind(`DELETE FROM members WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByGroup removes every member of a group. Returns rows affected.
func (r *MemberRepo) DeleteByGroup(ctx context.Context, groupID string) (int64, error) {
	q := r.db.Rebind(`DELETE FROM members WHERE cell_group_id = ?`)
	res, err := r.db.ExecContext(ctx, q, groupID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountActiveByGroup maps group id to its active member count.
func (r *MemberRepo) CountActiveByGroup(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		GroupID string `db:"cell_group_id"`
		N       int    `db:"n"`
	}
	q := r.db.Rebind(`SELECT cell_group_id, COUNT(*) AS n FROM members WHERE is_active = ? GROUP BY cell_group_id`)
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, true); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.GroupID] = row.N
	}
	return out, nil
}
