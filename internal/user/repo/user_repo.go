package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/user/entity"
)

// UserRepo provides data access for the users table. It works on a pool or
// on a transaction.
type UserRepo struct {
	db sqlx.ExtContext
}

// NewUserRepo constructs a UserRepo over a DB or transaction.
func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, cell_id, password_hash, name, role, created_at, updated_at`

// Create inserts a new user row. ID and timestamps must already be set.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	q := r.db.Rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, u.ID, u.CellID, u.PasswordHash, u.Name, u.Role, u.CreatedAt, u.UpdatedAt)
	return err
}

// GetByID fetches a full user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var row entity.User
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := sqlx.GetContext(ctx, r.db, &row, q, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByCellID fetches by login identifier or sql.ErrNoRows.
func (r *UserRepo) GetByCellID(ctx context.Context, cellID string) (*entity.User, error) {
	var row entity.User
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE cell_id = ?`)
	if err := sqlx.GetContext(ctx, r.db, &row, q, cellID); err != nil {
		return nil, err
	}
	return &row, nil
}

// CellIDTaken reports whether cellID belongs to a user other than exceptID.
// Pass an empty exceptID to check against every user.
func (r *UserRepo) CellIDTaken(ctx context.Context, cellID, exceptID string) (bool, error) {
	var n int
	q := r.db.Rebind(`SELECT COUNT(*) FROM users WHERE cell_id = ? AND id <> ?`)
	if err := sqlx.GetContext(ctx, r.db, &n, q, cellID, exceptID); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update writes name, cell id and password hash. Returns rows affected.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) (int64, error) {
	q := r.db.Rebind(`UPDATE users SET cell_id = ?, name = ?, password_hash = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, u.CellID, u.Name, u.PasswordHash, u.UpdatedAt, u.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdatePassword replaces the password hash only.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) (int64, error) {
	q := r.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, hash, time.Now().UTC(), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a user row. Returns rows affected.
func (r *UserRepo) Delete(ctx context.Context, id string) (int64, error) {
	q := r.db.Rebind(`DELETE FROM users WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByRole is used by the seed command to decide whether to bootstrap.
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	q := r.db.Rebind(`SELECT COUNT(*) FROM users WHERE role = ?`)
	if err := sqlx.GetContext(ctx, r.db, &n, q, role); err != nil {
		return 0, err
	}
	return n, nil
}
