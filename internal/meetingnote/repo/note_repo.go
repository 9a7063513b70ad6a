package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cellgroup/internal/meetingnote/entity"
)

// NoteRepo stores rows of meeting_notes.
type NoteRepo struct {
	db sqlx.ExtContext
}

// NewNoteRepo constructs a NoteRepo over a DB or transaction.
func NewNoteRepo(db sqlx.ExtContext) *NoteRepo { return &NoteRepo{db: db} }

const noteColumns = `id, week_date, title, content, created_at, updated_at`

// Create inserts n.
func (r *NoteRepo) Create(ctx context.Context, n *entity.MeetingNote) error {
	q := r.db.Rebind(`INSERT INTO meeting_notes (` + noteColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, n.ID, n.WeekDate, n.Title, n.Content, n.CreatedAt, n.UpdatedAt)
	return err
}

// GetByID returns the note or sql.ErrNoRows.
func (r *NoteRepo) GetByID(ctx context.Context, id string) (*entity.MeetingNote, error) {
	var n entity.MeetingNote
	q := r.db.Rebind(`SELECT ` + noteColumns + ` FROM meeting_notes WHERE id = ?`)
	if err := sqlx.GetContext(ctx, r.db, &n, q, id); err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns every note, newest week first.
func (r *NoteRepo) List(ctx context.Context) ([]entity.MeetingNote, error) {
	out := []entity.MeetingNote{}
	q := `SELECT ` + noteColumns + ` FROM meeting_notes ORDER BY week_date DESC`
	if err := sqlx.SelectContext(ctx, r.db, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes n and reports how many rows changed.
func (r *NoteRepo) Update(ctx context.Context, n *entity.MeetingNote) (int64, error) {
	q := r.db.Rebind(`UPDATE meeting_notes SET week_date = ?, title = ?, content = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, n.WeekDate, n.Title, n.Content, n.UpdatedAt, n.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the note and reports how many rows went away.
func (r *NoteRepo) Delete(ctx context.Context, id string) (int64, error) {
	q := r.db.Rebind(`DELETE FROM meeting_notes WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
