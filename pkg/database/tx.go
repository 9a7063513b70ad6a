package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Transactor runs a unit of work inside a single transaction. Repositories
// built on the *sqlx.Tx handed to fn see each other's writes; nothing is
// visible outside until fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// TxRunner is the sqlx backed Transactor.
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner returns a Transactor over db.
func NewTxRunner(db *sqlx.DB) *TxRunner { return &TxRunner{db: db} }

// WithinTx commits when fn returns nil and rolls back otherwise (including on
// panic, which is re-raised).
func (t *TxRunner) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
