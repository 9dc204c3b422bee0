package services

import (
	"context"
	"database/sql"

	"convo/internal/plugins/postgres"
)

// TxManager runs a unit of work inside one transaction, carrying the *sql.Tx
// through the context for the store layer to pick up.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

func (tm *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(postgres.WithExecutor(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
