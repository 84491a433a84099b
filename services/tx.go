package services

import (
	"context"
	"database/sql"

	"github.com/Transcendigos/tscd-main-sub000/repositories"
)

// Tx is the slice of *sql.Tx the services use: statement execution plus the
// commit/rollback pair.
type Tx interface {
	repositories.SQLExecutor
	Commit() error
	Rollback() error
}

// TxBeginner starts transactions. Services depend on it instead of *sql.DB
// so transactional flows can run against in-memory repositories in tests.
type TxBeginner interface {
	BeginTx(ctx context.Context) (Tx, error)
}

type sqlTxBeginner struct {
	db *sql.DB
}

// NewSQLTxBeginner adapts a connection pool to TxBeginner.
func NewSQLTxBeginner(db *sql.DB) TxBeginner {
	return sqlTxBeginner{db: db}
}

func (b sqlTxBeginner) BeginTx(ctx context.Context) (Tx, error) {
	return b.db.BeginTx(ctx, nil)
}
