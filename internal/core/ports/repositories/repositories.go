// Package repositories defines the persistence contracts the core services
// depend on. Implementations live under internal/repositories.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxManager begins and finishes database transactions. Card and ledger writes
// that must be atomic run inside a single pgx transaction obtained here.
type TxManager interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
