package pgsql

import (
	portsrepo "github.com/dkuznetsov/bank-cards/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryContainer bundles all pgsql repositories behind their ports.
type RepositoryContainer struct {
	UserRepo        portsrepo.UserRepository
	CardRepo        portsrepo.CardRepository
	TransactionRepo portsrepo.TransactionRepository
}

// NewRepositoryContainer creates all repositories sharing one pool.
func NewRepositoryContainer(pool *pgxpool.Pool) *RepositoryContainer {
	return &RepositoryContainer{
		UserRepo:        newPgxUserRepository(pool),
		CardRepo:        newPgxCardRepository(pool),
		TransactionRepo: newPgxTransactionRepository(pool),
	}
}
