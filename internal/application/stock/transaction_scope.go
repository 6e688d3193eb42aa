package stock

import (
	"context"

	"github.com/stockledger/backend/internal/domain/stock"
)

// TransactionalRepositories exposes repositories bound to one database
// transaction. Everything obtained from it shares that transaction.
type TransactionalRepositories interface {
	Holders() stock.HolderRepository
	Entries() stock.LedgerEntryRepository
	Compositions() stock.CompositionRepository
}

// TransactionScope executes a unit of work atomically. The callback's
// repository calls commit or roll back as one unit, so a holder update
// can never be persisted without its ledger entry or vice versa.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope passes repositories through without transaction
// semantics. Intended for tests.
type NoOpTransactionScope struct {
	Repos TransactionalRepositories
}

// Execute runs the function with the configured repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.Repos)
}
