package persistence

import (
	"context"

	"gorm.io/gorm"

	appstock "github.com/stockledger/backend/internal/application/stock"
	"github.com/stockledger/backend/internal/domain/stock"
)

// GormStockTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of the holder update and ledger entry insert.
type GormStockTransactionScope struct {
	db *gorm.DB
}

// NewGormStockTransactionScope creates a new GormStockTransactionScope
func NewGormStockTransactionScope(db *gorm.DB) *GormStockTransactionScope {
	return &GormStockTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormStockTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Holders returns the holder repository scoped to the current transaction
func (r *gormTransactionalRepositories) Holders() stock.HolderRepository {
	return NewGormHolderRepository(r.tx)
}

// Entries returns the ledger entry repository scoped to the current transaction
func (r *gormTransactionalRepositories) Entries() stock.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// Compositions returns the composition repository scoped to the current transaction
func (r *gormTransactionalRepositories) Compositions() stock.CompositionRepository {
	return NewGormCompositionRepository(r.tx)
}

// Ensure GormStockTransactionScope implements TransactionScope
var _ appstock.TransactionScope = (*GormStockTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appstock.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
