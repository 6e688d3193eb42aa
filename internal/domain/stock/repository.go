package stock

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockledger/backend/internal/domain/shared"
)

// HolderRepository defines persistence operations for stock holders
type HolderRepository interface {
	// FindByID retrieves a holder by ID, deleted or not
	FindByID(ctx context.Context, id uuid.UUID) (*StockHolder, error)

	// FindLiveByID retrieves a holder that has not been soft deleted
	FindLiveByID(ctx context.Context, id uuid.UUID) (*StockHolder, error)

	// FindLiveByKind retrieves live holders of one kind with pagination
	FindLiveByKind(ctx context.Context, kind HolderKind, filter shared.Filter) ([]StockHolder, error)

	// CountLiveByKind counts live holders of one kind matching the filter
	CountLiveByKind(ctx context.Context, kind HolderKind, filter shared.Filter) (int64, error)

	// ExistsLiveByCode reports whether a live holder of the kind already uses the code
	ExistsLiveByCode(ctx context.Context, kind HolderKind, code string) (bool, error)

	// Create persists a new holder
	Create(ctx context.Context, holder *StockHolder) error

	// Save persists holder changes without a version check
	Save(ctx context.Context, holder *StockHolder) error

	// SaveWithLock persists holder changes with an optimistic-lock
	// version check. Returns a concurrency conflict error when the
	// row was modified since it was read.
	SaveWithLock(ctx context.Context, holder *StockHolder) error
}

// LedgerEntryRepository defines persistence operations for ledger entries.
// Entries are append-only: there is no update or delete.
type LedgerEntryRepository interface {
	// Create persists a new ledger entry
	Create(ctx context.Context, entry *LedgerEntry) error

	// FindByHolder retrieves entries for one holder, newest first
	FindByHolder(ctx context.Context, holderID uuid.UUID, filter shared.Filter) ([]LedgerEntry, error)

	// CountByHolder counts entries for one holder
	CountByHolder(ctx context.Context, holderID uuid.UUID) (int64, error)

	// FindAll retrieves entries across all holders, newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]LedgerEntry, error)

	// CountAll counts all entries matching the filter
	CountAll(ctx context.Context, filter shared.Filter) (int64, error)
}

// CompositionRepository defines persistence operations for product compositions
type CompositionRepository interface {
	// ReplaceForProduct replaces the full composition of a product
	ReplaceForProduct(ctx context.Context, productID uuid.UUID, lines []CompositionLine) error

	// FindByProduct retrieves the composition lines of a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]CompositionLine, error)

	// FindActiveByPart retrieves composition lines that reference the
	// part and belong to a live product
	FindActiveByPart(ctx context.Context, partID uuid.UUID) ([]CompositionLine, error)

	// CountActiveProductsUsingPart counts live products whose composition includes the part
	CountActiveProductsUsingPart(ctx context.Context, partID uuid.UUID) (int64, error)

	// DeleteForProduct removes the composition of a product
	DeleteForProduct(ctx context.Context, productID uuid.UUID) error
}
