package stock

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/stock"
)

// LedgerQueryService serves read-only ledger history. Queries never
// touch holder state, so they are freely repeatable.
type LedgerQueryService struct {
	holders stock.HolderRepository
	entries stock.LedgerEntryRepository
}

// NewLedgerQueryService creates a new ledger query service
func NewLedgerQueryService(holders stock.HolderRepository, entries stock.LedgerEntryRepository) *LedgerQueryService {
	return &LedgerQueryService{
		holders: holders,
		entries: entries,
	}
}

// HistoryFor returns the movement history of one holder, newest first.
// History remains readable after the holder is soft deleted.
func (s *LedgerQueryService) HistoryFor(ctx context.Context, holderID uuid.UUID, filter ListFilter) (*shared.Paginated[LedgerEntryResponse], error) {
	if _, err := s.holders.FindByID(ctx, holderID); err != nil {
		return nil, err
	}

	f := paginationFilter(filter)
	entries, err := s.entries.FindByHolder(ctx, holderID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.entries.CountByHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}

	return paginatedEntries(entries, total, f), nil
}

// AllHistory returns the movement history across all holders, newest first
func (s *LedgerQueryService) AllHistory(ctx context.Context, filter ListFilter) (*shared.Paginated[LedgerEntryResponse], error) {
	f := paginationFilter(filter)
	entries, err := s.entries.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.entries.CountAll(ctx, f)
	if err != nil {
		return nil, err
	}

	return paginatedEntries(entries, total, f), nil
}

func paginationFilter(filter ListFilter) shared.Filter {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	return f
}

func paginatedEntries(entries []stock.LedgerEntry, total int64, f shared.Filter) *shared.Paginated[LedgerEntryResponse] {
	items := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		items[i] = toLedgerEntryResponse(&entries[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result
}
