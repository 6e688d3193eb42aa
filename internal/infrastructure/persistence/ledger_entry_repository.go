package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/stock"
)

// GormLedgerEntryRepository implements stock.LedgerEntryRepository using GORM.
// The ledger is append-only, so there is no update or delete here.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Create persists a new ledger entry
func (r *GormLedgerEntryRepository) Create(ctx context.Context, entry *stock.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByHolder finds entries for one holder, newest first
func (r *GormLedgerEntryRepository) FindByHolder(ctx context.Context, holderID uuid.UUID, filter shared.Filter) ([]stock.LedgerEntry, error) {
	var entries []stock.LedgerEntry
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.LedgerEntry{}).
			Where("holder_id = ?", holderID),
		filter,
	)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByHolder counts entries for one holder
func (r *GormLedgerEntryRepository) CountByHolder(ctx context.Context, holderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.LedgerEntry{}).
		Where("holder_id = ?", holderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAll finds entries across all holders, newest first
func (r *GormLedgerEntryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]stock.LedgerEntry, error) {
	var entries []stock.LedgerEntry
	query := r.applyFilter(
		r.applyEntryFilters(r.db.WithContext(ctx).Model(&stock.LedgerEntry{}), filter),
		filter,
	)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountAll counts all entries matching the filter
func (r *GormLedgerEntryRepository) CountAll(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyEntryFilters(r.db.WithContext(ctx).Model(&stock.LedgerEntry{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyEntryFilters applies field filters without pagination
func (r *GormLedgerEntryRepository) applyEntryFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "holder_kind":
			query = query.Where("holder_kind = ?", value)
		case "entry_type":
			query = query.Where("entry_type = ?", value)
		}
	}
	return query
}

// applyFilter applies pagination and ordering to the query
func (r *GormLedgerEntryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, LedgerEntrySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ stock.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
