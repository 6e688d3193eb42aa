package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/stock"
)

// GormHolderRepository implements stock.HolderRepository using GORM
type GormHolderRepository struct {
	db *gorm.DB
}

// NewGormHolderRepository creates a new GormHolderRepository
func NewGormHolderRepository(db *gorm.DB) *GormHolderRepository {
	return &GormHolderRepository{db: db}
}

// FindByID finds a holder by its ID, deleted or not
func (r *GormHolderRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockHolder, error) {
	var holder stock.StockHolder
	if err := r.db.WithContext(ctx).First(&holder, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &holder, nil
}

// FindLiveByID finds a holder that has not been soft deleted
func (r *GormHolderRepository) FindLiveByID(ctx context.Context, id uuid.UUID) (*stock.StockHolder, error) {
	var holder stock.StockHolder
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&holder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &holder, nil
}

// FindLiveByKind finds live holders of one kind with pagination
func (r *GormHolderRepository) FindLiveByKind(ctx context.Context, kind stock.HolderKind, filter shared.Filter) ([]stock.StockHolder, error) {
	var holders []stock.StockHolder
	query := r.applyFilter(r.liveByKindQuery(ctx, kind, filter), filter)

	if err := query.Find(&holders).Error; err != nil {
		return nil, err
	}
	return holders, nil
}

// CountLiveByKind counts live holders of one kind matching the filter
func (r *GormHolderRepository) CountLiveByKind(ctx context.Context, kind stock.HolderKind, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.liveByKindQuery(ctx, kind, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsLiveByCode reports whether a live holder of the kind already uses the code
func (r *GormHolderRepository) ExistsLiveByCode(ctx context.Context, kind stock.HolderKind, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.StockHolder{}).
		Where("kind = ? AND code = ? AND deleted_at IS NULL", kind, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create persists a new holder
func (r *GormHolderRepository) Create(ctx context.Context, holder *stock.StockHolder) error {
	return r.db.WithContext(ctx).Create(holder).Error
}

// Save persists holder changes without a version check
func (r *GormHolderRepository) Save(ctx context.Context, holder *stock.StockHolder) error {
	return r.db.WithContext(ctx).Save(holder).Error
}

// SaveWithLock persists holder changes with optimistic locking.
// The holder's version was incremented in memory, so the row must
// still carry the previous version for the update to apply.
func (r *GormHolderRepository) SaveWithLock(ctx context.Context, holder *stock.StockHolder) error {
	result := r.db.WithContext(ctx).
		Model(holder).
		Where("id = ? AND version = ?", holder.ID, holder.Version-1).
		Updates(map[string]interface{}{
			"code":               holder.Code,
			"name":               holder.Name,
			"specification":      holder.Specification,
			"unit":               holder.Unit,
			"stock_quantity":     holder.StockQuantity,
			"default_unit_price": holder.DefaultUnitPrice,
			"deleted_at":         holder.DeletedAt,
			"version":            holder.Version,
			"updated_at":         holder.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormHolderRepository) liveByKindQuery(ctx context.Context, kind stock.HolderKind, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&stock.StockHolder{}).
		Where("kind = ? AND deleted_at IS NULL", kind)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", pattern, pattern)
	}
	return query
}

// applyFilter applies pagination and ordering to the query
func (r *GormHolderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, HolderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormHolderRepository implements HolderRepository
var _ stock.HolderRepository = (*GormHolderRepository)(nil)
