package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/stock"
)

// GormCompositionRepository implements stock.CompositionRepository using GORM
type GormCompositionRepository struct {
	db *gorm.DB
}

// NewGormCompositionRepository creates a new GormCompositionRepository
func NewGormCompositionRepository(db *gorm.DB) *GormCompositionRepository {
	return &GormCompositionRepository{db: db}
}

// ReplaceForProduct replaces the full composition of a product.
// Callers are expected to run this inside a transaction scope.
func (r *GormCompositionRepository) ReplaceForProduct(ctx context.Context, productID uuid.UUID, lines []stock.CompositionLine) error {
	if err := r.db.WithContext(ctx).
		Delete(&stock.CompositionLine{}, "product_id = ?", productID).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// FindByProduct finds the composition lines of a product
func (r *GormCompositionRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]stock.CompositionLine, error) {
	var lines []stock.CompositionLine
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// FindActiveByPart finds composition lines that reference the part
// and belong to a live product
func (r *GormCompositionRepository) FindActiveByPart(ctx context.Context, partID uuid.UUID) ([]stock.CompositionLine, error) {
	var lines []stock.CompositionLine
	if err := r.db.WithContext(ctx).
		Model(&stock.CompositionLine{}).
		Joins("JOIN stock_holders ON stock_holders.id = product_parts.product_id AND stock_holders.deleted_at IS NULL").
		Where("product_parts.part_id = ?", partID).
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// CountActiveProductsUsingPart counts live products whose composition includes the part
func (r *GormCompositionRepository) CountActiveProductsUsingPart(ctx context.Context, partID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.CompositionLine{}).
		Joins("JOIN stock_holders ON stock_holders.id = product_parts.product_id AND stock_holders.deleted_at IS NULL").
		Where("product_parts.part_id = ?", partID).
		Distinct("product_parts.product_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteForProduct removes the composition of a product
func (r *GormCompositionRepository) DeleteForProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&stock.CompositionLine{}, "product_id = ?", productID).Error
}

// Ensure GormCompositionRepository implements CompositionRepository
var _ stock.CompositionRepository = (*GormCompositionRepository)(nil)
