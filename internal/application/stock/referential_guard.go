package stock

import (
	"context"
	"fmt"

	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/stock"
)

// ReferentialGuard protects parts that live product compositions still
// reference from being deleted
type ReferentialGuard struct {
	compositions stock.CompositionRepository
}

// NewReferentialGuard creates a guard over the given composition repository
func NewReferentialGuard(compositions stock.CompositionRepository) *ReferentialGuard {
	return &ReferentialGuard{compositions: compositions}
}

// AssertDeletable fails when any live product composition references the part
func (g *ReferentialGuard) AssertDeletable(ctx context.Context, part *stock.StockHolder) error {
	count, err := g.compositions.CountActiveProductsUsingPart(ctx, part.ID)
	if err != nil {
		return fmt.Errorf("failed to count products using part: %w", err)
	}
	if count > 0 {
		return shared.NewDomainError("PART_IN_USE",
			fmt.Sprintf("part '%s' is used by %d product(s) and cannot be deleted", part.Code, count))
	}
	return nil
}
