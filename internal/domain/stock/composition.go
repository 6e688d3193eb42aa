package stock

import (
	"github.com/google/uuid"

	"github.com/stockledger/backend/internal/domain/shared"
)

// CompositionLine declares that producing one unit of a product
// consumes RequiredQuantity units of a part.
type CompositionLine struct {
	shared.BaseEntity
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index"`
	PartID           uuid.UUID `gorm:"type:uuid;not null;index"`
	RequiredQuantity int64     `gorm:"not null"`
}

// TableName returns the database table name
func (CompositionLine) TableName() string {
	return "product_parts"
}

// NewCompositionLine creates a validated composition line
func NewCompositionLine(productID, partID uuid.UUID, requiredQuantity int64) (*CompositionLine, error) {
	if productID == uuid.Nil || partID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "product and part are required")
	}
	if productID == partID {
		return nil, shared.NewDomainError("INVALID_INPUT", "a product cannot be composed of itself")
	}
	if requiredQuantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "required quantity must be positive")
	}

	return &CompositionLine{
		BaseEntity:       shared.NewBaseEntity(),
		ProductID:        productID,
		PartID:           partID,
		RequiredQuantity: requiredQuantity,
	}, nil
}

// TotalRequired returns the part quantity consumed when producing
// the given number of product units
func (l *CompositionLine) TotalRequired(produced int64) int64 {
	return l.RequiredQuantity * produced
}
