package stock

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockledger/backend/internal/domain/shared"
)

// HolderKind distinguishes the two kinds of stock-holding records
type HolderKind string

const (
	HolderKindPart    HolderKind = "part"
	HolderKindProduct HolderKind = "product"
)

// IsValid checks if the holder kind is valid
func (k HolderKind) IsValid() bool {
	return k == HolderKindPart || k == HolderKindProduct
}

// deletedCodeFormat is appended to the code on soft delete so the
// original code becomes available for new live records.
const deletedCodeFormat = "%s_DELETED_%d"

// StockHolder is the aggregate root for any record that holds stock:
// a purchased part or a manufactured product. StockQuantity never goes
// negative; every change to it is paired with a ledger entry.
type StockHolder struct {
	shared.BaseAggregateRoot
	Kind             HolderKind      `gorm:"type:varchar(10);not null;index"`
	Code             string          `gorm:"type:varchar(80);not null;index"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Specification    string          `gorm:"type:varchar(500)"`
	Unit             string          `gorm:"type:varchar(20);not null"`
	StockQuantity    int64           `gorm:"not null;default:0"`
	DefaultUnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DeletedAt        *time.Time      `gorm:"index"`
}

// TableName returns the database table name
func (StockHolder) TableName() string {
	return "stock_holders"
}

// NewPart creates a new part holder with the given initial stock
func NewPart(code, name, specification, unit string, initialStock int64) (*StockHolder, error) {
	return newHolder(HolderKindPart, code, name, specification, unit, decimal.Zero, initialStock)
}

// NewProduct creates a new product holder with the given initial stock
func NewProduct(code, name, specification, unit string, defaultUnitPrice decimal.Decimal, initialStock int64) (*StockHolder, error) {
	return newHolder(HolderKindProduct, code, name, specification, unit, defaultUnitPrice, initialStock)
}

func newHolder(kind HolderKind, code, name, specification, unit string, price decimal.Decimal, initialStock int64) (*StockHolder, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "code is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "name is required")
	}
	if unit == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "unit is required")
	}
	if initialStock < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "initial stock cannot be negative")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "default unit price cannot be negative")
	}

	return &StockHolder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		Code:              code,
		Name:              name,
		Specification:     specification,
		Unit:              unit,
		StockQuantity:     initialStock,
		DefaultUnitPrice:  price,
	}, nil
}

// IsDeleted reports whether the holder has been soft deleted
func (h *StockHolder) IsDeleted() bool {
	return h.DeletedAt != nil
}

// IncreaseStock adds quantity to the current stock
func (h *StockHolder) IncreaseStock(quantity int64) error {
	if err := h.assertMutable(); err != nil {
		return err
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "increase quantity must be positive")
	}

	h.StockQuantity += quantity
	h.UpdatedAt = time.Now()
	h.IncrementVersion()
	return nil
}

// DecreaseStock removes quantity from the current stock.
// Fails if the holder does not have enough stock.
func (h *StockHolder) DecreaseStock(quantity int64) error {
	if err := h.assertMutable(); err != nil {
		return err
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "decrease quantity must be positive")
	}
	if h.StockQuantity < quantity {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("insufficient stock for %s: required %d, available %d", h.Name, quantity, h.StockQuantity))
	}

	h.StockQuantity -= quantity
	h.UpdatedAt = time.Now()
	h.IncrementVersion()
	return nil
}

// AdjustStock applies a signed correction, typically after a physical
// count. The result must stay non-negative.
func (h *StockHolder) AdjustStock(delta int64) error {
	if err := h.assertMutable(); err != nil {
		return err
	}
	if delta == 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "adjustment cannot be zero")
	}
	if h.StockQuantity+delta < 0 {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("insufficient stock for %s: required %d, available %d", h.Name, -delta, h.StockQuantity))
	}

	h.StockQuantity += delta
	h.UpdatedAt = time.Now()
	h.IncrementVersion()
	return nil
}

// UpdateInfo changes descriptive fields. Stock is never touched here.
func (h *StockHolder) UpdateInfo(name, specification, unit string) error {
	if err := h.assertMutable(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "name is required")
	}
	if unit == "" {
		return shared.NewDomainError("INVALID_INPUT", "unit is required")
	}

	h.Name = name
	h.Specification = specification
	h.Unit = unit
	h.UpdatedAt = time.Now()
	h.IncrementVersion()
	return nil
}

// SetDefaultUnitPrice updates the default selling price of a product
func (h *StockHolder) SetDefaultUnitPrice(price decimal.Decimal) error {
	if err := h.assertMutable(); err != nil {
		return err
	}
	if h.Kind != HolderKindProduct {
		return shared.NewDomainError("INVALID_STATE", "only products carry a default unit price")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "default unit price cannot be negative")
	}

	h.DefaultUnitPrice = price
	h.UpdatedAt = time.Now()
	h.IncrementVersion()
	return nil
}

// MarkDeleted soft deletes the holder. The code gets a timestamp
// suffix so a new live record may reuse the original code.
func (h *StockHolder) MarkDeleted() error {
	if h.IsDeleted() {
		return shared.NewDomainError("ALREADY_DELETED",
			fmt.Sprintf("%s '%s' has already been deleted", h.Kind, h.Code))
	}

	now := time.Now()
	h.Code = fmt.Sprintf(deletedCodeFormat, h.Code, now.UnixMilli())
	h.DeletedAt = &now
	h.UpdatedAt = now
	h.IncrementVersion()
	return nil
}

func (h *StockHolder) assertMutable() error {
	if h.IsDeleted() {
		return shared.NewDomainError("ALREADY_DELETED",
			fmt.Sprintf("%s '%s' has been deleted", h.Kind, h.Code))
	}
	return nil
}
