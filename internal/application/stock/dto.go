package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockledger/backend/internal/domain/stock"
)

// HolderResponse represents a part or product in API responses
type HolderResponse struct {
	ID               uuid.UUID        `json:"id"`
	Kind             stock.HolderKind `json:"kind"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	Specification    string           `json:"specification,omitempty"`
	Unit             string           `json:"unit"`
	StockQuantity    int64            `json:"stock_quantity"`
	DefaultUnitPrice decimal.Decimal  `json:"default_unit_price"`
	DeletedAt        *time.Time       `json:"deleted_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Version          int              `json:"version"`
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID             uuid.UUID        `json:"id"`
	HolderID       uuid.UUID        `json:"holder_id"`
	HolderKind     stock.HolderKind `json:"holder_kind"`
	EntryType      stock.EntryType  `json:"entry_type"`
	BeforeStock    int64            `json:"before_stock"`
	ChangeQuantity int64            `json:"change_quantity"`
	AfterStock     int64            `json:"after_stock"`
	Note           string           `json:"note,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// MutationResponse pairs the updated holder with the entry that
// recorded the movement
type MutationResponse struct {
	Holder HolderResponse      `json:"holder"`
	Entry  LedgerEntryResponse `json:"entry"`
}

// CompositionLineInput declares one part requirement of a product
type CompositionLineInput struct {
	PartID           uuid.UUID `json:"part_id"`
	RequiredQuantity int64     `json:"required_quantity"`
}

// CompositionLineResponse represents a composition line with the
// referenced part resolved
type CompositionLineResponse struct {
	PartID           uuid.UUID `json:"part_id"`
	PartCode         string    `json:"part_code"`
	PartName         string    `json:"part_name"`
	Unit             string    `json:"unit"`
	RequiredQuantity int64     `json:"required_quantity"`
}

// PartRequirement is one row of a production feasibility calculation
type PartRequirement struct {
	PartID           uuid.UUID `json:"part_id"`
	PartCode         string    `json:"part_code"`
	PartName         string    `json:"part_name"`
	Unit             string    `json:"unit"`
	RequiredPerUnit  int64     `json:"required_per_unit"`
	TotalRequired    int64     `json:"total_required"`
	AvailableStock   int64     `json:"available_stock"`
	Sufficient       bool      `json:"sufficient"`
}

// ProductUsage describes a live product that consumes a given part
type ProductUsage struct {
	ProductID        uuid.UUID `json:"product_id"`
	ProductCode      string    `json:"product_code"`
	ProductName      string    `json:"product_name"`
	RequiredQuantity int64     `json:"required_quantity"`
}

// CreatePartInput carries the fields for part creation
type CreatePartInput struct {
	Code          string
	Name          string
	Specification string
	Unit          string
	InitialStock  int64
}

// CreateProductInput carries the fields for product creation
type CreateProductInput struct {
	Code             string
	Name             string
	Specification    string
	Unit             string
	DefaultUnitPrice decimal.Decimal
	InitialStock     int64
	Composition      []CompositionLineInput
}

// UpdatePartInput carries the administrative fields of a part update
type UpdatePartInput struct {
	Name          string
	Specification string
	Unit          string
}

// UpdateProductInput carries the administrative fields of a product
// update. A nil Composition leaves the current composition untouched.
type UpdateProductInput struct {
	Name             string
	Specification    string
	Unit             string
	DefaultUnitPrice decimal.Decimal
	Composition      []CompositionLineInput
}

// ListFilter narrows and paginates list queries
type ListFilter struct {
	Page     int
	PageSize int
	Search   string
}

func toHolderResponse(h *stock.StockHolder) HolderResponse {
	return HolderResponse{
		ID:               h.ID,
		Kind:             h.Kind,
		Code:             h.Code,
		Name:             h.Name,
		Specification:    h.Specification,
		Unit:             h.Unit,
		StockQuantity:    h.StockQuantity,
		DefaultUnitPrice: h.DefaultUnitPrice,
		DeletedAt:        h.DeletedAt,
		CreatedAt:        h.CreatedAt,
		UpdatedAt:        h.UpdatedAt,
		Version:          h.Version,
	}
}

func toLedgerEntryResponse(e *stock.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID,
		HolderID:       e.HolderID,
		HolderKind:     e.HolderKind,
		EntryType:      e.EntryType,
		BeforeStock:    e.BeforeStock,
		ChangeQuantity: e.ChangeQuantity,
		AfterStock:     e.AfterStock,
		Note:           e.Note,
		CreatedAt:      e.CreatedAt,
	}
}
