package stock

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/stockledger/backend/internal/domain/shared"
)

// EntryType categorizes a ledger entry by the business event behind it
type EntryType string

const (
	// Shared by both holder kinds
	EntryTypeInitial    EntryType = "INITIAL"
	EntryTypeAdjustment EntryType = "ADJUSTMENT"

	// Part movements
	EntryTypeInbound  EntryType = "INBOUND"
	EntryTypeOutbound EntryType = "OUTBOUND"

	// Product movements
	EntryTypeProduce           EntryType = "PRODUCE"
	EntryTypeDelivery          EntryType = "DELIVERY"
	EntryTypeDeliveryCancelled EntryType = "DELIVERY_CANCELLED"
)

// IsValid checks if the entry type is a known value
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeInitial, EntryTypeAdjustment,
		EntryTypeInbound, EntryTypeOutbound,
		EntryTypeProduce, EntryTypeDelivery, EntryTypeDeliveryCancelled:
		return true
	}
	return false
}

// ValidFor checks whether the entry type may appear on a holder of the
// given kind. Parts only move through purchasing and consumption,
// products through production and delivery.
func (t EntryType) ValidFor(kind HolderKind) bool {
	switch kind {
	case HolderKindPart:
		return t == EntryTypeInitial || t == EntryTypeAdjustment ||
			t == EntryTypeInbound || t == EntryTypeOutbound
	case HolderKindProduct:
		return t == EntryTypeInitial || t == EntryTypeAdjustment ||
			t == EntryTypeProduce || t == EntryTypeDelivery || t == EntryTypeDeliveryCancelled
	}
	return false
}

// LedgerEntry is an immutable audit record of a single stock movement.
// Once created it is never updated or deleted; corrections are made by
// writing compensating entries.
type LedgerEntry struct {
	shared.BaseEntity
	HolderID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	HolderKind     HolderKind `gorm:"type:varchar(10);not null;index"`
	EntryType      EntryType  `gorm:"type:varchar(30);not null;index"`
	BeforeStock    int64      `gorm:"not null"`
	ChangeQuantity int64      `gorm:"not null"`
	AfterStock     int64      `gorm:"not null"`
	Note           string     `gorm:"type:varchar(500)"`
}

// TableName returns the database table name
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// NewLedgerEntry creates a validated ledger entry for a holder.
// The arithmetic identity before + change = after is enforced here,
// independent of whatever the caller computed.
func NewLedgerEntry(holder *StockHolder, entryType EntryType, before, change, after int64, note string) (*LedgerEntry, error) {
	if holder == nil {
		return nil, shared.NewDomainError("INVALID_ENTRY", "holder is required")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY",
			fmt.Sprintf("unknown entry type: %s", entryType))
	}
	if !entryType.ValidFor(holder.Kind) {
		return nil, shared.NewDomainError("INVALID_ENTRY",
			fmt.Sprintf("entry type %s is not valid for a %s", entryType, holder.Kind))
	}
	if before < 0 {
		return nil, shared.NewDomainError("INVALID_ENTRY", "stock before movement cannot be negative")
	}
	if after < 0 {
		return nil, shared.NewDomainError("INVALID_ENTRY", "stock after movement cannot be negative")
	}
	if before+change != after {
		return nil, shared.NewDomainError("INVALID_ENTRY",
			fmt.Sprintf("entry arithmetic does not balance: %d + %d != %d", before, change, after))
	}

	return &LedgerEntry{
		BaseEntity:     shared.NewBaseEntity(),
		HolderID:       holder.ID,
		HolderKind:     holder.Kind,
		EntryType:      entryType,
		BeforeStock:    before,
		ChangeQuantity: change,
		AfterStock:     after,
		Note:           note,
	}, nil
}
