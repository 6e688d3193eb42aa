package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/stock"
)

// DefaultMaxConflictRetries bounds how often a conflicted mutation is
// re-run with fresh state before the conflict surfaces to the caller
const DefaultMaxConflictRetries = 3

// LedgerService performs stock mutations. Every mutation updates the
// holder and appends exactly one ledger entry inside one transaction.
type LedgerService struct {
	scope      TransactionScope
	maxRetries int
	logger     *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(scope TransactionScope, maxRetries int, logger *zap.Logger) *LedgerService {
	if maxRetries < 1 {
		maxRetries = DefaultMaxConflictRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		scope:      scope,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Increase adds stock to a holder. Parts record INBOUND entries,
// products PRODUCE entries.
func (s *LedgerService) Increase(ctx context.Context, holderID uuid.UUID, quantity int64, note string) (*MutationResponse, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "increase quantity must be positive")
	}

	return s.mutate(ctx, holderID, note, func(h *stock.StockHolder) (stock.EntryType, error) {
		if err := h.IncreaseStock(quantity); err != nil {
			return "", err
		}
		if h.Kind == stock.HolderKindProduct {
			return stock.EntryTypeProduce, nil
		}
		return stock.EntryTypeInbound, nil
	})
}

// Decrease removes stock from a holder. Parts record OUTBOUND entries,
// products DELIVERY entries. Fails when stock is insufficient.
func (s *LedgerService) Decrease(ctx context.Context, holderID uuid.UUID, quantity int64, note string) (*MutationResponse, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "decrease quantity must be positive")
	}

	return s.mutate(ctx, holderID, note, func(h *stock.StockHolder) (stock.EntryType, error) {
		if err := h.DecreaseStock(quantity); err != nil {
			return "", err
		}
		if h.Kind == stock.HolderKindProduct {
			return stock.EntryTypeDelivery, nil
		}
		return stock.EntryTypeOutbound, nil
	})
}

// Adjust applies a signed correction with a mandatory note, recording
// an ADJUSTMENT entry
func (s *LedgerService) Adjust(ctx context.Context, holderID uuid.UUID, delta int64, note string) (*MutationResponse, error) {
	if note == "" {
		return nil, shared.NewDomainError("NOTE_REQUIRED", "an adjustment requires an explanatory note")
	}

	return s.mutate(ctx, holderID, note, func(h *stock.StockHolder) (stock.EntryType, error) {
		if err := h.AdjustStock(delta); err != nil {
			return "", err
		}
		return stock.EntryTypeAdjustment, nil
	})
}

// CancelDelivery restores product stock for a delivery that was rolled
// back, recording a DELIVERY_CANCELLED entry
func (s *LedgerService) CancelDelivery(ctx context.Context, productID uuid.UUID, quantity int64, note string) (*MutationResponse, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "cancelled quantity must be positive")
	}

	return s.mutate(ctx, productID, note, func(h *stock.StockHolder) (stock.EntryType, error) {
		if h.Kind != stock.HolderKindProduct {
			return "", shared.NewDomainError("INVALID_STATE", "only product deliveries can be cancelled")
		}
		if err := h.IncreaseStock(quantity); err != nil {
			return "", err
		}
		return stock.EntryTypeDeliveryCancelled, nil
	})
}

// ProduceResponse reports the outcome of a production run
type ProduceResponse struct {
	Product  HolderResponse        `json:"product"`
	Entry    LedgerEntryResponse   `json:"entry"`
	Consumed []LedgerEntryResponse `json:"consumed"`
}

// Produce manufactures quantity units of a product: every composition
// part is decreased by its total requirement and the product increased,
// all inside one transaction. Any insufficiency aborts the whole run.
func (s *LedgerService) Produce(ctx context.Context, productID uuid.UUID, quantity int64, note string) (*ProduceResponse, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "produced quantity must be positive")
	}

	var result *ProduceResponse
	run := func(repos TransactionalRepositories) error {
		product, err := repos.Holders().FindLiveByID(ctx, productID)
		if err != nil {
			return err
		}
		if product.Kind != stock.HolderKindProduct {
			return shared.NewDomainError("INVALID_STATE", "only products can be produced")
		}

		lines, err := repos.Compositions().FindByProduct(ctx, product.ID)
		if err != nil {
			return err
		}

		consumed := make([]LedgerEntryResponse, 0, len(lines))
		for _, line := range lines {
			part, err := repos.Holders().FindLiveByID(ctx, line.PartID)
			if err != nil {
				return err
			}

			required := line.TotalRequired(quantity)
			before := part.StockQuantity
			if err := part.DecreaseStock(required); err != nil {
				return err
			}

			entry, err := stock.NewLedgerEntry(part, stock.EntryTypeOutbound,
				before, -required, part.StockQuantity,
				fmt.Sprintf("consumed producing %d x %s", quantity, product.Code))
			if err != nil {
				return err
			}
			if err := repos.Holders().SaveWithLock(ctx, part); err != nil {
				return err
			}
			if err := repos.Entries().Create(ctx, entry); err != nil {
				return err
			}
			consumed = append(consumed, toLedgerEntryResponse(entry))
		}

		before := product.StockQuantity
		if err := product.IncreaseStock(quantity); err != nil {
			return err
		}
		entry, err := stock.NewLedgerEntry(product, stock.EntryTypeProduce,
			before, quantity, product.StockQuantity, note)
		if err != nil {
			return err
		}
		if err := repos.Holders().SaveWithLock(ctx, product); err != nil {
			return err
		}
		if err := repos.Entries().Create(ctx, entry); err != nil {
			return err
		}

		result = &ProduceResponse{
			Product:  toHolderResponse(product),
			Entry:    toLedgerEntryResponse(entry),
			Consumed: consumed,
		}
		return nil
	}

	if err := s.executeWithRetry(ctx, productID, run); err != nil {
		return nil, err
	}
	return result, nil
}

// mutate runs one holder mutation with its paired ledger entry inside
// a retried transaction scope. The change quantity is derived from the
// stock level before and after the domain mutation.
func (s *LedgerService) mutate(ctx context.Context, holderID uuid.UUID, note string, apply func(h *stock.StockHolder) (stock.EntryType, error)) (*MutationResponse, error) {
	var result *MutationResponse
	run := func(repos TransactionalRepositories) error {
		holder, err := repos.Holders().FindLiveByID(ctx, holderID)
		if err != nil {
			return err
		}

		before := holder.StockQuantity
		entryType, err := apply(holder)
		if err != nil {
			return err
		}

		entry, err := stock.NewLedgerEntry(holder, entryType,
			before, holder.StockQuantity-before, holder.StockQuantity, note)
		if err != nil {
			return err
		}
		if err := repos.Holders().SaveWithLock(ctx, holder); err != nil {
			return err
		}
		if err := repos.Entries().Create(ctx, entry); err != nil {
			return err
		}

		result = &MutationResponse{
			Holder: toHolderResponse(holder),
			Entry:  toLedgerEntryResponse(entry),
		}
		return nil
	}

	if err := s.executeWithRetry(ctx, holderID, run); err != nil {
		return nil, err
	}
	return result, nil
}

// executeWithRetry re-runs a conflicted scope with fresh state up to
// the configured number of attempts
func (s *LedgerService) executeWithRetry(ctx context.Context, holderID uuid.UUID, run func(repos TransactionalRepositories) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.scope.Execute(ctx, run)
		if err == nil {
			return nil
		}
		if !isConcurrencyConflict(err) {
			return err
		}
		lastErr = err
		s.logger.Warn("stock mutation conflicted, retrying",
			zap.String("holder_id", holderID.String()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxRetries),
		)
	}
	return lastErr
}

func isConcurrencyConflict(err error) bool {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return true
	}
	var domainErr *shared.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == shared.ErrConcurrencyConflict.Code
}

// RecordInitial appends the INITIAL entry for a freshly created
// holder. It runs against the creation transaction's repositories so
// the holder row and its first entry commit together.
func RecordInitial(ctx context.Context, repos TransactionalRepositories, holder *stock.StockHolder) (*stock.LedgerEntry, error) {
	entry, err := stock.NewLedgerEntry(holder, stock.EntryTypeInitial,
		0, holder.StockQuantity, holder.StockQuantity, "initial stock")
	if err != nil {
		return nil, err
	}
	if err := repos.Entries().Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
