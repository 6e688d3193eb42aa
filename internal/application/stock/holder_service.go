package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/stock"
)

// HolderService manages the lifecycle of parts and products. Stock
// levels are never changed here except through the INITIAL entry
// recorded at creation; all later movements go through LedgerService.
type HolderService struct {
	scope        TransactionScope
	holders      stock.HolderRepository
	compositions stock.CompositionRepository
	logger       *zap.Logger
}

// NewHolderService creates a new holder service
func NewHolderService(scope TransactionScope, holders stock.HolderRepository, compositions stock.CompositionRepository, logger *zap.Logger) *HolderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolderService{
		scope:        scope,
		holders:      holders,
		compositions: compositions,
		logger:       logger,
	}
}

// CreatePart creates a part and records its INITIAL ledger entry in
// one transaction
func (s *HolderService) CreatePart(ctx context.Context, input CreatePartInput) (*HolderResponse, error) {
	holder, err := stock.NewPart(input.Code, input.Name, input.Specification, input.Unit, input.InitialStock)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := assertCodeFree(ctx, repos.Holders(), stock.HolderKindPart, holder.Code); err != nil {
			return err
		}
		if err := repos.Holders().Create(ctx, holder); err != nil {
			return err
		}
		_, err := RecordInitial(ctx, repos, holder)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("part created",
		zap.String("id", holder.ID.String()),
		zap.String("code", holder.Code),
		zap.Int64("initial_stock", holder.StockQuantity),
	)
	resp := toHolderResponse(holder)
	return &resp, nil
}

// CreateProduct creates a product, stores its composition and records
// the INITIAL ledger entry in one transaction
func (s *HolderService) CreateProduct(ctx context.Context, input CreateProductInput) (*HolderResponse, error) {
	holder, err := stock.NewProduct(input.Code, input.Name, input.Specification, input.Unit, input.DefaultUnitPrice, input.InitialStock)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := assertCodeFree(ctx, repos.Holders(), stock.HolderKindProduct, holder.Code); err != nil {
			return err
		}
		if err := repos.Holders().Create(ctx, holder); err != nil {
			return err
		}

		lines, err := buildComposition(ctx, repos.Holders(), holder.ID, input.Composition)
		if err != nil {
			return err
		}
		if len(lines) > 0 {
			if err := repos.Compositions().ReplaceForProduct(ctx, holder.ID, lines); err != nil {
				return err
			}
		}

		_, err = RecordInitial(ctx, repos, holder)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("id", holder.ID.String()),
		zap.String("code", holder.Code),
		zap.Int("composition_lines", len(input.Composition)),
	)
	resp := toHolderResponse(holder)
	return &resp, nil
}

// UpdatePartInfo updates a part's descriptive fields
func (s *HolderService) UpdatePartInfo(ctx context.Context, partID uuid.UUID, input UpdatePartInput) (*HolderResponse, error) {
	var resp HolderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		part, err := findLiveOfKind(ctx, repos.Holders(), partID, stock.HolderKindPart)
		if err != nil {
			return err
		}
		if err := part.UpdateInfo(input.Name, input.Specification, input.Unit); err != nil {
			return err
		}
		if err := repos.Holders().SaveWithLock(ctx, part); err != nil {
			return err
		}
		resp = toHolderResponse(part)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProductInfo updates a product's descriptive fields and price.
// A non-nil composition replaces the current one wholesale.
func (s *HolderService) UpdateProductInfo(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*HolderResponse, error) {
	var resp HolderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := findLiveOfKind(ctx, repos.Holders(), productID, stock.HolderKindProduct)
		if err != nil {
			return err
		}
		if err := product.UpdateInfo(input.Name, input.Specification, input.Unit); err != nil {
			return err
		}
		if err := product.SetDefaultUnitPrice(input.DefaultUnitPrice); err != nil {
			return err
		}
		if err := repos.Holders().SaveWithLock(ctx, product); err != nil {
			return err
		}

		if input.Composition != nil {
			lines, err := buildComposition(ctx, repos.Holders(), product.ID, input.Composition)
			if err != nil {
				return err
			}
			if err := repos.Compositions().ReplaceForProduct(ctx, product.ID, lines); err != nil {
				return err
			}
		}

		resp = toHolderResponse(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeletePart soft deletes a part unless a live product still uses it
func (s *HolderService) DeletePart(ctx context.Context, partID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		part, err := findOfKind(ctx, repos.Holders(), partID, stock.HolderKindPart)
		if err != nil {
			return err
		}

		guard := NewReferentialGuard(repos.Compositions())
		if err := guard.AssertDeletable(ctx, part); err != nil {
			return err
		}

		if err := part.MarkDeleted(); err != nil {
			return err
		}
		return repos.Holders().SaveWithLock(ctx, part)
	})
	if err != nil {
		return err
	}

	s.logger.Info("part deleted", zap.String("id", partID.String()))
	return nil
}

// DeleteProduct soft deletes a product and removes its composition in
// the same transaction
func (s *HolderService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := findOfKind(ctx, repos.Holders(), productID, stock.HolderKindProduct)
		if err != nil {
			return err
		}
		if err := product.MarkDeleted(); err != nil {
			return err
		}
		if err := repos.Holders().SaveWithLock(ctx, product); err != nil {
			return err
		}
		return repos.Compositions().DeleteForProduct(ctx, product.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("product deleted", zap.String("id", productID.String()))
	return nil
}

// GetHolder retrieves a live holder of the given kind
func (s *HolderService) GetHolder(ctx context.Context, id uuid.UUID, kind stock.HolderKind) (*HolderResponse, error) {
	holder, err := findLiveOfKind(ctx, s.holders, id, kind)
	if err != nil {
		return nil, err
	}
	resp := toHolderResponse(holder)
	return &resp, nil
}

// ListParts lists live parts with pagination
func (s *HolderService) ListParts(ctx context.Context, filter ListFilter) (*shared.Paginated[HolderResponse], error) {
	return s.listByKind(ctx, stock.HolderKindPart, filter)
}

// ListProducts lists live products with pagination
func (s *HolderService) ListProducts(ctx context.Context, filter ListFilter) (*shared.Paginated[HolderResponse], error) {
	return s.listByKind(ctx, stock.HolderKindProduct, filter)
}

func (s *HolderService) listByKind(ctx context.Context, kind stock.HolderKind, filter ListFilter) (*shared.Paginated[HolderResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search

	holders, err := s.holders.FindLiveByKind(ctx, kind, f)
	if err != nil {
		return nil, err
	}
	total, err := s.holders.CountLiveByKind(ctx, kind, f)
	if err != nil {
		return nil, err
	}

	items := make([]HolderResponse, len(holders))
	for i := range holders {
		items[i] = toHolderResponse(&holders[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}

// CompositionFor returns the composition of a live product with part
// details resolved
func (s *HolderService) CompositionFor(ctx context.Context, productID uuid.UUID) ([]CompositionLineResponse, error) {
	if _, err := findLiveOfKind(ctx, s.holders, productID, stock.HolderKindProduct); err != nil {
		return nil, err
	}

	lines, err := s.compositions.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	result := make([]CompositionLineResponse, 0, len(lines))
	for _, line := range lines {
		part, err := s.holders.FindByID(ctx, line.PartID)
		if err != nil {
			return nil, err
		}
		result = append(result, CompositionLineResponse{
			PartID:           part.ID,
			PartCode:         part.Code,
			PartName:         part.Name,
			Unit:             part.Unit,
			RequiredQuantity: line.RequiredQuantity,
		})
	}
	return result, nil
}

// PartsRequiredFor calculates the part quantities needed to produce
// the given number of product units, with current availability
func (s *HolderService) PartsRequiredFor(ctx context.Context, productID uuid.UUID, quantity int64) ([]PartRequirement, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "requested quantity must be positive")
	}
	if _, err := findLiveOfKind(ctx, s.holders, productID, stock.HolderKindProduct); err != nil {
		return nil, err
	}

	lines, err := s.compositions.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	result := make([]PartRequirement, 0, len(lines))
	for _, line := range lines {
		part, err := s.holders.FindByID(ctx, line.PartID)
		if err != nil {
			return nil, err
		}
		total := line.TotalRequired(quantity)
		result = append(result, PartRequirement{
			PartID:          part.ID,
			PartCode:        part.Code,
			PartName:        part.Name,
			Unit:            part.Unit,
			RequiredPerUnit: line.RequiredQuantity,
			TotalRequired:   total,
			AvailableStock:  part.StockQuantity,
			Sufficient:      part.StockQuantity >= total,
		})
	}
	return result, nil
}

// ProductsUsingPart lists the live products whose composition includes
// the part
func (s *HolderService) ProductsUsingPart(ctx context.Context, partID uuid.UUID) ([]ProductUsage, error) {
	if _, err := findLiveOfKind(ctx, s.holders, partID, stock.HolderKindPart); err != nil {
		return nil, err
	}

	lines, err := s.compositions.FindActiveByPart(ctx, partID)
	if err != nil {
		return nil, err
	}

	result := make([]ProductUsage, 0, len(lines))
	for _, line := range lines {
		product, err := s.holders.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		result = append(result, ProductUsage{
			ProductID:        product.ID,
			ProductCode:      product.Code,
			ProductName:      product.Name,
			RequiredQuantity: line.RequiredQuantity,
		})
	}
	return result, nil
}

// findLiveOfKind loads a live holder and hides kind mismatches behind
// not-found, so part endpoints cannot leak products and vice versa
func findLiveOfKind(ctx context.Context, holders stock.HolderRepository, id uuid.UUID, kind stock.HolderKind) (*stock.StockHolder, error) {
	holder, err := holders.FindLiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if holder.Kind != kind {
		return nil, shared.ErrNotFound
	}
	return holder, nil
}

// findOfKind is the deletion variant: it also returns soft-deleted
// holders so a second delete can fail with the precise reason
func findOfKind(ctx context.Context, holders stock.HolderRepository, id uuid.UUID, kind stock.HolderKind) (*stock.StockHolder, error) {
	holder, err := holders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if holder.Kind != kind {
		return nil, shared.ErrNotFound
	}
	return holder, nil
}

func assertCodeFree(ctx context.Context, holders stock.HolderRepository, kind stock.HolderKind, code string) error {
	exists, err := holders.ExistsLiveByCode(ctx, kind, code)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("DUPLICATE_CODE",
			fmt.Sprintf("%s code '%s' is already in use", kind, code))
	}
	return nil
}

// buildComposition validates every referenced part and builds the
// composition lines for a product
func buildComposition(ctx context.Context, holders stock.HolderRepository, productID uuid.UUID, inputs []CompositionLineInput) ([]stock.CompositionLine, error) {
	lines := make([]stock.CompositionLine, 0, len(inputs))
	seen := make(map[uuid.UUID]bool, len(inputs))
	for _, input := range inputs {
		if seen[input.PartID] {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("part %s appears more than once in the composition", input.PartID))
		}
		seen[input.PartID] = true

		part, err := findLiveOfKind(ctx, holders, input.PartID, stock.HolderKindPart)
		if err != nil {
			return nil, err
		}
		line, err := stock.NewCompositionLine(productID, part.ID, input.RequiredQuantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, nil
}
