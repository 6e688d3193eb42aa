package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	stockapp "github.com/stockledger/backend/internal/application/stock"
	"github.com/stockledger/backend/internal/domain/stock"
)

// ProductHandler handles product-related API endpoints
type ProductHandler struct {
	BaseHandler
	holderService *stockapp.HolderService
	ledgerService *stockapp.LedgerService
	queryService  *stockapp.LedgerQueryService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(holderService *stockapp.HolderService, ledgerService *stockapp.LedgerService, queryService *stockapp.LedgerQueryService) *ProductHandler {
	return &ProductHandler{
		holderService: holderService,
		ledgerService: ledgerService,
		queryService:  queryService,
	}
}

// CompositionLineRequest declares one part requirement of a product
type CompositionLineRequest struct {
	PartID           string `json:"part_id" binding:"required,uuid"`
	RequiredQuantity int64  `json:"required_quantity" binding:"required,gt=0"`
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Code             string                   `json:"code" binding:"required,min=1,max=80"`
	Name             string                   `json:"name" binding:"required,min=1,max=200"`
	Specification    string                   `json:"specification" binding:"max=500"`
	Unit             string                   `json:"unit" binding:"required,min=1,max=20"`
	DefaultUnitPrice float64                  `json:"default_unit_price" binding:"gte=0"`
	InitialStock     int64                    `json:"initial_stock" binding:"gte=0"`
	Composition      []CompositionLineRequest `json:"composition" binding:"omitempty,dive"`
}

// UpdateProductRequest represents a request to update a product.
// A nil composition leaves the current composition untouched.
type UpdateProductRequest struct {
	Name             string                   `json:"name" binding:"required,min=1,max=200"`
	Specification    string                   `json:"specification" binding:"max=500"`
	Unit             string                   `json:"unit" binding:"required,min=1,max=20"`
	DefaultUnitPrice float64                  `json:"default_unit_price" binding:"gte=0"`
	Composition      []CompositionLineRequest `json:"composition" binding:"omitempty,dive"`
}

// ProduceRequest represents a production run request
type ProduceRequest struct {
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	Note     string `json:"note" binding:"max=500"`
}

// Create handles POST /stock/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	composition, err := toCompositionInputs(req.Composition)
	if err != nil {
		h.BadRequest(c, "Invalid part ID format in composition")
		return
	}

	product, err := h.holderService.CreateProduct(c.Request.Context(), stockapp.CreateProductInput{
		Code:             req.Code,
		Name:             req.Name,
		Specification:    req.Specification,
		Unit:             req.Unit,
		DefaultUnitPrice: toDecimal(req.DefaultUnitPrice),
		InitialStock:     req.InitialStock,
		Composition:      composition,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, product)
}

// List handles GET /stock/products
func (h *ProductHandler) List(c *gin.Context) {
	filter := listFilterFromQuery(c)

	result, err := h.holderService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetByID handles GET /stock/products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	product, err := h.holderService.GetHolder(c.Request.Context(), productID, stock.HolderKindProduct)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// Update handles PUT /stock/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	composition, err := toCompositionInputs(req.Composition)
	if err != nil {
		h.BadRequest(c, "Invalid part ID format in composition")
		return
	}

	product, err := h.holderService.UpdateProductInfo(c.Request.Context(), productID, stockapp.UpdateProductInput{
		Name:             req.Name,
		Specification:    req.Specification,
		Unit:             req.Unit,
		DefaultUnitPrice: toDecimal(req.DefaultUnitPrice),
		Composition:      composition,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete handles DELETE /stock/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.holderService.DeleteProduct(c.Request.Context(), productID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Increase handles POST /stock/products/:id/increase
func (h *ProductHandler) Increase(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req StockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.Increase(c.Request.Context(), productID, req.Quantity, req.Note)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Decrease handles POST /stock/products/:id/decrease
func (h *ProductHandler) Decrease(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req StockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.Decrease(c.Request.Context(), productID, req.Quantity, req.Note)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Adjust handles POST /stock/products/:id/adjust
func (h *ProductHandler) Adjust(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.Adjust(c.Request.Context(), productID, req.Delta, req.Note)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Produce handles POST /stock/products/:id/produce. Part consumption and
// the product increase commit or fail as one unit.
func (h *ProductHandler) Produce(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ProduceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.Produce(c.Request.Context(), productID, req.Quantity, req.Note)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// CancelDelivery handles POST /stock/products/:id/cancel-delivery
func (h *ProductHandler) CancelDelivery(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req StockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.CancelDelivery(c.Request.Context(), productID, req.Quantity, req.Note)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Ledger handles GET /stock/products/:id/ledger
func (h *ProductHandler) Ledger(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.queryService.HistoryFor(c.Request.Context(), productID, listFilterFromQuery(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Parts handles GET /stock/products/:id/parts
func (h *ProductHandler) Parts(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	lines, err := h.holderService.CompositionFor(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lines)
}

// PartsRequired handles GET /stock/products/:id/parts-required?quantity=n
func (h *ProductHandler) PartsRequired(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	quantity, err := strconv.ParseInt(c.DefaultQuery("quantity", "1"), 10, 64)
	if err != nil {
		h.BadRequest(c, "Invalid quantity format")
		return
	}

	requirements, err := h.holderService.PartsRequiredFor(c.Request.Context(), productID, quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, requirements)
}

func (h *ProductHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return uuid.Nil, false
	}
	return id, true
}

func toCompositionInputs(lines []CompositionLineRequest) ([]stockapp.CompositionLineInput, error) {
	if lines == nil {
		return nil, nil
	}
	inputs := make([]stockapp.CompositionLineInput, len(lines))
	for i, line := range lines {
		partID, err := uuid.Parse(line.PartID)
		if err != nil {
			return nil, err
		}
		inputs[i] = stockapp.CompositionLineInput{
			PartID:           partID,
			RequiredQuantity: line.RequiredQuantity,
		}
	}
	return inputs, nil
}
