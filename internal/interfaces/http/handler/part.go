package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	stockapp "github.com/stockledger/backend/internal/application/stock"
	"github.com/stockledger/backend/internal/domain/stock"
)

// PartHandler handles part-related API endpoints
type PartHandler struct {
	BaseHandler
	holderService *stockapp.HolderService
	ledgerService *stockapp.LedgerService
	queryService  *stockapp.LedgerQueryService
}

// NewPartHandler creates a new PartHandler
func NewPartHandler(holderService *stockapp.HolderService, ledgerService *stockapp.LedgerService, queryService *stockapp.LedgerQueryService) *PartHandler {
	return &PartHandler{
		holderService: holderService,
		ledgerService: ledgerService,
		queryService:  queryService,
	}
}

// CreatePartRequest represents a request to create a part
type CreatePartRequest struct {
	Code          string `json:"code" binding:"required,min=1,max=80"`
	Name          string `json:"name" binding:"required,min=1,max=200"`
	Specification string `json:"specification" binding:"max=500"`
	Unit          string `json:"unit" binding:"required,min=1,max=20"`
	InitialStock  int64  `json:"initial_stock" binding:"gte=0"`
}

// UpdatePartRequest represents a request to update a part's descriptive fields
type UpdatePartRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=200"`
	Specification string `json:"specification" binding:"max=500"`
	Unit          string `json:"unit" binding:"required,min=1,max=20"`
}

// StockMovementRequest represents an increase or decrease of stock
type StockMovementRequest struct {
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	Note     string `json:"note" binding:"max=500"`
}

// StockAdjustmentRequest represents a signed stock correction.
// The note is mandatory: adjustments must be explainable.
type StockAdjustmentRequest struct {
	Delta int64  `json:"delta" binding:"required"`
	Note  string `json:"note" binding:"required,min=1,max=500"`
}

// Create handles POST /stock/parts
func (h *PartHandler) Create(c *gin.Context) {
	var req CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	part, err := h.holderService.CreatePart(c.Request.Context(), stockapp.CreatePartInput{
		Code:          req.Code,
		Name:          req.Name,
		Specification: req.Specification,
		Unit:          req.Unit,
		InitialStock:  req.InitialStock,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, part)
}

// List handles GET /stock/parts
func (h *PartHandler) List(c *gin.Context) {
	filter := listFilterFromQuery(c)

	result, err := h.holderService.ListParts(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetByID handles GET /stock/parts/:id
func (h *PartHandler) GetByID(c *gin.Context) {
	partID, ok := h.parseID(c)
	if !ok {
		return
	}

	part, err := h.holderService.GetHolder(c.Request.Context(), partID, stock.HolderKindPart)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, part)
}

// Update handles PUT /stock/parts/:id
func (h *PartHandler) Update(c *gin.Context) {
	partID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	part, err := h.holderService.UpdatePartInfo(c.Request.Context(), partID, stockapp.UpdatePartInput{
		Name:          req.Name,
		Specification: req.Specification,
		Unit:          req.Unit,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, part)
}

// Delete handles DELETE /stock/parts/:id. Deletion is refused while any
// live product still lists the part in its composition.
func (h *PartHandler) Delete(c *gin.Context) {
	partID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.holderService.DeletePart(c.Request.Context(), partID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Increase handles POST /stock/parts/:id/increase
func (h *PartHandler) Increase(c *gin.Context) {
	partID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req StockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.Increase(c.Request.Context(), partID, req.Quantity, req.Note)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Decrease handles POST /stock/parts/:id/decrease
func (h *PartHandler) Decrease(c *gin.Context) {
	partID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req StockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.Decrease(c.Request.Context(), partID, req.Quantity, req.Note)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Adjust handles POST /stock/parts/:id/adjust
func (h *PartHandler) Adjust(c *gin.Context) {
	partID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.Adjust(c.Request.Context(), partID, req.Delta, req.Note)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Ledger handles GET /stock/parts/:id/ledger
func (h *PartHandler) Ledger(c *gin.Context) {
	partID, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.queryService.HistoryFor(c.Request.Context(), partID, listFilterFromQuery(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// UsedBy handles GET /stock/parts/:id/used-by
func (h *PartHandler) UsedBy(c *gin.Context) {
	partID, ok := h.parseID(c)
	if !ok {
		return
	}

	usages, err := h.holderService.ProductsUsingPart(c.Request.Context(), partID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, usages)
}

func (h *PartHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid part ID format")
		return uuid.Nil, false
	}
	return id, true
}

// listFilterFromQuery reads the common pagination parameters
func listFilterFromQuery(c *gin.Context) stockapp.ListFilter {
	var req listQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return stockapp.ListFilter{Page: 1, PageSize: 20}
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	return stockapp.ListFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
	}
}

type listQueryRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size" binding:"omitempty,max=100"`
	Search   string `form:"search"`
}
