package handler

import (
	"github.com/gin-gonic/gin"

	stockapp "github.com/stockledger/backend/internal/application/stock"
)

// LedgerHandler serves the global movement history
type LedgerHandler struct {
	BaseHandler
	queryService *stockapp.LedgerQueryService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(queryService *stockapp.LedgerQueryService) *LedgerHandler {
	return &LedgerHandler{
		queryService: queryService,
	}
}

// List handles GET /stock/ledger. Entries are returned newest first
// across all parts and products, including soft deleted ones.
func (h *LedgerHandler) List(c *gin.Context) {
	result, err := h.queryService.AllHistory(c.Request.Context(), listFilterFromQuery(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
