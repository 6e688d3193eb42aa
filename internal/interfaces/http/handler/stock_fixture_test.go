package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	stockapp "github.com/stockledger/backend/internal/application/stock"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/stock"
)

// fakeStore backs the in-memory repositories used by the handler tests.
// Holders are stored by value so reads hand out copies.
type fakeStore struct {
	holders map[uuid.UUID]stock.StockHolder
	entries []stock.LedgerEntry
	lines   []stock.CompositionLine
}

func newFakeStore() *fakeStore {
	return &fakeStore{holders: make(map[uuid.UUID]stock.StockHolder)}
}

type fakeHolderRepo struct{ store *fakeStore }

func (r *fakeHolderRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.StockHolder, error) {
	h, ok := r.store.holders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &h, nil
}

func (r *fakeHolderRepo) FindLiveByID(ctx context.Context, id uuid.UUID) (*stock.StockHolder, error) {
	h, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.IsDeleted() {
		return nil, shared.ErrNotFound
	}
	return h, nil
}

func (r *fakeHolderRepo) FindLiveByKind(_ context.Context, kind stock.HolderKind, filter shared.Filter) ([]stock.StockHolder, error) {
	var result []stock.StockHolder
	for _, h := range r.store.holders {
		if h.Kind == kind && !h.IsDeleted() {
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })

	offset := (filter.Page - 1) * filter.PageSize
	if offset >= len(result) {
		return nil, nil
	}
	end := min(offset+filter.PageSize, len(result))
	return result[offset:end], nil
}

func (r *fakeHolderRepo) CountLiveByKind(_ context.Context, kind stock.HolderKind, _ shared.Filter) (int64, error) {
	var count int64
	for _, h := range r.store.holders {
		if h.Kind == kind && !h.IsDeleted() {
			count++
		}
	}
	return count, nil
}

func (r *fakeHolderRepo) ExistsLiveByCode(_ context.Context, kind stock.HolderKind, code string) (bool, error) {
	for _, h := range r.store.holders {
		if h.Kind == kind && h.Code == code && !h.IsDeleted() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeHolderRepo) Create(_ context.Context, holder *stock.StockHolder) error {
	r.store.holders[holder.ID] = *holder
	return nil
}

func (r *fakeHolderRepo) Save(_ context.Context, holder *stock.StockHolder) error {
	r.store.holders[holder.ID] = *holder
	return nil
}

func (r *fakeHolderRepo) SaveWithLock(_ context.Context, holder *stock.StockHolder) error {
	existing, ok := r.store.holders[holder.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if existing.Version != holder.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.store.holders[holder.ID] = *holder
	return nil
}

type fakeEntryRepo struct{ store *fakeStore }

func (r *fakeEntryRepo) Create(_ context.Context, entry *stock.LedgerEntry) error {
	r.store.entries = append(r.store.entries, *entry)
	return nil
}

func (r *fakeEntryRepo) FindByHolder(_ context.Context, holderID uuid.UUID, _ shared.Filter) ([]stock.LedgerEntry, error) {
	var result []stock.LedgerEntry
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		if r.store.entries[i].HolderID == holderID {
			result = append(result, r.store.entries[i])
		}
	}
	return result, nil
}

func (r *fakeEntryRepo) CountByHolder(_ context.Context, holderID uuid.UUID) (int64, error) {
	var count int64
	for _, e := range r.store.entries {
		if e.HolderID == holderID {
			count++
		}
	}
	return count, nil
}

func (r *fakeEntryRepo) FindAll(_ context.Context, _ shared.Filter) ([]stock.LedgerEntry, error) {
	result := make([]stock.LedgerEntry, 0, len(r.store.entries))
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		result = append(result, r.store.entries[i])
	}
	return result, nil
}

func (r *fakeEntryRepo) CountAll(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.store.entries)), nil
}

type fakeCompositionRepo struct{ store *fakeStore }

func (r *fakeCompositionRepo) ReplaceForProduct(ctx context.Context, productID uuid.UUID, lines []stock.CompositionLine) error {
	if err := r.DeleteForProduct(ctx, productID); err != nil {
		return err
	}
	r.store.lines = append(r.store.lines, lines...)
	return nil
}

func (r *fakeCompositionRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]stock.CompositionLine, error) {
	var result []stock.CompositionLine
	for _, l := range r.store.lines {
		if l.ProductID == productID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *fakeCompositionRepo) FindActiveByPart(_ context.Context, partID uuid.UUID) ([]stock.CompositionLine, error) {
	var result []stock.CompositionLine
	for _, l := range r.store.lines {
		if l.PartID != partID {
			continue
		}
		if product, ok := r.store.holders[l.ProductID]; ok && !product.IsDeleted() {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *fakeCompositionRepo) CountActiveProductsUsingPart(ctx context.Context, partID uuid.UUID) (int64, error) {
	lines, err := r.FindActiveByPart(ctx, partID)
	if err != nil {
		return 0, err
	}
	products := make(map[uuid.UUID]bool)
	for _, l := range lines {
		products[l.ProductID] = true
	}
	return int64(len(products)), nil
}

func (r *fakeCompositionRepo) DeleteForProduct(_ context.Context, productID uuid.UUID) error {
	kept := r.store.lines[:0]
	for _, l := range r.store.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	r.store.lines = kept
	return nil
}

type fakeRepos struct {
	holders      stock.HolderRepository
	entries      stock.LedgerEntryRepository
	compositions stock.CompositionRepository
}

func (r *fakeRepos) Holders() stock.HolderRepository           { return r.holders }
func (r *fakeRepos) Entries() stock.LedgerEntryRepository      { return r.entries }
func (r *fakeRepos) Compositions() stock.CompositionRepository { return r.compositions }

// newStockRouter wires the real services over in-memory repositories
// and registers the stock routes the way the server does
func newStockRouter(t *testing.T) (*gin.Engine, *fakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	repos := &fakeRepos{
		holders:      &fakeHolderRepo{store: store},
		entries:      &fakeEntryRepo{store: store},
		compositions: &fakeCompositionRepo{store: store},
	}
	scope := &stockapp.NoOpTransactionScope{Repos: repos}
	logger := zap.NewNop()

	holderService := stockapp.NewHolderService(scope, repos.holders, repos.compositions, logger)
	ledgerService := stockapp.NewLedgerService(scope, 3, logger)
	queryService := stockapp.NewLedgerQueryService(repos.holders, repos.entries)

	partHandler := NewPartHandler(holderService, ledgerService, queryService)
	productHandler := NewProductHandler(holderService, ledgerService, queryService)
	ledgerHandler := NewLedgerHandler(queryService)

	engine := gin.New()
	api := engine.Group("/api/v1")

	parts := api.Group("/stock/parts")
	parts.POST("", partHandler.Create)
	parts.GET("", partHandler.List)
	parts.GET("/:id", partHandler.GetByID)
	parts.PUT("/:id", partHandler.Update)
	parts.DELETE("/:id", partHandler.Delete)
	parts.POST("/:id/increase", partHandler.Increase)
	parts.POST("/:id/decrease", partHandler.Decrease)
	parts.POST("/:id/adjust", partHandler.Adjust)
	parts.GET("/:id/ledger", partHandler.Ledger)
	parts.GET("/:id/used-by", partHandler.UsedBy)

	products := api.Group("/stock/products")
	products.POST("", productHandler.Create)
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.GetByID)
	products.PUT("/:id", productHandler.Update)
	products.DELETE("/:id", productHandler.Delete)
	products.POST("/:id/increase", productHandler.Increase)
	products.POST("/:id/decrease", productHandler.Decrease)
	products.POST("/:id/adjust", productHandler.Adjust)
	products.POST("/:id/produce", productHandler.Produce)
	products.POST("/:id/cancel-delivery", productHandler.CancelDelivery)
	products.GET("/:id/ledger", productHandler.Ledger)
	products.GET("/:id/parts", productHandler.Parts)
	products.GET("/:id/parts-required", productHandler.PartsRequired)

	api.GET("/stock/ledger", ledgerHandler.List)

	return engine, store
}

func seedStorePart(t *testing.T, store *fakeStore, code string, quantity int64) *stock.StockHolder {
	t.Helper()
	part, err := stock.NewPart(code, code+" part", "", "pcs", quantity)
	require.NoError(t, err)
	store.holders[part.ID] = *part
	return part
}

func seedStoreProduct(t *testing.T, store *fakeStore, code string, quantity int64) *stock.StockHolder {
	t.Helper()
	product, err := stock.NewProduct(code, code+" product", "", "pcs", decimal.NewFromInt(250), quantity)
	require.NoError(t, err)
	store.holders[product.ID] = *product
	return product
}

func seedStoreComposition(t *testing.T, store *fakeStore, productID, partID uuid.UUID, required int64) {
	t.Helper()
	line, err := stock.NewCompositionLine(productID, partID, required)
	require.NoError(t, err)
	store.lines = append(store.lines, *line)
}

// doJSON performs a request with an optional JSON body and decodes the
// envelope of the response
func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	envelope := make(map[string]any)
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

func errorCode(t *testing.T, envelope map[string]any) string {
	t.Helper()
	errObj, ok := envelope["error"].(map[string]any)
	require.True(t, ok, "response should carry an error object")
	code, _ := errObj["code"].(string)
	return code
}

func dataObject(t *testing.T, envelope map[string]any) map[string]any {
	t.Helper()
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok, "response should carry a data object")
	return data
}
