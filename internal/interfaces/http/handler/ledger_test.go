package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerHandler_List(t *testing.T) {
	t.Run("returns movements across all holders newest first", func(t *testing.T) {
		engine, store := newStockRouter(t)
		part := seedStorePart(t, store, "BOLT-M8", 0)
		product := seedStoreProduct(t, store, "FRAME-STD", 0)

		w, _ := doJSON(t, engine, http.MethodPost,
			fmt.Sprintf("/api/v1/stock/parts/%s/increase", part.ID), StockMovementRequest{Quantity: 10})
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = doJSON(t, engine, http.MethodPost,
			fmt.Sprintf("/api/v1/stock/products/%s/increase", product.ID), StockMovementRequest{Quantity: 5})
		require.Equal(t, http.StatusOK, w.Code)

		w, envelope := doJSON(t, engine, http.MethodGet, "/api/v1/stock/ledger", nil)

		require.Equal(t, http.StatusOK, w.Code)
		items := envelope["data"].([]any)
		require.Len(t, items, 2)
		newest := items[0].(map[string]any)
		assert.Equal(t, product.ID.String(), newest["holder_id"])
		assert.Equal(t, "PRODUCE", newest["entry_type"])
		meta := envelope["meta"].(map[string]any)
		assert.Equal(t, float64(2), meta["total"])
	})

	t.Run("keeps history of deleted holders readable", func(t *testing.T) {
		engine, store := newStockRouter(t)
		part := seedStorePart(t, store, "BOLT-M8", 0)

		w, _ := doJSON(t, engine, http.MethodPost,
			fmt.Sprintf("/api/v1/stock/parts/%s/increase", part.ID), StockMovementRequest{Quantity: 10})
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = doJSON(t, engine, http.MethodPost,
			fmt.Sprintf("/api/v1/stock/parts/%s/decrease", part.ID), StockMovementRequest{Quantity: 10})
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = doJSON(t, engine, http.MethodDelete, "/api/v1/stock/parts/"+part.ID.String(), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w, envelope := doJSON(t, engine, http.MethodGet, "/api/v1/stock/ledger", nil)

		require.Equal(t, http.StatusOK, w.Code)
		items := envelope["data"].([]any)
		assert.Len(t, items, 2)

		// The per-holder history also survives deletion
		w, envelope = doJSON(t, engine, http.MethodGet,
			fmt.Sprintf("/api/v1/stock/parts/%s/ledger", part.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		items = envelope["data"].([]any)
		assert.Len(t, items, 2)
	})
}
