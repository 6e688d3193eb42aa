package stock

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/shared"
)

func createTestPart(t *testing.T) *StockHolder {
	t.Helper()
	part, err := NewPart("BOLT-M8", "M8 Bolt", "Stainless, 40mm", "pcs", 100)
	require.NoError(t, err)
	return part
}

func createTestProduct(t *testing.T) *StockHolder {
	t.Helper()
	product, err := NewProduct("FRAME-01", "Steel Frame", "Welded frame", "pcs", decimal.NewFromInt(250), 10)
	require.NoError(t, err)
	return product
}

func TestNewPart(t *testing.T) {
	t.Run("creates valid part", func(t *testing.T) {
		part, err := NewPart("BOLT-M8", "M8 Bolt", "Stainless", "pcs", 50)
		require.NoError(t, err)

		assert.Equal(t, HolderKindPart, part.Kind)
		assert.Equal(t, "BOLT-M8", part.Code)
		assert.Equal(t, int64(50), part.StockQuantity)
		assert.Equal(t, 1, part.Version)
		assert.False(t, part.IsDeleted())
		assert.True(t, part.DefaultUnitPrice.IsZero())
	})

	t.Run("trims code and name", func(t *testing.T) {
		part, err := NewPart("  BOLT-M8  ", "  M8 Bolt ", "", "pcs", 0)
		require.NoError(t, err)

		assert.Equal(t, "BOLT-M8", part.Code)
		assert.Equal(t, "M8 Bolt", part.Name)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewPart("  ", "M8 Bolt", "", "pcs", 0)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("rejects negative initial stock", func(t *testing.T) {
		_, err := NewPart("BOLT-M8", "M8 Bolt", "", "pcs", -1)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_QUANTITY", domainErr.Code)
	})
}

func TestNewProduct(t *testing.T) {
	t.Run("creates valid product", func(t *testing.T) {
		product, err := NewProduct("FRAME-01", "Steel Frame", "", "pcs", decimal.NewFromInt(250), 0)
		require.NoError(t, err)

		assert.Equal(t, HolderKindProduct, product.Kind)
		assert.True(t, product.DefaultUnitPrice.Equal(decimal.NewFromInt(250)))
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct("FRAME-01", "Steel Frame", "", "pcs", decimal.NewFromInt(-1), 0)
		assert.Error(t, err)
	})
}

func TestStockHolder_IncreaseStock(t *testing.T) {
	t.Run("adds quantity and bumps version", func(t *testing.T) {
		part := createTestPart(t)

		err := part.IncreaseStock(25)
		require.NoError(t, err)

		assert.Equal(t, int64(125), part.StockQuantity)
		assert.Equal(t, 2, part.Version)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		part := createTestPart(t)

		err := part.IncreaseStock(0)
		require.Error(t, err)
		assert.Equal(t, int64(100), part.StockQuantity)
		assert.Equal(t, 1, part.Version)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		part := createTestPart(t)

		err := part.IncreaseStock(-5)
		assert.Error(t, err)
	})

	t.Run("rejects deleted holder", func(t *testing.T) {
		part := createTestPart(t)
		require.NoError(t, part.MarkDeleted())

		err := part.IncreaseStock(5)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_DELETED", domainErr.Code)
	})
}

func TestStockHolder_DecreaseStock(t *testing.T) {
	t.Run("removes quantity", func(t *testing.T) {
		part := createTestPart(t)

		err := part.DecreaseStock(40)
		require.NoError(t, err)

		assert.Equal(t, int64(60), part.StockQuantity)
		assert.Equal(t, 2, part.Version)
	})

	t.Run("allows draining to exactly zero", func(t *testing.T) {
		part := createTestPart(t)

		err := part.DecreaseStock(100)
		require.NoError(t, err)
		assert.Equal(t, int64(0), part.StockQuantity)
	})

	t.Run("rejects insufficient stock", func(t *testing.T) {
		part := createTestPart(t)

		err := part.DecreaseStock(101)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
		assert.Contains(t, domainErr.Message, "required 101, available 100")
		assert.Equal(t, int64(100), part.StockQuantity)
		assert.Equal(t, 1, part.Version)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		part := createTestPart(t)

		assert.Error(t, part.DecreaseStock(0))
		assert.Error(t, part.DecreaseStock(-3))
	})
}

func TestStockHolder_AdjustStock(t *testing.T) {
	t.Run("applies positive correction", func(t *testing.T) {
		part := createTestPart(t)

		err := part.AdjustStock(30)
		require.NoError(t, err)

		assert.Equal(t, int64(130), part.StockQuantity)
		assert.Equal(t, 2, part.Version)
	})

	t.Run("applies negative correction", func(t *testing.T) {
		part := createTestPart(t)

		err := part.AdjustStock(-30)
		require.NoError(t, err)
		assert.Equal(t, int64(70), part.StockQuantity)
	})

	t.Run("allows draining to exactly zero", func(t *testing.T) {
		part := createTestPart(t)

		err := part.AdjustStock(-100)
		require.NoError(t, err)
		assert.Equal(t, int64(0), part.StockQuantity)
	})

	t.Run("rejects zero delta", func(t *testing.T) {
		part := createTestPart(t)

		err := part.AdjustStock(0)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_QUANTITY", domainErr.Code)
	})

	t.Run("rejects correction below zero", func(t *testing.T) {
		part := createTestPart(t)

		err := part.AdjustStock(-101)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
		assert.Equal(t, int64(100), part.StockQuantity)
	})
}

func TestStockHolder_UpdateInfo(t *testing.T) {
	t.Run("updates descriptive fields only", func(t *testing.T) {
		part := createTestPart(t)
		before := part.StockQuantity

		err := part.UpdateInfo("M8 Bolt v2", "Galvanized", "box")
		require.NoError(t, err)

		assert.Equal(t, "M8 Bolt v2", part.Name)
		assert.Equal(t, "Galvanized", part.Specification)
		assert.Equal(t, "box", part.Unit)
		assert.Equal(t, before, part.StockQuantity)
		assert.Equal(t, 2, part.Version)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		part := createTestPart(t)
		assert.Error(t, part.UpdateInfo("  ", "", "pcs"))
	})
}

func TestStockHolder_SetDefaultUnitPrice(t *testing.T) {
	t.Run("updates product price", func(t *testing.T) {
		product := createTestProduct(t)

		err := product.SetDefaultUnitPrice(decimal.NewFromFloat(299.90))
		require.NoError(t, err)
		assert.True(t, product.DefaultUnitPrice.Equal(decimal.NewFromFloat(299.90)))
	})

	t.Run("rejects price on a part", func(t *testing.T) {
		part := createTestPart(t)

		err := part.SetDefaultUnitPrice(decimal.NewFromInt(10))
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestStockHolder_MarkDeleted(t *testing.T) {
	t.Run("sets deletion timestamp and renames code", func(t *testing.T) {
		part := createTestPart(t)

		err := part.MarkDeleted()
		require.NoError(t, err)

		assert.True(t, part.IsDeleted())
		assert.True(t, strings.HasPrefix(part.Code, "BOLT-M8_DELETED_"))
		assert.Equal(t, 2, part.Version)
	})

	t.Run("rejects double deletion", func(t *testing.T) {
		part := createTestPart(t)
		require.NoError(t, part.MarkDeleted())

		err := part.MarkDeleted()
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_DELETED", domainErr.Code)
	})
}
