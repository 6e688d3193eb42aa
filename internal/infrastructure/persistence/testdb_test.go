package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stockledger/backend/internal/domain/stock"
)

// newTestDB opens an isolated in-memory SQLite database with the
// stock schema migrated. Each call gets its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&stock.StockHolder{},
		&stock.LedgerEntry{},
		&stock.CompositionLine{},
	))
	return db
}

func createPart(t *testing.T, db *gorm.DB, code string, quantity int64) *stock.StockHolder {
	t.Helper()
	part, err := stock.NewPart(code, code+" part", "", "pcs", quantity)
	require.NoError(t, err)
	require.NoError(t, NewGormHolderRepository(db).Create(context.Background(), part))
	return part
}

func createProduct(t *testing.T, db *gorm.DB, code string, quantity int64) *stock.StockHolder {
	t.Helper()
	product, err := stock.NewProduct(code, code+" product", "", "pcs", decimal.NewFromInt(100), quantity)
	require.NoError(t, err)
	require.NoError(t, NewGormHolderRepository(db).Create(context.Background(), product))
	return product
}
