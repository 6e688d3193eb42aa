package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/stock"
)

// appendEntry creates an entry at an explicit point in time so
// ordering assertions are deterministic.
func appendEntry(t *testing.T, repo *GormLedgerEntryRepository, holder *stock.StockHolder, entryType stock.EntryType, before, change int64, note string, at time.Time) *stock.LedgerEntry {
	t.Helper()
	entry, err := stock.NewLedgerEntry(holder, entryType, before, change, before+change, note)
	require.NoError(t, err)
	entry.CreatedAt = at
	require.NoError(t, repo.Create(context.Background(), entry))
	return entry
}

func TestGormLedgerEntryRepository_FindByHolder(t *testing.T) {
	t.Run("returns entries newest first", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormLedgerEntryRepository(db)
		part := createPart(t, db, "BOLT-M8", 0)

		base := time.Now().Add(-time.Hour)
		appendEntry(t, repo, part, stock.EntryTypeInbound, 0, 10, "first", base)
		appendEntry(t, repo, part, stock.EntryTypeInbound, 10, 5, "second", base.Add(time.Minute))
		appendEntry(t, repo, part, stock.EntryTypeOutbound, 15, -3, "third", base.Add(2*time.Minute))

		entries, err := repo.FindByHolder(context.Background(), part.ID, shared.DefaultFilter())
		require.NoError(t, err)

		require.Len(t, entries, 3)
		assert.Equal(t, "third", entries[0].Note)
		assert.Equal(t, "second", entries[1].Note)
		assert.Equal(t, "first", entries[2].Note)
	})

	t.Run("paginates", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormLedgerEntryRepository(db)
		part := createPart(t, db, "BOLT-M8", 0)

		base := time.Now().Add(-time.Hour)
		for i := range 5 {
			appendEntry(t, repo, part, stock.EntryTypeInbound, int64(i), 1, "", base.Add(time.Duration(i)*time.Minute))
		}

		filter := shared.DefaultFilter()
		filter.Page = 2
		filter.PageSize = 2

		entries, err := repo.FindByHolder(context.Background(), part.ID, filter)
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		count, err := repo.CountByHolder(context.Background(), part.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("does not mix entries of other holders", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormLedgerEntryRepository(db)
		bolt := createPart(t, db, "BOLT-M8", 0)
		tube := createPart(t, db, "TUBE-20", 0)

		now := time.Now()
		appendEntry(t, repo, bolt, stock.EntryTypeInbound, 0, 10, "", now)
		appendEntry(t, repo, tube, stock.EntryTypeInbound, 0, 7, "", now)

		entries, err := repo.FindByHolder(context.Background(), bolt.ID, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, bolt.ID, entries[0].HolderID)
	})
}

func TestGormLedgerEntryRepository_FindAll(t *testing.T) {
	t.Run("returns entries across holders newest first", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormLedgerEntryRepository(db)
		bolt := createPart(t, db, "BOLT-M8", 0)
		frame := createProduct(t, db, "FRAME-STD", 0)

		base := time.Now().Add(-time.Hour)
		appendEntry(t, repo, bolt, stock.EntryTypeInbound, 0, 10, "", base)
		appendEntry(t, repo, frame, stock.EntryTypeProduce, 0, 2, "", base.Add(time.Minute))

		entries, err := repo.FindAll(context.Background(), shared.DefaultFilter())
		require.NoError(t, err)

		require.Len(t, entries, 2)
		assert.Equal(t, frame.ID, entries[0].HolderID)
		assert.Equal(t, bolt.ID, entries[1].HolderID)
	})

	t.Run("filters by entry type and holder kind", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormLedgerEntryRepository(db)
		bolt := createPart(t, db, "BOLT-M8", 0)
		frame := createProduct(t, db, "FRAME-STD", 0)

		base := time.Now().Add(-time.Hour)
		appendEntry(t, repo, bolt, stock.EntryTypeInbound, 0, 10, "", base)
		appendEntry(t, repo, bolt, stock.EntryTypeOutbound, 10, -4, "", base.Add(time.Minute))
		appendEntry(t, repo, frame, stock.EntryTypeProduce, 0, 2, "", base.Add(2*time.Minute))

		filter := shared.DefaultFilter()
		filter.Filters = map[string]interface{}{"entry_type": stock.EntryTypeInbound}

		entries, err := repo.FindAll(context.Background(), filter)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, stock.EntryTypeInbound, entries[0].EntryType)

		filter.Filters = map[string]interface{}{"holder_kind": stock.HolderKindProduct}
		count, err := repo.CountAll(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormLedgerEntryRepository_InterfaceCompliance(t *testing.T) {
	var _ stock.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
}
