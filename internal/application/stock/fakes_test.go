package stock

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/stock"
)

// memStore is an in-memory data store shared by the fake repositories.
// Holders are stored by value so repository reads hand out copies,
// mirroring how a real database isolates loaded rows.
type memStore struct {
	mu      sync.Mutex
	holders map[uuid.UUID]stock.StockHolder
	entries []stock.LedgerEntry
	lines   []stock.CompositionLine
}

func newMemStore() *memStore {
	return &memStore{holders: make(map[uuid.UUID]stock.StockHolder)}
}

func (s *memStore) snapshot() (map[uuid.UUID]stock.StockHolder, []stock.LedgerEntry, []stock.CompositionLine) {
	holders := make(map[uuid.UUID]stock.StockHolder, len(s.holders))
	for k, v := range s.holders {
		holders[k] = v
	}
	entries := append([]stock.LedgerEntry(nil), s.entries...)
	lines := append([]stock.CompositionLine(nil), s.lines...)
	return holders, entries, lines
}

func (s *memStore) restore(holders map[uuid.UUID]stock.StockHolder, entries []stock.LedgerEntry, lines []stock.CompositionLine) {
	s.holders = holders
	s.entries = entries
	s.lines = lines
}

// memRepos bundles the fake repositories. Individual fields can be
// swapped for failure-injecting wrappers.
type memRepos struct {
	holders      stock.HolderRepository
	entries      stock.LedgerEntryRepository
	compositions stock.CompositionRepository
}

func (r *memRepos) Holders() stock.HolderRepository           { return r.holders }
func (r *memRepos) Entries() stock.LedgerEntryRepository      { return r.entries }
func (r *memRepos) Compositions() stock.CompositionRepository { return r.compositions }

// memScope serializes units of work and rolls the store back when the
// callback fails, imitating database transaction semantics
type memScope struct {
	store *memStore
	repos *memRepos
}

func (s *memScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	holders, entries, lines := s.store.snapshot()
	if err := fn(s.repos); err != nil {
		s.store.restore(holders, entries, lines)
		return err
	}
	return nil
}

type memHolderRepo struct {
	store *memStore
}

var _ stock.HolderRepository = (*memHolderRepo)(nil)

func (r *memHolderRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.StockHolder, error) {
	h, ok := r.store.holders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &h, nil
}

func (r *memHolderRepo) FindLiveByID(ctx context.Context, id uuid.UUID) (*stock.StockHolder, error) {
	h, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.IsDeleted() {
		return nil, shared.ErrNotFound
	}
	return h, nil
}

func (r *memHolderRepo) FindLiveByKind(_ context.Context, kind stock.HolderKind, filter shared.Filter) ([]stock.StockHolder, error) {
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
	end := offset + filter.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r *memHolderRepo) CountLiveByKind(_ context.Context, kind stock.HolderKind, _ shared.Filter) (int64, error) {
	var count int64
	for _, h := range r.store.holders {
		if h.Kind == kind && !h.IsDeleted() {
			count++
		}
	}
	return count, nil
}

func (r *memHolderRepo) ExistsLiveByCode(_ context.Context, kind stock.HolderKind, code string) (bool, error) {
	for _, h := range r.store.holders {
		if h.Kind == kind && h.Code == code && !h.IsDeleted() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memHolderRepo) Create(_ context.Context, holder *stock.StockHolder) error {
	r.store.holders[holder.ID] = *holder
	return nil
}

func (r *memHolderRepo) Save(_ context.Context, holder *stock.StockHolder) error {
	r.store.holders[holder.ID] = *holder
	return nil
}

func (r *memHolderRepo) SaveWithLock(_ context.Context, holder *stock.StockHolder) error {
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

type memEntryRepo struct {
	store *memStore
}

var _ stock.LedgerEntryRepository = (*memEntryRepo)(nil)

func (r *memEntryRepo) Create(_ context.Context, entry *stock.LedgerEntry) error {
	r.store.entries = append(r.store.entries, *entry)
	return nil
}

func (r *memEntryRepo) FindByHolder(_ context.Context, holderID uuid.UUID, _ shared.Filter) ([]stock.LedgerEntry, error) {
	var result []stock.LedgerEntry
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		if r.store.entries[i].HolderID == holderID {
			result = append(result, r.store.entries[i])
		}
	}
	return result, nil
}

func (r *memEntryRepo) CountByHolder(_ context.Context, holderID uuid.UUID) (int64, error) {
	var count int64
	for _, e := range r.store.entries {
		if e.HolderID == holderID {
			count++
		}
	}
	return count, nil
}

func (r *memEntryRepo) FindAll(_ context.Context, _ shared.Filter) ([]stock.LedgerEntry, error) {
	result := make([]stock.LedgerEntry, 0, len(r.store.entries))
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		result = append(result, r.store.entries[i])
	}
	return result, nil
}

func (r *memEntryRepo) CountAll(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.store.entries)), nil
}

type memCompositionRepo struct {
	store *memStore
}

var _ stock.CompositionRepository = (*memCompositionRepo)(nil)

func (r *memCompositionRepo) ReplaceForProduct(ctx context.Context, productID uuid.UUID, lines []stock.CompositionLine) error {
	if err := r.DeleteForProduct(ctx, productID); err != nil {
		return err
	}
	r.store.lines = append(r.store.lines, lines...)
	return nil
}

func (r *memCompositionRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]stock.CompositionLine, error) {
	var result []stock.CompositionLine
	for _, l := range r.store.lines {
		if l.ProductID == productID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *memCompositionRepo) FindActiveByPart(_ context.Context, partID uuid.UUID) ([]stock.CompositionLine, error) {
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

func (r *memCompositionRepo) CountActiveProductsUsingPart(ctx context.Context, partID uuid.UUID) (int64, error) {
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

func (r *memCompositionRepo) DeleteForProduct(_ context.Context, productID uuid.UUID) error {
	kept := r.store.lines[:0]
	for _, l := range r.store.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	r.store.lines = kept
	return nil
}

// newMemFixture wires a store, fake repositories and a rollback-capable
// scope for service tests
func newMemFixture() (*memScope, *memRepos, *memStore) {
	store := newMemStore()
	repos := &memRepos{
		holders:      &memHolderRepo{store: store},
		entries:      &memEntryRepo{store: store},
		compositions: &memCompositionRepo{store: store},
	}
	scope := &memScope{store: store, repos: repos}
	return scope, repos, store
}

func seedPart(t *testing.T, store *memStore, code string, quantity int64) *stock.StockHolder {
	t.Helper()
	part, err := stock.NewPart(code, code+" part", "", "pcs", quantity)
	require.NoError(t, err)
	store.holders[part.ID] = *part
	return part
}

func seedProduct(t *testing.T, store *memStore, code string, quantity int64) *stock.StockHolder {
	t.Helper()
	product, err := stock.NewProduct(code, code+" product", "", "pcs", decimal.NewFromInt(100), quantity)
	require.NoError(t, err)
	store.holders[product.ID] = *product
	return product
}

func seedCompositionLine(t *testing.T, store *memStore, productID, partID uuid.UUID, required int64) {
	t.Helper()
	line, err := stock.NewCompositionLine(productID, partID, required)
	require.NoError(t, err)
	store.lines = append(store.lines, *line)
}

// conflictingHolderRepo fails SaveWithLock a fixed number of times
// before delegating, to exercise the retry loop
type conflictingHolderRepo struct {
	stock.HolderRepository
	failures int
	calls    int
}

func (r *conflictingHolderRepo) SaveWithLock(ctx context.Context, holder *stock.StockHolder) error {
	r.calls++
	if r.calls <= r.failures {
		return shared.ErrConcurrencyConflict
	}
	return r.HolderRepository.SaveWithLock(ctx, holder)
}

// failingEntryRepo fails every Create to exercise rollback of the
// paired holder update
type failingEntryRepo struct {
	stock.LedgerEntryRepository
	err error
}

func (r *failingEntryRepo) Create(context.Context, *stock.LedgerEntry) error {
	return r.err
}

// MockCompositionRepository is a testify mock of the composition port
type MockCompositionRepository struct {
	mock.Mock
}

func (m *MockCompositionRepository) ReplaceForProduct(ctx context.Context, productID uuid.UUID, lines []stock.CompositionLine) error {
	args := m.Called(ctx, productID, lines)
	return args.Error(0)
}

func (m *MockCompositionRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]stock.CompositionLine, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.CompositionLine), args.Error(1)
}

func (m *MockCompositionRepository) FindActiveByPart(ctx context.Context, partID uuid.UUID) ([]stock.CompositionLine, error) {
	args := m.Called(ctx, partID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.CompositionLine), args.Error(1)
}

func (m *MockCompositionRepository) CountActiveProductsUsingPart(ctx context.Context, partID uuid.UUID) (int64, error) {
	args := m.Called(ctx, partID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCompositionRepository) DeleteForProduct(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}
