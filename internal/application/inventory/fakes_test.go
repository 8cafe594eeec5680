package inventory_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén en memoria con semántica transaccional (staging + commit/rollback),
// para ejercitar el motor sin PostgreSQL.
// ──────────────────────────────────────────────────────────────────────────────

func keyOf(itemID, locationID string) string { return itemID + "|" + locationID }

type memStore struct {
	mu     sync.Mutex
	levels map[string]*entity.InventoryLevel
	ledger []*entity.StockTransaction
}

func newMemStore() *memStore {
	return &memStore{levels: map[string]*entity.InventoryLevel{}}
}

func (s *memStore) seedLevel(itemID, locationID string, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[keyOf(itemID, locationID)] = &entity.InventoryLevel{
		ItemID:     itemID,
		LocationID: locationID,
		Quantity:   qty,
		UpdatedAt:  time.Now(),
	}
}

func (s *memStore) levelQuantity(itemID, locationID string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.levels[keyOf(itemID, locationID)]
	if !ok {
		return 0, false
	}
	return l.Quantity, true
}

func (s *memStore) ledgerLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

func cloneLevels(src map[string]*entity.InventoryLevel) map[string]*entity.InventoryLevel {
	out := make(map[string]*entity.InventoryLevel, len(src))
	for k, v := range src {
		cp := *v
		out[k] = &cp
	}
	return out
}

// memTxRunner serializa las unidades atómicas con el mutex del store (el
// equivalente del lock de fila) y aplica los cambios solo si fn devuelve nil.
type memTxRunner struct {
	store     *memStore
	ledgerErr error // inyección de fallo en el append del libro mayor
}

func (r *memTxRunner) Run(_ context.Context, fn func(
	levelRepo repository.InventoryLevelRepository,
	ledgerRepo repository.StockTransactionRepository,
) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	staged := &memStore{
		levels: cloneLevels(r.store.levels),
		ledger: append([]*entity.StockTransaction(nil), r.store.ledger...),
	}
	err := fn(&memLevelRepo{store: staged}, &memLedgerRepo{store: staged, createErr: r.ledgerErr})
	if err != nil {
		return err // rollback: staged se descarta completo
	}
	r.store.levels = staged.levels
	r.store.ledger = staged.ledger
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios fake sobre el store (sin locking propio: coordina el caller)
// ──────────────────────────────────────────────────────────────────────────────

type memLevelRepo struct{ store *memStore }

func (r *memLevelRepo) Get(_ context.Context, itemID, locationID string) (*entity.InventoryLevel, error) {
	if l, ok := r.store.levels[keyOf(itemID, locationID)]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (r *memLevelRepo) GetForUpdate(_ context.Context, itemID, locationID string) (*entity.InventoryLevel, error) {
	if l, ok := r.store.levels[keyOf(itemID, locationID)]; ok {
		cp := *l
		return &cp, nil
	}
	// Creación perezosa: ausencia equivale a cantidad 0.
	return &entity.InventoryLevel{ItemID: itemID, LocationID: locationID}, nil
}

func (r *memLevelRepo) Upsert(_ context.Context, level *entity.InventoryLevel, touchRestock bool) error {
	cp := *level
	if touchRestock {
		now := time.Now()
		cp.LastRestockedAt = &now
	}
	r.store.levels[keyOf(level.ItemID, level.LocationID)] = &cp
	return nil
}

func (r *memLevelRepo) ListByItem(_ context.Context, itemID string) ([]*entity.InventoryLevel, error) {
	var out []*entity.InventoryLevel
	for _, l := range r.store.levels {
		if l.ItemID == itemID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLevelRepo) ListByLocation(_ context.Context, locationID string) ([]*entity.InventoryLevel, error) {
	var out []*entity.InventoryLevel
	for _, l := range r.store.levels {
		if l.LocationID == locationID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLevelRepo) ListBelowThreshold(context.Context) ([]repository.LowStockRow, error) {
	return nil, nil
}

type memLedgerRepo struct {
	store     *memStore
	createErr error
}

func (r *memLedgerRepo) Create(_ context.Context, tx *entity.StockTransaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	cp := *tx
	r.store.ledger = append(r.store.ledger, &cp)
	return nil
}

func (r *memLedgerRepo) GetByID(_ context.Context, id string) (*entity.StockTransaction, error) {
	for _, t := range r.store.ledger {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memLedgerRepo) List(_ context.Context, f repository.TransactionFilter, ord repository.TransactionSort, limit, offset int) ([]*entity.StockTransaction, int64, error) {
	var rows []*entity.StockTransaction
	for _, t := range r.store.ledger {
		if f.ItemID != "" && t.ItemID != f.ItemID {
			continue
		}
		if f.LocationID != "" && t.LocationID != f.LocationID {
			continue
		}
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.DateFrom != nil && t.TransactionDate.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && t.TransactionDate.After(*f.DateTo) {
			continue
		}
		cp := *t
		rows = append(rows, &cp)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		var a, b time.Time
		if ord.Field == repository.SortByCreatedAt {
			a, b = rows[i].CreatedAt, rows[j].CreatedAt
		} else {
			a, b = rows[i].TransactionDate, rows[j].TransactionDate
		}
		if ord.Desc {
			return a.After(b)
		}
		return a.Before(b)
	})

	total := int64(len(rows))
	if offset >= len(rows) {
		return nil, total, nil
	}
	rows = rows[offset:]
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, total, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo fake (artículos, ubicaciones, usuarios) y publicador capturador
// ──────────────────────────────────────────────────────────────────────────────

type memCatalog struct {
	items     map[string]*entity.Item
	locations map[string]*entity.Location
	users     map[string]bool
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		items:     map[string]*entity.Item{},
		locations: map[string]*entity.Location{},
		users:     map[string]bool{},
	}
}

func (c *memCatalog) addItem(id, sku, name string, threshold *int64) {
	c.items[id] = &entity.Item{ID: id, SKU: sku, Name: name, UnitMeasure: "unidad", LowStockThreshold: threshold}
}

func (c *memCatalog) addLocation(id, name string) {
	c.locations[id] = &entity.Location{ID: id, Name: name}
}

type memItemRepo struct{ cat *memCatalog }

func (r *memItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	if it, ok := r.cat.items[id]; ok {
		cp := *it
		return &cp, nil
	}
	return nil, nil
}

type memLocationRepo struct{ cat *memCatalog }

func (r *memLocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	if loc, ok := r.cat.locations[id]; ok {
		cp := *loc
		return &cp, nil
	}
	return nil, nil
}

type memUserRepo struct{ cat *memCatalog }

func (r *memUserRepo) Exists(_ context.Context, id string) (bool, error) {
	return r.cat.users[id], nil
}

type capturedEvent struct {
	Topic   string
	Payload any
}

// capturePublisher registra cada evento publicado; err simula un broker caído.
type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Topic: topic, Payload: payload})
	return p.err
}

func (p *capturePublisher) all() []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]capturedEvent(nil), p.events...)
}

func (p *capturePublisher) topics() []string {
	var out []string
	for _, e := range p.all() {
		out = append(out, e.Topic)
	}
	return out
}
