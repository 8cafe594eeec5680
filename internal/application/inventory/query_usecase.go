package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// Paginación del historial de transacciones.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListTransactionsQuery parámetros de consulta del historial.
type ListTransactionsQuery struct {
	Filter   repository.TransactionFilter
	Page     int    // 1-based; <=0 => 1
	PageSize int    // <=0 => DefaultPageSize; tope MaxPageSize
	SortBy   string // transaction_date (defecto) | created_at
	SortDir  string // desc (defecto) | asc
}

// TransactionPage página del historial con metadatos de total.
type TransactionPage struct {
	Transactions []*entity.StockTransaction
	Total        int64
	Page         int
	PageSize     int
	TotalPages   int
}

// QueryUseCase es el lado de lectura del motor: historial filtrado/paginado,
// niveles actuales y escaneo de stock bajo. Depende solo del almacén, no del
// motor de escritura (eventualmente consistente con su último commit).
type QueryUseCase struct {
	levelRepo  repository.InventoryLevelRepository
	ledgerRepo repository.StockTransactionRepository
}

// NewQueryUseCase construye el caso de uso de consultas.
func NewQueryUseCase(
	levelRepo repository.InventoryLevelRepository,
	ledgerRepo repository.StockTransactionRepository,
) *QueryUseCase {
	return &QueryUseCase{levelRepo: levelRepo, ledgerRepo: ledgerRepo}
}

// ListTransactions devuelve una página del historial. El extremo superior del
// rango de fechas es inclusivo: si DateTo cae exactamente en medianoche se
// interpreta como "solo fecha" y se extiende hasta el final de ese día.
func (uc *QueryUseCase) ListTransactions(ctx context.Context, q ListTransactionsQuery) (*TransactionPage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}

	sort := repository.TransactionSort{Field: repository.SortByTransactionDate, Desc: true}
	switch q.SortBy {
	case "", repository.SortByTransactionDate:
		// defecto
	case repository.SortByCreatedAt:
		sort.Field = repository.SortByCreatedAt
	default:
		return nil, domain.ErrInvalidInput
	}
	switch q.SortDir {
	case "", "desc":
		// defecto
	case "asc":
		sort.Desc = false
	default:
		return nil, domain.ErrInvalidInput
	}

	filter := q.Filter
	if filter.DateTo != nil {
		to := endOfDayIfDateOnly(*filter.DateTo)
		filter.DateTo = &to
	}

	offset := (q.Page - 1) * q.PageSize
	rows, total, err := uc.ledgerRepo.List(ctx, filter, sort, q.PageSize, offset)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &TransactionPage{
		Transactions: rows,
		Total:        total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages,
	}, nil
}

// endOfDayIfDateOnly extiende una marca exacta de medianoche (sin hora) al
// último instante de ese día, para que el límite superior cubra el día completo.
func endOfDayIfDateOnly(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}

// CurrentLevel devuelve el nivel actual del par, o nil si aún no existe.
func (uc *QueryUseCase) CurrentLevel(ctx context.Context, itemID, locationID string) (*entity.InventoryLevel, error) {
	if itemID == "" || locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.levelRepo.Get(ctx, itemID, locationID)
}

// LevelsForItem devuelve todos los niveles de un artículo.
func (uc *QueryUseCase) LevelsForItem(ctx context.Context, itemID string) ([]*entity.InventoryLevel, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.levelRepo.ListByItem(ctx, itemID)
}

// LevelsForLocation devuelve todos los niveles de una ubicación.
func (uc *QueryUseCase) LevelsForLocation(ctx context.Context, locationID string) ([]*entity.InventoryLevel, error) {
	if locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.levelRepo.ListByLocation(ctx, locationID)
}

// LowStockLevels devuelve todos los niveles en o por debajo del umbral de su artículo.
func (uc *QueryUseCase) LowStockLevels(ctx context.Context) ([]repository.LowStockRow, error) {
	return uc.levelRepo.ListBelowThreshold(ctx)
}

// GetTransaction devuelve una transacción por ID, o nil si no existe.
func (uc *QueryUseCase) GetTransaction(ctx context.Context, id string) (*entity.StockTransaction, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.ledgerRepo.GetByID(ctx, id)
}
