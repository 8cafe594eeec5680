package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// Campos de ordenación permitidos para el historial de transacciones.
const (
	SortByTransactionDate = "transaction_date"
	SortByCreatedAt       = "created_at"
)

// TransactionFilter filtros del historial. Campos vacíos/nil no filtran.
// El rango de fechas es inclusivo en ambos extremos sobre TransactionDate.
type TransactionFilter struct {
	ItemID     string
	LocationID string
	UserID     string
	Type       string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// TransactionSort ordenación del historial (campo restringido + dirección).
type TransactionSort struct {
	Field string // SortByTransactionDate | SortByCreatedAt
	Desc  bool
}

// StockTransactionRepository define el puerto de persistencia del libro mayor (DIP).
// Create debe ejecutarse dentro de la misma transacción ambiente que el upsert
// del nivel; las filas nunca se actualizan ni se borran.
type StockTransactionRepository interface {
	Create(ctx context.Context, tx *entity.StockTransaction) error

	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.StockTransaction, error)

	// List devuelve la página solicitada y el total de filas que cumplen el filtro.
	List(ctx context.Context, filter TransactionFilter, sort TransactionSort, limit, offset int) ([]*entity.StockTransaction, int64, error)
}
