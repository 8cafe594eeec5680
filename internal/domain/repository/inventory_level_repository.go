package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// LowStockRow resultado crudo del escaneo de stock bajo: nivel + artículo + ubicación.
type LowStockRow struct {
	Level    entity.InventoryLevel
	Item     entity.Item
	Location entity.Location
}

// InventoryLevelRepository define el puerto para consultar/actualizar la existencia
// por par (artículo, ubicación) (DIP).
//
// GetForUpdate y Upsert deben ejecutarse dentro de la transacción ambiente del
// caller (vía TxRunner); nunca abren transacción propia.
type InventoryLevelRepository interface {
	// Get devuelve nil, nil si el nivel no existe todavía.
	Get(ctx context.Context, itemID, locationID string) (*entity.InventoryLevel, error)

	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) y la devuelve.
	// Si no existe, devuelve un nivel con Quantity 0 (creación perezosa).
	GetForUpdate(ctx context.Context, itemID, locationID string) (*entity.InventoryLevel, error)

	// Upsert inserta o actualiza la cantidad. touchRestock=true fija
	// LastRestockedAt a now(); UpdatedAt se refresca siempre.
	Upsert(ctx context.Context, level *entity.InventoryLevel, touchRestock bool) error

	ListByItem(ctx context.Context, itemID string) ([]*entity.InventoryLevel, error)
	ListByLocation(ctx context.Context, locationID string) ([]*entity.InventoryLevel, error)

	// ListBelowThreshold devuelve todos los niveles cuyo artículo define umbral
	// y cuya cantidad es <= ese umbral, ordenados por mayor déficit primero.
	ListBelowThreshold(ctx context.Context) ([]LowStockRow, error)
}
