package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.InventoryLevelRepository = (*InventoryLevelRepo)(nil)

// InventoryLevelRepo implementación de InventoryLevelRepository sobre PostgreSQL
// (usable con pool o tx). Tabla inventory_levels con clave compuesta única
// (item_id, location_id).
type InventoryLevelRepo struct {
	q Querier
}

// NewInventoryLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryLevelRepository(q Querier) *InventoryLevelRepo {
	return &InventoryLevelRepo{q: q}
}

const levelColumns = `item_id, location_id, quantity, last_restocked_at, updated_at`

// Get obtiene el nivel actual del par. Devuelve nil, nil si aún no existe.
func (r *InventoryLevelRepo) Get(ctx context.Context, itemID, locationID string) (*entity.InventoryLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM inventory_levels WHERE item_id = $1 AND location_id = $2`
	var l entity.InventoryLevel
	err := r.q.QueryRow(ctx, query, itemID, locationID).Scan(
		&l.ItemID, &l.LocationID, &l.Quantity, &l.LastRestockedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory level: %w", err)
	}
	return &l, nil
}

// GetForUpdate obtiene el nivel y bloquea la fila (SELECT FOR UPDATE).
// Si la fila no existe, devuelve un nivel con cantidad 0: la primera
// transacción del par lo materializa vía Upsert dentro de la misma tx.
func (r *InventoryLevelRepo) GetForUpdate(ctx context.Context, itemID, locationID string) (*entity.InventoryLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM inventory_levels WHERE item_id = $1 AND location_id = $2
		FOR UPDATE`
	var l entity.InventoryLevel
	err := r.q.QueryRow(ctx, query, itemID, locationID).Scan(
		&l.ItemID, &l.LocationID, &l.Quantity, &l.LastRestockedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.InventoryLevel{ItemID: itemID, LocationID: locationID, Quantity: 0}, nil
		}
		return nil, fmt.Errorf("get inventory level for update: %w", err)
	}
	return &l, nil
}

// Upsert inserta o actualiza la cantidad del par. touchRestock fija
// last_restocked_at a now(); updated_at se refresca siempre.
func (r *InventoryLevelRepo) Upsert(ctx context.Context, level *entity.InventoryLevel, touchRestock bool) error {
	query := `
		INSERT INTO inventory_levels (item_id, location_id, quantity, last_restocked_at, updated_at)
		VALUES ($1, $2, $3, CASE WHEN $4 THEN now() END, now())
		ON CONFLICT (item_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
			last_restocked_at = CASE WHEN $4 THEN now() ELSE inventory_levels.last_restocked_at END,
			updated_at = now()`
	_, err := r.q.Exec(ctx, query, level.ItemID, level.LocationID, level.Quantity, touchRestock)
	if err != nil {
		return fmt.Errorf("upsert inventory level: %w", err)
	}
	return nil
}

// ListByItem lista los niveles de un artículo en todas las ubicaciones.
func (r *InventoryLevelRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.InventoryLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM inventory_levels WHERE item_id = $1
		ORDER BY updated_at DESC`
	return r.list(ctx, query, itemID)
}

// ListByLocation lista los niveles de una ubicación.
func (r *InventoryLevelRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.InventoryLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM inventory_levels WHERE location_id = $1
		ORDER BY updated_at DESC`
	return r.list(ctx, query, locationID)
}

func (r *InventoryLevelRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryLevel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory levels: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryLevel
	for rows.Next() {
		var l entity.InventoryLevel
		if err := rows.Scan(&l.ItemID, &l.LocationID, &l.Quantity, &l.LastRestockedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory level: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// ListBelowThreshold devuelve los niveles cuyo artículo define umbral y cuya
// cantidad es <= ese umbral, con el artículo y la ubicación asociados.
// Ordena por déficit descendente (mayor quiebre primero).
func (r *InventoryLevelRepo) ListBelowThreshold(ctx context.Context) ([]repository.LowStockRow, error) {
	query := `
		SELECT
			s.item_id, s.location_id, s.quantity, s.last_restocked_at, s.updated_at,
			i.id, i.sku, i.name, i.unit_measure, i.low_stock_threshold, i.cost_price, i.created_at, i.updated_at,
			l.id, l.name, l.is_primary, l.created_at, l.updated_at
		FROM inventory_levels s
		JOIN items i ON i.id = s.item_id
		JOIN locations l ON l.id = s.location_id
		WHERE i.low_stock_threshold IS NOT NULL
		  AND s.quantity <= i.low_stock_threshold
		ORDER BY (i.low_stock_threshold - s.quantity) DESC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list below threshold: %w", err)
	}
	defer rows.Close()
	var list []repository.LowStockRow
	for rows.Next() {
		var row repository.LowStockRow
		if err := rows.Scan(
			&row.Level.ItemID, &row.Level.LocationID, &row.Level.Quantity,
			&row.Level.LastRestockedAt, &row.Level.UpdatedAt,
			&row.Item.ID, &row.Item.SKU, &row.Item.Name, &row.Item.UnitMeasure,
			&row.Item.LowStockThreshold, &row.Item.CostPrice, &row.Item.CreatedAt, &row.Item.UpdatedAt,
			&row.Location.ID, &row.Location.Name, &row.Location.IsPrimary,
			&row.Location.CreatedAt, &row.Location.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan low stock row: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
