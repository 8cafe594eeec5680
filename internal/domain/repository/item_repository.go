package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// ItemRepository define el puerto de lectura del catálogo de artículos (DIP).
// El motor nunca escribe artículos.
type ItemRepository interface {
	// GetByID devuelve nil, nil si el artículo no existe.
	GetByID(ctx context.Context, id string) (*entity.Item, error)
}
