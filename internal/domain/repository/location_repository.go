package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// LocationRepository define el puerto de lectura de ubicaciones (DIP).
type LocationRepository interface {
	// GetByID devuelve nil, nil si la ubicación no existe.
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}
