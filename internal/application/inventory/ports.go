package inventory

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD (aislamiento
// mínimo repeatable read), pasando repositorios atados a esa tx.
// Garantiza que el upsert del nivel y el append del libro mayor sean
// todo-o-nada: Commit si fn devuelve nil, Rollback completo en caso contrario.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		levelRepo repository.InventoryLevelRepository,
		ledgerRepo repository.StockTransactionRepository,
	) error) error
}

// EventPublisher publica un payload en un topic. Puede fallar: el motor
// registra el error y continúa, nunca lo propaga al caller (la transacción
// de negocio ya está confirmada cuando se publica).
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// NopPublisher descarta todos los eventos (broker deshabilitado en config).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
