package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

const (
	defaultTxTimeout = 5 * time.Second
	maxTxAttempts    = 3
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con
// aislamiento repeatable read y timeout acotado. Traduce los errores del
// almacén al vocabulario del dominio: fallo de serialización o deadlock ->
// ErrConflict (el caller decide si reintenta), violación de FK -> ErrNotFound.
// Solo los errores que pgx marca como seguros de reintentar (conexión perdida
// antes de escribir) se reintentan aquí, un número acotado de veces.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxRunner construye el runner. timeout <= 0 usa el valor por defecto.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) *TxRunner {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &TxRunner{pool: pool, timeout: timeout}
}

// Run inicia la transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. En timeout o error la unidad se revierte completa:
// ninguna escritura parcial queda visible.
func (r *TxRunner) Run(ctx context.Context, fn func(
	levelRepo repository.InventoryLevelRepository,
	ledgerRepo repository.StockTransactionRepository,
) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !pgconn.SafeToRetry(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("transacción no completada tras %d intentos: %w", maxTxAttempts, lastErr)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(
	levelRepo repository.InventoryLevelRepository,
	ledgerRepo repository.StockTransactionRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	levelRepo := NewInventoryLevelRepository(tx)
	ledgerRepo := NewStockTransactionRepository(tx)

	if err := fn(levelRepo, ledgerRepo); err != nil {
		return mapStoreError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapStoreError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// mapStoreError traduce errores SQLSTATE a errores de dominio; el resto pasa tal cual.
func mapStoreError(err error) error {
	switch {
	case isSerializationFailure(err):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return err
}
