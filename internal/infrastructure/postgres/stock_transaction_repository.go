package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.StockTransactionRepository = (*StockTransactionRepo)(nil)

// StockTransactionRepo implementación del libro mayor sobre PostgreSQL
// (usable con pool o tx). Tabla stock_transactions, append-only.
type StockTransactionRepo struct {
	q Querier
}

// NewStockTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransactionRepository(q Querier) *StockTransactionRepo {
	return &StockTransactionRepo{q: q}
}

const txColumns = `id, item_id, location_id, change_quantity, resulting_quantity, type,
		user_id, notes, reference_id, transaction_date, created_at`

// Create persiste una fila del libro mayor. Una violación de clave foránea
// (artículo, ubicación o usuario inexistente) se traduce a ErrNotFound.
func (r *StockTransactionRepo) Create(ctx context.Context, t *entity.StockTransaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.ItemID, t.LocationID, t.ChangeQuantity, t.ResultingQuantity, t.Type,
		nullIfEmpty(t.UserID), nullIfEmpty(t.Notes), nullIfEmpty(t.ReferenceID),
		t.TransactionDate, t.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
		return fmt.Errorf("create stock transaction: %w", err)
	}
	return nil
}

// GetByID obtiene una transacción por ID. Devuelve nil, nil si no existe.
func (r *StockTransactionRepo) GetByID(ctx context.Context, id string) (*entity.StockTransaction, error) {
	query := `SELECT ` + txColumns + ` FROM stock_transactions WHERE id = $1`
	t, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock transaction: %w", err)
	}
	return t, nil
}

// List devuelve la página de transacciones que cumplen el filtro y el total.
// El rango de fechas es inclusivo sobre transaction_date.
func (r *StockTransactionRepo) List(ctx context.Context, filter repository.TransactionFilter, sort repository.TransactionSort, limit, offset int) ([]*entity.StockTransaction, int64, error) {
	where, args := buildTransactionWhere(filter)

	var total int64
	countQuery := `SELECT count(*) FROM stock_transactions` + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock transactions: %w", err)
	}

	orderBy := sortColumn(sort.Field)
	direction := "DESC"
	if !sort.Desc {
		direction = "ASC"
	}
	query := fmt.Sprintf(`SELECT `+txColumns+` FROM stock_transactions%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, orderBy, direction, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock transactions: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan stock transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, total, rows.Err()
}

// buildTransactionWhere arma la cláusula WHERE con argumentos posicionales.
func buildTransactionWhere(f repository.TransactionFilter) (string, []any) {
	where := ""
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}
	if f.ItemID != "" {
		add("item_id = $%d", f.ItemID)
	}
	if f.LocationID != "" {
		add("location_id = $%d", f.LocationID)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.DateFrom != nil {
		add("transaction_date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("transaction_date <= $%d", *f.DateTo)
	}
	return where, args
}

// sortColumn restringe la columna de ordenación a la lista blanca.
func sortColumn(field string) string {
	if field == repository.SortByCreatedAt {
		return "created_at"
	}
	return "transaction_date"
}

func scanTransaction(row pgx.Row) (*entity.StockTransaction, error) {
	var t entity.StockTransaction
	var userID, notes, referenceID *string
	if err := row.Scan(
		&t.ID, &t.ItemID, &t.LocationID, &t.ChangeQuantity, &t.ResultingQuantity, &t.Type,
		&userID, &notes, &referenceID, &t.TransactionDate, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	if userID != nil {
		t.UserID = *userID
	}
	if notes != nil {
		t.Notes = *notes
	}
	if referenceID != nil {
		t.ReferenceID = *referenceID
	}
	return &t, nil
}

// nullIfEmpty convierte "" a NULL para columnas opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
