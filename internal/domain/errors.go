package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// El motor de transacciones los devuelve tal cual; la capa HTTP los traduce a estados.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrConflict          = errors.New("conflicto de escritura concurrente")
	ErrInsufficientStock = errors.New("stock insuficiente")
)
