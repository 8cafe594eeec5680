package entity

import "time"

// Location representa una bodega o sucursal donde se almacena inventario.
// La invariante "una sola Location primaria" la mantiene la gestión de catálogo;
// el motor solo lee IsPrimary, nunca lo inspecciona ni lo modifica.
type Location struct {
	ID        string
	Name      string // único
	IsPrimary bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
