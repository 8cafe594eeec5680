package entity

import "time"

// User representa un usuario del sistema. Aquí es solo lectura: el motor lo
// referencia como principal de auditoría (StockTransaction.UserID) y verifica
// su existencia; las credenciales viven en la capa de autenticación externa.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string // admin, bodeguero, vendedor
	Status    string // active, inactive, suspended
	CreatedAt time.Time
	UpdatedAt time.Time
}
