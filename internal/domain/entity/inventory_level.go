package entity

import "time"

// InventoryLevel representa la existencia actual de un artículo en una ubicación.
// A lo sumo una fila por par (ItemID, LocationID); Quantity nunca es negativa.
// Se crea de forma perezosa con la primera transacción del par (cantidad inicial 0)
// y la muta exclusivamente el motor de transacciones de stock.
type InventoryLevel struct {
	ItemID          string
	LocationID      string
	Quantity        int64
	LastRestockedAt *time.Time // se actualiza con cada cambio positivo
	UpdatedAt       time.Time
}
