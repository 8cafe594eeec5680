package inventory

import "time"

// Tipos de evento publicados tras el commit.
const (
	EventTypeInventoryChanged = "inventory.changed"
	EventTypeLowStock         = "inventory.low_stock"
)

// TopicAdmin recibe una copia de todos los eventos (difusión para paneles).
const TopicAdmin = "inventory.admin"

// TopicForItem devuelve el topic por artículo.
func TopicForItem(itemID string) string { return "inventory.item." + itemID }

// TopicForLocation devuelve el topic por ubicación.
func TopicForLocation(locationID string) string { return "inventory.location." + locationID }

// InventoryChangedEvent notifica una mutación de stock confirmada.
type InventoryChangedEvent struct {
	EventType       string    `json:"event_type"`
	TransactionID   string    `json:"transaction_id"`
	ItemID          string    `json:"item_id"`
	LocationID      string    `json:"location_id"`
	ChangeQuantity  int64     `json:"change_quantity"`
	NewQuantity     int64     `json:"new_quantity"`
	TransactionType string    `json:"transaction_type"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LowStockEvent notifica que un artículo alcanzó o rompió su umbral de stock bajo.
type LowStockEvent struct {
	EventType  string `json:"event_type"`
	ItemID     string `json:"item_id"`
	SKU        string `json:"sku"`
	ItemName   string `json:"item_name"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
	Threshold  int64  `json:"threshold"`
}
