package dto

import (
	"fmt"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// RecordTransactionRequest body para POST /api/inventory/transactions.
// El signo de change_quantity debe corresponder a la dirección del tipo:
// positivo para entradas (PURCHASE_RECEIVING, ADJUSTMENT_IN, TRANSFER_IN,
// INITIAL_STOCK), negativo para salidas (SALES_SHIPMENT, ADJUSTMENT_OUT,
// TRANSFER_OUT).
type RecordTransactionRequest struct {
	ItemID          string `json:"item_id"`
	LocationID      string `json:"location_id"`
	ChangeQuantity  int64  `json:"change_quantity"`
	Type            string `json:"type"`
	UserID          string `json:"user_id,omitempty"`
	Notes           string `json:"notes,omitempty"`
	ReferenceID     string `json:"reference_id,omitempty"`
	TransactionDate string `json:"transaction_date,omitempty"` // RFC3339 o YYYY-MM-DD
}

// ListTransactionsRequest query params para GET /api/inventory/transactions.
type ListTransactionsRequest struct {
	ItemID     string `query:"item_id"`
	LocationID string `query:"location_id"`
	UserID     string `query:"user_id"`
	Type       string `query:"type"`
	DateFrom   string `query:"date_from"` // RFC3339 o YYYY-MM-DD
	DateTo     string `query:"date_to"`   // RFC3339 o YYYY-MM-DD (día completo)
	Page       int    `query:"page"`
	PageSize   int    `query:"page_size"`
	SortBy     string `query:"sort_by"`  // transaction_date | created_at
	SortDir    string `query:"sort_dir"` // asc | desc
}

// StockTransactionResponse representación JSON de una fila del libro mayor.
type StockTransactionResponse struct {
	ID                string    `json:"id"`
	ItemID            string    `json:"item_id"`
	LocationID        string    `json:"location_id"`
	ChangeQuantity    int64     `json:"change_quantity"`
	ResultingQuantity int64     `json:"resulting_quantity"`
	Type              string    `json:"type"`
	UserID            string    `json:"user_id,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	ReferenceID       string    `json:"reference_id,omitempty"`
	TransactionDate   time.Time `json:"transaction_date"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewStockTransactionResponse mapea la entidad a su respuesta JSON.
func NewStockTransactionResponse(t *entity.StockTransaction) StockTransactionResponse {
	return StockTransactionResponse{
		ID:                t.ID,
		ItemID:            t.ItemID,
		LocationID:        t.LocationID,
		ChangeQuantity:    t.ChangeQuantity,
		ResultingQuantity: t.ResultingQuantity,
		Type:              t.Type,
		UserID:            t.UserID,
		Notes:             t.Notes,
		ReferenceID:       t.ReferenceID,
		TransactionDate:   t.TransactionDate,
		CreatedAt:         t.CreatedAt,
	}
}

// InventoryLevelResponse representación JSON de un nivel de inventario.
type InventoryLevelResponse struct {
	ItemID          string     `json:"item_id"`
	LocationID      string     `json:"location_id"`
	Quantity        int64      `json:"quantity"`
	LastRestockedAt *time.Time `json:"last_restocked_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewInventoryLevelResponse mapea la entidad a su respuesta JSON.
func NewInventoryLevelResponse(l *entity.InventoryLevel) InventoryLevelResponse {
	return InventoryLevelResponse{
		ItemID:          l.ItemID,
		LocationID:      l.LocationID,
		Quantity:        l.Quantity,
		LastRestockedAt: l.LastRestockedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// LowStockRowResponse fila del reporte de stock bajo (nivel + artículo + ubicación).
type LowStockRowResponse struct {
	ItemID       string `json:"item_id"`
	SKU          string `json:"sku"`
	ItemName     string `json:"item_name"`
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	Quantity     int64  `json:"quantity"`
	Threshold    int64  `json:"threshold"`
}

// ParseDateBound interpreta un límite de rango de fechas: acepta RFC3339 o
// solo fecha (YYYY-MM-DD, que queda en medianoche; el caso de uso lo extiende
// a día completo cuando es límite superior). Cadena vacía => nil.
func ParseDateBound(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("fecha inválida: %q", s)
}
