package entity

import "time"

// Tipos de transacción de stock y su dirección semántica.
const (
	TxTypePurchaseReceiving = "PURCHASE_RECEIVING" // entrada
	TxTypeSalesShipment     = "SALES_SHIPMENT"     // salida
	TxTypeAdjustmentIn      = "ADJUSTMENT_IN"      // entrada
	TxTypeAdjustmentOut     = "ADJUSTMENT_OUT"     // salida
	TxTypeTransferIn        = "TRANSFER_IN"        // entrada
	TxTypeTransferOut       = "TRANSFER_OUT"       // salida
	TxTypeInitialStock      = "INITIAL_STOCK"      // entrada
)

// IsValidTransactionType indica si el tipo pertenece a la enumeración.
func IsValidTransactionType(t string) bool {
	switch t {
	case TxTypePurchaseReceiving, TxTypeSalesShipment,
		TxTypeAdjustmentIn, TxTypeAdjustmentOut,
		TxTypeTransferIn, TxTypeTransferOut,
		TxTypeInitialStock:
		return true
	}
	return false
}

// IsStockDecreasingType indica si el tipo implica una salida de stock
// (su ChangeQuantity esperado es negativo).
func IsStockDecreasingType(t string) bool {
	switch t {
	case TxTypeSalesShipment, TxTypeAdjustmentOut, TxTypeTransferOut:
		return true
	}
	return false
}

// StockTransaction es el registro de auditoría inmutable de una mutación de
// cantidad: se crea exactamente una vez por invocación exitosa del motor y
// nunca se actualiza ni se borra (libro mayor append-only).
type StockTransaction struct {
	ID                string
	ItemID            string
	LocationID        string
	ChangeQuantity    int64  // con signo, distinto de cero
	ResultingQuantity int64  // foto de InventoryLevel.Quantity justo después del cambio
	Type              string // uno de los siete TxType*
	UserID            string // principal actuante; vacío = sistema/desconocido
	Notes             string
	ReferenceID       string    // referencia externa (factura, orden, etc.)
	TransactionDate   time.Time // fecha lógica del evento (puede ser retroactiva)
	CreatedAt         time.Time // fecha física de inserción
}
