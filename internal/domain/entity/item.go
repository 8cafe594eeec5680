package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un artículo o SKU del catálogo. El catálogo es propiedad de
// otra capa; el motor de stock solo lo lee por ID (nunca lo modifica).
type Item struct {
	ID                string
	SKU               string // código único
	Name              string
	UnitMeasure       string
	LowStockThreshold *int64           // nil = sin alerta de stock bajo
	CostPrice         *decimal.Decimal // opcional
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
