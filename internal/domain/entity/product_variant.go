package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductVariant representa un SKU vendible o consumible del inventario.
// Cost es el costo promedio ponderado mantenido por el ledger en cada entrada;
// BuyPrice es el precio estático de compra usado como fallback de valoración.
type ProductVariant struct {
	ID            string
	SKU           string // código único
	Name          string
	UnitOfMeasure string // kg, und, lt...
	BuyPrice      decimal.Decimal
	SellPrice     decimal.Decimal
	Cost          decimal.Decimal // promedio ponderado, actualizado en entradas
	ReorderPoint  decimal.Decimal
	TrackBatches  bool // si true, las entradas pueden crear lotes y las salidas consumen FIFO
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
