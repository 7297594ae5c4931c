package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo cerrado de movimiento del ledger.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTransfer      MovementType = "TRANSFER"       // traslado entre ubicaciones (From y To)
	MovementAdjustmentIn  MovementType = "ADJUSTMENT_IN"  // entrada por ajuste (solo To)
	MovementAdjustmentOut MovementType = "ADJUSTMENT_OUT" // salida por ajuste (solo From)
	MovementProductionIn  MovementType = "PRODUCTION_IN"  // entrada de producto terminado o scrap (solo To)
	MovementProductionOut MovementType = "PRODUCTION_OUT" // consumo de material (solo From)
)

// Valid reporta si el tipo pertenece al conjunto cerrado.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTransfer, MovementAdjustmentIn, MovementAdjustmentOut,
		MovementProductionIn, MovementProductionOut:
		return true
	}
	return false
}

// Inbound reporta si el tipo suma stock en ToLocationID.
func (t MovementType) Inbound() bool {
	return t == MovementAdjustmentIn || t == MovementProductionIn
}

// Outbound reporta si el tipo resta stock en FromLocationID.
func (t MovementType) Outbound() bool {
	return t == MovementAdjustmentOut || t == MovementProductionOut
}

// StockMovementEntry es una fila inmutable del ledger de inventario.
// Quantity es siempre positiva; el signo lo da el tipo y la ubicación:
// TRANSFER resta en From y suma en To. La suma firmada de entradas por
// (variante, ubicación) debe reproducir StockPosition.Quantity (invariante núcleo).
// Nunca se muta ni se borra; una reversión es una entrada compensatoria nueva.
type StockMovementEntry struct {
	ID               string
	Type             MovementType
	ProductVariantID string
	FromLocationID   *string // TRANSFER y salidas
	ToLocationID     *string // TRANSFER y entradas
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal // costo unitario al momento del movimiento
	Reference        string          // procedencia libre: orden, ajuste, backflush...
	BatchID          *string
	CreatedAt        time.Time
	CreatedBy        *string
}

// SignedQuantityAt devuelve la contribución firmada de la entrada al stock
// de locationID (positiva entrada, negativa salida, cero si no aplica).
func (e *StockMovementEntry) SignedQuantityAt(locationID string) decimal.Decimal {
	if e.ToLocationID != nil && *e.ToLocationID == locationID {
		return e.Quantity
	}
	if e.FromLocationID != nil && *e.FromLocationID == locationID {
		return e.Quantity.Neg()
	}
	return decimal.Zero
}
