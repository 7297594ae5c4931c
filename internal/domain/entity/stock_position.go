package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPosition representa el stock físico de una variante en una ubicación.
// Única por (LocationID, ProductVariantID); se crea en la primera entrada y nunca
// se elimina. Solo el backflush permisivo puede dejarla en negativo.
type StockPosition struct {
	LocationID       string
	ProductVariantID string
	Quantity         decimal.Decimal
	UpdatedAt        time.Time
}
