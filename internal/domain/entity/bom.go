package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOM define la receta de una variante de salida sobre una cantidad base.
// Invariante: OutputQuantity > 0.
type BOM struct {
	ID               string
	ProductVariantID string          // variante de salida
	OutputQuantity   decimal.Decimal // cantidad base de la receta (ej. 100)
	IsDefault        bool
	Items            []BOMItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BOMItem es un insumo de la receta: cantidad requerida por cantidad base,
// inflada por porcentaje de desperdicio al explotar.
type BOMItem struct {
	ID               string
	BOMID            string
	ProductVariantID string // variante de entrada
	Quantity         decimal.Decimal
	ScrapPercentage  decimal.Decimal // 0..100
}
