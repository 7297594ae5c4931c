package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// ValuationRow es una posición valorable: cantidad positiva con su costo.
type ValuationRow struct {
	ProductVariantID string
	SKU              string
	ProductName      string
	LocationID       string
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal // promedio ponderado; BuyPrice si no hay historial
}

// InventoryStatsRow agregados globales del inventario.
type InventoryStatsRow struct {
	DistinctSKUs      int
	TotalOnHand       decimal.Decimal
	TotalReserved     decimal.Decimal
	BelowReorderPoint int
}

// PurchaseSuggestionRow variante bajo punto de reorden con cantidad sugerida.
type PurchaseSuggestionRow struct {
	ProductVariantID string
	SKU              string
	ProductName      string
	AvailableStock   decimal.Decimal
	ReorderPoint     decimal.Decimal
	UnitCost         decimal.Decimal
}

// CostingRepository define el puerto de proyecciones de solo lectura sobre el
// historial del ledger. No participa en transacciones de escritura.
type CostingRepository interface {
	ListValuationRows(ctx context.Context) ([]ValuationRow, error)
	GetInventoryStats(ctx context.Context) (*InventoryStatsRow, error)
	ListPurchaseSuggestions(ctx context.Context) ([]PurchaseSuggestionRow, error)
}
