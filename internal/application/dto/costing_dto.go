package dto

import "github.com/shopspring/decimal"

// ValuationItemDTO valoración de una posición de stock.
type ValuationItemDTO struct {
	ProductVariantID string          `json:"product_variant_id"`
	SKU              string          `json:"sku"`
	ProductName      string          `json:"product_name"`
	LocationID       string          `json:"location_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalValue       decimal.Decimal `json:"total_value"`
}

// InventoryValuationDTO valoración total del inventario.
type InventoryValuationDTO struct {
	Items      []ValuationItemDTO `json:"items"`
	TotalValue decimal.Decimal    `json:"total_value"`
}

// OrderCostingDTO costo de fabricación de una orden (material + conversión).
type OrderCostingDTO struct {
	ProductionOrderID string          `json:"production_order_id"`
	OrderNumber       string          `json:"order_number"`
	MaterialCost      decimal.Decimal `json:"material_cost"`
	ConversionCost    decimal.Decimal `json:"conversion_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	ActualQuantity    decimal.Decimal `json:"actual_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"` // TotalCost / ActualQuantity; 0 si sin salida
}

// InventoryStatsDTO agregados del inventario.
type InventoryStatsDTO struct {
	DistinctSKUs      int             `json:"distinct_skus"`
	TotalOnHand       decimal.Decimal `json:"total_on_hand"`
	TotalReserved     decimal.Decimal `json:"total_reserved"`
	BelowReorderPoint int             `json:"below_reorder_point"`
}

// PurchaseSuggestionDTO sugerencia de compra para un SKU bajo punto de reorden.
type PurchaseSuggestionDTO struct {
	ProductVariantID   string          `json:"product_variant_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	AvailableStock     decimal.Decimal `json:"available_stock"`
	ReorderPoint       decimal.Decimal `json:"reorder_point"`
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"` // IdealStock - Available
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
}
