package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchData datos opcionales de lote en una entrada de stock.
type BatchData struct {
	BatchNumber       string     `json:"batch_number"`
	ManufacturingDate time.Time  `json:"manufacturing_date"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	SourceLocationID      string          `json:"source_location_id"`
	DestinationLocationID string          `json:"destination_location_id"`
	ProductVariantID      string          `json:"product_variant_id"`
	Quantity              decimal.Decimal `json:"quantity"`
	Notes                 string          `json:"notes,omitempty"`
	Date                  *time.Time      `json:"date,omitempty"`
}

// BulkTransferRequest body para POST /api/inventory/transfers/bulk.
// Todas las líneas se aplican en una sola transacción (todo o nada).
type BulkTransferRequest struct {
	Items []TransferRequest `json:"items"`
}

// AdjustRequest body para POST /api/inventory/adjustments.
type AdjustRequest struct {
	LocationID       string           `json:"location_id"`
	ProductVariantID string           `json:"product_variant_id"`
	Direction        string           `json:"direction"` // IN u OUT
	Quantity         decimal.Decimal  `json:"quantity"`
	Reason           string           `json:"reason"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"` // entradas: actualiza promedio ponderado
	Batch            *BatchData       `json:"batch,omitempty"`     // entradas: crea lote
}

// ReservationRequest body para POST /api/reservations.
type ReservationRequest struct {
	ProductVariantID string          `json:"product_variant_id"`
	LocationID       string          `json:"location_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedFor      string          `json:"reserved_for"`
	ReferenceID      string          `json:"reference_id,omitempty"`
	ReservedUntil    *time.Time      `json:"reserved_until,omitempty"`
}

// MutationResponse resultado de toda operación mutadora: éxito o mensaje de error,
// más advertencias no fatales (ej. stock negativo por backflush).
type MutationResponse struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	ID       string   `json:"id,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// StockPositionDTO vista de una posición de stock con disponibilidad.
type StockPositionDTO struct {
	LocationID       string          `json:"location_id"`
	ProductVariantID string          `json:"product_variant_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	Reserved         decimal.Decimal `json:"reserved"`
	Available        decimal.Decimal `json:"available"`
}

// MovementEntryDTO vista de una fila del ledger.
type MovementEntryDTO struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	ProductVariantID string          `json:"product_variant_id"`
	FromLocationID   *string         `json:"from_location_id,omitempty"`
	ToLocationID     *string         `json:"to_location_id,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Reference        string          `json:"reference"`
	BatchID          *string         `json:"batch_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
