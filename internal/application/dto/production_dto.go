package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemInput línea explícita de material (override de la BOM).
type OrderItemInput struct {
	ProductVariantID string          `json:"product_variant_id"`
	Quantity         decimal.Decimal `json:"quantity"`
}

// ProductionOrderCreate body para POST /api/production-orders.
// Si Items viene vacío, los materiales se calculan explotando la BOM.
type ProductionOrderCreate struct {
	BOMID            string           `json:"bom_id"`
	PlannedQuantity  decimal.Decimal  `json:"planned_quantity"`
	PlannedStartDate *time.Time       `json:"planned_start_date,omitempty"`
	PlannedEndDate   *time.Time       `json:"planned_end_date,omitempty"`
	LocationID       string           `json:"location_id"`
	MachineID        *string          `json:"machine_id,omitempty"`
	Items            []OrderItemInput `json:"items,omitempty"`
}

// MaterialIssueRequest body para POST /api/production-orders/:id/issues.
type MaterialIssueRequest struct {
	ProductVariantID string          `json:"product_variant_id"`
	LocationID       string          `json:"location_id"`
	Quantity         decimal.Decimal `json:"quantity"`
}

// ProductionOutputRequest body para POST /api/production-orders/:id/outputs.
type ProductionOutputRequest struct {
	QuantityProduced decimal.Decimal `json:"quantity_produced"`
	ScrapQuantity    decimal.Decimal `json:"scrap_quantity"`
	MachineID        *string         `json:"machine_id,omitempty"`
	OperatorID       *string         `json:"operator_id,omitempty"`
	ShiftID          *string         `json:"shift_id,omitempty"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	Notes            string          `json:"notes,omitempty"`
}

// ScrapRequest body para POST /api/production-orders/:id/scrap.
// LocationID opcional: por defecto la ubicación SCRAP configurada.
type ScrapRequest struct {
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason"`
	LocationID string          `json:"location_id,omitempty"`
}

// InspectionRequest body para POST /api/production-orders/:id/inspections.
type InspectionRequest struct {
	Result   string          `json:"result"` // PASS, FAIL, QUARANTINE
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes,omitempty"`
}

// ExplodeRequest body para POST /api/boms/:id/explode.
type ExplodeRequest struct {
	TargetQuantity decimal.Decimal `json:"target_quantity"`
}

// RequirementPreviewDTO requerimiento explotado contrastado con stock actual.
type RequirementPreviewDTO struct {
	ProductVariantID string          `json:"product_variant_id"`
	RequiredQuantity decimal.Decimal `json:"required_quantity"`
	OnHand           decimal.Decimal `json:"on_hand"`
	Available        decimal.Decimal `json:"available"`
	Shortage         decimal.Decimal `json:"shortage"` // max(0, requerido - disponible)
}

// ProductionOrderDTO vista de la orden para respuestas HTTP.
type ProductionOrderDTO struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	BOMID           string          `json:"bom_id"`
	Status          string          `json:"status"`
	PlannedQuantity decimal.Decimal `json:"planned_quantity"`
	ActualQuantity  decimal.Decimal `json:"actual_quantity"`
	LocationID      string          `json:"location_id"`
	Warnings        []string        `json:"warnings,omitempty"`
}
