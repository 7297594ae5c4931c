package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado cerrado de una orden de producción.
type OrderStatus string

const (
	OrderDraft           OrderStatus = "DRAFT"
	OrderReleased        OrderStatus = "RELEASED"
	OrderWaitingMaterial OrderStatus = "WAITING_MATERIAL"
	OrderInProgress      OrderStatus = "IN_PROGRESS"
	OrderCompleted       OrderStatus = "COMPLETED"
	OrderCancelled       OrderStatus = "CANCELLED"
)

// Valid reporta si el estado pertenece al conjunto cerrado.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderDraft, OrderReleased, OrderWaitingMaterial, OrderInProgress,
		OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Terminal reporta si el estado ya no admite transiciones.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// orderTransitions tabla explícita de transiciones permitidas.
// WAITING_MATERIAL no es destino manual: lo deriva Release cuando falta material.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderDraft:           {OrderReleased, OrderWaitingMaterial, OrderCancelled},
	OrderReleased:        {OrderInProgress, OrderCancelled},
	OrderWaitingMaterial: {OrderReleased, OrderCancelled},
	OrderInProgress:      {OrderCompleted, OrderCancelled},
}

// CanTransition reporta si la transición from→to está en la tabla.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ExecutionStatus estado de un evento de registro de salida.
type ExecutionStatus string

const (
	ExecutionActive ExecutionStatus = "ACTIVE"
	ExecutionVoided ExecutionStatus = "VOIDED"
)

// Resultados de inspección de calidad.
const (
	InspectionPass       = "PASS"
	InspectionFail       = "FAIL"
	InspectionQuarantine = "QUARANTINE"
)

// ProductionOrder representa una orden de fabricación y su ciclo de vida.
// Nace en DRAFT y nunca se destruye (cancelación blanda). ActualQuantity es
// monótona no decreciente una vez registrada salida.
type ProductionOrder struct {
	ID               string
	OrderNumber      string // único
	BOMID            string
	ProductVariantID string // variante de salida
	PlannedQuantity  decimal.Decimal
	ActualQuantity   decimal.Decimal
	Status           OrderStatus
	MachineID        *string
	LocationID       string // ubicación destino del producto terminado y origen de backflush
	PlannedStart     *time.Time
	PlannedEnd       *time.Time
	ActualStart      *time.Time
	ActualEnd        *time.Time
	ManualIssue      bool // true si existe emisión manual: desactiva el backflush
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CreatedBy        *string

	Materials   []ProductionMaterial
	Issues      []MaterialIssue
	Scraps      []ScrapRecord
	Executions  []ProductionExecution
	Inspections []QualityInspection
}

// CanCancel aplica la guarda de cancelación: sin emisiones de material, sin
// ejecuciones y sin cantidad producida. Impide cancelar trabajo en marcha.
func (o *ProductionOrder) CanCancel() bool {
	return len(o.Issues) == 0 && len(o.Executions) == 0 && o.ActualQuantity.IsZero()
}

// ProductionMaterial es el snapshot de requerimiento planificado, calculado al
// crear la orden desde la BOM o suministrado explícitamente.
type ProductionMaterial struct {
	ID                string
	ProductionOrderID string
	ProductVariantID  string
	RequiredQuantity  decimal.Decimal
	IssuedQuantity    decimal.Decimal // acumulado emitido (manual + backflush)
}

// MaterialIssue registra un consumo manual de material contra la orden.
type MaterialIssue struct {
	ID                string
	ProductionOrderID string
	ProductVariantID  string
	LocationID        string // origen
	Quantity          decimal.Decimal
	UnitCost          decimal.Decimal
	CreatedAt         time.Time
	CreatedBy         *string
}

// ScrapRecord registra un evento de desperdicio; no reduce ActualQuantity.
type ScrapRecord struct {
	ID                string
	ProductionOrderID string
	ProductVariantID  string
	LocationID        string // ubicación de scrap destino
	Quantity          decimal.Decimal
	Reason            string
	CreatedAt         time.Time
}

// ProductionExecution es un evento discreto de registro de salida.
type ProductionExecution struct {
	ID                string
	ProductionOrderID string
	QuantityProduced  decimal.Decimal
	ScrapQuantity     decimal.Decimal
	StartTime         time.Time
	EndTime           time.Time
	Status            ExecutionStatus
	MachineID         *string
	OperatorID        *string
	ShiftID           *string
	Notes             string
	CreatedAt         time.Time
}

// QualityInspection registra un resultado de inspección sobre la orden.
type QualityInspection struct {
	ID                string
	ProductionOrderID string
	Result            string // PASS, FAIL, QUARANTINE
	Quantity          decimal.Decimal
	Notes             string
	InspectedBy       *string
	CreatedAt         time.Time
}
