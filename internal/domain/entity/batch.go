package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus estado cerrado de un lote.
type BatchStatus string

const (
	BatchActive     BatchStatus = "ACTIVE"
	BatchQuarantine BatchStatus = "QUARANTINE"
	BatchConsumed   BatchStatus = "CONSUMED"
	BatchExpired    BatchStatus = "EXPIRED"
)

// Valid reporta si el estado pertenece al conjunto cerrado.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchActive, BatchQuarantine, BatchConsumed, BatchExpired:
		return true
	}
	return false
}

// Batch representa un lote asociado a una entrada de stock.
// Quantity es la cantidad restante; se decrementa al consumir (orden FIFO
// por ManufacturingDate) y el lote pasa a CONSUMED al llegar a cero.
type Batch struct {
	ID                string
	BatchNumber       string // único
	ProductVariantID  string
	LocationID        string
	Quantity          decimal.Decimal
	ManufacturingDate time.Time
	ExpiryDate        *time.Time
	Status            BatchStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsExpired reporta si el lote está vencido en el instante dado.
func (b *Batch) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now)
}
