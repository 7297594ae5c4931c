package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus estado cerrado de una reserva.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationFulfilled ReservationStatus = "FULFILLED"
)

// Valid reporta si el estado pertenece al conjunto cerrado.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationActive, ReservationCancelled, ReservationFulfilled:
		return true
	}
	return false
}

// Terminal reporta si el estado ya no admite transiciones.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCancelled || s == ReservationFulfilled
}

// StockReservation es una retención blanda contra stock físico.
// No debita StockPosition: disponible = físico − Σ(reservas ACTIVE).
// Nunca se elimina (auditoría); transiciona a CANCELLED o FULFILLED.
type StockReservation struct {
	ID               string
	ProductVariantID string
	LocationID       string
	Quantity         decimal.Decimal
	Status           ReservationStatus
	ReservedFor      string // propósito: venta, orden, etc.
	ReferenceID      string
	ReservedUntil    *time.Time // expiración opcional, la aplica el barrido externo
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Expired reporta si la reserva está vencida en el instante dado.
func (r *StockReservation) Expired(now time.Time) bool {
	return r.ReservedUntil != nil && r.ReservedUntil.Before(now)
}
