package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia de reservas.
// Las reservas nunca se eliminan físicamente (auditoría).
type ReservationRepository interface {
	Create(reservation *entity.StockReservation) error
	GetByID(id string) (*entity.StockReservation, error)
	// GetForUpdate bloquea la fila de la reserva (cambios de estado concurrentes).
	GetForUpdate(id string) (*entity.StockReservation, error)
	UpdateStatus(id string, status entity.ReservationStatus) error
	// SumActive suma las cantidades ACTIVE por (variante, ubicación); debe leerse
	// en el mismo snapshot transaccional que la escritura del ledger.
	SumActive(variantID, locationID string) (decimal.Decimal, error)
	ListExpired(now time.Time) ([]*entity.StockReservation, error)
}
