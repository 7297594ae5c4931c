package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación sobre PostgreSQL (usable con pool o tx).
// Las reservas nunca se eliminan físicamente.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, product_variant_id, location_id, quantity, status, reserved_for, reference_id, reserved_until, created_at, updated_at`

// Create persiste una reserva.
func (r *ReservationRepo) Create(reservation *entity.StockReservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`
	_, err := r.q.Exec(context.Background(), query,
		reservation.ID, reservation.ProductVariantID, reservation.LocationID, reservation.Quantity,
		reservation.Status, reservation.ReservedFor, reservation.ReferenceID, reservation.ReservedUntil,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// GetByID obtiene una reserva; nil si no existe.
func (r *ReservationRepo) GetByID(id string) (*entity.StockReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate obtiene la reserva y bloquea la fila (cambios de estado concurrentes).
func (r *ReservationRepo) GetForUpdate(id string) (*entity.StockReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

func (r *ReservationRepo) scanOne(row pgx.Row) (*entity.StockReservation, error) {
	var res entity.StockReservation
	err := row.Scan(
		&res.ID, &res.ProductVariantID, &res.LocationID, &res.Quantity, &res.Status,
		&res.ReservedFor, &res.ReferenceID, &res.ReservedUntil, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &res, nil
}

// UpdateStatus cambia el estado de la reserva.
func (r *ReservationRepo) UpdateStatus(id string, status entity.ReservationStatus) error {
	query := `UPDATE stock_reservations SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, status)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update reservation status: no existe %s", id)
	}
	return nil
}

// SumActive suma las cantidades ACTIVE por (variante, ubicación).
func (r *ReservationRepo) SumActive(variantID, locationID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_reservations
		WHERE product_variant_id = $1 AND location_id = $2 AND status = $3`
	var sum decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, variantID, locationID, entity.ReservationActive).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum active reservations: %w", err)
	}
	return sum, nil
}

// ListExpired lista reservas ACTIVE con reserved_until vencido al instante dado.
func (r *ReservationRepo) ListExpired(now time.Time) ([]*entity.StockReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations
		WHERE status = $1 AND reserved_until IS NOT NULL AND reserved_until < $2
		ORDER BY reserved_until ASC`
	rows, err := r.q.Query(context.Background(), query, entity.ReservationActive, now)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockReservation
	for rows.Next() {
		var res entity.StockReservation
		if err := rows.Scan(&res.ID, &res.ProductVariantID, &res.LocationID, &res.Quantity, &res.Status,
			&res.ReservedFor, &res.ReferenceID, &res.ReservedUntil, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, &res)
	}
	return list, rows.Err()
}
