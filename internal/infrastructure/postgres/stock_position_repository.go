package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.StockPositionRepository = (*StockPositionRepo)(nil)

// StockPositionRepo implementación sobre PostgreSQL (usable con pool o tx).
type StockPositionRepo struct {
	q Querier
}

// NewStockPositionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockPositionRepository(q Querier) *StockPositionRepo {
	return &StockPositionRepo{q: q}
}

// Get obtiene la posición de stock de una variante en una ubicación.
// Si no existe devuelve una posición en cero, nunca nil.
func (r *StockPositionRepo) Get(locationID, variantID string) (*entity.StockPosition, error) {
	query := `
		SELECT location_id, product_variant_id, quantity, updated_at
		FROM stock_positions WHERE location_id = $1 AND product_variant_id = $2`
	var p entity.StockPosition
	err := r.q.QueryRow(context.Background(), query, locationID, variantID).Scan(
		&p.LocationID, &p.ProductVariantID, &p.Quantity, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockPosition{LocationID: locationID, ProductVariantID: variantID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock position: %w", err)
	}
	return &p, nil
}

// GetForUpdate obtiene la posición y bloquea la fila (SELECT FOR UPDATE).
func (r *StockPositionRepo) GetForUpdate(locationID, variantID string) (*entity.StockPosition, error) {
	query := `
		SELECT location_id, product_variant_id, quantity, updated_at
		FROM stock_positions WHERE location_id = $1 AND product_variant_id = $2
		FOR UPDATE`
	var p entity.StockPosition
	err := r.q.QueryRow(context.Background(), query, locationID, variantID).Scan(
		&p.LocationID, &p.ProductVariantID, &p.Quantity, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockPosition{LocationID: locationID, ProductVariantID: variantID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock position for update: %w", err)
	}
	return &p, nil
}

// Upsert inserta o actualiza la cantidad (por ubicación y variante).
func (r *StockPositionRepo) Upsert(position *entity.StockPosition) error {
	query := `
		INSERT INTO stock_positions (location_id, product_variant_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (location_id, product_variant_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query, position.LocationID, position.ProductVariantID, position.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock position: %w", err)
	}
	return nil
}

// ListByVariant lista las posiciones de una variante en todas las ubicaciones.
func (r *StockPositionRepo) ListByVariant(variantID string) ([]*entity.StockPosition, error) {
	query := `
		SELECT location_id, product_variant_id, quantity, updated_at
		FROM stock_positions WHERE product_variant_id = $1
		ORDER BY location_id`
	rows, err := r.q.Query(context.Background(), query, variantID)
	if err != nil {
		return nil, fmt.Errorf("list positions by variant: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockPosition
	for rows.Next() {
		var p entity.StockPosition
		if err := rows.Scan(&p.LocationID, &p.ProductVariantID, &p.Quantity, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
