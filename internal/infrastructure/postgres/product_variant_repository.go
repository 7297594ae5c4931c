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

var _ repository.ProductVariantRepository = (*ProductVariantRepo)(nil)

// ProductVariantRepo implementación sobre PostgreSQL (usable con pool o tx).
type ProductVariantRepo struct {
	q Querier
}

// NewProductVariantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductVariantRepository(q Querier) *ProductVariantRepo {
	return &ProductVariantRepo{q: q}
}

const variantColumns = `id, sku, name, unit_of_measure, buy_price, sell_price, cost, reorder_point, track_batches, created_at, updated_at`

// GetByID obtiene una variante por ID; nil si no existe.
func (r *ProductVariantRepo) GetByID(id string) (*entity.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetBySKU obtiene una variante por su SKU único; nil si no existe.
func (r *ProductVariantRepo) GetBySKU(sku string) (*entity.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE sku = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, sku))
}

func (r *ProductVariantRepo) scanOne(row pgx.Row) (*entity.ProductVariant, error) {
	var v entity.ProductVariant
	err := row.Scan(
		&v.ID, &v.SKU, &v.Name, &v.UnitOfMeasure, &v.BuyPrice, &v.SellPrice,
		&v.Cost, &v.ReorderPoint, &v.TrackBatches, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return &v, nil
}

// List lista variantes paginadas por SKU.
func (r *ProductVariantRepo) List(limit, offset int) ([]*entity.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants ORDER BY sku LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductVariant
	for rows.Next() {
		var v entity.ProductVariant
		if err := rows.Scan(&v.ID, &v.SKU, &v.Name, &v.UnitOfMeasure, &v.BuyPrice, &v.SellPrice,
			&v.Cost, &v.ReorderPoint, &v.TrackBatches, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}

// UpdateCost actualiza el costo promedio ponderado de la variante.
func (r *ProductVariantRepo) UpdateCost(id string, cost decimal.Decimal) error {
	query := `UPDATE product_variants SET cost = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, cost)
	if err != nil {
		return fmt.Errorf("update variant cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update variant cost: no existe %s", id)
	}
	return nil
}

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación sobre PostgreSQL (usable con pool o tx).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

const locationColumns = `id, code, name, type, created_at, updated_at`

// GetByID obtiene una ubicación por ID; nil si no existe.
func (r *LocationRepo) GetByID(id string) (*entity.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	var l entity.Location
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&l.ID, &l.Code, &l.Name, &l.Type, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// List lista todas las ubicaciones.
func (r *LocationRepo) List() ([]*entity.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations ORDER BY code`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.Type, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// GetScrapLocation obtiene la primera ubicación de tipo SCRAP; nil si no hay.
func (r *LocationRepo) GetScrapLocation() (*entity.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE type = $1 ORDER BY code LIMIT 1`
	var l entity.Location
	err := r.q.QueryRow(context.Background(), query, entity.LocationTypeScrap).Scan(
		&l.ID, &l.Code, &l.Name, &l.Type, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get scrap location: %w", err)
	}
	return &l, nil
}
