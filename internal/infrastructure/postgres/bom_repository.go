package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implementación de lectura de recetas sobre PostgreSQL (usable con pool o tx).
type BOMRepo struct {
	q Querier
}

// NewBOMRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

// GetByID obtiene la BOM con sus items; nil si no existe.
func (r *BOMRepo) GetByID(id string) (*entity.BOM, error) {
	query := `
		SELECT id, product_variant_id, output_quantity, is_default, created_at, updated_at
		FROM boms WHERE id = $1`
	var b entity.BOM
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&b.ID, &b.ProductVariantID, &b.OutputQuantity, &b.IsDefault, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bom: %w", err)
	}
	if err := r.loadItems(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetDefaultByVariant obtiene la BOM por defecto de una variante de salida.
func (r *BOMRepo) GetDefaultByVariant(variantID string) (*entity.BOM, error) {
	query := `
		SELECT id, product_variant_id, output_quantity, is_default, created_at, updated_at
		FROM boms WHERE product_variant_id = $1 AND is_default = true
		LIMIT 1`
	var b entity.BOM
	err := r.q.QueryRow(context.Background(), query, variantID).Scan(
		&b.ID, &b.ProductVariantID, &b.OutputQuantity, &b.IsDefault, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get default bom: %w", err)
	}
	if err := r.loadItems(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BOMRepo) loadItems(b *entity.BOM) error {
	query := `
		SELECT id, bom_id, product_variant_id, quantity, scrap_percentage
		FROM bom_items WHERE bom_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, b.ID)
	if err != nil {
		return fmt.Errorf("list bom items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.BOMItem
		if err := rows.Scan(&it.ID, &it.BOMID, &it.ProductVariantID, &it.Quantity, &it.ScrapPercentage); err != nil {
			return fmt.Errorf("scan bom item: %w", err)
		}
		b.Items = append(b.Items, it)
	}
	return rows.Err()
}
