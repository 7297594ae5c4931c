package postgres

import (
	"context"
	"fmt"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.CostingRepository = (*CostingRepo)(nil)

// CostingRepo proyecciones de solo lectura para costeo y reposición.
// No participa en transacciones de escritura: consulta directo sobre el pool.
type CostingRepo struct {
	q Querier
}

// NewCostingRepository construye el adaptador de proyecciones.
func NewCostingRepository(q Querier) *CostingRepo {
	return &CostingRepo{q: q}
}

// ListValuationRows lista las posiciones positivas con su costo de valoración
// (promedio ponderado; buy_price si no hay historial de entradas).
func (r *CostingRepo) ListValuationRows(ctx context.Context) ([]repository.ValuationRow, error) {
	query := `
		SELECT v.id, v.sku, v.name, p.location_id, p.quantity,
		       CASE WHEN v.cost > 0 THEN v.cost ELSE v.buy_price END AS unit_cost
		FROM stock_positions p
		JOIN product_variants v ON v.id = p.product_variant_id
		WHERE p.quantity > 0
		ORDER BY v.sku, p.location_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list valuation rows: %w", err)
	}
	defer rows.Close()
	var list []repository.ValuationRow
	for rows.Next() {
		var row repository.ValuationRow
		if err := rows.Scan(&row.ProductVariantID, &row.SKU, &row.ProductName,
			&row.LocationID, &row.Quantity, &row.UnitCost); err != nil {
			return nil, fmt.Errorf("scan valuation row: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// GetInventoryStats calcula los agregados globales del inventario.
func (r *CostingRepo) GetInventoryStats(ctx context.Context) (*repository.InventoryStatsRow, error) {
	stats := &repository.InventoryStatsRow{}

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE COALESCE(s.on_hand, 0) < v.reorder_point),
		       COALESCE(SUM(COALESCE(s.on_hand, 0)), 0)
		FROM product_variants v
		LEFT JOIN (
			SELECT product_variant_id, SUM(quantity) AS on_hand
			FROM stock_positions GROUP BY product_variant_id
		) s ON s.product_variant_id = v.id`
	err := r.q.QueryRow(ctx, query).Scan(&stats.DistinctSKUs, &stats.BelowReorderPoint, &stats.TotalOnHand)
	if err != nil {
		return nil, fmt.Errorf("get inventory stats: %w", err)
	}

	err = r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_reservations WHERE status = $1`,
		entity.ReservationActive,
	).Scan(&stats.TotalReserved)
	if err != nil {
		return nil, fmt.Errorf("sum reserved: %w", err)
	}
	return stats, nil
}

// ListPurchaseSuggestions lista variantes cuyo disponible (físico − reservas
// ACTIVE) está bajo el punto de reorden.
func (r *CostingRepo) ListPurchaseSuggestions(ctx context.Context) ([]repository.PurchaseSuggestionRow, error) {
	query := `
		SELECT v.id, v.sku, v.name,
		       COALESCE(s.on_hand, 0) - COALESCE(res.reserved, 0) AS available,
		       v.reorder_point,
		       CASE WHEN v.cost > 0 THEN v.cost ELSE v.buy_price END AS unit_cost
		FROM product_variants v
		LEFT JOIN (
			SELECT product_variant_id, SUM(quantity) AS on_hand
			FROM stock_positions GROUP BY product_variant_id
		) s ON s.product_variant_id = v.id
		LEFT JOIN (
			SELECT product_variant_id, SUM(quantity) AS reserved
			FROM stock_reservations WHERE status = $1 GROUP BY product_variant_id
		) res ON res.product_variant_id = v.id
		WHERE COALESCE(s.on_hand, 0) - COALESCE(res.reserved, 0) < v.reorder_point
		ORDER BY v.sku`
	rows, err := r.q.Query(ctx, query, entity.ReservationActive)
	if err != nil {
		return nil, fmt.Errorf("list purchase suggestions: %w", err)
	}
	defer rows.Close()
	var list []repository.PurchaseSuggestionRow
	for rows.Next() {
		var row repository.PurchaseSuggestionRow
		if err := rows.Scan(&row.ProductVariantID, &row.SKU, &row.ProductName,
			&row.AvailableStock, &row.ReorderPoint, &row.UnitCost); err != nil {
			return nil, fmt.Errorf("scan purchase suggestion: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
