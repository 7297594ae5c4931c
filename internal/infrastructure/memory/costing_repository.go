package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.CostingRepository = (*CostingRepo)(nil)

// CostingRepo calcula las proyecciones de costeo directamente sobre el Store.
type CostingRepo struct{ store *Store }

// NewCostingRepository construye el adaptador.
func NewCostingRepository(store *Store) *CostingRepo {
	return &CostingRepo{store: store}
}

func (r *CostingRepo) ListValuationRows(_ context.Context) ([]repository.ValuationRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var rows []repository.ValuationRow
	for key, pos := range r.store.positions {
		if !pos.Quantity.IsPositive() {
			continue
		}
		v, ok := r.store.variants[key.variantID]
		if !ok {
			continue
		}
		rows = append(rows, repository.ValuationRow{
			ProductVariantID: v.ID,
			SKU:              v.SKU,
			ProductName:      v.Name,
			LocationID:       key.locationID,
			Quantity:         pos.Quantity,
			UnitCost:         valuationCost(v),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SKU != rows[j].SKU {
			return rows[i].SKU < rows[j].SKU
		}
		return rows[i].LocationID < rows[j].LocationID
	})
	return rows, nil
}

func (r *CostingRepo) GetInventoryStats(_ context.Context) (*repository.InventoryStatsRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stats := &repository.InventoryStatsRow{
		TotalOnHand:   decimal.Zero,
		TotalReserved: decimal.Zero,
	}
	onHand := make(map[string]decimal.Decimal)
	for key, pos := range r.store.positions {
		onHand[key.variantID] = onHand[key.variantID].Add(pos.Quantity)
		stats.TotalOnHand = stats.TotalOnHand.Add(pos.Quantity)
	}
	for _, res := range r.store.reservations {
		if res.Status == entity.ReservationActive {
			stats.TotalReserved = stats.TotalReserved.Add(res.Quantity)
		}
	}
	for _, v := range r.store.variants {
		stats.DistinctSKUs++
		if onHand[v.ID].LessThan(v.ReorderPoint) {
			stats.BelowReorderPoint++
		}
	}
	return stats, nil
}

func (r *CostingRepo) ListPurchaseSuggestions(_ context.Context) ([]repository.PurchaseSuggestionRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	onHand := make(map[string]decimal.Decimal)
	for key, pos := range r.store.positions {
		onHand[key.variantID] = onHand[key.variantID].Add(pos.Quantity)
	}
	reserved := make(map[string]decimal.Decimal)
	for _, res := range r.store.reservations {
		if res.Status == entity.ReservationActive {
			reserved[res.ProductVariantID] = reserved[res.ProductVariantID].Add(res.Quantity)
		}
	}

	var rows []repository.PurchaseSuggestionRow
	for _, v := range r.store.variants {
		available := onHand[v.ID].Sub(reserved[v.ID])
		if available.GreaterThanOrEqual(v.ReorderPoint) {
			continue
		}
		rows = append(rows, repository.PurchaseSuggestionRow{
			ProductVariantID: v.ID,
			SKU:              v.SKU,
			ProductName:      v.Name,
			AvailableStock:   available,
			ReorderPoint:     v.ReorderPoint,
			UnitCost:         valuationCost(v),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SKU < rows[j].SKU })
	return rows, nil
}

// valuationCost usa el promedio ponderado; BuyPrice si no hay historial de entradas.
func valuationCost(v *entity.ProductVariant) decimal.Decimal {
	if v.Cost.IsPositive() {
		return v.Cost
	}
	return v.BuyPrice
}
