package costing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/application/dto"
	"github.com/clarinovist/manufactura-api/internal/application/production"
	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

// UseCase es el agregador de costeo: proyecciones de solo lectura sobre el
// historial del ledger. Tolera historial parcialmente costeado cayendo al
// precio estático de compra de la variante.
type UseCase struct {
	costingRepo  repository.CostingRepository
	movementRepo repository.StockMovementRepository
	orderRepo    repository.ProductionOrderRepository
	variantRepo  repository.ProductVariantRepository
}

// NewUseCase construye el agregador.
func NewUseCase(
	costingRepo repository.CostingRepository,
	movementRepo repository.StockMovementRepository,
	orderRepo repository.ProductionOrderRepository,
	variantRepo repository.ProductVariantRepository,
) *UseCase {
	return &UseCase{
		costingRepo:  costingRepo,
		movementRepo: movementRepo,
		orderRepo:    orderRepo,
		variantRepo:  variantRepo,
	}
}

// Valuation valora cada posición con cantidad positiva: cantidad × costo
// unitario (promedio ponderado si existe; si no, precio de compra estático).
func (uc *UseCase) Valuation(ctx context.Context) (*dto.InventoryValuationDTO, error) {
	rows, err := uc.costingRepo.ListValuationRows(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.InventoryValuationDTO{Items: make([]dto.ValuationItemDTO, 0, len(rows))}
	for _, r := range rows {
		if !r.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		total := r.Quantity.Mul(r.UnitCost)
		out.Items = append(out.Items, dto.ValuationItemDTO{
			ProductVariantID: r.ProductVariantID,
			SKU:              r.SKU,
			ProductName:      r.ProductName,
			LocationID:       r.LocationID,
			Quantity:         r.Quantity,
			UnitCost:         r.UnitCost,
			TotalValue:       total,
		})
		out.TotalValue = out.TotalValue.Add(total)
	}
	return out, nil
}

// OrderCosting calcula el costo de fabricación de una orden: costo de material
// (Σ cantidad consumida × costo unitario al momento de la emisión, manual o
// backflush, neto de anulaciones) más costo de conversión suministrado
// externamente; dividido por ActualQuantity para el costo unitario.
func (uc *UseCase) OrderCosting(ctx context.Context, orderID string, conversionCost decimal.Decimal) (*dto.OrderCostingDTO, error) {
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	entries, err := uc.movementRepo.ListByReferencePrefix(production.OrderRefPrefix(orderID))
	if err != nil {
		return nil, err
	}

	// Consumo de material = salidas de variantes distintas a la de salida,
	// menos las devoluciones compensatorias de anulaciones.
	materialCost := decimal.Zero
	for _, e := range entries {
		if e.ProductVariantID == order.ProductVariantID {
			continue
		}
		cost := e.Quantity.Mul(e.UnitCost)
		switch {
		case e.Type.Outbound():
			materialCost = materialCost.Add(cost)
		case e.Type.Inbound():
			materialCost = materialCost.Sub(cost)
		}
	}

	total := materialCost.Add(conversionCost)
	unit := decimal.Zero
	if order.ActualQuantity.GreaterThan(decimal.Zero) {
		unit = total.Div(order.ActualQuantity)
	}
	return &dto.OrderCostingDTO{
		ProductionOrderID: order.ID,
		OrderNumber:       order.OrderNumber,
		MaterialCost:      materialCost,
		ConversionCost:    conversionCost,
		TotalCost:         total,
		ActualQuantity:    order.ActualQuantity,
		UnitCost:          unit,
	}, nil
}

// Stats devuelve agregados globales del inventario.
func (uc *UseCase) Stats(ctx context.Context) (*dto.InventoryStatsDTO, error) {
	row, err := uc.costingRepo.GetInventoryStats(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.InventoryStatsDTO{
		DistinctSKUs:      row.DistinctSKUs,
		TotalOnHand:       row.TotalOnHand,
		TotalReserved:     row.TotalReserved,
		BelowReorderPoint: row.BelowReorderPoint,
	}, nil
}

// SuggestedPurchases lista variantes cuyo disponible está bajo el punto de
// reorden, con cantidad sugerida (stock ideal = reorden × 1.5) y costo estimado.
func (uc *UseCase) SuggestedPurchases(ctx context.Context) ([]dto.PurchaseSuggestionDTO, error) {
	rows, err := uc.costingRepo.ListPurchaseSuggestions(ctx)
	if err != nil {
		return nil, err
	}
	idealFactor := decimal.NewFromFloat(1.5)
	out := make([]dto.PurchaseSuggestionDTO, 0, len(rows))
	for _, r := range rows {
		ideal := r.ReorderPoint.Mul(idealFactor)
		suggested := ideal.Sub(r.AvailableStock)
		if suggested.LessThanOrEqual(decimal.Zero) {
			continue
		}
		out = append(out, dto.PurchaseSuggestionDTO{
			ProductVariantID:   r.ProductVariantID,
			SKU:                r.SKU,
			ProductName:        r.ProductName,
			AvailableStock:     r.AvailableStock,
			ReorderPoint:       r.ReorderPoint,
			SuggestedOrderQty:  suggested,
			EstimatedOrderCost: suggested.Mul(r.UnitCost),
		})
	}
	return out, nil
}
