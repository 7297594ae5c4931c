package bom

import (
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
)

// Requirement es la cantidad requerida de un insumo para una cantidad objetivo.
type Requirement struct {
	ProductVariantID string
	RequiredQuantity decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Explode expande la receta a un vector de requerimientos para targetQuantity.
// Función pura y determinista, sin efectos:
//
//	requerido = item.Quantity / bom.OutputQuantity * targetQuantity * (1 + ScrapPercentage/100)
//
// Falla con ErrInvalidInput si OutputQuantity <= 0 o targetQuantity negativa.
func Explode(b *entity.BOM, targetQuantity decimal.Decimal) ([]Requirement, error) {
	if b == nil || b.OutputQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if targetQuantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	reqs := make([]Requirement, 0, len(b.Items))
	for _, item := range b.Items {
		scrapFactor := decimal.NewFromInt(1).Add(item.ScrapPercentage.Div(hundred))
		qty := item.Quantity.Div(b.OutputQuantity).Mul(targetQuantity).Mul(scrapFactor)
		reqs = append(reqs, Requirement{
			ProductVariantID: item.ProductVariantID,
			RequiredQuantity: qty,
		})
	}
	return reqs, nil
}

// BackflushQuantity calcula el consumo proporcional de un insumo para una
// cantidad producida. A diferencia de Explode NO infla por desperdicio:
// el backflush deduce solo el consumo teórico de lo efectivamente producido.
func BackflushQuantity(b *entity.BOM, item entity.BOMItem, quantityProduced decimal.Decimal) decimal.Decimal {
	if b.OutputQuantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return item.Quantity.Div(b.OutputQuantity).Mul(quantityProduced)
}
