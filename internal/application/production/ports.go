package production

import (
	"context"

	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios de producción e inventario atados a esa tx. El motor de consumo
// postea al ledger dentro de la MISMA transacción que muta la orden: ejecución,
// entrada de producto terminado y backflush se confirman juntos o nada.
type TxRunner interface {
	RunProduction(ctx context.Context, fn func(
		orderRepo repository.ProductionOrderRepository,
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error) error
}
