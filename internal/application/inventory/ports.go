package inventory

import (
	"context"

	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el ledger:
// posición + entrada del ledger + lote + reserva se confirman juntos o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error) error
}
