package memory

import (
	"context"

	"github.com/clarinovist/manufactura-api/internal/application/inventory"
	"github.com/clarinovist/manufactura-api/internal/application/production"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)
var _ production.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks contra el Store serializando con el mutex y
// simulando rollback: toma un snapshot antes de fn y lo restaura si fn falla.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run implementa inventory.TxRunner.
func (r *TxRunner) Run(ctx context.Context, fn func(
	posRepo repository.StockPositionRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
	batchRepo repository.BatchRepository,
	variantRepo repository.ProductVariantRepository,
) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	snap := r.store.snapshot()
	err := fn(
		NewStockPositionRepository(r.store),
		NewStockMovementRepository(r.store),
		NewReservationRepository(r.store),
		NewBatchRepository(r.store),
		NewProductVariantRepository(r.store),
	)
	if err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// RunProduction implementa production.TxRunner.
func (r *TxRunner) RunProduction(ctx context.Context, fn func(
	orderRepo repository.ProductionOrderRepository,
	posRepo repository.StockPositionRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
	batchRepo repository.BatchRepository,
	variantRepo repository.ProductVariantRepository,
) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	snap := r.store.snapshot()
	err := fn(
		NewProductionOrderRepository(r.store),
		NewStockPositionRepository(r.store),
		NewStockMovementRepository(r.store),
		NewReservationRepository(r.store),
		NewBatchRepository(r.store),
		NewProductVariantRepository(r.store),
	)
	if err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}
