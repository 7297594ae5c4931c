package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarinovist/manufactura-api/internal/application/inventory"
	"github.com/clarinovist/manufactura-api/internal/application/production"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)
var _ production.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	posRepo repository.StockPositionRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
	batchRepo repository.BatchRepository,
	variantRepo repository.ProductVariantRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	posRepo := NewStockPositionRepository(tx)
	movRepo := NewStockMovementRepository(tx)
	resRepo := NewReservationRepository(tx)
	batchRepo := NewBatchRepository(tx)
	variantRepo := NewProductVariantRepository(tx)

	if err := fn(posRepo, movRepo, resRepo, batchRepo, variantRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunProduction inicia una transacción con los repos de producción e inventario
// (el motor de consumo postea al ledger en la misma tx que muta la orden).
func (r *TxRunner) RunProduction(ctx context.Context, fn func(
	orderRepo repository.ProductionOrderRepository,
	posRepo repository.StockPositionRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
	batchRepo repository.BatchRepository,
	variantRepo repository.ProductVariantRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderRepo := NewProductionOrderRepository(tx)
	posRepo := NewStockPositionRepository(tx)
	movRepo := NewStockMovementRepository(tx)
	resRepo := NewReservationRepository(tx)
	batchRepo := NewBatchRepository(tx)
	variantRepo := NewProductVariantRepository(tx)

	if err := fn(orderRepo, posRepo, movRepo, resRepo, batchRepo, variantRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
