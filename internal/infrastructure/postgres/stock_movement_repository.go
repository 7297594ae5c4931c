package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del ledger sobre PostgreSQL (usable con pool o tx).
// Solo inserta y lee: las entradas nunca se actualizan ni se borran.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, type, product_variant_id, from_location_id, to_location_id, quantity, unit_cost, reference, batch_id, created_at, created_by`

// Create persiste una entrada del ledger.
func (r *StockMovementRepo) Create(entry *entity.StockMovementEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.Type, entry.ProductVariantID, entry.FromLocationID, entry.ToLocationID,
		entry.Quantity, entry.UnitCost, entry.Reference, entry.BatchID, entry.CreatedAt, entry.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID; nil si no existe.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovementEntry, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	var e entity.StockMovementEntry
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&e.ID, &e.Type, &e.ProductVariantID, &e.FromLocationID, &e.ToLocationID,
		&e.Quantity, &e.UnitCost, &e.Reference, &e.BatchID, &e.CreatedAt, &e.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return &e, nil
}

// ListByVariant lista entradas de una variante en un rango de fechas.
func (r *StockMovementRepo) ListByVariant(variantID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovementEntry, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_variant_id = $1`
	args := []any{variantID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements by variant: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

// ListByReferencePrefix lista entradas cuya referencia empieza por el prefijo
// dado, en orden de inserción (todo el consumo de una orden, por ejemplo).
func (r *StockMovementRepo) ListByReferencePrefix(prefix string) ([]*entity.StockMovementEntry, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE reference LIKE $1 || '%' ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, prefix)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]*entity.StockMovementEntry, error) {
	var list []*entity.StockMovementEntry
	for rows.Next() {
		var e entity.StockMovementEntry
		if err := rows.Scan(&e.ID, &e.Type, &e.ProductVariantID, &e.FromLocationID, &e.ToLocationID,
			&e.Quantity, &e.UnitCost, &e.Reference, &e.BatchID, &e.CreatedAt, &e.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
