package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id, batch_number, product_variant_id, location_id, quantity, manufacturing_date, expiry_date, status, created_at, updated_at`

// Create persiste un lote. Número de lote duplicado devuelve ErrDuplicate.
func (r *BatchRepo) Create(batch *entity.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`
	_, err := r.q.Exec(context.Background(), query,
		batch.ID, batch.BatchNumber, batch.ProductVariantID, batch.LocationID,
		batch.Quantity, batch.ManufacturingDate, batch.ExpiryDate, batch.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// GetByNumber obtiene un lote por su número único; nil si no existe.
func (r *BatchRepo) GetByNumber(batchNumber string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE batch_number = $1`
	var b entity.Batch
	err := r.q.QueryRow(context.Background(), query, batchNumber).Scan(
		&b.ID, &b.BatchNumber, &b.ProductVariantID, &b.LocationID, &b.Quantity,
		&b.ManufacturingDate, &b.ExpiryDate, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

// ListActiveFIFO lista lotes ACTIVE de (variante, ubicación) por fecha de
// fabricación ascendente, bloqueando las filas para el consumo.
func (r *BatchRepo) ListActiveFIFO(variantID, locationID string) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_variant_id = $1 AND location_id = $2 AND status = $3
		ORDER BY manufacturing_date ASC
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, variantID, locationID, entity.BatchActive)
	if err != nil {
		return nil, fmt.Errorf("list active batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.Batch
	for rows.Next() {
		var b entity.Batch
		if err := rows.Scan(&b.ID, &b.BatchNumber, &b.ProductVariantID, &b.LocationID, &b.Quantity,
			&b.ManufacturingDate, &b.ExpiryDate, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// Update actualiza cantidad y estado del lote.
func (r *BatchRepo) Update(batch *entity.Batch) error {
	query := `
		UPDATE batches SET quantity = $2, status = $3, expiry_date = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, batch.ID, batch.Quantity, batch.Status, batch.ExpiryDate)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
