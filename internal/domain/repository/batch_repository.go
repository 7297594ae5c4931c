package repository

import "github.com/clarinovist/manufactura-api/internal/domain/entity"

// BatchRepository define el puerto de persistencia de lotes.
type BatchRepository interface {
	Create(batch *entity.Batch) error
	GetByNumber(batchNumber string) (*entity.Batch, error)
	// ListActiveFIFO lista lotes ACTIVE de (variante, ubicación) ordenados por
	// fecha de fabricación ascendente (candidatos de picking FIFO). Bloquea las
	// filas cuando se invoca dentro de una transacción de consumo.
	ListActiveFIFO(variantID, locationID string) ([]*entity.Batch, error)
	Update(batch *entity.Batch) error
}
