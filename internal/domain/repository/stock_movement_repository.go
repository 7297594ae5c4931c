package repository

import (
	"time"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del ledger.
// Solo inserción y lectura: las entradas nunca se mutan ni se borran.
type StockMovementRepository interface {
	Create(entry *entity.StockMovementEntry) error
	GetByID(id string) (*entity.StockMovementEntry, error)
	ListByVariant(variantID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovementEntry, error)
	// ListByReferencePrefix lista las entradas cuya referencia empieza por el
	// prefijo dado (ej. "po:<id>" para todo el consumo de una orden).
	ListByReferencePrefix(prefix string) ([]*entity.StockMovementEntry, error)
}
