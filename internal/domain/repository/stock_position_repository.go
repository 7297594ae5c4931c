package repository

import "github.com/clarinovist/manufactura-api/internal/domain/entity"

// StockPositionRepository define el puerto para consultar/actualizar el stock
// físico por ubicación+variante. Usado dentro de transacciones para garantizar
// consistencia.
type StockPositionRepository interface {
	// Get devuelve la posición; si no existe, una posición en cero (no nil).
	Get(locationID, variantID string) (*entity.StockPosition, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(locationID, variantID string) (*entity.StockPosition, error)
	Upsert(position *entity.StockPosition) error
	ListByVariant(variantID string) ([]*entity.StockPosition, error)
}
