package repository

import "github.com/clarinovist/manufactura-api/internal/domain/entity"

// BOMRepository define el puerto de lectura de recetas (BOM + items).
type BOMRepository interface {
	// GetByID devuelve la BOM con sus items; nil si no existe.
	GetByID(id string) (*entity.BOM, error)
	// GetDefaultByVariant devuelve la BOM marcada por defecto para la variante.
	GetDefaultByVariant(variantID string) (*entity.BOM, error)
}
