package repository

import (
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
)

// ProductVariantRepository define el puerto de lectura/actualización de variantes.
type ProductVariantRepository interface {
	GetByID(id string) (*entity.ProductVariant, error)
	GetBySKU(sku string) (*entity.ProductVariant, error)
	List(limit, offset int) ([]*entity.ProductVariant, error)
	// UpdateCost actualiza el costo promedio ponderado (lo invoca el ledger en entradas).
	UpdateCost(id string, cost decimal.Decimal) error
}

// LocationRepository define el puerto de lectura de ubicaciones.
type LocationRepository interface {
	GetByID(id string) (*entity.Location, error)
	List() ([]*entity.Location, error)
	// GetScrapLocation devuelve la ubicación de tipo SCRAP (destino de desperdicio).
	GetScrapLocation() (*entity.Location, error)
}
