package entity

import "time"

// Tipos de ubicación física.
const (
	LocationTypeWarehouse  = "WAREHOUSE"
	LocationTypeProduction = "PRODUCTION"
	LocationTypeScrap      = "SCRAP" // destino de desperdicio
)

// Location representa una ubicación física de stock (bodega, planta, zona de scrap).
type Location struct {
	ID        string
	Code      string // único
	Name      string
	Type      string // ver constantes LocationType*
	CreatedAt time.Time
	UpdatedAt time.Time
}
