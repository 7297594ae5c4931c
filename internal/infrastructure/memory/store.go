// Package memory implementa los puertos de persistencia sobre estructuras en
// memoria. Se usa en tests y demos; el TxRunner serializa transacciones y
// simula rollback restaurando un snapshot del estado.
package memory

import (
	"sync"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
)

type positionKey struct {
	locationID string
	variantID  string
}

// Store agrupa el estado en memoria compartido por los adaptadores.
type Store struct {
	mu sync.Mutex

	variants     map[string]*entity.ProductVariant
	locations    map[string]*entity.Location
	positions    map[positionKey]*entity.StockPosition
	movements    []*entity.StockMovementEntry
	reservations map[string]*entity.StockReservation
	batches      map[string]*entity.Batch
	boms         map[string]*entity.BOM
	orders       map[string]*entity.ProductionOrder
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		variants:     make(map[string]*entity.ProductVariant),
		locations:    make(map[string]*entity.Location),
		positions:    make(map[positionKey]*entity.StockPosition),
		reservations: make(map[string]*entity.StockReservation),
		batches:      make(map[string]*entity.Batch),
		boms:         make(map[string]*entity.BOM),
		orders:       make(map[string]*entity.ProductionOrder),
	}
}

// SeedVariant registra una variante (test fixture).
func (s *Store) SeedVariant(v *entity.ProductVariant) {
	cp := *v
	s.variants[v.ID] = &cp
}

// SeedLocation registra una ubicación (test fixture).
func (s *Store) SeedLocation(l *entity.Location) {
	cp := *l
	s.locations[l.ID] = &cp
}

// SeedBOM registra una receta con sus items (test fixture).
func (s *Store) SeedBOM(b *entity.BOM) {
	cp := *b
	cp.Items = append([]entity.BOMItem(nil), b.Items...)
	s.boms[b.ID] = &cp
}

// snapshot copia el estado completo para poder restaurarlo en rollback.
// Las entidades se copian por valor; las entradas del ledger son inmutables
// y pueden compartirse.
func (s *Store) snapshot() *Store {
	snap := NewStore()
	for k, v := range s.variants {
		cp := *v
		snap.variants[k] = &cp
	}
	for k, v := range s.locations {
		cp := *v
		snap.locations[k] = &cp
	}
	for k, v := range s.positions {
		cp := *v
		snap.positions[k] = &cp
	}
	snap.movements = append([]*entity.StockMovementEntry(nil), s.movements...)
	for k, v := range s.reservations {
		cp := *v
		snap.reservations[k] = &cp
	}
	for k, v := range s.batches {
		cp := *v
		snap.batches[k] = &cp
	}
	for k, v := range s.boms {
		cp := *v
		cp.Items = append([]entity.BOMItem(nil), v.Items...)
		snap.boms[k] = &cp
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	return snap
}

// restore reemplaza el estado con el del snapshot.
func (s *Store) restore(snap *Store) {
	s.variants = snap.variants
	s.locations = snap.locations
	s.positions = snap.positions
	s.movements = snap.movements
	s.reservations = snap.reservations
	s.batches = snap.batches
	s.boms = snap.boms
	s.orders = snap.orders
}

func cloneOrder(o *entity.ProductionOrder) *entity.ProductionOrder {
	cp := *o
	cp.Materials = append([]entity.ProductionMaterial(nil), o.Materials...)
	cp.Issues = append([]entity.MaterialIssue(nil), o.Issues...)
	cp.Scraps = append([]entity.ScrapRecord(nil), o.Scraps...)
	cp.Executions = append([]entity.ProductionExecution(nil), o.Executions...)
	cp.Inspections = append([]entity.QualityInspection(nil), o.Inspections...)
	return &cp
}
