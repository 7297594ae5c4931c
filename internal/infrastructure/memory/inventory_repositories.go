package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.StockPositionRepository = (*StockPositionRepo)(nil)

// StockPositionRepo implementación en memoria.
type StockPositionRepo struct{ store *Store }

// NewStockPositionRepository construye el adaptador.
func NewStockPositionRepository(store *Store) *StockPositionRepo {
	return &StockPositionRepo{store: store}
}

func (r *StockPositionRepo) Get(locationID, variantID string) (*entity.StockPosition, error) {
	if pos, ok := r.store.positions[positionKey{locationID, variantID}]; ok {
		cp := *pos
		return &cp, nil
	}
	return &entity.StockPosition{LocationID: locationID, ProductVariantID: variantID, Quantity: decimal.Zero}, nil
}

// GetForUpdate equivale a Get: el TxRunner ya serializa toda la transacción.
func (r *StockPositionRepo) GetForUpdate(locationID, variantID string) (*entity.StockPosition, error) {
	return r.Get(locationID, variantID)
}

func (r *StockPositionRepo) Upsert(position *entity.StockPosition) error {
	cp := *position
	r.store.positions[positionKey{position.LocationID, position.ProductVariantID}] = &cp
	return nil
}

func (r *StockPositionRepo) ListByVariant(variantID string) ([]*entity.StockPosition, error) {
	var out []*entity.StockPosition
	for k, pos := range r.store.positions {
		if k.variantID == variantID {
			cp := *pos
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, nil
}

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación en memoria (append-only).
type StockMovementRepo struct{ store *Store }

// NewStockMovementRepository construye el adaptador.
func NewStockMovementRepository(store *Store) *StockMovementRepo {
	return &StockMovementRepo{store: store}
}

func (r *StockMovementRepo) Create(entry *entity.StockMovementEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	cp := *entry
	r.store.movements = append(r.store.movements, &cp)
	return nil
}

func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovementEntry, error) {
	for _, e := range r.store.movements {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *StockMovementRepo) ListByVariant(variantID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovementEntry, error) {
	var out []*entity.StockMovementEntry
	for _, e := range r.store.movements {
		if e.ProductVariantID != variantID {
			continue
		}
		if from != nil && e.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && e.CreatedAt.After(*to) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *StockMovementRepo) ListByReferencePrefix(prefix string) ([]*entity.StockMovementEntry, error) {
	var out []*entity.StockMovementEntry
	for _, e := range r.store.movements {
		if strings.HasPrefix(e.Reference, prefix) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación en memoria.
type ReservationRepo struct{ store *Store }

// NewReservationRepository construye el adaptador.
func NewReservationRepository(store *Store) *ReservationRepo {
	return &ReservationRepo{store: store}
}

func (r *ReservationRepo) Create(reservation *entity.StockReservation) error {
	if _, ok := r.store.reservations[reservation.ID]; ok {
		return domain.ErrDuplicate
	}
	cp := *reservation
	r.store.reservations[reservation.ID] = &cp
	return nil
}

func (r *ReservationRepo) GetByID(id string) (*entity.StockReservation, error) {
	if res, ok := r.store.reservations[id]; ok {
		cp := *res
		return &cp, nil
	}
	return nil, nil
}

func (r *ReservationRepo) GetForUpdate(id string) (*entity.StockReservation, error) {
	return r.GetByID(id)
}

func (r *ReservationRepo) UpdateStatus(id string, status entity.ReservationStatus) error {
	res, ok := r.store.reservations[id]
	if !ok {
		return domain.ErrNotFound
	}
	res.Status = status
	res.UpdatedAt = time.Now()
	return nil
}

func (r *ReservationRepo) SumActive(variantID, locationID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, res := range r.store.reservations {
		if res.Status == entity.ReservationActive && res.ProductVariantID == variantID && res.LocationID == locationID {
			sum = sum.Add(res.Quantity)
		}
	}
	return sum, nil
}

func (r *ReservationRepo) ListExpired(now time.Time) ([]*entity.StockReservation, error) {
	var out []*entity.StockReservation
	for _, res := range r.store.reservations {
		if res.Status == entity.ReservationActive && res.Expired(now) {
			cp := *res
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación en memoria.
type BatchRepo struct{ store *Store }

// NewBatchRepository construye el adaptador.
func NewBatchRepository(store *Store) *BatchRepo {
	return &BatchRepo{store: store}
}

func (r *BatchRepo) Create(batch *entity.Batch) error {
	for _, b := range r.store.batches {
		if b.BatchNumber == batch.BatchNumber {
			return domain.ErrDuplicate
		}
	}
	cp := *batch
	r.store.batches[batch.ID] = &cp
	return nil
}

func (r *BatchRepo) GetByNumber(batchNumber string) (*entity.Batch, error) {
	for _, b := range r.store.batches {
		if b.BatchNumber == batchNumber {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *BatchRepo) ListActiveFIFO(variantID, locationID string) ([]*entity.Batch, error) {
	var out []*entity.Batch
	for _, b := range r.store.batches {
		if b.Status == entity.BatchActive && b.ProductVariantID == variantID && b.LocationID == locationID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ManufacturingDate.Before(out[j].ManufacturingDate)
	})
	return out, nil
}

func (r *BatchRepo) Update(batch *entity.Batch) error {
	if _, ok := r.store.batches[batch.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *batch
	r.store.batches[batch.ID] = &cp
	return nil
}

var _ repository.ProductVariantRepository = (*ProductVariantRepo)(nil)

// ProductVariantRepo implementación en memoria.
type ProductVariantRepo struct{ store *Store }

// NewProductVariantRepository construye el adaptador.
func NewProductVariantRepository(store *Store) *ProductVariantRepo {
	return &ProductVariantRepo{store: store}
}

func (r *ProductVariantRepo) GetByID(id string) (*entity.ProductVariant, error) {
	if v, ok := r.store.variants[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (r *ProductVariantRepo) GetBySKU(sku string) (*entity.ProductVariant, error) {
	for _, v := range r.store.variants {
		if v.SKU == sku {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ProductVariantRepo) List(limit, offset int) ([]*entity.ProductVariant, error) {
	var out []*entity.ProductVariant
	for _, v := range r.store.variants {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *ProductVariantRepo) UpdateCost(id string, cost decimal.Decimal) error {
	v, ok := r.store.variants[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.Cost = cost
	v.UpdatedAt = time.Now()
	return nil
}

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación en memoria.
type LocationRepo struct{ store *Store }

// NewLocationRepository construye el adaptador.
func NewLocationRepository(store *Store) *LocationRepo {
	return &LocationRepo{store: store}
}

func (r *LocationRepo) GetByID(id string) (*entity.Location, error) {
	if l, ok := r.store.locations[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (r *LocationRepo) List() ([]*entity.Location, error) {
	var out []*entity.Location
	for _, l := range r.store.locations {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *LocationRepo) GetScrapLocation() (*entity.Location, error) {
	for _, l := range r.store.locations {
		if l.Type == entity.LocationTypeScrap {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implementación en memoria.
type BOMRepo struct{ store *Store }

// NewBOMRepository construye el adaptador.
func NewBOMRepository(store *Store) *BOMRepo {
	return &BOMRepo{store: store}
}

func (r *BOMRepo) GetByID(id string) (*entity.BOM, error) {
	if b, ok := r.store.boms[id]; ok {
		cp := *b
		cp.Items = append([]entity.BOMItem(nil), b.Items...)
		return &cp, nil
	}
	return nil, nil
}

func (r *BOMRepo) GetDefaultByVariant(variantID string) (*entity.BOM, error) {
	for _, b := range r.store.boms {
		if b.ProductVariantID == variantID && b.IsDefault {
			cp := *b
			cp.Items = append([]entity.BOMItem(nil), b.Items...)
			return &cp, nil
		}
	}
	return nil, nil
}
