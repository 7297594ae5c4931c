package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/application/dto"
	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	domaininv "github.com/clarinovist/manufactura-api/internal/domain/inventory"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

// StockUseCase es el Stock Ledger: única puerta de mutación del stock físico.
// Cada operación es una unidad atómica: valida, bloquea la fila de posición
// (SELECT FOR UPDATE), verifica disponibilidad contra reservas activas en el
// mismo snapshot, actualiza una o dos posiciones y agrega exactamente una
// entrada inmutable al ledger. Commit o Rollback completos, sin reintentos.
type StockUseCase struct {
	txRunner     TxRunner
	variantRepo  repository.ProductVariantRepository
	locationRepo repository.LocationRepository
	movementRepo repository.StockMovementRepository
	positionRepo repository.StockPositionRepository
	resRepo      repository.ReservationRepository
}

// NewStockUseCase construye el caso de uso del ledger.
func NewStockUseCase(
	txRunner TxRunner,
	variantRepo repository.ProductVariantRepository,
	locationRepo repository.LocationRepository,
	movementRepo repository.StockMovementRepository,
	positionRepo repository.StockPositionRepository,
	resRepo repository.ReservationRepository,
) *StockUseCase {
	return &StockUseCase{
		txRunner:     txRunner,
		variantRepo:  variantRepo,
		locationRepo: locationRepo,
		movementRepo: movementRepo,
		positionRepo: positionRepo,
		resRepo:      resRepo,
	}
}

// Transfer traslada qty de una ubicación a otra en una sola transacción y
// registra UNA entrada TRANSFER con ambas ubicaciones. Falla con
// ErrInvalidOperation si origen == destino.
func (uc *StockUseCase) Transfer(ctx context.Context, in dto.TransferRequest) error {
	if err := uc.validateTransfer(in); err != nil {
		return err
	}
	return uc.txRunner.Run(ctx, func(
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		return uc.doTransfer(posRepo, movRepo, resRepo, variantRepo, in)
	})
}

// TransferBulk aplica varias líneas de traslado en UNA transacción: o se
// confirman todas o se revierte todo (sin éxito parcial).
func (uc *StockUseCase) TransferBulk(ctx context.Context, lines []dto.TransferRequest) error {
	if len(lines) == 0 {
		return domain.ErrInvalidInput
	}
	for _, in := range lines {
		if err := uc.validateTransfer(in); err != nil {
			return err
		}
	}
	return uc.txRunner.Run(ctx, func(
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		for _, in := range lines {
			if err := uc.doTransfer(posRepo, movRepo, resRepo, variantRepo, in); err != nil {
				return err
			}
		}
		return nil
	})
}

func (uc *StockUseCase) validateTransfer(in dto.TransferRequest) error {
	if in.ProductVariantID == "" || in.SourceLocationID == "" || in.DestinationLocationID == "" {
		return domain.ErrInvalidInput
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if in.SourceLocationID == in.DestinationLocationID {
		return domain.ErrInvalidOperation
	}
	variant, err := uc.variantRepo.GetByID(in.ProductVariantID)
	if err != nil || variant == nil {
		return domain.ErrNotFound
	}
	from, _ := uc.locationRepo.GetByID(in.SourceLocationID)
	to, _ := uc.locationRepo.GetByID(in.DestinationLocationID)
	if from == nil || to == nil {
		return domain.ErrNotFound
	}
	return nil
}

// doTransfer ejecuta el traslado con los repos de la tx (reutilizado por bulk).
func (uc *StockUseCase) doTransfer(
	posRepo repository.StockPositionRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
	variantRepo repository.ProductVariantRepository,
	in dto.TransferRequest,
) error {
	now := time.Now()
	// Bloquea ambas posiciones en orden canónico por ID de ubicación para que
	// dos traslados cruzados concurrentes (A→B y B→A) no se interbloqueen.
	firstLoc, secondLoc := in.SourceLocationID, in.DestinationLocationID
	if secondLoc < firstLoc {
		firstLoc, secondLoc = secondLoc, firstLoc
	}
	posFirst, err := posRepo.GetForUpdate(firstLoc, in.ProductVariantID)
	if err != nil {
		return err
	}
	posSecond, err := posRepo.GetForUpdate(secondLoc, in.ProductVariantID)
	if err != nil {
		return err
	}
	origin, dest := posFirst, posSecond
	if firstLoc != in.SourceLocationID {
		origin, dest = posSecond, posFirst
	}
	// Físico y disponible se verifican con ambas filas ya bloqueadas
	if err := checkAvailability(resRepo, origin, in.Quantity); err != nil {
		return err
	}

	origin.Quantity = origin.Quantity.Sub(in.Quantity)
	dest.Quantity = dest.Quantity.Add(in.Quantity)
	origin.UpdatedAt = now
	dest.UpdatedAt = now
	if err := posRepo.Upsert(origin); err != nil {
		return err
	}
	if err := posRepo.Upsert(dest); err != nil {
		return err
	}

	variant, err := variantRepo.GetByID(in.ProductVariantID)
	if err != nil || variant == nil {
		return domain.ErrNotFound
	}
	from := in.SourceLocationID
	to := in.DestinationLocationID
	entry := &entity.StockMovementEntry{
		ID:               uuid.New().String(),
		Type:             entity.MovementTransfer,
		ProductVariantID: in.ProductVariantID,
		FromLocationID:   &from,
		ToLocationID:     &to,
		Quantity:         in.Quantity,
		UnitCost:         unitCostOf(variant),
		Reference:        in.Notes,
		CreatedAt:        now,
	}
	return movRepo.Create(entry)
}

// Adjust registra una entrada o salida por ajuste. Las entradas pueden traer
// costo unitario (recalcula el promedio ponderado de la variante) y datos de
// lote; las salidas consumen lotes FIFO y respetan las reservas activas.
func (uc *StockUseCase) Adjust(ctx context.Context, in dto.AdjustRequest) error {
	if in.ProductVariantID == "" || in.LocationID == "" {
		return domain.ErrInvalidInput
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if in.Direction != "IN" && in.Direction != "OUT" {
		return domain.ErrInvalidInput
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return domain.ErrInvalidInput
	}
	variant, err := uc.variantRepo.GetByID(in.ProductVariantID)
	if err != nil || variant == nil {
		return domain.ErrNotFound
	}
	if loc, _ := uc.locationRepo.GetByID(in.LocationID); loc == nil {
		return domain.ErrNotFound
	}

	return uc.txRunner.Run(ctx, func(
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		if in.Direction == "IN" {
			_, err := postIn(postInParams{
				posRepo: posRepo, movRepo: movRepo, batchRepo: batchRepo, variantRepo: variantRepo,
				movType:   entity.MovementAdjustmentIn,
				variantID: in.ProductVariantID,
				location:  in.LocationID,
				quantity:  in.Quantity,
				unitCost:  in.UnitCost,
				reference: in.Reason,
				batch:     in.Batch,
			})
			return err
		}
		_, err := postOut(postOutParams{
			posRepo: posRepo, movRepo: movRepo, resRepo: resRepo, batchRepo: batchRepo, variantRepo: variantRepo,
			movType:   entity.MovementAdjustmentOut,
			variantID: in.ProductVariantID,
			location:  in.LocationID,
			quantity:  in.Quantity,
			reference: in.Reason,
			enforce:   true,
		})
		return err
	})
}

// GetPosition devuelve la posición con reservado y disponible calculados.
func (uc *StockUseCase) GetPosition(ctx context.Context, locationID, variantID string) (*dto.StockPositionDTO, error) {
	pos, err := uc.positionRepo.Get(locationID, variantID)
	if err != nil {
		return nil, err
	}
	reserved, err := uc.resRepo.SumActive(variantID, locationID)
	if err != nil {
		return nil, err
	}
	return &dto.StockPositionDTO{
		LocationID:       locationID,
		ProductVariantID: variantID,
		Quantity:         pos.Quantity,
		Reserved:         reserved,
		Available:        pos.Quantity.Sub(reserved),
	}, nil
}

// ListMovements lista el ledger de una variante (historial inmutable).
func (uc *StockUseCase) ListMovements(ctx context.Context, variantID string, from, to *time.Time, limit, offset int) ([]dto.MovementEntryDTO, error) {
	entries, err := uc.movementRepo.ListByVariant(variantID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.MovementEntryDTO{
			ID:               e.ID,
			Type:             string(e.Type),
			ProductVariantID: e.ProductVariantID,
			FromLocationID:   e.FromLocationID,
			ToLocationID:     e.ToLocationID,
			Quantity:         e.Quantity,
			UnitCost:         e.UnitCost,
			Reference:        e.Reference,
			BatchID:          e.BatchID,
			CreatedAt:        e.CreatedAt,
		})
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Primitivas de posteo compartidas con el motor de consumo (misma transacción).
// ──────────────────────────────────────────────────────────────────────────────

// checkAvailability verifica primero el físico (ErrInsufficientStock) y luego
// el disponible descontando reservas ACTIVE (ErrInsufficientAvailable), leyendo
// en el mismo snapshot transaccional que la escritura posterior.
func checkAvailability(resRepo repository.ReservationRepository, pos *entity.StockPosition, qty decimal.Decimal) error {
	if pos.Quantity.LessThan(qty) {
		return domain.ErrInsufficientStock
	}
	reserved, err := resRepo.SumActive(pos.ProductVariantID, pos.LocationID)
	if err != nil {
		return err
	}
	if pos.Quantity.Sub(reserved).LessThan(qty) {
		return domain.ErrInsufficientAvailable
	}
	return nil
}

func unitCostOf(variant *entity.ProductVariant) decimal.Decimal {
	if variant.Cost.GreaterThan(decimal.Zero) {
		return variant.Cost
	}
	return variant.BuyPrice
}

type postInParams struct {
	posRepo     repository.StockPositionRepository
	movRepo     repository.StockMovementRepository
	batchRepo   repository.BatchRepository
	variantRepo repository.ProductVariantRepository

	movType   entity.MovementType
	variantID string
	location  string
	quantity  decimal.Decimal
	unitCost  *decimal.Decimal // nil = usar costo promedio actual, sin recalcular
	entryCost *decimal.Decimal // fija el costo de la entrada del ledger sin tocar el promedio (reversas)
	reference string
	batch     *dto.BatchData
	createdBy *string
}

// postIn aplica una entrada: bloquea la posición, suma, recalcula el costo
// promedio ponderado si vino costo unitario, crea el lote si vino batch y
// agrega la entrada al ledger. Devuelve el ID de la entrada creada.
func postIn(p postInParams) (string, error) {
	now := time.Now()
	variant, err := p.variantRepo.GetByID(p.variantID)
	if err != nil || variant == nil {
		return "", domain.ErrNotFound
	}

	pos, err := p.posRepo.GetForUpdate(p.location, p.variantID)
	if err != nil {
		return "", err
	}

	unitCost := unitCostOf(variant)
	if p.unitCost != nil {
		unitCost = *p.unitCost
		newCost := domaininv.CostCalculator(pos.Quantity, variant.Cost, p.quantity, unitCost)
		if err := p.variantRepo.UpdateCost(p.variantID, newCost); err != nil {
			return "", err
		}
	}
	// Una reversa lleva el costo de la entrada original, no el promedio vigente
	if p.entryCost != nil {
		unitCost = *p.entryCost
	}

	pos.Quantity = pos.Quantity.Add(p.quantity)
	pos.UpdatedAt = now
	if err := p.posRepo.Upsert(pos); err != nil {
		return "", err
	}

	var batchID *string
	if p.batch != nil {
		if p.batch.BatchNumber == "" {
			return "", domain.ErrInvalidInput
		}
		if existing, err := p.batchRepo.GetByNumber(p.batch.BatchNumber); err != nil {
			return "", err
		} else if existing != nil {
			return "", domain.ErrDuplicate
		}
		b := &entity.Batch{
			ID:                uuid.New().String(),
			BatchNumber:       p.batch.BatchNumber,
			ProductVariantID:  p.variantID,
			LocationID:        p.location,
			Quantity:          p.quantity,
			ManufacturingDate: p.batch.ManufacturingDate,
			ExpiryDate:        p.batch.ExpiryDate,
			Status:            entity.BatchActive,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := p.batchRepo.Create(b); err != nil {
			return "", err
		}
		batchID = &b.ID
	}

	entry := &entity.StockMovementEntry{
		ID:               uuid.New().String(),
		Type:             p.movType,
		ProductVariantID: p.variantID,
		ToLocationID:     &p.location,
		Quantity:         p.quantity,
		UnitCost:         unitCost,
		Reference:        p.reference,
		BatchID:          batchID,
		CreatedAt:        now,
		CreatedBy:        p.createdBy,
	}
	if err := p.movRepo.Create(entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

type postOutParams struct {
	posRepo     repository.StockPositionRepository
	movRepo     repository.StockMovementRepository
	resRepo     repository.ReservationRepository
	batchRepo   repository.BatchRepository
	variantRepo repository.ProductVariantRepository

	movType   entity.MovementType
	variantID string
	location  string
	quantity  decimal.Decimal
	reference string
	// enforce true = verificar físico y disponible (falla si no alcanza).
	// false = camino permisivo del backflush: permite negativo y lo reporta.
	enforce   bool
	createdBy *string
}

type outResult struct {
	entryID  string
	unitCost decimal.Decimal
	// warning no vacío cuando el camino permisivo dejó la posición en negativo.
	warning string
}

// postOut aplica una salida: bloquea la posición, verifica disponibilidad (o
// no, en el camino permisivo), resta, consume lotes FIFO y agrega la entrada
// al ledger con el costo promedio vigente.
func postOut(p postOutParams) (*outResult, error) {
	now := time.Now()
	variant, err := p.variantRepo.GetByID(p.variantID)
	if err != nil || variant == nil {
		return nil, domain.ErrNotFound
	}

	pos, err := p.posRepo.GetForUpdate(p.location, p.variantID)
	if err != nil {
		return nil, err
	}
	if p.enforce {
		if err := checkAvailability(p.resRepo, pos, p.quantity); err != nil {
			return nil, err
		}
	}

	pos.Quantity = pos.Quantity.Sub(p.quantity)
	pos.UpdatedAt = now
	if err := p.posRepo.Upsert(pos); err != nil {
		return nil, err
	}

	if variant.TrackBatches {
		if err := consumeBatchesFIFO(p.batchRepo, p.variantID, p.location, p.quantity, now); err != nil {
			return nil, err
		}
	}

	res := &outResult{unitCost: unitCostOf(variant)}
	if pos.Quantity.IsNegative() {
		res.warning = fmt.Sprintf("stock negativo: variante %s en %s quedó en %s", p.variantID, p.location, pos.Quantity.String())
	}

	entry := &entity.StockMovementEntry{
		ID:               uuid.New().String(),
		Type:             p.movType,
		ProductVariantID: p.variantID,
		FromLocationID:   &p.location,
		Quantity:         p.quantity,
		UnitCost:         res.unitCost,
		Reference:        p.reference,
		CreatedAt:        now,
		CreatedBy:        p.createdBy,
	}
	if err := p.movRepo.Create(entry); err != nil {
		return nil, err
	}
	res.entryID = entry.ID
	return res, nil
}

// consumeBatchesFIFO decrementa lotes ACTIVE en orden de fecha de fabricación.
// Si los lotes no cubren toda la cantidad (stock sin lote), consume lo que haya.
func consumeBatchesFIFO(batchRepo repository.BatchRepository, variantID, locationID string, qty decimal.Decimal, now time.Time) error {
	batches, err := batchRepo.ListActiveFIFO(variantID, locationID)
	if err != nil {
		return err
	}
	remaining := qty
	for _, b := range batches {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(b.Quantity, remaining)
		b.Quantity = b.Quantity.Sub(take)
		remaining = remaining.Sub(take)
		if b.Quantity.LessThanOrEqual(decimal.Zero) {
			b.Status = entity.BatchConsumed
		}
		b.UpdatedAt = now
		if err := batchRepo.Update(b); err != nil {
			return err
		}
	}
	return nil
}
