package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/application/dto"
	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

// ReservationUseCase administra retenciones blandas contra stock físico.
// disponible = físico − Σ(reservas ACTIVE); la verificación y la creación de
// la reserva ocurren en la misma transacción (sin ventana check-then-act).
type ReservationUseCase struct {
	txRunner     TxRunner
	variantRepo  repository.ProductVariantRepository
	locationRepo repository.LocationRepository
	resRepo      repository.ReservationRepository
}

// NewReservationUseCase construye el caso de uso de reservas.
func NewReservationUseCase(
	txRunner TxRunner,
	variantRepo repository.ProductVariantRepository,
	locationRepo repository.LocationRepository,
	resRepo repository.ReservationRepository,
) *ReservationUseCase {
	return &ReservationUseCase{
		txRunner:     txRunner,
		variantRepo:  variantRepo,
		locationRepo: locationRepo,
		resRepo:      resRepo,
	}
}

// Reserve crea una reserva ACTIVE si hay disponible suficiente; falla con
// ErrInsufficientAvailable si qty > físico − reservas activas.
func (uc *ReservationUseCase) Reserve(ctx context.Context, in dto.ReservationRequest) (string, error) {
	if in.ProductVariantID == "" || in.LocationID == "" || in.ReservedFor == "" {
		return "", domain.ErrInvalidInput
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return "", domain.ErrInvalidInput
	}
	variant, err := uc.variantRepo.GetByID(in.ProductVariantID)
	if err != nil || variant == nil {
		return "", domain.ErrNotFound
	}
	if loc, _ := uc.locationRepo.GetByID(in.LocationID); loc == nil {
		return "", domain.ErrNotFound
	}

	id := uuid.New().String()
	err = uc.txRunner.Run(ctx, func(
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		// Bloquea la posición: ninguna salida concurrente puede colarse entre
		// el cálculo de disponible y la creación de la reserva.
		pos, err := posRepo.GetForUpdate(in.LocationID, in.ProductVariantID)
		if err != nil {
			return err
		}
		reserved, err := resRepo.SumActive(in.ProductVariantID, in.LocationID)
		if err != nil {
			return err
		}
		if pos.Quantity.Sub(reserved).LessThan(in.Quantity) {
			return domain.ErrInsufficientAvailable
		}
		now := time.Now()
		return resRepo.Create(&entity.StockReservation{
			ID:               id,
			ProductVariantID: in.ProductVariantID,
			LocationID:       in.LocationID,
			Quantity:         in.Quantity,
			Status:           entity.ReservationActive,
			ReservedFor:      in.ReservedFor,
			ReferenceID:      in.ReferenceID,
			ReservedUntil:    in.ReservedUntil,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Cancel pasa la reserva a CANCELLED. Si ya está en estado terminal falla con
// ErrInvalidOperation (no es idempotente silenciosa: el caller debe saberlo).
func (uc *ReservationUseCase) Cancel(ctx context.Context, id string) error {
	return uc.setTerminal(ctx, id, entity.ReservationCancelled)
}

// Fulfill pasa la reserva a FULFILLED cuando el stock retenido efectivamente sale.
func (uc *ReservationUseCase) Fulfill(ctx context.Context, id string) error {
	return uc.setTerminal(ctx, id, entity.ReservationFulfilled)
}

func (uc *ReservationUseCase) setTerminal(ctx context.Context, id string, status entity.ReservationStatus) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.Run(ctx, func(
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		res, err := resRepo.GetForUpdate(id)
		if err != nil {
			return err
		}
		if res == nil {
			return domain.ErrNotFound
		}
		if res.Status.Terminal() {
			return domain.ErrInvalidOperation
		}
		return resRepo.UpdateStatus(id, status)
	})
}

// ReleaseExpired cancela las reservas ACTIVE vencidas (ReservedUntil < now).
// Lo invoca el barrido periódico (cron) fuera del núcleo transaccional; cada
// reserva se cancela en su propia transacción.
func (uc *ReservationUseCase) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := uc.resRepo.ListExpired(now)
	if err != nil {
		return 0, err
	}
	released := 0
	for _, r := range expired {
		if err := uc.Cancel(ctx, r.ID); err != nil {
			// Otra transacción pudo cerrarla entre el listado y el bloqueo.
			if err == domain.ErrInvalidOperation || err == domain.ErrNotFound {
				continue
			}
			return released, err
		}
		released++
	}
	return released, nil
}
