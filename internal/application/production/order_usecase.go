package production

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/application/dto"
	"github.com/clarinovist/manufactura-api/internal/domain"
	bomresolver "github.com/clarinovist/manufactura-api/internal/domain/bom"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

// OrderUseCase maneja el ciclo de vida de la orden de producción.
// Las transiciones se validan contra la tabla cerrada de entity.CanTransition;
// cada transición es una sola actualización de estado, sin efectos de
// inventario (el inventario lo postea el motor de consumo por evento).
type OrderUseCase struct {
	txRunner     TxRunner
	bomRepo      repository.BOMRepository
	variantRepo  repository.ProductVariantRepository
	locationRepo repository.LocationRepository
	orderRepo    repository.ProductionOrderRepository
	resRepo      repository.ReservationRepository
	posRepo      repository.StockPositionRepository
}

// NewOrderUseCase construye el caso de uso de órdenes.
func NewOrderUseCase(
	txRunner TxRunner,
	bomRepo repository.BOMRepository,
	variantRepo repository.ProductVariantRepository,
	locationRepo repository.LocationRepository,
	orderRepo repository.ProductionOrderRepository,
	resRepo repository.ReservationRepository,
	posRepo repository.StockPositionRepository,
) *OrderUseCase {
	return &OrderUseCase{
		txRunner:     txRunner,
		bomRepo:      bomRepo,
		variantRepo:  variantRepo,
		locationRepo: locationRepo,
		orderRepo:    orderRepo,
		resRepo:      resRepo,
		posRepo:      posRepo,
	}
}

// Create crea la orden en DRAFT con su snapshot de materiales. Si vienen items
// explícitos tienen precedencia; si no, se consulta el resolver de BOM.
func (uc *OrderUseCase) Create(ctx context.Context, in dto.ProductionOrderCreate, createdBy *string) (*entity.ProductionOrder, error) {
	if in.BOMID == "" || in.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.PlannedQuantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	b, err := uc.bomRepo.GetByID(in.BOMID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	if loc, _ := uc.locationRepo.GetByID(in.LocationID); loc == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	orderID := uuid.New().String()
	materials, err := uc.planMaterials(orderID, b, in)
	if err != nil {
		return nil, err
	}

	order := &entity.ProductionOrder{
		ID:               orderID,
		OrderNumber:      newOrderNumber(now),
		BOMID:            b.ID,
		ProductVariantID: b.ProductVariantID,
		PlannedQuantity:  in.PlannedQuantity,
		ActualQuantity:   decimal.Zero,
		Status:           entity.OrderDraft,
		MachineID:        in.MachineID,
		LocationID:       in.LocationID,
		PlannedStart:     in.PlannedStartDate,
		PlannedEnd:       in.PlannedEndDate,
		CreatedAt:        now,
		UpdatedAt:        now,
		CreatedBy:        createdBy,
		Materials:        materials,
	}

	err = uc.txRunner.RunProduction(ctx, func(
		orderRepo repository.ProductionOrderRepository,
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		return orderRepo.Create(order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// planMaterials construye el snapshot: items explícitos ganan; la BOM es el fallback.
func (uc *OrderUseCase) planMaterials(orderID string, b *entity.BOM, in dto.ProductionOrderCreate) ([]entity.ProductionMaterial, error) {
	if len(in.Items) > 0 {
		materials := make([]entity.ProductionMaterial, 0, len(in.Items))
		for _, item := range in.Items {
			if item.ProductVariantID == "" || !item.Quantity.GreaterThan(decimal.Zero) {
				return nil, domain.ErrInvalidInput
			}
			if v, _ := uc.variantRepo.GetByID(item.ProductVariantID); v == nil {
				return nil, domain.ErrNotFound
			}
			materials = append(materials, entity.ProductionMaterial{
				ID:                uuid.New().String(),
				ProductionOrderID: orderID,
				ProductVariantID:  item.ProductVariantID,
				RequiredQuantity:  item.Quantity,
				IssuedQuantity:    decimal.Zero,
			})
		}
		return materials, nil
	}

	reqs, err := bomresolver.Explode(b, in.PlannedQuantity)
	if err != nil {
		return nil, err
	}
	materials := make([]entity.ProductionMaterial, 0, len(reqs))
	for _, r := range reqs {
		materials = append(materials, entity.ProductionMaterial{
			ID:                uuid.New().String(),
			ProductionOrderID: orderID,
			ProductVariantID:  r.ProductVariantID,
			RequiredQuantity:  r.RequiredQuantity,
			IssuedQuantity:    decimal.Zero,
		})
	}
	return materials, nil
}

// Release intenta DRAFT/WAITING_MATERIAL → RELEASED. Si algún material
// planificado no tiene disponible suficiente en la ubicación de la orden, la
// orden queda en WAITING_MATERIAL (estado derivado, no destino manual).
func (uc *OrderUseCase) Release(ctx context.Context, orderID string) (*entity.ProductionOrder, error) {
	var released *entity.ProductionOrder
	err := uc.txRunner.RunProduction(ctx, func(
		orderRepo repository.ProductionOrderRepository,
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(order.Status, entity.OrderReleased) {
			return domain.ErrInvalidOperation
		}

		target := entity.OrderReleased
		if short, err := uc.anyMaterialShort(order, posRepo, resRepo); err != nil {
			return err
		} else if short {
			target = entity.OrderWaitingMaterial
		}
		if target != order.Status {
			if !entity.CanTransition(order.Status, target) {
				return domain.ErrInvalidOperation
			}
			if err := orderRepo.UpdateStatus(order.ID, target, time.Now()); err != nil {
				return err
			}
		}
		order.Status = target
		released = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// anyMaterialShort verifica disponible (físico − reservas) por material pendiente.
func (uc *OrderUseCase) anyMaterialShort(
	order *entity.ProductionOrder,
	posRepo repository.StockPositionRepository,
	resRepo repository.ReservationRepository,
) (bool, error) {
	for _, m := range order.Materials {
		pending := m.RequiredQuantity.Sub(m.IssuedQuantity)
		if !pending.GreaterThan(decimal.Zero) {
			continue
		}
		pos, err := posRepo.Get(order.LocationID, m.ProductVariantID)
		if err != nil {
			return false, err
		}
		reserved, err := resRepo.SumActive(m.ProductVariantID, order.LocationID)
		if err != nil {
			return false, err
		}
		if pos.Quantity.Sub(reserved).LessThan(pending) {
			return true, nil
		}
	}
	return false, nil
}

// Start pasa RELEASED → IN_PROGRESS y estampa el inicio real.
func (uc *OrderUseCase) Start(ctx context.Context, orderID string) error {
	return uc.transition(ctx, orderID, entity.OrderInProgress)
}

// Complete pasa IN_PROGRESS → COMPLETED y estampa el fin real. No postea
// inventario: cada evento de salida ya lo hizo incrementalmente.
func (uc *OrderUseCase) Complete(ctx context.Context, orderID string) error {
	return uc.transition(ctx, orderID, entity.OrderCompleted)
}

// Cancel aplica la guarda: sin emisiones, sin ejecuciones y sin cantidad
// producida; si no, ErrInvalidOperation. No hay reversa compensatoria de
// inventario porque la guarda impide cancelar una vez que el inventario se movió.
func (uc *OrderUseCase) Cancel(ctx context.Context, orderID string) error {
	return uc.txRunner.RunProduction(ctx, func(
		orderRepo repository.ProductionOrderRepository,
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !order.CanCancel() {
			return domain.ErrInvalidOperation
		}
		if !entity.CanTransition(order.Status, entity.OrderCancelled) {
			return domain.ErrInvalidOperation
		}
		return orderRepo.UpdateStatus(order.ID, entity.OrderCancelled, time.Now())
	})
}

func (uc *OrderUseCase) transition(ctx context.Context, orderID string, target entity.OrderStatus) error {
	return uc.txRunner.RunProduction(ctx, func(
		orderRepo repository.ProductionOrderRepository,
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(order.Status, target) {
			return domain.ErrInvalidOperation
		}
		now := time.Now()
		if err := orderRepo.UpdateStatus(order.ID, target, now); err != nil {
			return err
		}
		switch target {
		case entity.OrderInProgress:
			if order.ActualStart == nil {
				return orderRepo.SetActuals(order.ID, order.ActualQuantity, &now, nil)
			}
		case entity.OrderCompleted:
			return orderRepo.SetActuals(order.ID, order.ActualQuantity, order.ActualStart, &now)
		}
		return nil
	})
}

// GetByID devuelve la orden con sus hijos.
func (uc *OrderUseCase) GetByID(ctx context.Context, orderID string) (*entity.ProductionOrder, error) {
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// List lista órdenes filtradas por estado (todas si status vacío).
func (uc *OrderUseCase) List(ctx context.Context, status entity.OrderStatus, limit, offset int) ([]*entity.ProductionOrder, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return uc.orderRepo.List(status, limit, offset)
}

// PreviewRequirements explota una BOM ad hoc y contrasta contra el stock
// actual de la ubicación dada (vista previa antes de crear la orden).
func (uc *OrderUseCase) PreviewRequirements(ctx context.Context, bomID, locationID string, targetQuantity decimal.Decimal) ([]dto.RequirementPreviewDTO, error) {
	b, err := uc.bomRepo.GetByID(bomID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	reqs, err := bomresolver.Explode(b, targetQuantity)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RequirementPreviewDTO, 0, len(reqs))
	for _, r := range reqs {
		preview := dto.RequirementPreviewDTO{
			ProductVariantID: r.ProductVariantID,
			RequiredQuantity: r.RequiredQuantity,
		}
		if locationID != "" {
			pos, err := uc.posRepo.Get(locationID, r.ProductVariantID)
			if err != nil {
				return nil, err
			}
			reserved, err := uc.resRepo.SumActive(r.ProductVariantID, locationID)
			if err != nil {
				return nil, err
			}
			preview.OnHand = pos.Quantity
			preview.Available = pos.Quantity.Sub(reserved)
			if shortage := r.RequiredQuantity.Sub(preview.Available); shortage.GreaterThan(decimal.Zero) {
				preview.Shortage = shortage
			} else {
				preview.Shortage = decimal.Zero
			}
		}
		out = append(out, preview)
	}
	return out, nil
}

// newOrderNumber genera un consecutivo legible: OP-YYYYMMDD-XXXXXX.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("OP-%s-%s", now.Format("20060102"), suffix)
}
