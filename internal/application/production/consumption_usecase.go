package production

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/application/dto"
	"github.com/clarinovist/manufactura-api/internal/application/inventory"
	"github.com/clarinovist/manufactura-api/internal/domain"
	bomresolver "github.com/clarinovist/manufactura-api/internal/domain/bom"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

// ConsumptionUseCase es el motor de consumo de materiales: los dos caminos de
// posteo al ledger (emisión manual y backflush) más el registro de salida,
// scrap e inspecciones. Los dos caminos no deben duplicar el mismo consumo
// físico: la primera emisión manual de una orden desactiva su backflush.
type ConsumptionUseCase struct {
	txRunner     TxRunner
	stockUC      *inventory.StockUseCase
	bomRepo      repository.BOMRepository
	variantRepo  repository.ProductVariantRepository
	locationRepo repository.LocationRepository
	orderRepo    repository.ProductionOrderRepository
}

// NewConsumptionUseCase construye el motor de consumo.
func NewConsumptionUseCase(
	txRunner TxRunner,
	stockUC *inventory.StockUseCase,
	bomRepo repository.BOMRepository,
	variantRepo repository.ProductVariantRepository,
	locationRepo repository.LocationRepository,
	orderRepo repository.ProductionOrderRepository,
) *ConsumptionUseCase {
	return &ConsumptionUseCase{
		txRunner:     txRunner,
		stockUC:      stockUC,
		bomRepo:      bomRepo,
		variantRepo:  variantRepo,
		locationRepo: locationRepo,
		orderRepo:    orderRepo,
	}
}

// Referencias de procedencia en el ledger. El prefijo "po:<id>" agrupa todo el
// movimiento de una orden; el agregador de costeo lo explota.
func issueRef(orderID string) string             { return fmt.Sprintf("po:%s:issue", orderID) }
func outputRef(orderID, execID string) string    { return fmt.Sprintf("po:%s:output:%s", orderID, execID) }
func backflushRef(orderID, execID string) string { return fmt.Sprintf("po:%s:backflush:%s", orderID, execID) }
func scrapRef(orderID string) string             { return fmt.Sprintf("po:%s:scrap", orderID) }
func voidRef(orderID, execID string) string      { return fmt.Sprintf("po:%s:void:%s", orderID, execID) }

// OrderRefPrefix es el prefijo de referencia de todo movimiento de una orden.
func OrderRefPrefix(orderID string) string { return "po:" + orderID }

// RecordMaterialIssue registra un consumo manual: verifica disponible en la
// ubicación origen, postea PRODUCTION_OUT y agrega el MaterialIssue, todo en
// una transacción. La primera emisión manual desactiva el backflush de la orden.
func (uc *ConsumptionUseCase) RecordMaterialIssue(ctx context.Context, orderID string, in dto.MaterialIssueRequest, createdBy *string) error {
	if orderID == "" || in.ProductVariantID == "" || in.LocationID == "" {
		return domain.ErrInvalidInput
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if v, _ := uc.variantRepo.GetByID(in.ProductVariantID); v == nil {
		return domain.ErrNotFound
	}
	if loc, _ := uc.locationRepo.GetByID(in.LocationID); loc == nil {
		return domain.ErrNotFound
	}

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
		if order.Status.Terminal() || order.Status == entity.OrderDraft {
			return domain.ErrInvalidOperation
		}

		unitCost, _, err := uc.stockUC.PostProductionOutInTx(
			posRepo, movRepo, resRepo, batchRepo, variantRepo,
			in.ProductVariantID, in.LocationID, in.Quantity,
			issueRef(orderID), true, createdBy,
		)
		if err != nil {
			return err
		}

		issue := &entity.MaterialIssue{
			ID:                uuid.New().String(),
			ProductionOrderID: orderID,
			ProductVariantID:  in.ProductVariantID,
			LocationID:        in.LocationID,
			Quantity:          in.Quantity,
			UnitCost:          unitCost,
			CreatedAt:         time.Now(),
			CreatedBy:         createdBy,
		}
		if err := orderRepo.AddMaterialIssue(issue); err != nil {
			return err
		}
		if err := orderRepo.AddIssuedQuantity(orderID, in.ProductVariantID, in.Quantity); err != nil {
			return err
		}
		// Marca la orden: consumo manual registrado, backflush desactivado.
		if !order.ManualIssue {
			return orderRepo.SetManualIssue(orderID)
		}
		return nil
	})
}

// AddProductionOutput registra un evento discreto de salida: crea la
// ejecución, postea PRODUCTION_IN del producto terminado en la ubicación de la
// orden, incrementa ActualQuantity (monótona) y, salvo que la orden tenga
// emisión manual, backflushea cada material planificado proporcionalmente:
//
//	requerido = item.Quantity / bom.OutputQuantity * quantityProduced
//
// El backflush es permisivo: una posición inexistente se crea en negativo en
// vez de bloquear producción, y la advertencia viaja en el resultado.
func (uc *ConsumptionUseCase) AddProductionOutput(ctx context.Context, orderID string, in dto.ProductionOutputRequest, createdBy *string) (*dto.MutationResponse, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.QuantityProduced.IsNegative() || in.ScrapQuantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() || in.EndTime.Before(in.StartTime) {
		return nil, domain.ErrInvalidInput
	}

	resp := &dto.MutationResponse{Success: true}
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
		if order.Status != entity.OrderInProgress {
			return domain.ErrInvalidOperation
		}

		now := time.Now()
		exec := &entity.ProductionExecution{
			ID:                uuid.New().String(),
			ProductionOrderID: orderID,
			QuantityProduced:  in.QuantityProduced,
			ScrapQuantity:     in.ScrapQuantity,
			StartTime:         in.StartTime,
			EndTime:           in.EndTime,
			Status:            entity.ExecutionActive,
			MachineID:         in.MachineID,
			OperatorID:        in.OperatorID,
			ShiftID:           in.ShiftID,
			Notes:             in.Notes,
			CreatedAt:         now,
		}
		if err := orderRepo.AddExecution(exec); err != nil {
			return err
		}
		resp.ID = exec.ID

		if in.QuantityProduced.GreaterThan(decimal.Zero) {
			// Entrada del producto terminado en la ubicación de la orden
			if _, err := uc.stockUC.PostProductionInInTx(
				posRepo, movRepo, batchRepo, variantRepo,
				order.ProductVariantID, order.LocationID, in.QuantityProduced,
				outputRef(orderID, exec.ID), nil, nil, createdBy,
			); err != nil {
				return err
			}

			// ActualQuantity solo crece; nunca se reinicia
			newActual := order.ActualQuantity.Add(in.QuantityProduced)
			actualStart := order.ActualStart
			if actualStart == nil {
				actualStart = &now
			}
			if err := orderRepo.SetActuals(orderID, newActual, actualStart, order.ActualEnd); err != nil {
				return err
			}

			if !order.ManualIssue {
				warnings, err := uc.backflush(orderRepo, posRepo, movRepo, resRepo, batchRepo, variantRepo, order, exec.ID, in.QuantityProduced, createdBy)
				if err != nil {
					return err
				}
				resp.Warnings = append(resp.Warnings, warnings...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// backflush deduce proporcionalmente cada material planificado desde la
// ubicación de la orden, con referencia de backflush por ejecución.
func (uc *ConsumptionUseCase) backflush(
	orderRepo repository.ProductionOrderRepository,
	posRepo repository.StockPositionRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
	batchRepo repository.BatchRepository,
	variantRepo repository.ProductVariantRepository,
	order *entity.ProductionOrder,
	execID string,
	quantityProduced decimal.Decimal,
	createdBy *string,
) ([]string, error) {
	b, err := uc.bomRepo.GetByID(order.BOMID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	var warnings []string
	for _, item := range b.Items {
		qty := bomresolver.BackflushQuantity(b, item, quantityProduced)
		if !qty.GreaterThan(decimal.Zero) {
			continue
		}
		_, warning, err := uc.stockUC.PostProductionOutInTx(
			posRepo, movRepo, resRepo, batchRepo, variantRepo,
			item.ProductVariantID, order.LocationID, qty,
			backflushRef(order.ID, execID), false, createdBy,
		)
		if err != nil {
			return nil, err
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}
		if err := orderRepo.AddIssuedQuantity(order.ID, item.ProductVariantID, qty); err != nil {
			return nil, err
		}
	}
	return warnings, nil
}

// RecordScrap postea el desperdicio como PRODUCTION_IN en la ubicación de
// scrap y agrega el ScrapRecord. No toca ActualQuantity.
func (uc *ConsumptionUseCase) RecordScrap(ctx context.Context, orderID string, in dto.ScrapRequest, createdBy *string) error {
	if orderID == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	scrapLocID := in.LocationID
	if scrapLocID == "" {
		loc, err := uc.locationRepo.GetScrapLocation()
		if err != nil {
			return err
		}
		if loc == nil {
			return domain.ErrNotFound
		}
		scrapLocID = loc.ID
	} else if loc, _ := uc.locationRepo.GetByID(scrapLocID); loc == nil {
		return domain.ErrNotFound
	}

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
		if order.Status.Terminal() || order.Status == entity.OrderDraft {
			return domain.ErrInvalidOperation
		}

		if _, err := uc.stockUC.PostProductionInInTx(
			posRepo, movRepo, batchRepo, variantRepo,
			order.ProductVariantID, scrapLocID, in.Quantity,
			scrapRef(orderID), nil, nil, createdBy,
		); err != nil {
			return err
		}
		return orderRepo.AddScrapRecord(&entity.ScrapRecord{
			ID:                uuid.New().String(),
			ProductionOrderID: orderID,
			ProductVariantID:  order.ProductVariantID,
			LocationID:        scrapLocID,
			Quantity:          in.Quantity,
			Reason:            in.Reason,
			CreatedAt:         time.Now(),
		})
	})
}

// VoidExecution anula una ejecución con entradas compensatorias nuevas (el
// ledger nunca se muta): revierte la entrada de producto terminado y los
// backflush de esa ejecución. ActualQuantity NO se decrementa (monótona);
// la corrección de cantidad queda solo en el ledger y en el costeo.
func (uc *ConsumptionUseCase) VoidExecution(ctx context.Context, orderID, executionID string, createdBy *string) error {
	if orderID == "" || executionID == "" {
		return domain.ErrInvalidInput
	}
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
		var exec *entity.ProductionExecution
		for i := range order.Executions {
			if order.Executions[i].ID == executionID {
				exec = &order.Executions[i]
				break
			}
		}
		if exec == nil {
			return domain.ErrNotFound
		}
		if exec.Status != entity.ExecutionActive {
			return domain.ErrInvalidOperation
		}

		// Reversa de la entrada de producto terminado (salida permisiva:
		// el stock pudo haberse movido después de producirse)
		outEntries, err := movRepo.ListByReferencePrefix(outputRef(orderID, executionID))
		if err != nil {
			return err
		}
		for _, e := range outEntries {
			if _, _, err := uc.stockUC.PostProductionOutInTx(
				posRepo, movRepo, resRepo, batchRepo, variantRepo,
				e.ProductVariantID, *e.ToLocationID, e.Quantity,
				voidRef(orderID, executionID), false, createdBy,
			); err != nil {
				return err
			}
		}

		// Reversa de los backflush: devuelve el material a su ubicación, al
		// costo de la entrada original (el costeo netea exacto aunque el
		// promedio haya cambiado entre la ejecución y la anulación)
		bfEntries, err := movRepo.ListByReferencePrefix(backflushRef(orderID, executionID))
		if err != nil {
			return err
		}
		for _, e := range bfEntries {
			originalCost := e.UnitCost
			if _, err := uc.stockUC.PostProductionInInTx(
				posRepo, movRepo, batchRepo, variantRepo,
				e.ProductVariantID, *e.FromLocationID, e.Quantity,
				voidRef(orderID, executionID), nil, &originalCost, createdBy,
			); err != nil {
				return err
			}
			if err := orderRepo.AddIssuedQuantity(orderID, e.ProductVariantID, e.Quantity.Neg()); err != nil {
				return err
			}
		}
		return orderRepo.UpdateExecutionStatus(executionID, entity.ExecutionVoided)
	})
}

// RecordInspection agrega un resultado de inspección de calidad sobre la
// orden. Solo registro: no tiene efecto sobre el stock.
func (uc *ConsumptionUseCase) RecordInspection(ctx context.Context, orderID string, in dto.InspectionRequest, inspectedBy *string) error {
	if orderID == "" {
		return domain.ErrInvalidInput
	}
	switch in.Result {
	case entity.InspectionPass, entity.InspectionFail, entity.InspectionQuarantine:
	default:
		return domain.ErrInvalidInput
	}
	return uc.txRunner.RunProduction(ctx, func(
		orderRepo repository.ProductionOrderRepository,
		posRepo repository.StockPositionRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		batchRepo repository.BatchRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		order, err := orderRepo.GetByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		return orderRepo.AddInspection(&entity.QualityInspection{
			ID:                uuid.New().String(),
			ProductionOrderID: orderID,
			Result:            in.Result,
			Quantity:          in.Quantity,
			Notes:             in.Notes,
			InspectedBy:       inspectedBy,
			CreatedAt:         time.Now(),
		})
	})
}
