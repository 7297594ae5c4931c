package memory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.ProductionOrderRepository = (*ProductionOrderRepo)(nil)

// ProductionOrderRepo implementación en memoria.
type ProductionOrderRepo struct{ store *Store }

// NewProductionOrderRepository construye el adaptador.
func NewProductionOrderRepository(store *Store) *ProductionOrderRepo {
	return &ProductionOrderRepo{store: store}
}

func (r *ProductionOrderRepo) Create(order *entity.ProductionOrder) error {
	if _, ok := r.store.orders[order.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, o := range r.store.orders {
		if o.OrderNumber == order.OrderNumber {
			return domain.ErrDuplicate
		}
	}
	r.store.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *ProductionOrderRepo) GetByID(id string) (*entity.ProductionOrder, error) {
	if o, ok := r.store.orders[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, nil
}

func (r *ProductionOrderRepo) GetForUpdate(id string) (*entity.ProductionOrder, error) {
	return r.GetByID(id)
}

func (r *ProductionOrderRepo) List(status entity.OrderStatus, limit, offset int) ([]*entity.ProductionOrder, error) {
	var out []*entity.ProductionOrder
	for _, o := range r.store.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
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

func (r *ProductionOrderRepo) UpdateStatus(id string, status entity.OrderStatus, at time.Time) error {
	o, ok := r.store.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	return nil
}

func (r *ProductionOrderRepo) SetActuals(id string, actualQuantity decimal.Decimal, actualStart, actualEnd *time.Time) error {
	o, ok := r.store.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.ActualQuantity = actualQuantity
	o.ActualStart = actualStart
	o.ActualEnd = actualEnd
	o.UpdatedAt = time.Now()
	return nil
}

func (r *ProductionOrderRepo) SetManualIssue(id string) error {
	o, ok := r.store.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.ManualIssue = true
	return nil
}

func (r *ProductionOrderRepo) AddMaterialIssue(issue *entity.MaterialIssue) error {
	o, ok := r.store.orders[issue.ProductionOrderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Issues = append(o.Issues, *issue)
	return nil
}

func (r *ProductionOrderRepo) AddExecution(execution *entity.ProductionExecution) error {
	o, ok := r.store.orders[execution.ProductionOrderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Executions = append(o.Executions, *execution)
	return nil
}

func (r *ProductionOrderRepo) UpdateExecutionStatus(executionID string, status entity.ExecutionStatus) error {
	for _, o := range r.store.orders {
		for i := range o.Executions {
			if o.Executions[i].ID == executionID {
				o.Executions[i].Status = status
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *ProductionOrderRepo) AddScrapRecord(record *entity.ScrapRecord) error {
	o, ok := r.store.orders[record.ProductionOrderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Scraps = append(o.Scraps, *record)
	return nil
}

func (r *ProductionOrderRepo) AddInspection(inspection *entity.QualityInspection) error {
	o, ok := r.store.orders[inspection.ProductionOrderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Inspections = append(o.Inspections, *inspection)
	return nil
}

func (r *ProductionOrderRepo) AddIssuedQuantity(orderID, variantID string, quantity decimal.Decimal) error {
	o, ok := r.store.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range o.Materials {
		if o.Materials[i].ProductVariantID == variantID {
			o.Materials[i].IssuedQuantity = o.Materials[i].IssuedQuantity.Add(quantity)
			return nil
		}
	}
	// Material fuera del plan (emisión manual de un insumo no planificado):
	// se agrega al snapshot con requerido cero.
	o.Materials = append(o.Materials, entity.ProductionMaterial{
		ProductionOrderID: orderID,
		ProductVariantID:  variantID,
		RequiredQuantity:  decimal.Zero,
		IssuedQuantity:    quantity,
	})
	return nil
}
