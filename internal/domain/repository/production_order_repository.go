package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
)

// ProductionOrderRepository define el puerto de persistencia de órdenes de
// producción y sus hijos (materiales, emisiones, ejecuciones, scrap, inspecciones).
type ProductionOrderRepository interface {
	// Create persiste la orden con su snapshot de materiales.
	Create(order *entity.ProductionOrder) error
	// GetByID devuelve la orden con todos sus hijos; nil si no existe.
	GetByID(id string) (*entity.ProductionOrder, error)
	// GetForUpdate bloquea la fila de la orden (carreras entre registros de salida).
	GetForUpdate(id string) (*entity.ProductionOrder, error)
	List(status entity.OrderStatus, limit, offset int) ([]*entity.ProductionOrder, error)
	UpdateStatus(id string, status entity.OrderStatus, at time.Time) error
	// SetActuals fija cantidad producida acumulada y timestamps reales.
	SetActuals(id string, actualQuantity decimal.Decimal, actualStart, actualEnd *time.Time) error
	SetManualIssue(id string) error
	AddMaterialIssue(issue *entity.MaterialIssue) error
	AddExecution(execution *entity.ProductionExecution) error
	UpdateExecutionStatus(executionID string, status entity.ExecutionStatus) error
	AddScrapRecord(record *entity.ScrapRecord) error
	AddInspection(inspection *entity.QualityInspection) error
	// AddIssuedQuantity acumula cantidad emitida sobre el material planificado.
	AddIssuedQuantity(orderID, variantID string, quantity decimal.Decimal) error
}
