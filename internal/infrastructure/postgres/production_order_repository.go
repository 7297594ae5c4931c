package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

var _ repository.ProductionOrderRepository = (*ProductionOrderRepo)(nil)

// ProductionOrderRepo implementación sobre PostgreSQL (usable con pool o tx).
// La orden agrega sus hijos: materiales, emisiones, ejecuciones, scrap e inspecciones.
type ProductionOrderRepo struct {
	q Querier
}

// NewProductionOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionOrderRepository(q Querier) *ProductionOrderRepo {
	return &ProductionOrderRepo{q: q}
}

const orderColumns = `id, order_number, bom_id, product_variant_id, planned_quantity, actual_quantity,
	status, machine_id, location_id, planned_start, planned_end, actual_start, actual_end,
	manual_issue, created_at, updated_at, created_by`

// Create persiste la orden con su snapshot de materiales en una sola pasada.
// Número de orden duplicado devuelve ErrDuplicate.
func (r *ProductionOrderRepo) Create(order *entity.ProductionOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	query := `
		INSERT INTO production_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now(), $15)`
	_, err := r.q.Exec(context.Background(), query,
		order.ID, order.OrderNumber, order.BOMID, order.ProductVariantID,
		order.PlannedQuantity, order.ActualQuantity, order.Status, order.MachineID,
		order.LocationID, order.PlannedStart, order.PlannedEnd, order.ActualStart,
		order.ActualEnd, order.ManualIssue, order.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create production order: %w", err)
	}
	for i := range order.Materials {
		m := &order.Materials[i]
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.ProductionOrderID = order.ID
		_, err := r.q.Exec(context.Background(), `
			INSERT INTO production_materials (id, production_order_id, product_variant_id, required_quantity, issued_quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.ProductionOrderID, m.ProductVariantID, m.RequiredQuantity, m.IssuedQuantity,
		)
		if err != nil {
			return fmt.Errorf("create production material: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con todos sus hijos; nil si no existe.
func (r *ProductionOrderRepo) GetByID(id string) (*entity.ProductionOrder, error) {
	return r.get(id, false)
}

// GetForUpdate obtiene la orden bloqueando su fila (carreras entre registros de salida).
func (r *ProductionOrderRepo) GetForUpdate(id string) (*entity.ProductionOrder, error) {
	return r.get(id, true)
}

func (r *ProductionOrderRepo) get(id string, forUpdate bool) (*entity.ProductionOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM production_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var o entity.ProductionOrder
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &o.OrderNumber, &o.BOMID, &o.ProductVariantID, &o.PlannedQuantity,
		&o.ActualQuantity, &o.Status, &o.MachineID, &o.LocationID, &o.PlannedStart,
		&o.PlannedEnd, &o.ActualStart, &o.ActualEnd, &o.ManualIssue,
		&o.CreatedAt, &o.UpdatedAt, &o.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production order: %w", err)
	}
	if err := r.loadChildren(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

// List lista órdenes filtradas por estado (todas si status vacío).
func (r *ProductionOrderRepo) List(status entity.OrderStatus, limit, offset int) ([]*entity.ProductionOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM production_orders`
	args := []any{}
	pos := 1
	if status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", pos)
		args = append(args, status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY order_number LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list production orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductionOrder
	for rows.Next() {
		var o entity.ProductionOrder
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.BOMID, &o.ProductVariantID, &o.PlannedQuantity,
			&o.ActualQuantity, &o.Status, &o.MachineID, &o.LocationID, &o.PlannedStart,
			&o.PlannedEnd, &o.ActualStart, &o.ActualEnd, &o.ManualIssue,
			&o.CreatedAt, &o.UpdatedAt, &o.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan production order: %w", err)
		}
		list = append(list, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range list {
		if err := r.loadChildren(o); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// UpdateStatus cambia el estado de la orden. La guarda de transición la aplica
// el caso de uso; aquí solo se persiste.
func (r *ProductionOrderRepo) UpdateStatus(id string, status entity.OrderStatus, at time.Time) error {
	query := `UPDATE production_orders SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, status, at)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetActuals fija la cantidad producida acumulada y los timestamps reales.
func (r *ProductionOrderRepo) SetActuals(id string, actualQuantity decimal.Decimal, actualStart, actualEnd *time.Time) error {
	query := `
		UPDATE production_orders
		SET actual_quantity = $2, actual_start = $3, actual_end = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, actualQuantity, actualStart, actualEnd)
	if err != nil {
		return fmt.Errorf("set order actuals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetManualIssue marca la orden con emisión manual (desactiva el backflush).
func (r *ProductionOrderRepo) SetManualIssue(id string) error {
	query := `UPDATE production_orders SET manual_issue = true, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id)
	if err != nil {
		return fmt.Errorf("set manual issue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddMaterialIssue registra una emisión manual de material.
func (r *ProductionOrderRepo) AddMaterialIssue(issue *entity.MaterialIssue) error {
	if issue.ID == "" {
		issue.ID = uuid.New().String()
	}
	query := `
		INSERT INTO material_issues (id, production_order_id, product_variant_id, location_id, quantity, unit_cost, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		issue.ID, issue.ProductionOrderID, issue.ProductVariantID, issue.LocationID,
		issue.Quantity, issue.UnitCost, issue.CreatedAt, issue.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("add material issue: %w", err)
	}
	return nil
}

// AddExecution registra un evento de salida de producción.
func (r *ProductionOrderRepo) AddExecution(execution *entity.ProductionExecution) error {
	if execution.ID == "" {
		execution.ID = uuid.New().String()
	}
	query := `
		INSERT INTO production_executions (id, production_order_id, quantity_produced, scrap_quantity, start_time, end_time, status, machine_id, operator_id, shift_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		execution.ID, execution.ProductionOrderID, execution.QuantityProduced, execution.ScrapQuantity,
		execution.StartTime, execution.EndTime, execution.Status, execution.MachineID,
		execution.OperatorID, execution.ShiftID, execution.Notes, execution.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add execution: %w", err)
	}
	return nil
}

// UpdateExecutionStatus cambia el estado de una ejecución (anulación).
func (r *ProductionOrderRepo) UpdateExecutionStatus(executionID string, status entity.ExecutionStatus) error {
	query := `UPDATE production_executions SET status = $2 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, executionID, status)
	if err != nil {
		return fmt.Errorf("update execution status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddScrapRecord registra un evento de desperdicio.
func (r *ProductionOrderRepo) AddScrapRecord(record *entity.ScrapRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	query := `
		INSERT INTO scrap_records (id, production_order_id, product_variant_id, location_id, quantity, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		record.ID, record.ProductionOrderID, record.ProductVariantID, record.LocationID,
		record.Quantity, record.Reason, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add scrap record: %w", err)
	}
	return nil
}

// AddInspection registra un resultado de inspección de calidad.
func (r *ProductionOrderRepo) AddInspection(inspection *entity.QualityInspection) error {
	if inspection.ID == "" {
		inspection.ID = uuid.New().String()
	}
	query := `
		INSERT INTO quality_inspections (id, production_order_id, result, quantity, notes, inspected_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		inspection.ID, inspection.ProductionOrderID, inspection.Result, inspection.Quantity,
		inspection.Notes, inspection.InspectedBy, inspection.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add inspection: %w", err)
	}
	return nil
}

// AddIssuedQuantity acumula cantidad emitida sobre el material planificado.
// Material fuera del plan (emisión manual de un insumo no planificado) se
// inserta con requerido cero.
func (r *ProductionOrderRepo) AddIssuedQuantity(orderID, variantID string, quantity decimal.Decimal) error {
	query := `
		UPDATE production_materials
		SET issued_quantity = issued_quantity + $3
		WHERE production_order_id = $1 AND product_variant_id = $2`
	tag, err := r.q.Exec(context.Background(), query, orderID, variantID, quantity)
	if err != nil {
		return fmt.Errorf("add issued quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		_, err := r.q.Exec(context.Background(), `
			INSERT INTO production_materials (id, production_order_id, product_variant_id, required_quantity, issued_quantity)
			VALUES ($1, $2, $3, 0, $4)`,
			uuid.New().String(), orderID, variantID, quantity,
		)
		if err != nil {
			return fmt.Errorf("add issued quantity (unplanned): %w", err)
		}
	}
	return nil
}

func (r *ProductionOrderRepo) loadChildren(o *entity.ProductionOrder) error {
	if err := r.loadMaterials(o); err != nil {
		return err
	}
	if err := r.loadIssues(o); err != nil {
		return err
	}
	if err := r.loadScraps(o); err != nil {
		return err
	}
	if err := r.loadExecutions(o); err != nil {
		return err
	}
	return r.loadInspections(o)
}

func (r *ProductionOrderRepo) loadMaterials(o *entity.ProductionOrder) error {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, production_order_id, product_variant_id, required_quantity, issued_quantity
		FROM production_materials WHERE production_order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m entity.ProductionMaterial
		if err := rows.Scan(&m.ID, &m.ProductionOrderID, &m.ProductVariantID, &m.RequiredQuantity, &m.IssuedQuantity); err != nil {
			return fmt.Errorf("scan material: %w", err)
		}
		o.Materials = append(o.Materials, m)
	}
	return rows.Err()
}

func (r *ProductionOrderRepo) loadIssues(o *entity.ProductionOrder) error {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, production_order_id, product_variant_id, location_id, quantity, unit_cost, created_at, created_by
		FROM material_issues WHERE production_order_id = $1 ORDER BY created_at`, o.ID)
	if err != nil {
		return fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mi entity.MaterialIssue
		if err := rows.Scan(&mi.ID, &mi.ProductionOrderID, &mi.ProductVariantID, &mi.LocationID,
			&mi.Quantity, &mi.UnitCost, &mi.CreatedAt, &mi.CreatedBy); err != nil {
			return fmt.Errorf("scan issue: %w", err)
		}
		o.Issues = append(o.Issues, mi)
	}
	return rows.Err()
}

func (r *ProductionOrderRepo) loadScraps(o *entity.ProductionOrder) error {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, production_order_id, product_variant_id, location_id, quantity, reason, created_at
		FROM scrap_records WHERE production_order_id = $1 ORDER BY created_at`, o.ID)
	if err != nil {
		return fmt.Errorf("list scraps: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s entity.ScrapRecord
		if err := rows.Scan(&s.ID, &s.ProductionOrderID, &s.ProductVariantID, &s.LocationID,
			&s.Quantity, &s.Reason, &s.CreatedAt); err != nil {
			return fmt.Errorf("scan scrap: %w", err)
		}
		o.Scraps = append(o.Scraps, s)
	}
	return rows.Err()
}

func (r *ProductionOrderRepo) loadExecutions(o *entity.ProductionOrder) error {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, production_order_id, quantity_produced, scrap_quantity, start_time, end_time, status, machine_id, operator_id, shift_id, notes, created_at
		FROM production_executions WHERE production_order_id = $1 ORDER BY created_at`, o.ID)
	if err != nil {
		return fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entity.ProductionExecution
		if err := rows.Scan(&e.ID, &e.ProductionOrderID, &e.QuantityProduced, &e.ScrapQuantity,
			&e.StartTime, &e.EndTime, &e.Status, &e.MachineID, &e.OperatorID, &e.ShiftID,
			&e.Notes, &e.CreatedAt); err != nil {
			return fmt.Errorf("scan execution: %w", err)
		}
		o.Executions = append(o.Executions, e)
	}
	return rows.Err()
}

func (r *ProductionOrderRepo) loadInspections(o *entity.ProductionOrder) error {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, production_order_id, result, quantity, notes, inspected_by, created_at
		FROM quality_inspections WHERE production_order_id = $1 ORDER BY created_at`, o.ID)
	if err != nil {
		return fmt.Errorf("list inspections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var qi entity.QualityInspection
		if err := rows.Scan(&qi.ID, &qi.ProductionOrderID, &qi.Result, &qi.Quantity,
			&qi.Notes, &qi.InspectedBy, &qi.CreatedAt); err != nil {
			return fmt.Errorf("scan inspection: %w", err)
		}
		o.Inspections = append(o.Inspections, qi)
	}
	return rows.Err()
}
