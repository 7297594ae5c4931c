package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clarinovist/manufactura-api/internal/application/dto"
	"github.com/clarinovist/manufactura-api/internal/application/production"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
)

// ProductionHandler maneja las peticiones HTTP de órdenes de producción (protegido).
type ProductionHandler struct {
	orders      *production.OrderUseCase
	consumption *production.ConsumptionUseCase
}

// NewProductionHandler construye el handler.
func NewProductionHandler(orders *production.OrderUseCase, consumption *production.ConsumptionUseCase) *ProductionHandler {
	return &ProductionHandler{orders: orders, consumption: consumption}
}

func orderToDTO(o *entity.ProductionOrder) dto.ProductionOrderDTO {
	return dto.ProductionOrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		BOMID:           o.BOMID,
		Status:          string(o.Status),
		PlannedQuantity: o.PlannedQuantity,
		ActualQuantity:  o.ActualQuantity,
		LocationID:      o.LocationID,
	}
}

func createdByOf(c *fiber.Ctx) *string {
	if userID := GetUserID(c); userID != "" {
		return &userID
	}
	return nil
}

// Create godoc
// @Summary      Crear una orden de producción en DRAFT
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProductionOrderCreate  true  "bom_id, planned_quantity, location_id; items explícitos opcionales"
// @Success      201   {object}  dto.ProductionOrderDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/production-orders [post]
func (h *ProductionHandler) Create(c *fiber.Ctx) error {
	var in dto.ProductionOrderCreate
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	order, err := h.orders.Create(c.Context(), in, createdByOf(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(orderToDTO(order))
}

// GetByID godoc
// @Summary      Consultar una orden con sus hijos
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "orden"
// @Success      200  {object}  dto.ProductionOrderDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id} [get]
func (h *ProductionHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.orders.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(order)
}

// List godoc
// @Summary      Listar órdenes (filtro opcional por estado)
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "DRAFT, RELEASED, WAITING_MATERIAL, IN_PROGRESS, COMPLETED, CANCELLED"
// @Param        limit   query  int     false  "default 20"
// @Param        offset  query  int     false  "default 0"
// @Success      200  {array}  dto.ProductionOrderDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/production-orders [get]
func (h *ProductionHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	status := entity.OrderStatus(c.Query("status"))
	orders, err := h.orders.List(c.Context(), status, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ProductionOrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderToDTO(o))
	}
	return c.JSON(fiber.Map{"total": len(out), "orders": out})
}

// Release godoc
// @Summary      Liberar la orden; queda en WAITING_MATERIAL si falta disponible
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "orden"
// @Success      200  {object}  dto.ProductionOrderDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/release [post]
func (h *ProductionHandler) Release(c *fiber.Ctx) error {
	order, err := h.orders.Release(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orderToDTO(order))
}

// Start godoc
// @Summary      Iniciar la orden (RELEASED → IN_PROGRESS)
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "orden"
// @Success      200  {object}  dto.MutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/start [post]
func (h *ProductionHandler) Start(c *fiber.Ctx) error {
	if err := h.orders.Start(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MutationResponse{Success: true})
}

// Complete godoc
// @Summary      Completar la orden (IN_PROGRESS → COMPLETED)
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "orden"
// @Success      200  {object}  dto.MutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/complete [post]
func (h *ProductionHandler) Complete(c *fiber.Ctx) error {
	if err := h.orders.Complete(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MutationResponse{Success: true})
}

// Cancel godoc
// @Summary      Cancelar la orden (guarda: sin consumo ni salida registrada)
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "orden"
// @Success      200  {object}  dto.MutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/cancel [post]
func (h *ProductionHandler) Cancel(c *fiber.Ctx) error {
	if err := h.orders.Cancel(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MutationResponse{Success: true})
}

// IssueMaterial godoc
// @Summary      Emitir material manualmente contra la orden (desactiva backflush)
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "orden"
// @Param        body  body  dto.MaterialIssueRequest  true  "variante, ubicación origen, cantidad"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/issues [post]
func (h *ProductionHandler) IssueMaterial(c *fiber.Ctx) error {
	var in dto.MaterialIssueRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.consumption.RecordMaterialIssue(c.Context(), c.Params("id"), in, createdByOf(c)); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MutationResponse{Success: true})
}

// AddOutput godoc
// @Summary      Registrar salida de producción (entrada de terminado + backflush)
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "orden"
// @Param        body  body  dto.ProductionOutputRequest  true  "cantidad producida, scrap, tiempos"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/outputs [post]
func (h *ProductionHandler) AddOutput(c *fiber.Ctx) error {
	var in dto.ProductionOutputRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.consumption.AddProductionOutput(c.Context(), c.Params("id"), in, createdByOf(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// RecordScrap godoc
// @Summary      Registrar desperdicio de producto terminado
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "orden"
// @Param        body  body  dto.ScrapRequest  true  "cantidad, razón; ubicación opcional (default SCRAP)"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/scrap [post]
func (h *ProductionHandler) RecordScrap(c *fiber.Ctx) error {
	var in dto.ScrapRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.consumption.RecordScrap(c.Context(), c.Params("id"), in, createdByOf(c)); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MutationResponse{Success: true})
}

// VoidExecution godoc
// @Summary      Anular una ejecución: entradas compensatorias, la anulada queda VOIDED
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id            path  string  true  "orden"
// @Param        execution_id  path  string  true  "ejecución"
// @Success      200  {object}  dto.MutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/executions/{execution_id}/void [post]
func (h *ProductionHandler) VoidExecution(c *fiber.Ctx) error {
	if err := h.consumption.VoidExecution(c.Context(), c.Params("id"), c.Params("execution_id"), createdByOf(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MutationResponse{Success: true})
}

// RecordInspection godoc
// @Summary      Registrar inspección de calidad (sin efecto de inventario)
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "orden"
// @Param        body  body  dto.InspectionRequest  true  "result PASS/FAIL/QUARANTINE"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/inspections [post]
func (h *ProductionHandler) RecordInspection(c *fiber.Ctx) error {
	var in dto.InspectionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.consumption.RecordInspection(c.Context(), c.Params("id"), in, createdByOf(c)); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MutationResponse{Success: true})
}

// ExplodeBOM godoc
// @Summary      Explotar una BOM y contrastar contra el stock de una ubicación
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id           path   string  true   "BOM"
// @Param        location_id  query  string  false  "ubicación para contrastar disponibilidad"
// @Param        body         body   dto.ExplodeRequest  true  "target_quantity"
// @Success      200  {array}  dto.RequirementPreviewDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id}/explode [post]
func (h *ProductionHandler) ExplodeBOM(c *fiber.Ctx) error {
	var in dto.ExplodeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	reqs, err := h.orders.PreviewRequirements(c.Context(), c.Params("id"), c.Query("location_id"), in.TargetQuantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(reqs), "requirements": reqs})
}
