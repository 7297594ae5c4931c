package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/application/costing"
	"github.com/clarinovist/manufactura-api/internal/application/dto"
)

// CostingHandler maneja las proyecciones de costeo y reposición (protegido).
type CostingHandler struct {
	uc *costing.UseCase
}

// NewCostingHandler construye el handler.
func NewCostingHandler(uc *costing.UseCase) *CostingHandler {
	return &CostingHandler{uc: uc}
}

// Valuation godoc
// @Summary      Valoración del inventario a costo promedio ponderado
// @Tags         costing
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.InventoryValuationDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/costing/valuation [get]
func (h *CostingHandler) Valuation(c *fiber.Ctx) error {
	out, err := h.uc.Valuation(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// OrderCosting godoc
// @Summary      Costo de fabricación de una orden (material + conversión)
// @Tags         costing
// @Security     Bearer
// @Produce      json
// @Param        id               path   string  true   "orden"
// @Param        conversion_cost  query  string  false  "costo de conversión a prorratear"
// @Success      200  {object}  dto.OrderCostingDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/costing/orders/{id} [get]
func (h *CostingHandler) OrderCosting(c *fiber.Ctx) error {
	conversion := decimal.Zero
	if s := c.Query("conversion_cost"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "conversion_cost inválido"})
		}
		conversion = d
	}
	out, err := h.uc.OrderCosting(c.Context(), c.Params("id"), conversion)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Agregados globales del inventario
// @Tags         costing
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.InventoryStatsDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/costing/stats [get]
func (h *CostingHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SuggestedPurchases godoc
// @Summary      SKUs bajo punto de reorden con cantidad sugerida de compra
// @Tags         costing
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.PurchaseSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/costing/purchase-suggestions [get]
func (h *CostingHandler) SuggestedPurchases(c *fiber.Ctx) error {
	out, err := h.uc.SuggestedPurchases(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(out), "suggestions": out})
}
