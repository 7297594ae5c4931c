package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clarinovist/manufactura-api/internal/application/costing"
	"github.com/clarinovist/manufactura-api/internal/application/inventory"
	"github.com/clarinovist/manufactura-api/internal/application/production"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC       *inventory.StockUseCase
	ReservationUC *inventory.ReservationUseCase
	OrderUC       *production.OrderUseCase
	ConsumptionUC *production.ConsumptionUseCase
	CostingUC     *costing.UseCase
	JWTSecret     string
}

// Router registra las rutas de la API. Todo el dominio va protegido con
// Bearer Token; las mutaciones de producción exigen rol de planta.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Inventario: ledger, posiciones y ajustes
	inv := protected.Group("/inventory")
	stockHandler := NewStockHandler(deps.StockUC)
	inv.Post("/transfers", stockHandler.Transfer)
	inv.Post("/transfers/bulk", stockHandler.TransferBulk)
	inv.Post("/adjustments", RequireRole("admin", "planner"), stockHandler.Adjust)
	inv.Get("/positions", stockHandler.GetPosition)
	inv.Get("/movements", stockHandler.ListMovements)

	// Reservas
	reservations := protected.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.ReservationUC)
	reservations.Post("/", reservationHandler.Create)
	reservations.Post("/:id/cancel", reservationHandler.Cancel)
	reservations.Post("/:id/fulfill", reservationHandler.Fulfill)

	// Órdenes de producción y motor de consumo
	orders := protected.Group("/production-orders")
	productionHandler := NewProductionHandler(deps.OrderUC, deps.ConsumptionUC)
	orders.Post("/", RequireRole("admin", "planner"), productionHandler.Create)
	orders.Get("/", productionHandler.List)
	orders.Get("/:id", productionHandler.GetByID)
	orders.Post("/:id/release", RequireRole("admin", "planner"), productionHandler.Release)
	orders.Post("/:id/start", productionHandler.Start)
	orders.Post("/:id/complete", productionHandler.Complete)
	orders.Post("/:id/cancel", RequireRole("admin", "planner"), productionHandler.Cancel)
	orders.Post("/:id/issues", productionHandler.IssueMaterial)
	orders.Post("/:id/outputs", productionHandler.AddOutput)
	orders.Post("/:id/scrap", productionHandler.RecordScrap)
	orders.Post("/:id/executions/:execution_id/void", RequireRole("admin", "planner"), productionHandler.VoidExecution)
	orders.Post("/:id/inspections", productionHandler.RecordInspection)

	// BOM
	boms := protected.Group("/boms")
	boms.Post("/:id/explode", productionHandler.ExplodeBOM)

	// Costeo y reposición
	cost := protected.Group("/costing")
	costingHandler := NewCostingHandler(deps.CostingUC)
	cost.Get("/valuation", costingHandler.Valuation)
	cost.Get("/orders/:id", costingHandler.OrderCosting)
	cost.Get("/stats", costingHandler.Stats)
	cost.Get("/purchase-suggestions", costingHandler.SuggestedPurchases)
}
