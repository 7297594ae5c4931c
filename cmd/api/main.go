package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	"github.com/clarinovist/manufactura-api/internal/application/costing"
	"github.com/clarinovist/manufactura-api/internal/application/inventory"
	"github.com/clarinovist/manufactura-api/internal/application/production"
	"github.com/clarinovist/manufactura-api/internal/infrastructure/postgres"
	httpRouter "github.com/clarinovist/manufactura-api/internal/interfaces/http"
	"github.com/clarinovist/manufactura-api/migrations"
	"github.com/clarinovist/manufactura-api/pkg/config"
	"github.com/clarinovist/manufactura-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if err := postgres.RunMigrations(cfg.DB.ConnectionString(), migrations.FS); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	variantRepo := postgres.NewProductVariantRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	positionRepo := postgres.NewStockPositionRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	reservationRepo := postgres.NewReservationRepository(pool)
	bomRepo := postgres.NewBOMRepository(pool)
	orderRepo := postgres.NewProductionOrderRepository(pool)
	costingRepo := postgres.NewCostingRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	stockUC := inventory.NewStockUseCase(txRunner, variantRepo, locationRepo, movementRepo, positionRepo, reservationRepo)
	reservationUC := inventory.NewReservationUseCase(txRunner, variantRepo, locationRepo, reservationRepo)
	orderUC := production.NewOrderUseCase(txRunner, bomRepo, variantRepo, locationRepo, orderRepo, reservationRepo, positionRepo)
	consumptionUC := production.NewConsumptionUseCase(txRunner, stockUC, bomRepo, variantRepo, locationRepo, orderRepo)
	costingUC := costing.NewUseCase(costingRepo, movementRepo, orderRepo, variantRepo)

	// Barrido periódico de reservas vencidas: las cancela para devolver el
	// disponible sin intervención manual.
	var sweeper *cron.Cron
	if cfg.Sweep.Enabled {
		sweeper = cron.New()
		_, err := sweeper.AddFunc(cfg.Sweep.Schedule, func() {
			released, err := reservationUC.ReleaseExpired(context.Background(), time.Now())
			if err != nil {
				log.Error().Err(err).Msg("barrido de reservas vencidas")
				return
			}
			if released > 0 {
				log.Info().Int("released", released).Msg("reservas vencidas canceladas")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Sweep.Schedule).Msg("programar barrido de reservas")
		}
		sweeper.Start()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Manufactura API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:       stockUC,
		ReservationUC: reservationUC,
		OrderUC:       orderUC,
		ConsumptionUC: consumptionUC,
		CostingUC:     costingUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	if sweeper != nil {
		sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
