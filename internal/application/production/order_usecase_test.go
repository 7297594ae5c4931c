package production_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarinovist/manufactura-api/internal/application/dto"
	appinv "github.com/clarinovist/manufactura-api/internal/application/inventory"
	"github.com/clarinovist/manufactura-api/internal/application/production"
	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: órdenes de producción sobre los adaptadores en memoria.
//
// Datos base: variante de salida PT-001 con receta (base 100) que consume
// 40 kg de MP-001; ubicación de planta loc-prod y zona de scrap loc-scrap.
// ──────────────────────────────────────────────────────────────────────────────

type productionFixture struct {
	store   *memory.Store
	stockUC *appinv.StockUseCase
	orderUC *production.OrderUseCase
	consUC  *production.ConsumptionUseCase

	positions *memory.StockPositionRepo
	movements *memory.StockMovementRepo
}

func newProductionFixture(t *testing.T) *productionFixture {
	t.Helper()
	store := memory.NewStore()
	txRunner := memory.NewTxRunner(store)

	variants := memory.NewProductVariantRepository(store)
	locations := memory.NewLocationRepository(store)
	positions := memory.NewStockPositionRepository(store)
	movements := memory.NewStockMovementRepository(store)
	reservations := memory.NewReservationRepository(store)
	boms := memory.NewBOMRepository(store)
	orders := memory.NewProductionOrderRepository(store)

	stockUC := appinv.NewStockUseCase(txRunner, variants, locations, movements, positions, reservations)

	f := &productionFixture{
		store:     store,
		stockUC:   stockUC,
		orderUC:   production.NewOrderUseCase(txRunner, boms, variants, locations, orders, reservations, positions),
		consUC:    production.NewConsumptionUseCase(txRunner, stockUC, boms, variants, locations, orders),
		positions: positions,
		movements: movements,
	}

	store.SeedVariant(&entity.ProductVariant{
		ID: "var-pt", SKU: "PT-001", Name: "Producto terminado",
		UnitOfMeasure: "und", BuyPrice: decimal.NewFromInt(100),
	})
	store.SeedVariant(&entity.ProductVariant{
		ID: "var-mp", SKU: "MP-001", Name: "Materia prima",
		UnitOfMeasure: "kg", BuyPrice: decimal.NewFromInt(10),
	})
	store.SeedLocation(&entity.Location{
		ID: "loc-prod", Code: "PLANTA-1", Name: "Planta 1", Type: entity.LocationTypeProduction,
	})
	store.SeedLocation(&entity.Location{
		ID: "loc-scrap", Code: "SCRAP-1", Name: "Zona de scrap", Type: entity.LocationTypeScrap,
	})
	store.SeedBOM(&entity.BOM{
		ID:               "bom-pt",
		ProductVariantID: "var-pt",
		OutputQuantity:   decimal.NewFromInt(100),
		IsDefault:        true,
		Items: []entity.BOMItem{
			{ID: "item-mp", BOMID: "bom-pt", ProductVariantID: "var-mp", Quantity: decimal.NewFromInt(40)},
		},
	})
	return f
}

func (f *productionFixture) stockMP(t *testing.T, qty int64) {
	t.Helper()
	err := f.stockUC.Adjust(context.Background(), dto.AdjustRequest{
		LocationID:       "loc-prod",
		ProductVariantID: "var-mp",
		Direction:        "IN",
		Quantity:         decimal.NewFromInt(qty),
		Reason:           "carga inicial",
	})
	require.NoError(t, err)
}

func (f *productionFixture) createOrder(t *testing.T, plannedQty int64) *entity.ProductionOrder {
	t.Helper()
	order, err := f.orderUC.Create(context.Background(), dto.ProductionOrderCreate{
		BOMID:           "bom-pt",
		PlannedQuantity: decimal.NewFromInt(plannedQty),
		LocationID:      "loc-prod",
	}, nil)
	require.NoError(t, err)
	return order
}

// reload relee la orden con sus hijos.
func (f *productionFixture) reload(t *testing.T, orderID string) *entity.ProductionOrder {
	t.Helper()
	order, err := f.orderUC.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	return order
}

func (f *productionFixture) positionQty(t *testing.T, locationID, variantID string) decimal.Decimal {
	t.Helper()
	pos, err := f.positions.Get(locationID, variantID)
	require.NoError(t, err)
	return pos.Quantity
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación
// ──────────────────────────────────────────────────────────────────────────────

// La orden nace en DRAFT con el snapshot de materiales explotado de la BOM:
// base 100 con 40 kg, planificar 1020 requiere 40/100*1020 = 408 kg.
func TestCreate_ExplotaLaBOMEnElSnapshot(t *testing.T) {
	f := newProductionFixture(t)
	order := f.createOrder(t, 1020)

	assert.Equal(t, entity.OrderDraft, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "OP-"))
	assert.Equal(t, "var-pt", order.ProductVariantID)
	assert.True(t, order.ActualQuantity.IsZero())

	require.Len(t, order.Materials, 1)
	assert.Equal(t, "var-mp", order.Materials[0].ProductVariantID)
	assert.True(t, decimal.NewFromInt(408).Equal(order.Materials[0].RequiredQuantity),
		"requerido = 40/100*1020 = 408, se obtuvo %s", order.Materials[0].RequiredQuantity)
	assert.True(t, order.Materials[0].IssuedQuantity.IsZero())
}

// Items explícitos tienen precedencia sobre la BOM.
func TestCreate_ItemsExplicitosGananALaBOM(t *testing.T) {
	f := newProductionFixture(t)
	order, err := f.orderUC.Create(context.Background(), dto.ProductionOrderCreate{
		BOMID:           "bom-pt",
		PlannedQuantity: decimal.NewFromInt(500),
		LocationID:      "loc-prod",
		Items: []dto.OrderItemInput{
			{ProductVariantID: "var-mp", Quantity: decimal.NewFromInt(999)},
		},
	}, nil)
	require.NoError(t, err)

	require.Len(t, order.Materials, 1)
	assert.True(t, decimal.NewFromInt(999).Equal(order.Materials[0].RequiredQuantity))
}

func TestCreate_BOMInexistente(t *testing.T) {
	f := newProductionFixture(t)
	_, err := f.orderUC.Create(context.Background(), dto.ProductionOrderCreate{
		BOMID:           "bom-fantasma",
		PlannedQuantity: decimal.NewFromInt(10),
		LocationID:      "loc-prod",
	}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_CantidadNoPositiva(t *testing.T) {
	f := newProductionFixture(t)
	_, err := f.orderUC.Create(context.Background(), dto.ProductionOrderCreate{
		BOMID:           "bom-pt",
		PlannedQuantity: decimal.Zero,
		LocationID:      "loc-prod",
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Release: disponible suficiente → RELEASED; faltante → WAITING_MATERIAL
// ──────────────────────────────────────────────────────────────────────────────

func TestRelease_ConMaterialDisponible(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500) // requiere 40/100*1000 = 400
	order := f.createOrder(t, 1000)

	released, err := f.orderUC.Release(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderReleased, released.Status)
}

// Sin material suficiente la orden no se libera: queda en WAITING_MATERIAL, y
// al reponer stock un nuevo Release la pasa a RELEASED.
func TestRelease_FaltanteDejaEnEsperaYReintenta(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 100) // requiere 400
	order := f.createOrder(t, 1000)
	ctx := context.Background()

	waiting, err := f.orderUC.Release(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderWaitingMaterial, waiting.Status)

	f.stockMP(t, 300)
	released, err := f.orderUC.Release(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderReleased, released.Status)
}

func TestRelease_OrdenInexistente(t *testing.T) {
	f := newProductionFixture(t)
	_, err := f.orderUC.Release(context.Background(), "op-fantasma")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestStart_SoloDesdeReleased(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	order := f.createOrder(t, 1000)
	ctx := context.Background()

	assert.ErrorIs(t, f.orderUC.Start(ctx, order.ID), domain.ErrInvalidOperation,
		"DRAFT no puede saltar directo a IN_PROGRESS")

	_, err := f.orderUC.Release(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, f.orderUC.Start(ctx, order.ID))

	got := f.reload(t, order.ID)
	assert.Equal(t, entity.OrderInProgress, got.Status)
	assert.NotNil(t, got.ActualStart, "Start estampa el inicio real")
}

func TestComplete_CicloCompleto(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	order := f.createOrder(t, 1000)
	ctx := context.Background()

	_, err := f.orderUC.Release(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, f.orderUC.Start(ctx, order.ID))
	require.NoError(t, f.orderUC.Complete(ctx, order.ID))

	got := f.reload(t, order.ID)
	assert.Equal(t, entity.OrderCompleted, got.Status)
	assert.NotNil(t, got.ActualEnd)

	// Terminal: ninguna transición posterior
	assert.ErrorIs(t, f.orderUC.Start(ctx, order.ID), domain.ErrInvalidOperation)
	assert.ErrorIs(t, f.orderUC.Cancel(ctx, order.ID), domain.ErrInvalidOperation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Guarda de cancelación
// ──────────────────────────────────────────────────────────────────────────────

// En IN_PROGRESS sin emisiones, ejecuciones ni salida la cancelación procede;
// tras registrar una salida de 10 unidades la misma cancelación falla.
func TestCancel_GuardaAntesYDespuesDeSalida(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()

	limpia := f.createOrder(t, 1000)
	_, err := f.orderUC.Release(ctx, limpia.ID)
	require.NoError(t, err)
	require.NoError(t, f.orderUC.Start(ctx, limpia.ID))
	require.NoError(t, f.orderUC.Cancel(ctx, limpia.ID),
		"sin trabajo registrado la orden en marcha se puede cancelar")
	assert.Equal(t, entity.OrderCancelled, f.reload(t, limpia.ID).Status)

	conSalida := f.createOrder(t, 1000)
	_, err = f.orderUC.Release(ctx, conSalida.ID)
	require.NoError(t, err)
	require.NoError(t, f.orderUC.Start(ctx, conSalida.ID))

	now := time.Now()
	_, err = f.consUC.AddProductionOutput(ctx, conSalida.ID, dto.ProductionOutputRequest{
		QuantityProduced: decimal.NewFromInt(10),
		StartTime:        now.Add(-time.Hour),
		EndTime:          now,
	}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, f.orderUC.Cancel(ctx, conSalida.ID), domain.ErrInvalidOperation,
		"con salida registrada la cancelación debe rechazarse")
}

func TestCancel_ConEmisionManualFalla(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()

	order := f.createOrder(t, 1000)
	_, err := f.orderUC.Release(ctx, order.ID)
	require.NoError(t, err)

	err = f.consUC.RecordMaterialIssue(ctx, order.ID, dto.MaterialIssueRequest{
		ProductVariantID: "var-mp",
		LocationID:       "loc-prod",
		Quantity:         decimal.NewFromInt(50),
	}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, f.orderUC.Cancel(ctx, order.ID), domain.ErrInvalidOperation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Listado y vista previa
// ──────────────────────────────────────────────────────────────────────────────

func TestList_FiltraPorEstado(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 1000)
	ctx := context.Background()

	a := f.createOrder(t, 100)
	f.createOrder(t, 200)
	_, err := f.orderUC.Release(ctx, a.ID)
	require.NoError(t, err)

	todas, err := f.orderUC.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, todas, 2)

	liberadas, err := f.orderUC.List(ctx, entity.OrderReleased, 0, 0)
	require.NoError(t, err)
	require.Len(t, liberadas, 1)
	assert.Equal(t, a.ID, liberadas[0].ID)

	_, err = f.orderUC.List(ctx, entity.OrderStatus("PAUSED"), 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPreviewRequirements_CalculaFaltante(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 100)

	reqs, err := f.orderUC.PreviewRequirements(context.Background(), "bom-pt", "loc-prod", decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	assert.True(t, decimal.NewFromInt(400).Equal(reqs[0].RequiredQuantity))
	assert.True(t, decimal.NewFromInt(100).Equal(reqs[0].OnHand))
	assert.True(t, decimal.NewFromInt(100).Equal(reqs[0].Available))
	assert.True(t, decimal.NewFromInt(300).Equal(reqs[0].Shortage))
}
