package production_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarinovist/manufactura-api/internal/application/dto"
	"github.com/clarinovist/manufactura-api/internal/domain"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
)

// startedOrder crea, libera e inicia una orden lista para registrar salida.
func startedOrder(t *testing.T, f *productionFixture, plannedQty int64) *entity.ProductionOrder {
	t.Helper()
	ctx := context.Background()
	order := f.createOrder(t, plannedQty)
	_, err := f.orderUC.Release(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, f.orderUC.Start(ctx, order.ID))
	return order
}

func output(qty int64) dto.ProductionOutputRequest {
	now := time.Now()
	return dto.ProductionOutputRequest{
		QuantityProduced: decimal.NewFromInt(qty),
		StartTime:        now.Add(-time.Hour),
		EndTime:          now,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Emisión manual
// ──────────────────────────────────────────────────────────────────────────────

// La emisión manual postea PRODUCTION_OUT, acumula IssuedQuantity en el
// material planificado y marca la orden para desactivar el backflush.
func TestRecordMaterialIssue_PosteaYMarcaLaOrden(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := startedOrder(t, f, 1000)

	err := f.consUC.RecordMaterialIssue(ctx, order.ID, dto.MaterialIssueRequest{
		ProductVariantID: "var-mp",
		LocationID:       "loc-prod",
		Quantity:         decimal.NewFromInt(120),
	}, nil)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(380).Equal(f.positionQty(t, "loc-prod", "var-mp")))

	got := f.reload(t, order.ID)
	assert.True(t, got.ManualIssue, "la primera emisión manual desactiva el backflush")
	require.Len(t, got.Issues, 1)
	assert.True(t, decimal.NewFromInt(120).Equal(got.Issues[0].Quantity))
	require.Len(t, got.Materials, 1)
	assert.True(t, decimal.NewFromInt(120).Equal(got.Materials[0].IssuedQuantity))

	entries, err := f.movements.ListByReferencePrefix("po:" + order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.MovementProductionOut, entries[0].Type)
}

// La emisión manual sí verifica disponibilidad: sin stock falla y no deja rastro.
func TestRecordMaterialIssue_VerificaDisponible(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 50)
	ctx := context.Background()

	// Con faltante la orden queda en WAITING_MATERIAL, que sí admite emisiones
	order := f.createOrder(t, 1000)
	waiting, err := f.orderUC.Release(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, entity.OrderWaitingMaterial, waiting.Status)

	err = f.consUC.RecordMaterialIssue(ctx, order.ID, dto.MaterialIssueRequest{
		ProductVariantID: "var-mp",
		LocationID:       "loc-prod",
		Quantity:         decimal.NewFromInt(100),
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got := f.reload(t, order.ID)
	assert.Empty(t, got.Issues)
	assert.False(t, got.ManualIssue)
	assert.True(t, decimal.NewFromInt(50).Equal(f.positionQty(t, "loc-prod", "var-mp")))
}

// Una emisión de material no planificado se agrega al snapshot con requerido cero.
func TestRecordMaterialIssue_MaterialNoPlanificado(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	f.store.SeedVariant(&entity.ProductVariant{
		ID: "var-extra", SKU: "MP-099", Name: "Aditivo",
		UnitOfMeasure: "kg", BuyPrice: decimal.NewFromInt(3),
	})
	ctx := context.Background()
	require.NoError(t, f.stockUC.Adjust(ctx, dto.AdjustRequest{
		LocationID: "loc-prod", ProductVariantID: "var-extra",
		Direction: "IN", Quantity: decimal.NewFromInt(30), Reason: "carga",
	}))
	order := startedOrder(t, f, 1000)

	err := f.consUC.RecordMaterialIssue(ctx, order.ID, dto.MaterialIssueRequest{
		ProductVariantID: "var-extra",
		LocationID:       "loc-prod",
		Quantity:         decimal.NewFromInt(5),
	}, nil)
	require.NoError(t, err)

	got := f.reload(t, order.ID)
	require.Len(t, got.Materials, 2)
	var extra *entity.ProductionMaterial
	for i := range got.Materials {
		if got.Materials[i].ProductVariantID == "var-extra" {
			extra = &got.Materials[i]
		}
	}
	require.NotNil(t, extra)
	assert.True(t, extra.RequiredQuantity.IsZero())
	assert.True(t, decimal.NewFromInt(5).Equal(extra.IssuedQuantity))
}

func TestRecordMaterialIssue_OrdenEnDraftRechazada(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	order := f.createOrder(t, 1000)

	err := f.consUC.RecordMaterialIssue(context.Background(), order.ID, dto.MaterialIssueRequest{
		ProductVariantID: "var-mp",
		LocationID:       "loc-prod",
		Quantity:         decimal.NewFromInt(10),
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro de salida y backflush
// ──────────────────────────────────────────────────────────────────────────────

// La salida entra el producto terminado, incrementa ActualQuantity y
// backflushea proporcionalmente: producir 50 con receta 40/100 consume 20 kg.
func TestAddProductionOutput_BackflushProporcional(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := startedOrder(t, f, 1000)

	resp, err := f.consUC.AddProductionOutput(ctx, order.ID, output(50), nil)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ID)
	assert.Empty(t, resp.Warnings)

	assert.True(t, decimal.NewFromInt(50).Equal(f.positionQty(t, "loc-prod", "var-pt")),
		"el producto terminado entra en la ubicación de la orden")
	assert.True(t, decimal.NewFromInt(480).Equal(f.positionQty(t, "loc-prod", "var-mp")),
		"backflush = 40/100*50 = 20 kg consumidos")

	got := f.reload(t, order.ID)
	assert.True(t, decimal.NewFromInt(50).Equal(got.ActualQuantity))
	require.Len(t, got.Executions, 1)
	assert.Equal(t, entity.ExecutionActive, got.Executions[0].Status)
	require.Len(t, got.Materials, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(got.Materials[0].IssuedQuantity))
}

// ActualQuantity acumula a través de varias ejecuciones.
func TestAddProductionOutput_AcumulaActualQuantity(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := startedOrder(t, f, 1000)

	_, err := f.consUC.AddProductionOutput(ctx, order.ID, output(30), nil)
	require.NoError(t, err)
	_, err = f.consUC.AddProductionOutput(ctx, order.ID, output(70), nil)
	require.NoError(t, err)

	got := f.reload(t, order.ID)
	assert.True(t, decimal.NewFromInt(100).Equal(got.ActualQuantity))
	assert.Len(t, got.Executions, 2)
}

// Con emisión manual previa el backflush queda desactivado: la salida no
// consume material adicional.
func TestAddProductionOutput_EmisionManualDesactivaBackflush(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := startedOrder(t, f, 1000)

	require.NoError(t, f.consUC.RecordMaterialIssue(ctx, order.ID, dto.MaterialIssueRequest{
		ProductVariantID: "var-mp",
		LocationID:       "loc-prod",
		Quantity:         decimal.NewFromInt(400),
	}, nil))

	_, err := f.consUC.AddProductionOutput(ctx, order.ID, output(50), nil)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(100).Equal(f.positionQty(t, "loc-prod", "var-mp")),
		"solo la emisión manual consumió material; la salida no backflushea")
}

// Camino permisivo: sin stock de material el backflush no bloquea la
// producción, deja la posición en negativo y lo reporta como advertencia.
func TestAddProductionOutput_BackflushPermisivoDejaNegativoYAdvierte(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := startedOrder(t, f, 1000)

	// El material se va a otra bodega después de liberar la orden
	f.store.SeedLocation(&entity.Location{
		ID: "loc-otra", Code: "BOD-X", Name: "Bodega X", Type: entity.LocationTypeWarehouse,
	})
	require.NoError(t, f.stockUC.Transfer(ctx, dto.TransferRequest{
		SourceLocationID: "loc-prod", DestinationLocationID: "loc-otra",
		ProductVariantID: "var-mp", Quantity: decimal.NewFromInt(500),
	}))

	resp, err := f.consUC.AddProductionOutput(ctx, order.ID, output(50), nil)
	require.NoError(t, err, "el backflush permisivo nunca bloquea la producción")
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "stock negativo")

	assert.True(t, decimal.NewFromInt(-20).Equal(f.positionQty(t, "loc-prod", "var-mp")))
	assert.True(t, decimal.NewFromInt(50).Equal(f.positionQty(t, "loc-prod", "var-pt")),
		"la entrada del producto terminado se registró de todas formas")
}

func TestAddProductionOutput_SoloEnProgreso(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := f.createOrder(t, 1000)

	_, err := f.consUC.AddProductionOutput(ctx, order.ID, output(10), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = f.orderUC.Release(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.consUC.AddProductionOutput(ctx, order.ID, output(10), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation, "RELEASED tampoco admite salida")
}

func TestAddProductionOutput_RangoDeTiemposInvalido(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	order := startedOrder(t, f, 1000)

	now := time.Now()
	_, err := f.consUC.AddProductionOutput(context.Background(), order.ID, dto.ProductionOutputRequest{
		QuantityProduced: decimal.NewFromInt(10),
		StartTime:        now,
		EndTime:          now.Add(-time.Minute),
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Anulación de ejecuciones
// ──────────────────────────────────────────────────────────────────────────────

// VoidExecution revierte con entradas compensatorias nuevas (el ledger nunca
// se muta) y NO decrementa ActualQuantity.
func TestVoidExecution_CompensaSinMutarElLedger(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := startedOrder(t, f, 1000)

	resp, err := f.consUC.AddProductionOutput(ctx, order.ID, output(50), nil)
	require.NoError(t, err)
	execID := resp.ID

	antes, err := f.movements.ListByReferencePrefix("po:" + order.ID)
	require.NoError(t, err)
	numAntes := len(antes)

	require.NoError(t, f.consUC.VoidExecution(ctx, order.ID, execID, nil))

	// Las posiciones vuelven al estado previo a la ejecución
	assert.True(t, f.positionQty(t, "loc-prod", "var-pt").IsZero())
	assert.True(t, decimal.NewFromInt(500).Equal(f.positionQty(t, "loc-prod", "var-mp")))

	got := f.reload(t, order.ID)
	assert.True(t, decimal.NewFromInt(50).Equal(got.ActualQuantity),
		"ActualQuantity es monótona: la anulación no la decrementa")
	require.Len(t, got.Executions, 1)
	assert.Equal(t, entity.ExecutionVoided, got.Executions[0].Status)
	require.Len(t, got.Materials, 1)
	assert.True(t, got.Materials[0].IssuedQuantity.IsZero(),
		"la devolución del backflush descuenta el acumulado emitido")

	despues, err := f.movements.ListByReferencePrefix("po:" + order.ID)
	require.NoError(t, err)
	assert.Greater(t, len(despues), numAntes,
		"la anulación agrega entradas compensatorias; no borra las originales")
	for _, e := range antes {
		still, err := f.movements.GetByID(e.ID)
		require.NoError(t, err)
		assert.NotNil(t, still, "toda entrada original sigue en el ledger")
	}
}

func TestVoidExecution_DobleAnulacionFalla(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := startedOrder(t, f, 1000)

	resp, err := f.consUC.AddProductionOutput(ctx, order.ID, output(50), nil)
	require.NoError(t, err)

	require.NoError(t, f.consUC.VoidExecution(ctx, order.ID, resp.ID, nil))
	assert.ErrorIs(t, f.consUC.VoidExecution(ctx, order.ID, resp.ID, nil), domain.ErrInvalidOperation)
}

func TestVoidExecution_EjecucionInexistente(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	order := startedOrder(t, f, 1000)

	err := f.consUC.VoidExecution(context.Background(), order.ID, "exec-fantasma", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Scrap e inspecciones
// ──────────────────────────────────────────────────────────────────────────────

// El scrap entra en la zona de scrap por defecto y no toca ActualQuantity.
func TestRecordScrap_EntraEnZonaDeScrap(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := startedOrder(t, f, 1000)

	err := f.consUC.RecordScrap(ctx, order.ID, dto.ScrapRequest{
		Quantity: decimal.NewFromInt(5),
		Reason:   "defecto de sellado",
	}, nil)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(5).Equal(f.positionQty(t, "loc-scrap", "var-pt")))

	got := f.reload(t, order.ID)
	require.Len(t, got.Scraps, 1)
	assert.Equal(t, "loc-scrap", got.Scraps[0].LocationID)
	assert.True(t, got.ActualQuantity.IsZero(), "el scrap no cuenta como producción buena")
}

func TestRecordInspection_SoloRegistraSinTocarStock(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	ctx := context.Background()
	order := startedOrder(t, f, 1000)

	err := f.consUC.RecordInspection(ctx, order.ID, dto.InspectionRequest{
		Result:   entity.InspectionPass,
		Quantity: decimal.NewFromInt(50),
	}, nil)
	require.NoError(t, err)

	got := f.reload(t, order.ID)
	require.Len(t, got.Inspections, 1)
	assert.Equal(t, entity.InspectionPass, got.Inspections[0].Result)
	assert.True(t, f.positionQty(t, "loc-prod", "var-pt").IsZero(),
		"la inspección no tiene efecto de inventario")
}

func TestRecordInspection_ResultadoInvalido(t *testing.T) {
	f := newProductionFixture(t)
	f.stockMP(t, 500)
	order := startedOrder(t, f, 1000)

	err := f.consUC.RecordInspection(context.Background(), order.ID, dto.InspectionRequest{
		Result: "MAYBE",
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
