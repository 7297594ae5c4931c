package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/clarinovist/manufactura-api/internal/application/dto"
	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/domain/repository"
)

// Entradas al ledger ejecutadas dentro de la transacción del caller (motor de
// consumo de producción). Mantienen la misma disciplina de bloqueo y las
// mismas primitivas que Transfer/Adjust; el caller aporta los repos de su tx.

// PostProductionInInTx registra una entrada PRODUCTION_IN (producto terminado
// o scrap) usando los repositorios de la transacción del caller. Devuelve el
// ID de la entrada del ledger. entryCost no nulo fija el costo unitario de la
// entrada sin recalcular el promedio: las reversas compensatorias deben llevar
// el costo de la entrada original para que el costeo netee exacto.
func (uc *StockUseCase) PostProductionInInTx(
	posRepo repository.StockPositionRepository,
	movRepo repository.StockMovementRepository,
	batchRepo repository.BatchRepository,
	variantRepo repository.ProductVariantRepository,
	variantID, locationID string,
	quantity decimal.Decimal,
	reference string,
	batch *dto.BatchData,
	entryCost *decimal.Decimal,
	createdBy *string,
) (string, error) {
	return postIn(postInParams{
		posRepo: posRepo, movRepo: movRepo, batchRepo: batchRepo, variantRepo: variantRepo,
		movType:   entity.MovementProductionIn,
		variantID: variantID,
		location:  locationID,
		quantity:  quantity,
		entryCost: entryCost,
		reference: reference,
		batch:     batch,
		createdBy: createdBy,
	})
}

// PostProductionOutInTx registra una salida PRODUCTION_OUT. Con enforce=true
// verifica físico y disponible; con enforce=false es el camino permisivo del
// backflush: si no existe posición en la ubicación la crea en negativo en vez
// de fallar, y devuelve la advertencia para hacer el caso observable.
func (uc *StockUseCase) PostProductionOutInTx(
	posRepo repository.StockPositionRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
	batchRepo repository.BatchRepository,
	variantRepo repository.ProductVariantRepository,
	variantID, locationID string,
	quantity decimal.Decimal,
	reference string,
	enforce bool,
	createdBy *string,
) (unitCost decimal.Decimal, warning string, err error) {
	res, err := postOut(postOutParams{
		posRepo: posRepo, movRepo: movRepo, resRepo: resRepo, batchRepo: batchRepo, variantRepo: variantRepo,
		movType:   entity.MovementProductionOut,
		variantID: variantID,
		location:  locationID,
		quantity:  quantity,
		reference: reference,
		enforce:   enforce,
		createdBy: createdBy,
	})
	if err != nil {
		return decimal.Zero, "", err
	}
	return res.unitCost, res.warning, nil
}
