package memory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarinovist/manufactura-api/internal/domain/entity"
	"github.com/clarinovist/manufactura-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Ledger en memoria: las lecturas devuelven copias
// ──────────────────────────────────────────────────────────────────────────────

func seedMovement(t *testing.T, repo *memory.StockMovementRepo) *entity.StockMovementEntry {
	t.Helper()
	to := "loc-a"
	entry := &entity.StockMovementEntry{
		Type:             entity.MovementAdjustmentIn,
		ProductVariantID: "var-x",
		ToLocationID:     &to,
		Quantity:         decimal.NewFromInt(100),
		UnitCost:         decimal.NewFromInt(10),
		Reference:        "po:orden-1:issue",
	}
	require.NoError(t, repo.Create(entry))
	return entry
}

// El ledger es append-only: mutar una entrada devuelta por una lectura no debe
// alterar lo almacenado.
func TestStockMovementRepo_ListByVariantDevuelveCopias(t *testing.T) {
	repo := memory.NewStockMovementRepository(memory.NewStore())
	seeded := seedMovement(t, repo)

	entries, err := repo.ListByVariant("var-x", nil, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries[0].Quantity = decimal.NewFromInt(999)
	entries[0].Reference = "adulterada"

	stored, err := repo.GetByID(seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, decimal.NewFromInt(100).Equal(stored.Quantity),
		"mutar la entrada devuelta no debe tocar el ledger")
	assert.Equal(t, "po:orden-1:issue", stored.Reference)
}

func TestStockMovementRepo_ListByReferencePrefixDevuelveCopias(t *testing.T) {
	repo := memory.NewStockMovementRepository(memory.NewStore())
	seeded := seedMovement(t, repo)

	entries, err := repo.ListByReferencePrefix("po:orden-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries[0].UnitCost = decimal.NewFromInt(999)

	stored, err := repo.GetByID(seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, decimal.NewFromInt(10).Equal(stored.UnitCost))
}
