package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/stock-ledger/internal/domain/inventory"
)

func sample() []inventory.MovementView {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []inventory.MovementView{
		{
			Movement: inventory.Movement{
				ID: 2, Kind: inventory.KindIssue, Qty: decimal.RequireFromString("1.5"),
				Ref: "SO-7", Note: `said "urgent", twice`, EffectiveAt: at, CreatedBy: "u1",
			},
			SKU: "A-1", ItemName: "Anchor", Unit: "kg",
		},
		{
			Movement: inventory.Movement{
				ID: 1, Kind: inventory.KindReceive, Qty: decimal.NewFromInt(10),
				UnitCost:    decimal.NewNullDecimal(decimal.RequireFromString("2.35")),
				EffectiveAt: at.Add(-time.Hour),
			},
			SKU: "A-1", ItemName: "Anchor", Unit: "kg",
		},
	}
}

func TestMovementsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MovementsCSV(&buf, sample()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, movementHeader, recs[0])
	assert.Equal(t, []string{"2", "2025-03-01 09:30:00", "A-1", "Anchor", "issue", "1.5", "kg", "", "SO-7", `said "urgent", twice`, "", "", "u1"}, recs[1])
	assert.Equal(t, "2.35", recs[2][7])
	assert.Equal(t, "10", recs[2][5])
}

func TestMovementsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MovementsCSV(&buf, nil))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestStockCSV(t *testing.T) {
	lines := []inventory.StockLine{{
		ItemRef: inventory.ItemRef{ID: 3, SKU: "B", Name: "Bolt", Unit: "pcs", MinStock: decimal.NewFromInt(5), Supplier: "Acme"},
		OnHand:  decimal.NewFromInt(-2),
		Low:     true,
	}}
	var buf bytes.Buffer
	require.NoError(t, StockCSV(&buf, lines))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"3", "B", "Bolt", "pcs", "", "Acme", "-2", "5", "yes"}, recs[1])
}

func TestMovementsXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MovementsXLSX(&buf, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Movements")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "effective_at", rows[0][1])
	assert.Equal(t, "2", rows[1][0])
	assert.Equal(t, "1.5", rows[1][5])
	assert.Equal(t, "receive", rows[2][4])
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "movements_20250102_030405.csv", FileName("movements", "csv", at))
}
