// Package export renders ledger reads as CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/stock-ledger/internal/domain/inventory"
)

const dateLayout = "2006-01-02 15:04:05"

var movementHeader = []string{
	"id", "effective_at", "sku", "item", "kind", "qty", "unit",
	"unit_cost", "ref", "note", "from_location", "to_location", "created_by",
}

var stockHeader = []string{"item_id", "sku", "name", "unit", "category", "supplier", "on_hand", "min_stock", "low"}

func movementRecord(m inventory.MovementView) []string {
	cost := ""
	if m.UnitCost.Valid {
		cost = m.UnitCost.Decimal.String()
	}
	return []string{
		fmt.Sprint(m.ID),
		m.EffectiveAt.UTC().Format(dateLayout),
		m.SKU,
		m.ItemName,
		string(m.Kind),
		m.Qty.String(),
		m.Unit,
		cost,
		m.Ref,
		m.Note,
		m.FromLoc,
		m.ToLoc,
		m.CreatedBy,
	}
}

func stockRecord(l inventory.StockLine) []string {
	low := "no"
	if l.Low {
		low = "yes"
	}
	return []string{
		fmt.Sprint(l.ID), l.SKU, l.Name, l.Unit, l.Category, l.Supplier,
		l.OnHand.String(), l.MinStock.String(), low,
	}
}

// MovementsCSV writes one header row and one row per movement, in the
// order given.
func MovementsCSV(w io.Writer, ms []inventory.MovementView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(movementHeader); err != nil {
		return err
	}
	for _, m := range ms {
		if err := cw.Write(movementRecord(m)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func StockCSV(w io.Writer, lines []inventory.StockLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(stockHeader); err != nil {
		return err
	}
	for _, l := range lines {
		if err := cw.Write(stockRecord(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MovementsXLSX writes a workbook with a single "Movements" sheet. Numbers
// are written as text so decimals keep their exact digits.
func MovementsXLSX(w io.Writer, ms []inventory.MovementView) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Movements"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(movementHeader))
	for i, h := range movementHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	for i, m := range ms {
		rec := movementRecord(m)
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		row[0] = m.ID
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// FileName builds a download name such as movements_20250101_120000.csv.
func FileName(prefix, ext string, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, at.UTC().Format("20060102_150405"), ext)
}
