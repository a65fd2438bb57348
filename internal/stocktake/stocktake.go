// Package stocktake exchanges physical count sheets as XLSX workbooks: the
// export lists every item with its on-hand, the filled sheet is applied as
// adjustments to the counted quantities.
package stocktake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
)

const (
	sheetName  = "Stocktake"
	defaultRef = "stocktake"

	colItemID  = 0
	colCounted = 6
)

var header = []interface{}{"item_id", "sku", "name", "unit", "category", "on_hand", "counted"}

// Ledger is the part of inventory.Ledger a stocktake needs.
type Ledger interface {
	StockReport(ctx context.Context, scope tenancy.Scope) ([]inventory.StockLine, error)
	AdjustAll(ctx context.Context, scope tenancy.Scope, counts []inventory.Count, ref, note string, at time.Time) ([]*inventory.Recorded, error)
}

type Service struct {
	ledger Ledger
	log    *slog.Logger
	now    func() time.Time
}

func NewService(ledger Ledger, log *slog.Logger) *Service {
	return &Service{ledger: ledger, log: log, now: time.Now}
}

// Summary reports what an import did. Added and Removed are the absolute
// totals of positive and negative adjustments.
type Summary struct {
	Rows     int             `json:"rows"`
	Adjusted int             `json:"adjusted"`
	Skipped  int             `json:"skipped"`
	Added    decimal.Decimal `json:"added"`
	Removed  decimal.Decimal `json:"removed"`
}

// Export writes the count sheet. The "counted" column is left empty.
func (s *Service) Export(ctx context.Context, scope tenancy.Scope, w io.Writer) error {
	lines, err := s.ledger.StockReport(ctx, scope)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		return err
	}
	hdr := header
	if err := f.SetSheetRow(sheetName, "A1", &hdr); err != nil {
		return fmt.Errorf("stocktake header: %w", err)
	}

	for i, l := range lines {
		row := []interface{}{l.ID, l.SKU, l.Name, l.Unit, l.Category, l.OnHand.String(), ""}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("stocktake row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("stocktake write: %w", err)
	}
	return nil
}

type count struct {
	line    int
	itemID  int64
	counted decimal.Decimal
}

// parse reads the whole sheet before anything is applied, so a malformed
// row rejects the file without partial effects.
func parse(r io.Reader) ([]count, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindValidation, err, "not a readable xlsx file")
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindValidation, err, "cannot read sheet")
	}
	if len(rows) == 0 || len(rows[0]) <= colCounted {
		return nil, 0, apperr.Validation("expected %d columns (item_id ... counted)", len(header))
	}

	var (
		out     []count
		skipped int
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		idStr := ""
		if len(row) > colItemID {
			idStr = strings.TrimSpace(row[colItemID])
		}
		qtyStr := ""
		if len(row) > colCounted {
			qtyStr = strings.TrimSpace(row[colCounted])
		}
		if idStr == "" && qtyStr == "" {
			continue
		}
		if qtyStr == "" {
			skipped++
			continue
		}

		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return nil, 0, apperr.Validation("row %d: invalid item_id %q", i+1, idStr)
		}
		qty, err := decimal.NewFromString(strings.ReplaceAll(qtyStr, ",", "."))
		if err != nil || qty.IsNegative() {
			return nil, 0, apperr.Validation("row %d: counted must be a non-negative number, got %q", i+1, qtyStr)
		}
		out = append(out, count{line: i + 1, itemID: id, counted: qty})
	}
	return out, skipped, nil
}

// Import applies a filled count sheet. Rows with an empty "counted" cell are
// skipped; the rest are applied together through AdjustAll, so a sheet that
// fails on any row changes nothing. ref defaults to "stocktake".
func (s *Service) Import(ctx context.Context, scope tenancy.Scope, r io.Reader, ref string) (*Summary, error) {
	if !scope.Can(tenancy.ActAdjust) {
		return nil, apperr.Forbidden("role %q may not %s", scope.Role, tenancy.ActAdjust)
	}
	counts, skipped, err := parse(r)
	if err != nil {
		return nil, err
	}
	if ref = strings.TrimSpace(ref); ref == "" {
		ref = defaultRef
	}

	batch := make([]inventory.Count, 0, len(counts))
	for _, c := range counts {
		batch = append(batch, inventory.Count{ItemID: c.itemID, Counted: c.counted})
	}
	recs, err := s.ledger.AdjustAll(ctx, scope, batch, ref, "stocktake import", s.now().UTC())
	if err != nil {
		var ce *inventory.CountError
		if errors.As(err, &ce) && ce.Index < len(counts) {
			c := counts[ce.Index]
			s.log.Warn("stocktake rejected", "row", c.line, "item_id", c.itemID, "err", ce.Err)
			return nil, fmt.Errorf("row %d (item %d): %w", c.line, c.itemID, ce.Err)
		}
		return nil, err
	}

	sum := &Summary{Rows: len(recs), Skipped: skipped, Added: decimal.Zero, Removed: decimal.Zero}
	for _, rec := range recs {
		if !rec.Appended {
			continue
		}
		sum.Adjusted++
		if q := rec.Movement.Qty; q.IsPositive() {
			sum.Added = sum.Added.Add(q)
		} else {
			sum.Removed = sum.Removed.Add(q.Neg())
		}
	}
	s.log.Info("stocktake applied",
		"tenant_id", scope.TenantID, "rows", sum.Rows, "adjusted", sum.Adjusted, "skipped", sum.Skipped)
	return sum, nil
}
