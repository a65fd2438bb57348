package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
	"github.com/Spok95/stock-ledger/internal/infra/metrics"
)

const recentMovements = 20

type Ledger struct {
	store    Store
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// NewLedger builds a ledger over store. notifier may be nil.
func NewLedger(store Store, notifier Notifier, log *slog.Logger) *Ledger {
	return &Ledger{store: store, notifier: notifier, log: log, now: time.Now}
}

func actionFor(k Kind) tenancy.Action {
	switch k {
	case KindReceive:
		return tenancy.ActReceive
	case KindIssue:
		return tenancy.ActIssue
	case KindTransfer:
		return tenancy.ActTransfer
	default:
		return tenancy.ActAdjust
	}
}

func authorize(scope tenancy.Scope, a tenancy.Action) error {
	if !scope.Can(a) {
		return apperr.Forbidden("role %q may not %s", scope.Role, a)
	}
	return nil
}

func validateMovement(in *MovementInput) error {
	if !in.Kind.Valid() {
		return apperr.Validation("unknown movement kind %q", in.Kind)
	}
	if in.ItemID <= 0 {
		return apperr.Validation("item id is required")
	}
	switch in.Kind {
	case KindReceive, KindIssue, KindTransfer:
		if !in.Qty.IsPositive() {
			return apperr.Validation("%s quantity must be greater than 0, got %s", in.Kind, in.Qty)
		}
	}
	if in.Kind == KindReceive {
		if in.UnitCost.Valid && in.UnitCost.Decimal.IsNegative() {
			return apperr.Validation("unit cost cannot be negative")
		}
	} else {
		in.UnitCost = decimal.NullDecimal{}
	}
	// locations are optional; when both are given they must differ
	if in.Kind == KindTransfer && in.FromLoc != "" && in.FromLoc == in.ToLoc {
		return apperr.Validation("transfer source and destination are the same (%s)", in.FromLoc)
	}
	return nil
}

func resolveItem(ctx context.Context, st Store, scope tenancy.Scope, itemID int64) (*ItemRef, error) {
	ref, err := st.ItemRef(ctx, scope.TenantID, itemID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Wrap(apperr.KindValidation, err, "unknown item %d", itemID)
		}
		return nil, err
	}
	return ref, nil
}

// RecordMovement appends one movement. Issuing more than is on hand is
// allowed; the result flags it and an alert goes out. A zero adjust is a
// no-op and appends nothing.
func (l *Ledger) RecordMovement(ctx context.Context, scope tenancy.Scope, in MovementInput) (*Recorded, error) {
	in.Kind = Kind(strings.ToLower(strings.TrimSpace(string(in.Kind))))
	in.Ref = strings.TrimSpace(in.Ref)
	in.Note = strings.TrimSpace(in.Note)
	in.FromLoc = strings.TrimSpace(in.FromLoc)
	in.ToLoc = strings.TrimSpace(in.ToLoc)
	if err := validateMovement(&in); err != nil {
		return nil, err
	}
	if err := authorize(scope, actionFor(in.Kind)); err != nil {
		return nil, err
	}

	var (
		rec  *Recorded
		item *ItemRef
	)
	err := l.store.Atomically(ctx, func(st Store) error {
		var err error
		if item, err = resolveItem(ctx, st, scope, in.ItemID); err != nil {
			return err
		}
		var m *Movement
		if in.Kind != KindAdjust || !in.Qty.IsZero() {
			m = l.newMovement(scope, in)
			if err := st.Append(ctx, m); err != nil {
				return err
			}
		}
		rec, err = l.settle(ctx, st, scope, item, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.afterWrite(ctx, scope, item, rec)
	return rec, nil
}

// AdjustTo brings an item's on-hand to counted by appending the difference
// as an adjust movement. Reading the current fold and appending the delta
// happen in one serializable transaction, so concurrent counts cannot both
// apply a delta computed from the same stale total.
func (l *Ledger) AdjustTo(ctx context.Context, scope tenancy.Scope, itemID int64, counted decimal.Decimal, ref, note string, at time.Time) (*Recorded, error) {
	recs, _, err := l.adjust(ctx, scope, []Count{{ItemID: itemID, Counted: counted}}, ref, note, at)
	if err != nil {
		return nil, err
	}
	return recs[0], nil
}

// Count is one counted quantity of an AdjustAll batch.
type Count struct {
	ItemID  int64
	Counted decimal.Decimal
}

// CountError names the count of an AdjustAll batch that failed.
type CountError struct {
	Index int
	Err   error
}

func (e *CountError) Error() string { return fmt.Sprintf("count %d: %v", e.Index+1, e.Err) }

func (e *CountError) Unwrap() error { return e.Err }

// AdjustAll applies every count in one transaction: either all of them land
// or none do. A failing count is reported as *CountError.
func (l *Ledger) AdjustAll(ctx context.Context, scope tenancy.Scope, counts []Count, ref, note string, at time.Time) ([]*Recorded, error) {
	recs, failed, err := l.adjust(ctx, scope, counts, ref, note, at)
	if err != nil && failed >= 0 {
		return nil, &CountError{Index: failed, Err: err}
	}
	return recs, err
}

// adjust returns the index of the failing count, or -1 when the failure is
// not tied to one.
func (l *Ledger) adjust(ctx context.Context, scope tenancy.Scope, counts []Count, ref, note string, at time.Time) ([]*Recorded, int, error) {
	if err := authorize(scope, tenancy.ActAdjust); err != nil {
		return nil, -1, err
	}
	for i, c := range counts {
		if c.Counted.IsNegative() {
			return nil, i, apperr.Validation("counted quantity cannot be negative, got %s", c.Counted)
		}
	}
	ref, note = strings.TrimSpace(ref), strings.TrimSpace(note)

	var (
		recs   []*Recorded
		items  []*ItemRef
		failed = -1
	)
	err := l.store.Atomically(ctx, func(st Store) error {
		recs, items = recs[:0], items[:0]
		for i, c := range counts {
			item, err := resolveItem(ctx, st, scope, c.ItemID)
			if err != nil {
				failed = i
				return err
			}
			log, err := st.ItemMovements(ctx, scope.TenantID, c.ItemID, nil)
			if err != nil {
				return err
			}
			delta := c.Counted.Sub(Fold(log))
			var m *Movement
			if !delta.IsZero() {
				m = l.newMovement(scope, MovementInput{
					ItemID:      c.ItemID,
					Kind:        KindAdjust,
					Qty:         delta,
					Ref:         ref,
					Note:        note,
					EffectiveAt: at,
				})
				if err := st.Append(ctx, m); err != nil {
					failed = i
					return err
				}
			}
			rec, err := l.settle(ctx, st, scope, item, m)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, failed, err
	}
	for i := range recs {
		l.afterWrite(ctx, scope, items[i], recs[i])
	}
	return recs, -1, nil
}

func (l *Ledger) newMovement(scope tenancy.Scope, in MovementInput) *Movement {
	now := l.now().UTC()
	at := in.EffectiveAt
	if at.IsZero() {
		at = now
	}
	return &Movement{
		TenantID:    scope.TenantID,
		ItemID:      in.ItemID,
		Kind:        in.Kind,
		Qty:         in.Qty,
		UnitCost:    in.UnitCost,
		Ref:         in.Ref,
		Note:        in.Note,
		FromLoc:     in.FromLoc,
		ToLoc:       in.ToLoc,
		EffectiveAt: at.UTC(),
		CreatedAt:   now,
		CreatedBy:   scope.UserID,
	}
}

func (l *Ledger) settle(ctx context.Context, st Store, scope tenancy.Scope, item *ItemRef, m *Movement) (*Recorded, error) {
	log, err := st.ItemMovements(ctx, scope.TenantID, item.ID, nil)
	if err != nil {
		return nil, err
	}
	onHand := Fold(log)
	return &Recorded{
		Movement:     m,
		Appended:     m != nil,
		OnHand:       onHand,
		Negative:     onHand.IsNegative(),
		BelowMinimum: onHand.LessThan(item.MinStock),
	}, nil
}

func (l *Ledger) afterWrite(ctx context.Context, scope tenancy.Scope, item *ItemRef, rec *Recorded) {
	if !rec.Appended {
		return
	}
	metrics.MovementsRecorded.WithLabelValues(string(rec.Movement.Kind)).Inc()

	var text string
	switch {
	case rec.Negative:
		metrics.NegativeStock.Inc()
		l.log.Warn("stock driven negative",
			"tenant_id", scope.TenantID, "item_id", item.ID, "sku", item.SKU, "on_hand", rec.OnHand.String())
		text = fmt.Sprintf("⚠️ %s (%s): stock is negative, %s %s on hand", item.Name, item.SKU, rec.OnHand, item.Unit)
	case rec.BelowMinimum:
		metrics.LowStock.Inc()
		l.log.Info("stock below minimum",
			"tenant_id", scope.TenantID, "item_id", item.ID, "sku", item.SKU,
			"on_hand", rec.OnHand.String(), "min_stock", item.MinStock.String())
		text = fmt.Sprintf("⚠️ %s (%s): %s %s on hand, minimum is %s", item.Name, item.SKU, rec.OnHand, item.Unit, item.MinStock)
	default:
		return
	}

	if l.notifier == nil {
		return
	}
	// the movement is committed; a failed alert must not fail the write
	if err := l.notifier.Notify(ctx, text); err != nil {
		l.log.Error("stock alert failed", "item_id", item.ID, "err", err)
	}
}

// StockOnHand folds the full log of the item. It is recomputed on every
// call; there is no stored counter.
func (l *Ledger) StockOnHand(ctx context.Context, scope tenancy.Scope, itemID int64) (decimal.Decimal, error) {
	return l.foldItem(ctx, scope, itemID, nil)
}

// StockOnHandAsOf folds only the movements effective at or before asOf.
func (l *Ledger) StockOnHandAsOf(ctx context.Context, scope tenancy.Scope, itemID int64, asOf time.Time) (decimal.Decimal, error) {
	asOf = asOf.UTC()
	return l.foldItem(ctx, scope, itemID, &asOf)
}

func (l *Ledger) foldItem(ctx context.Context, scope tenancy.Scope, itemID int64, asOf *time.Time) (decimal.Decimal, error) {
	if err := authorize(scope, tenancy.ActRead); err != nil {
		return decimal.Zero, err
	}
	if _, err := l.store.ItemRef(ctx, scope.TenantID, itemID); err != nil {
		return decimal.Zero, err
	}
	log, err := l.store.ItemMovements(ctx, scope.TenantID, itemID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return Fold(log), nil
}

// ListMovements returns the tenant's log newest first.
func (l *Ledger) ListMovements(ctx context.Context, scope tenancy.Scope, f MovementFilter) ([]MovementView, error) {
	if err := authorize(scope, tenancy.ActRead); err != nil {
		return nil, err
	}
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, apperr.Validation("unknown movement kind %q", f.Kind)
	}
	if f.Limit < 0 {
		return nil, apperr.Validation("limit cannot be negative")
	}
	return l.store.ListMovements(ctx, scope.TenantID, f)
}

// StockReport lists every item with its folded on-hand, ordered by name.
func (l *Ledger) StockReport(ctx context.Context, scope tenancy.Scope) ([]StockLine, error) {
	if err := authorize(scope, tenancy.ActRead); err != nil {
		return nil, err
	}
	refs, err := l.store.ItemRefs(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}
	log, err := l.store.TenantMovements(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}
	totals := FoldByItem(log)

	out := make([]StockLine, 0, len(refs))
	for _, r := range refs {
		onHand := totals[r.ID]
		out = append(out, StockLine{ItemRef: r, OnHand: onHand, Low: onHand.LessThan(r.MinStock)})
	}
	return out, nil
}

func (l *Ledger) Dashboard(ctx context.Context, scope tenancy.Scope) (*Dashboard, error) {
	lines, err := l.StockReport(ctx, scope)
	if err != nil {
		return nil, err
	}
	recent, err := l.store.ListMovements(ctx, scope.TenantID, MovementFilter{Limit: recentMovements})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{ItemCount: len(lines), TotalOnHand: decimal.Zero, Low: []StockLine{}, Recent: recent}
	for _, ln := range lines {
		d.TotalOnHand = d.TotalOnHand.Add(ln.OnHand)
		if ln.Low {
			d.Low = append(d.Low, ln)
		}
	}
	return d, nil
}
