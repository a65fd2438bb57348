package inventory_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/catalog"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
	"github.com/Spok95/stock-ledger/internal/store/sqlite"
	"github.com/Spok95/stock-ledger/internal/testutil"
)

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return n.err
}

type env struct {
	st       *sqlite.Stores
	ledger   *inventory.Ledger
	catalog  *catalog.Service
	notifier *recordingNotifier
	scope    tenancy.Scope
}

func newEnv(t *testing.T) *env {
	st := testutil.SQLite(t)
	n := &recordingNotifier{}
	return &env{
		st:       st,
		ledger:   inventory.NewLedger(st.Inventory, n, testutil.Logger()),
		catalog:  catalog.NewService(st.Catalog, testutil.Logger()),
		notifier: n,
		scope:    testutil.Tenant(t, st, "shop", tenancy.RoleOwner),
	}
}

func (e *env) item(t *testing.T, scope tenancy.Scope, sku string, minStock int64) int64 {
	t.Helper()
	it, err := e.catalog.UpsertItem(context.Background(), scope, catalog.ItemInput{
		SKU: sku, Name: "Item " + sku, MinStock: decimal.NewFromInt(minStock),
	})
	require.NoError(t, err)
	return it.ID
}

func (e *env) record(t *testing.T, item int64, k inventory.Kind, qty string) *inventory.Recorded {
	t.Helper()
	rec, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: item, Kind: k, Qty: decimal.RequireFromString(qty),
	})
	require.NoError(t, err)
	return rec
}

func (e *env) onHand(t *testing.T, item int64) decimal.Decimal {
	t.Helper()
	q, err := e.ledger.StockOnHand(context.Background(), e.scope, item)
	require.NoError(t, err)
	return q
}

func (e *env) logLen(t *testing.T) int {
	t.Helper()
	ms, err := e.ledger.ListMovements(context.Background(), e.scope, inventory.MovementFilter{})
	require.NoError(t, err)
	return len(ms)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReceiveThenIssue(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)

	rec := e.record(t, id, inventory.KindReceive, "10")
	assert.True(t, rec.Appended)
	assert.NotZero(t, rec.Movement.ID)
	assert.True(t, rec.OnHand.Equal(dec("10")))

	rec = e.record(t, id, inventory.KindIssue, "4")
	assert.True(t, rec.OnHand.Equal(dec("6")))
	assert.True(t, e.onHand(t, id).Equal(dec("6")))
	assert.Equal(t, 2, e.logLen(t))
}

func TestNonPositiveQuantityRejected(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	e.record(t, id, inventory.KindReceive, "1")

	for _, k := range []inventory.Kind{inventory.KindReceive, inventory.KindIssue, inventory.KindTransfer} {
		for _, q := range []string{"0", "-3"} {
			_, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
				ItemID: id, Kind: k, Qty: dec(q), FromLoc: "a", ToLoc: "b",
			})
			require.Error(t, err, "%s %s", k, q)
			assert.True(t, apperr.IsValidation(err), "%s %s: %v", k, q, err)
		}
	}
	assert.Equal(t, 1, e.logLen(t))
}

func TestUnknownKindRejected(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	_, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: id, Kind: "shrink", Qty: dec("1"),
	})
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, 0, e.logLen(t))
}

func TestKindIsCaseInsensitive(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	rec, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: id, Kind: "RECEIVE", Qty: dec("2"),
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.KindReceive, rec.Movement.Kind)
}

func TestUnknownItemRejected(t *testing.T) {
	e := newEnv(t)
	_, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: 999, Kind: inventory.KindReceive, Qty: dec("1"),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = e.ledger.StockOnHand(context.Background(), e.scope, 999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestZeroAdjustIsNoop(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	e.record(t, id, inventory.KindReceive, "5")

	rec := e.record(t, id, inventory.KindAdjust, "0")
	assert.False(t, rec.Appended)
	assert.Nil(t, rec.Movement)
	assert.True(t, rec.OnHand.Equal(dec("5")))
	assert.Equal(t, 1, e.logLen(t))
}

func TestSignedAdjust(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	e.record(t, id, inventory.KindReceive, "5")
	e.record(t, id, inventory.KindAdjust, "-2")
	e.record(t, id, inventory.KindAdjust, "0.25")
	assert.True(t, e.onHand(t, id).Equal(dec("3.25")))
}

func TestIssueBeyondStockIsFlagged(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	e.record(t, id, inventory.KindReceive, "2")

	rec := e.record(t, id, inventory.KindIssue, "5")
	assert.True(t, rec.Appended)
	assert.True(t, rec.Negative)
	assert.True(t, rec.OnHand.Equal(dec("-3")))
	require.Len(t, e.notifier.texts, 1)
	assert.Contains(t, e.notifier.texts[0], "negative")
}

func TestBelowMinimumIsFlagged(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 5)

	rec := e.record(t, id, inventory.KindReceive, "10")
	assert.False(t, rec.BelowMinimum)
	assert.Empty(t, e.notifier.texts)

	rec = e.record(t, id, inventory.KindIssue, "6")
	assert.True(t, rec.BelowMinimum)
	assert.False(t, rec.Negative)
	require.Len(t, e.notifier.texts, 1)
	assert.Contains(t, e.notifier.texts[0], "minimum is 5")
}

func TestNotifierFailureDoesNotFailWrite(t *testing.T) {
	e := newEnv(t)
	e.notifier.err = errors.New("telegram down")
	id := e.item(t, e.scope, "A", 0)

	rec := e.record(t, id, inventory.KindIssue, "1")
	assert.True(t, rec.Negative)
	assert.Equal(t, 1, e.logLen(t))
}

func TestUnitCostOnlyKeptForReceive(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	cost := decimal.NewNullDecimal(dec("2.50"))

	rec, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: id, Kind: inventory.KindReceive, Qty: dec("1"), UnitCost: cost,
	})
	require.NoError(t, err)
	assert.True(t, rec.Movement.UnitCost.Valid)

	rec, err = e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: id, Kind: inventory.KindIssue, Qty: dec("1"), UnitCost: cost,
	})
	require.NoError(t, err)
	assert.False(t, rec.Movement.UnitCost.Valid)

	ms, err := e.ledger.ListMovements(context.Background(), e.scope, inventory.MovementFilter{Kind: inventory.KindReceive})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.True(t, ms[0].UnitCost.Decimal.Equal(dec("2.5")))

	_, err = e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: id, Kind: inventory.KindReceive, Qty: dec("1"), UnitCost: decimal.NewNullDecimal(dec("-1")),
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestTransferLocations(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	e.record(t, id, inventory.KindReceive, "5")

	_, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: id, Kind: inventory.KindTransfer, Qty: dec("1"), FromLoc: "front", ToLoc: " front ",
	})
	assert.True(t, apperr.IsValidation(err), "same source and destination")

	rec := e.record(t, id, inventory.KindTransfer, "1")
	assert.True(t, rec.Appended, "locations are optional")
	assert.Empty(t, rec.Movement.FromLoc)

	rec, err = e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: id, Kind: inventory.KindTransfer, Qty: dec("1"), FromLoc: "front",
	})
	require.NoError(t, err)
	assert.Equal(t, "front", rec.Movement.FromLoc)

	rec, err = e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: id, Kind: inventory.KindTransfer, Qty: dec("1"), FromLoc: "front", ToLoc: "back",
	})
	require.NoError(t, err)
	assert.Equal(t, "back", rec.Movement.ToLoc)
	assert.True(t, rec.OnHand.Equal(dec("2")))
}

func TestFoldMatchesStoredLog(t *testing.T) {
	e := newEnv(t)
	ids := []int64{e.item(t, e.scope, "A", 0), e.item(t, e.scope, "B", 0)}
	rnd := rand.New(rand.NewSource(42))
	want := map[int64]decimal.Decimal{}

	for i := 0; i < 60; i++ {
		id := ids[rnd.Intn(len(ids))]
		k := inventory.Kinds[rnd.Intn(len(inventory.Kinds))]
		q := decimal.New(rnd.Int63n(500)+1, -1)
		in := inventory.MovementInput{ItemID: id, Kind: k, Qty: q}
		switch k {
		case inventory.KindAdjust:
			if rnd.Intn(2) == 0 {
				in.Qty = q.Neg()
			}
			want[id] = want[id].Add(in.Qty)
		case inventory.KindTransfer:
			in.FromLoc, in.ToLoc = "a", "b"
			want[id] = want[id].Sub(q)
		case inventory.KindIssue:
			want[id] = want[id].Sub(q)
		default:
			want[id] = want[id].Add(q)
		}
		_, err := e.ledger.RecordMovement(context.Background(), e.scope, in)
		require.NoError(t, err)
	}

	report, err := e.ledger.StockReport(context.Background(), e.scope)
	require.NoError(t, err)
	require.Len(t, report, 2)
	for _, id := range ids {
		got := e.onHand(t, id)
		assert.True(t, want[id].Equal(got), "item %d: want %s got %s", id, want[id], got)
		for _, l := range report {
			if l.ID == id {
				assert.True(t, l.OnHand.Equal(got))
			}
		}
	}
}

func TestListMovementsOrder(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	at := func(d time.Duration, k inventory.Kind) int64 {
		rec, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
			ItemID: id, Kind: k, Qty: dec("1"), EffectiveAt: base.Add(d),
		})
		require.NoError(t, err)
		return rec.Movement.ID
	}
	m1 := at(0, inventory.KindReceive)
	m2 := at(-24*time.Hour, inventory.KindReceive)
	m3 := at(0, inventory.KindIssue)
	m4 := at(time.Hour, inventory.KindReceive)

	ms, err := e.ledger.ListMovements(context.Background(), e.scope, inventory.MovementFilter{})
	require.NoError(t, err)
	got := make([]int64, 0, len(ms))
	for _, m := range ms {
		got = append(got, m.ID)
	}
	assert.Equal(t, []int64{m4, m3, m1, m2}, got)
	assert.Equal(t, "A", ms[0].SKU)
	assert.Equal(t, "Item A", ms[0].ItemName)

	ms, err = e.ledger.ListMovements(context.Background(), e.scope, inventory.MovementFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, ms, 2)

	ms, err = e.ledger.ListMovements(context.Background(), e.scope, inventory.MovementFilter{Kind: inventory.KindIssue})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, m3, ms[0].ID)

	from := base.Add(-time.Minute)
	ms, err = e.ledger.ListMovements(context.Background(), e.scope, inventory.MovementFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, ms, 3)

	_, err = e.ledger.ListMovements(context.Background(), e.scope, inventory.MovementFilter{Kind: "x"})
	assert.True(t, apperr.IsValidation(err))
}

func TestStockOnHandAsOf(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, q := range []string{"10", "5", "1"} {
		_, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
			ItemID: id, Kind: inventory.KindReceive, Qty: dec(q), EffectiveAt: day.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	q, err := e.ledger.StockOnHandAsOf(context.Background(), e.scope, id, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, q.Equal(dec("15")))

	q, err = e.ledger.StockOnHandAsOf(context.Background(), e.scope, id, day.Add(-time.Second))
	require.NoError(t, err)
	assert.True(t, q.IsZero())
	assert.True(t, e.onHand(t, id).Equal(dec("16")))
}

func TestAdjustTo(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	e.record(t, id, inventory.KindReceive, "10")

	rec, err := e.ledger.AdjustTo(context.Background(), e.scope, id, dec("7"), "count", "", time.Time{})
	require.NoError(t, err)
	require.True(t, rec.Appended)
	assert.Equal(t, inventory.KindAdjust, rec.Movement.Kind)
	assert.True(t, rec.Movement.Qty.Equal(dec("-3")))
	assert.True(t, rec.OnHand.Equal(dec("7")))

	rec, err = e.ledger.AdjustTo(context.Background(), e.scope, id, dec("7"), "count", "", time.Time{})
	require.NoError(t, err)
	assert.False(t, rec.Appended)
	assert.Equal(t, 2, e.logLen(t))

	_, err = e.ledger.AdjustTo(context.Background(), e.scope, id, dec("-1"), "", "", time.Time{})
	assert.True(t, apperr.IsValidation(err))
}

func TestStockOnHandIsRepeatable(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	e.record(t, id, inventory.KindReceive, "12.5")
	e.record(t, id, inventory.KindIssue, "3")
	e.record(t, id, inventory.KindAdjust, "-0.25")
	e.record(t, id, inventory.KindTransfer, "1")
	before := e.logLen(t)

	first := e.onHand(t, id)
	second := e.onHand(t, id)
	assert.True(t, first.Equal(second), "first %s, second %s", first, second)
	assert.True(t, first.Equal(dec("8.25")))
	assert.Equal(t, before, e.logLen(t), "reads append nothing")
}

func TestAdjustAllIsAtomic(t *testing.T) {
	e := newEnv(t)
	a := e.item(t, e.scope, "A", 0)
	b := e.item(t, e.scope, "B", 0)
	e.record(t, a, inventory.KindReceive, "10")

	_, err := e.ledger.AdjustAll(context.Background(), e.scope, []inventory.Count{
		{ItemID: a, Counted: dec("1")},
		{ItemID: 99999, Counted: dec("5")},
	}, "count", "", time.Time{})
	require.Error(t, err)
	var ce *inventory.CountError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Index)
	assert.True(t, apperr.IsValidation(err))
	assert.True(t, e.onHand(t, a).Equal(dec("10")), "first count rolled back")
	assert.Equal(t, 1, e.logLen(t))

	recs, err := e.ledger.AdjustAll(context.Background(), e.scope, []inventory.Count{
		{ItemID: a, Counted: dec("1")},
		{ItemID: b, Counted: dec("0")},
	}, "count", "", time.Time{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Appended)
	assert.False(t, recs[1].Appended)
	assert.True(t, e.onHand(t, a).Equal(dec("1")))
}

func TestConcurrentAdjustToConverges(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	e.record(t, id, inventory.KindReceive, "10")

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ledger.AdjustTo(context.Background(), e.scope, id, dec("5"), "count", "", time.Time{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.True(t, e.onHand(t, id).Equal(dec("5")))
	assert.Equal(t, 2, e.logLen(t))
}

func TestTenantIsolation(t *testing.T) {
	e := newEnv(t)
	other := testutil.Tenant(t, e.st, "other", tenancy.RoleOwner)

	mine := e.item(t, e.scope, "SAME", 0)
	theirs := e.item(t, other, "SAME", 0)
	e.record(t, mine, inventory.KindReceive, "4")

	_, err := e.ledger.RecordMovement(context.Background(), e.scope, inventory.MovementInput{
		ItemID: theirs, Kind: inventory.KindReceive, Qty: dec("1"),
	})
	assert.True(t, apperr.IsValidation(err), "foreign item must look unknown")

	_, err = e.ledger.StockOnHand(context.Background(), other, mine)
	assert.True(t, apperr.IsNotFound(err))

	ms, err := e.ledger.ListMovements(context.Background(), other, inventory.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, ms)

	q, err := e.ledger.StockOnHand(context.Background(), other, theirs)
	require.NoError(t, err)
	assert.True(t, q.IsZero())
}

func TestRolePermissions(t *testing.T) {
	e := newEnv(t)
	id := e.item(t, e.scope, "A", 0)
	cashier := e.scope
	cashier.Role = tenancy.RoleCashier

	_, err := e.ledger.RecordMovement(context.Background(), cashier, inventory.MovementInput{
		ItemID: id, Kind: inventory.KindReceive, Qty: dec("3"),
	})
	require.NoError(t, err)

	_, err = e.ledger.RecordMovement(context.Background(), cashier, inventory.MovementInput{
		ItemID: id, Kind: inventory.KindAdjust, Qty: dec("1"),
	})
	assert.True(t, apperr.IsForbidden(err))

	_, err = e.ledger.AdjustTo(context.Background(), cashier, id, dec("1"), "", "", time.Time{})
	assert.True(t, apperr.IsForbidden(err))
	assert.Equal(t, 1, e.logLen(t))
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	a := e.item(t, e.scope, "A", 5)
	b := e.item(t, e.scope, "B", 0)
	e.record(t, a, inventory.KindReceive, "3")
	e.record(t, b, inventory.KindReceive, "7")

	d, err := e.ledger.Dashboard(context.Background(), e.scope)
	require.NoError(t, err)
	assert.Equal(t, 2, d.ItemCount)
	assert.True(t, d.TotalOnHand.Equal(dec("10")))
	require.Len(t, d.Low, 1)
	assert.Equal(t, a, d.Low[0].ID)
	assert.Len(t, d.Recent, 2)
}
