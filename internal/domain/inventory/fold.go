package inventory

import "github.com/shopspring/decimal"

// Delta is the signed effect of m on stock-on-hand.
func (m Movement) Delta() decimal.Decimal {
	switch m.Kind {
	case KindReceive, KindAdjust:
		return m.Qty
	case KindIssue, KindTransfer:
		return m.Qty.Neg()
	}
	return decimal.Zero
}

// Fold reduces a movement log to on-hand quantity:
// Σ(receive, adjust) − Σ(issue, transfer). Order does not matter.
func Fold(ms []Movement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range ms {
		total = total.Add(m.Delta())
	}
	return total
}

// FoldByItem folds a mixed log per item id.
func FoldByItem(ms []Movement) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for _, m := range ms {
		out[m.ItemID] = out[m.ItemID].Add(m.Delta())
	}
	return out
}
