package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindReceive  Kind = "receive"
	KindIssue    Kind = "issue"
	KindAdjust   Kind = "adjust"
	KindTransfer Kind = "transfer"
)

var Kinds = []Kind{KindReceive, KindIssue, KindAdjust, KindTransfer}

func (k Kind) Valid() bool {
	switch k {
	case KindReceive, KindIssue, KindAdjust, KindTransfer:
		return true
	}
	return false
}

// Movement is one immutable ledger row. Qty is stored as the caller gave it:
// a positive magnitude for receive/issue/transfer, a signed delta for adjust.
type Movement struct {
	ID          int64               `json:"id"`
	TenantID    uuid.UUID           `json:"tenant_id"`
	ItemID      int64               `json:"item_id"`
	Kind        Kind                `json:"kind"`
	Qty         decimal.Decimal     `json:"qty"`
	UnitCost    decimal.NullDecimal `json:"unit_cost"`
	Ref         string              `json:"ref"`
	Note        string              `json:"note"`
	FromLoc     string              `json:"from_loc"`
	ToLoc       string              `json:"to_loc"`
	EffectiveAt time.Time           `json:"effective_at"`
	CreatedAt   time.Time           `json:"created_at"`
	CreatedBy   string              `json:"created_by"`
}

// MovementInput is what callers submit to RecordMovement.
type MovementInput struct {
	ItemID      int64               `json:"item_id"`
	Kind        Kind                `json:"kind"`
	Qty         decimal.Decimal     `json:"qty"`
	UnitCost    decimal.NullDecimal `json:"unit_cost"`
	Ref         string              `json:"ref"`
	Note        string              `json:"note"`
	FromLoc     string              `json:"from_loc"`
	ToLoc       string              `json:"to_loc"`
	EffectiveAt time.Time           `json:"effective_at"`
}

// MovementView is a movement joined with the item fields used for display.
type MovementView struct {
	Movement
	SKU      string `json:"sku"`
	ItemName string `json:"item_name"`
	Unit     string `json:"unit"`
}

type MovementFilter struct {
	ItemID int64
	Kind   Kind
	From   *time.Time
	To     *time.Time
	Limit  int
}

// ItemRef is the slice of a catalog item the ledger needs.
type ItemRef struct {
	ID       int64           `json:"item_id"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Unit     string          `json:"unit"`
	MinStock decimal.Decimal `json:"min_stock"`
	Category string          `json:"category"`
	Supplier string          `json:"supplier"`
}

// Recorded is the outcome of a ledger write. Movement is nil when the write
// was a no-op (zero adjustment).
type Recorded struct {
	Movement     *Movement       `json:"movement"`
	Appended     bool            `json:"appended"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Negative     bool            `json:"negative"`
	BelowMinimum bool            `json:"below_minimum"`
}

type StockLine struct {
	ItemRef
	OnHand decimal.Decimal `json:"on_hand"`
	Low    bool            `json:"low"`
}

type Dashboard struct {
	ItemCount   int             `json:"item_count"`
	TotalOnHand decimal.Decimal `json:"total_on_hand"`
	Low         []StockLine     `json:"low"`
	Recent      []MovementView  `json:"recent"`
}
