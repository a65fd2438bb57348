package inventory

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func mv(item int64, k Kind, qty string) Movement {
	return Movement{ItemID: item, Kind: k, Qty: decimal.RequireFromString(qty)}
}

func TestFold(t *testing.T) {
	cases := []struct {
		name string
		log  []Movement
		want string
	}{
		{"empty", nil, "0"},
		{"receive", []Movement{mv(1, KindReceive, "10")}, "10"},
		{"receive issue", []Movement{mv(1, KindReceive, "10"), mv(1, KindIssue, "4")}, "6"},
		{"transfer leaves", []Movement{mv(1, KindReceive, "3"), mv(1, KindTransfer, "1")}, "2"},
		{"signed adjust", []Movement{mv(1, KindReceive, "5"), mv(1, KindAdjust, "-2"), mv(1, KindAdjust, "0.5")}, "3.5"},
		{"negative", []Movement{mv(1, KindIssue, "2")}, "-2"},
		{"exact decimals", []Movement{mv(1, KindReceive, "0.1"), mv(1, KindReceive, "0.2"), mv(1, KindIssue, "0.3")}, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Fold(tc.log)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestDeltaUnknownKind(t *testing.T) {
	assert.True(t, Movement{Kind: "bogus", Qty: decimal.NewFromInt(3)}.Delta().IsZero())
}

func TestFoldIsOrderIndependent(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	log := make([]Movement, 0, 200)
	for i := 0; i < 200; i++ {
		k := Kinds[rnd.Intn(len(Kinds))]
		q := decimal.New(rnd.Int63n(10_000)+1, -2)
		if k == KindAdjust && rnd.Intn(2) == 0 {
			q = q.Neg()
		}
		log = append(log, Movement{ItemID: int64(rnd.Intn(3) + 1), Kind: k, Qty: q})
	}
	want := Fold(log)

	shuffled := append([]Movement(nil), log...)
	rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	assert.True(t, want.Equal(Fold(shuffled)))

	sum := decimal.Zero
	for _, v := range FoldByItem(log) {
		sum = sum.Add(v)
	}
	assert.True(t, want.Equal(sum))
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("RECEIVE").Valid())
	assert.False(t, Kind("").Valid())
}
