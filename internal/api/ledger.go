package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
	"github.com/Spok95/stock-ledger/internal/export"
)

const (
	contentCSV  = "text/csv; charset=utf-8"
	contentXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (h *Handler) recordMovement(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in inventory.MovementInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(HeaderIdempotency))
	if key != "" {
		claimed, err := h.guard.Claim(r.Context(), sc.TenantID, key)
		if err != nil {
			h.fail(w, r, apperr.Persistence("claim idempotency key", err))
			return
		}
		if !claimed {
			h.fail(w, r, apperr.Conflict("request %q was already submitted", key))
			return
		}
	}

	rec, err := h.ledger.RecordMovement(r.Context(), sc, in)
	if err != nil {
		if key != "" {
			if rerr := h.guard.Release(r.Context(), sc.TenantID, key); rerr != nil {
				h.log.Warn("release idempotency key", "key", key, "err", rerr)
			}
		}
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if !rec.Appended {
		status = http.StatusOK
	}
	writeJSON(w, status, rec)
}

func movementFilter(r *http.Request) (inventory.MovementFilter, error) {
	q := r.URL.Query()
	var f inventory.MovementFilter
	if v := q.Get("item_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, apperr.Validation("invalid item_id %q", v)
		}
		f.ItemID = id
	}
	f.Kind = inventory.Kind(strings.ToLower(strings.TrimSpace(q.Get("kind"))))
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, apperr.Validation("invalid limit %q", v)
		}
		f.Limit = n
	}
	var err error
	if f.From, err = parseTime("from", q.Get("from"), false); err != nil {
		return f, err
	}
	if f.To, err = parseTime("to", q.Get("to"), true); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) movements(r *http.Request) ([]inventory.MovementView, error) {
	sc, err := h.scope(r)
	if err != nil {
		return nil, err
	}
	f, err := movementFilter(r)
	if err != nil {
		return nil, err
	}
	return h.ledger.ListMovements(r.Context(), sc, f)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	ms, err := h.movements(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *Handler) exportMovementsCSV(w http.ResponseWriter, r *http.Request) {
	ms, err := h.movements(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.MovementsCSV(&buf, ms); err != nil {
		h.fail(w, r, apperr.Persistence("render csv", err))
		return
	}
	writeFile(w, contentCSV, export.FileName("movements", "csv", h.now()), buf.Bytes())
}

func (h *Handler) exportMovementsXLSX(w http.ResponseWriter, r *http.Request) {
	ms, err := h.movements(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.MovementsXLSX(&buf, ms); err != nil {
		h.fail(w, r, apperr.Persistence("render xlsx", err))
		return
	}
	writeFile(w, contentXLSX, export.FileName("movements", "xlsx", h.now()), buf.Bytes())
}

type stockResponse struct {
	ItemID int64           `json:"item_id"`
	OnHand decimal.Decimal `json:"on_hand"`
	AsOf   *time.Time      `json:"as_of,omitempty"`
}

func (h *Handler) itemStock(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	asOf, err := parseTime("as_of", r.URL.Query().Get("as_of"), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var q decimal.Decimal
	if asOf != nil {
		q, err = h.ledger.StockOnHandAsOf(r.Context(), sc, id, *asOf)
	} else {
		q, err = h.ledger.StockOnHand(r.Context(), sc, id)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{ItemID: id, OnHand: q, AsOf: asOf})
}

type countRequest struct {
	Counted     decimal.Decimal `json:"counted"`
	Ref         string          `json:"ref"`
	Note        string          `json:"note"`
	EffectiveAt time.Time       `json:"effective_at"`
}

func (h *Handler) countItem(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in countRequest
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.ledger.AdjustTo(r.Context(), sc, id, in.Counted, in.Ref, in.Note, in.EffectiveAt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
