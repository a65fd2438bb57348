// Package api serves the catalog and the ledger as JSON over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/catalog"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
	"github.com/Spok95/stock-ledger/internal/infra/idempotency"
	"github.com/Spok95/stock-ledger/internal/infra/metrics"
	"github.com/Spok95/stock-ledger/internal/stocktake"
)

const (
	HeaderUser        = "X-User-ID"
	HeaderTenant      = "X-Tenant-ID"
	HeaderIdempotency = "Idempotency-Key"

	maxJSONBody  = 1 << 20
	maxSheetBody = 10 << 20
)

type Handler struct {
	tenancy   *tenancy.Service
	catalog   *catalog.Service
	ledger    *inventory.Ledger
	stocktake *stocktake.Service
	guard     idempotency.Guard
	log       *slog.Logger
	single    *tenancy.Scope
	now       func() time.Time
}

// Deps wires a Handler. Single, when set, is used for every request and
// identity headers are ignored. Guard defaults to idempotency.Nop.
type Deps struct {
	Tenancy   *tenancy.Service
	Catalog   *catalog.Service
	Ledger    *inventory.Ledger
	Stocktake *stocktake.Service
	Guard     idempotency.Guard
	Log       *slog.Logger
	Single    *tenancy.Scope
}

func New(d Deps) *Handler {
	if d.Guard == nil {
		d.Guard = idempotency.Nop{}
	}
	return &Handler{
		tenancy:   d.Tenancy,
		catalog:   d.Catalog,
		ledger:    d.Ledger,
		stocktake: d.Stocktake,
		guard:     d.Guard,
		log:       d.Log,
		single:    d.Single,
		now:       time.Now,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/items", h.listItems)
	mux.HandleFunc("POST /api/items", h.createItem)
	mux.HandleFunc("GET /api/items/{id}", h.getItem)
	mux.HandleFunc("PUT /api/items/{id}", h.updateItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.deleteItem)
	mux.HandleFunc("GET /api/items/{id}/stock", h.itemStock)
	mux.HandleFunc("POST /api/items/{id}/count", h.countItem)

	mux.HandleFunc("GET /api/suppliers", h.listSuppliers)
	mux.HandleFunc("POST /api/suppliers", h.createSupplier)
	mux.HandleFunc("PUT /api/suppliers/{id}", h.updateSupplier)
	mux.HandleFunc("DELETE /api/suppliers/{id}", h.deleteSupplier)

	mux.HandleFunc("GET /api/movements", h.listMovements)
	mux.HandleFunc("POST /api/movements", h.recordMovement)
	mux.HandleFunc("GET /api/movements/export.csv", h.exportMovementsCSV)
	mux.HandleFunc("GET /api/movements/export.xlsx", h.exportMovementsXLSX)

	mux.HandleFunc("GET /api/stock", h.stockReport)
	mux.HandleFunc("GET /api/dashboard", h.dashboard)
	mux.HandleFunc("GET /api/stocktake.xlsx", h.exportStocktake)
	mux.HandleFunc("POST /api/stocktake", h.importStocktake)

	mux.HandleFunc("POST /api/tenants", h.createTenant)
	mux.HandleFunc("GET /api/members", h.listMembers)
	mux.HandleFunc("POST /api/members", h.setMember)
}

// scope resolves the caller. Identity is established upstream; the service
// only maps it to a tenant and role.
func (h *Handler) scope(r *http.Request) (tenancy.Scope, error) {
	if h.single != nil {
		return *h.single, nil
	}
	user := strings.TrimSpace(r.Header.Get(HeaderUser))
	if user == "" {
		return tenancy.Scope{}, apperr.Forbidden("missing %s header", HeaderUser)
	}
	var hint *uuid.UUID
	if v := strings.TrimSpace(r.Header.Get(HeaderTenant)); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return tenancy.Scope{}, apperr.Validation("invalid %s %q", HeaderTenant, v)
		}
		hint = &id
	}
	sc, err := h.tenancy.Resolve(r.Context(), user, hint)
	if apperr.IsNotFound(err) {
		return tenancy.Scope{}, apperr.Forbidden("user %q is not a member of any tenant", user)
	}
	return sc, err
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	metrics.APIErrors.WithLabelValues(kind.String()).Inc()

	msg := err.Error()
	if kind == apperr.KindPersistence {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = "storage failure, try again later"
	}
	writeJSON(w, statusFor(kind), errorBody{Error: msg, Kind: kind.String()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFile(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// decode reads a JSON body, rejecting unknown fields and trailing data.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "invalid request body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid request body: trailing data")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	v := r.PathValue("id")
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id %q", v)
	}
	return id, nil
}

// parseTime accepts RFC 3339 or a bare date. A bare date means the start
// of that day, or its last instant when endOfDay is set.
func parseTime(name, v string, endOfDay bool) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, apperr.Validation("invalid %s %q, want RFC 3339 or YYYY-MM-DD", name, v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
