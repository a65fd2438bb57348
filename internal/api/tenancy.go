package api

import (
	"net/http"
	"strings"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
)

type tenantRequest struct {
	Name string `json:"name"`
}

// createTenant lets any identified user open a tenant and become its owner.
// A single-tenant deployment has nothing to create.
func (h *Handler) createTenant(w http.ResponseWriter, r *http.Request) {
	if h.single != nil {
		h.fail(w, r, apperr.Forbidden("tenants cannot be created in single-tenant mode"))
		return
	}
	user := strings.TrimSpace(r.Header.Get(HeaderUser))
	if user == "" {
		h.fail(w, r, apperr.Forbidden("missing %s header", HeaderUser))
		return
	}
	var in tenantRequest
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.tenancy.CreateTenant(r.Context(), in.Name, user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ms, err := h.tenancy.Members(r.Context(), sc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

type memberRequest struct {
	UserID string       `json:"user_id"`
	Role   tenancy.Role `json:"role"`
}

func (h *Handler) setMember(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in memberRequest
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.tenancy.Invite(r.Context(), sc, in.UserID, in.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
