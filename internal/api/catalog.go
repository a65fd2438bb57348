package api

import (
	"net/http"

	"github.com/Spok95/stock-ledger/internal/domain/catalog"
)

/* Items */

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.catalog.ListItems(r.Context(), sc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
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
	it, err := h.catalog.GetItem(r.Context(), sc, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	h.upsertItem(w, r, 0)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.upsertItem(w, r, id)
}

func (h *Handler) upsertItem(w http.ResponseWriter, r *http.Request, id int64) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in catalog.ItemInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.ID = id
	it, err := h.catalog.UpsertItem(r.Context(), sc, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, it)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
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
	if err := h.catalog.DeleteItem(r.Context(), sc, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* Suppliers */

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sps, err := h.catalog.ListSuppliers(r.Context(), sc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sps)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	h.upsertSupplier(w, r, 0)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.upsertSupplier(w, r, id)
}

func (h *Handler) upsertSupplier(w http.ResponseWriter, r *http.Request, id int64) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in catalog.SupplierInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.ID = id
	sp, err := h.catalog.UpsertSupplier(r.Context(), sc, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, sp)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
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
	if err := h.catalog.DeleteSupplier(r.Context(), sc, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
