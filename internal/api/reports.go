package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/export"
)

// stockReport answers JSON, or CSV with ?format=csv.
func (h *Handler) stockReport(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lines, err := h.ledger.StockReport(r.Context(), sc)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, lines)
	case "csv":
		var buf bytes.Buffer
		if err := export.StockCSV(&buf, lines); err != nil {
			h.fail(w, r, apperr.Persistence("render csv", err))
			return
		}
		writeFile(w, contentCSV, export.FileName("stock", "csv", h.now()), buf.Bytes())
	default:
		h.fail(w, r, apperr.Validation("unknown format %q", r.URL.Query().Get("format")))
	}
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.ledger.Dashboard(r.Context(), sc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) exportStocktake(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.stocktake.Export(r.Context(), sc, &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	writeFile(w, contentXLSX, export.FileName("stocktake", "xlsx", h.now()), buf.Bytes())
}

// importStocktake takes the filled workbook as the raw request body.
func (h *Handler) importStocktake(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSheetBody))
	if err != nil {
		h.fail(w, r, apperr.Wrap(apperr.KindValidation, err, "cannot read upload"))
		return
	}
	sum, err := h.stocktake.Import(r.Context(), sc, bytes.NewReader(body), r.URL.Query().Get("ref"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
