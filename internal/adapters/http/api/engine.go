package api

import (
	"net/http"

	service "github.com/lorkus/scholarledger/internal/app"
)

// EngineHandler serves the totals, payout and series endpoints.
type EngineHandler struct {
	deps     EngineDependencies
	maxBytes int64
}

// NewEngineHandler creates a new engine handler.
func NewEngineHandler(deps EngineDependencies, maxBytes int64) *EngineHandler {
	return &EngineHandler{deps: deps, maxBytes: maxBytes}
}

// HandleTotals handles POST /totals.
func (h *EngineHandler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_totals"
	var req service.TotalsRequest
	if err := decodeBody(w, r, h.maxBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	totals, err := h.deps.Totals(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// HandlePayout handles POST /payout.
func (h *EngineHandler) HandlePayout(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_payout"
	var req service.PayoutRequest
	if err := decodeBody(w, r, h.maxBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Payout(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSeries handles POST /series/leaderboard.
func (h *EngineHandler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_series_leaderboard"
	var req service.SeriesRequest
	if err := decodeBody(w, r, h.maxBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.SeriesLeaderboard(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSchemes handles GET /schemes.
func (h *EngineHandler) HandleSchemes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Schemes())
}
