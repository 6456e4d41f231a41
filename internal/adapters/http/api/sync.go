package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/lorkus/scholarledger/internal/app"
)

type syncResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

type currencyRequest struct {
	Currency string `json:"currency"`
}

// SyncHandler serves the sync trigger and the stored season history.
type SyncHandler struct {
	deps     SyncDependencies
	maxBytes int64
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps SyncDependencies, maxBytes int64) *SyncHandler {
	return &SyncHandler{deps: deps, maxBytes: maxBytes}
}

// HandleSync handles POST /sync. Accepted jobs answer 202; a repeated
// request id answers 200 with duplicate set.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_sync"
	var req service.SyncRequest
	if err := decodeBody(w, r, h.maxBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing username")))
		return
	}

	id, dup, err := h.deps.EnqueueSync(r.Context(), req)
	switch {
	case err != nil:
		writeFailure(w, op, err)
	case dup:
		writeJSON(w, http.StatusOK, syncResponse{Status: "duplicate", JobID: id, Duplicate: true})
	default:
		writeJSON(w, http.StatusAccepted, syncResponse{Status: "accepted", JobID: id})
	}
}

// HandleHistory handles GET /history/{username}.
func (h *SyncHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	hist, err := h.deps.History(r.Context(), username)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// HandleUpdateCurrency handles PUT /history/{username}/{season}/currency.
func (h *SyncHandler) HandleUpdateCurrency(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_history_currency"
	seasonID, err := strconv.Atoi(r.PathValue("season"))
	if err != nil || seasonID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid season id")))
		return
	}
	var req currencyRequest
	if err := decodeBody(w, r, h.maxBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.UpdateCurrency(r.Context(), r.PathValue("username"), seasonID, req.Currency); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
