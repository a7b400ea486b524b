package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vaultpass/securevault-go/internal/model"
	"github.com/vaultpass/securevault-go/internal/service"
)

// VaultHandler handles HTTP requests for encrypted vault records.
type VaultHandler struct {
	service *service.VaultService
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(svc *service.VaultService) *VaultHandler {
	return &VaultHandler{service: svc}
}

// HandleList handles GET /api/v1/vault requests.
func (h *VaultHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	records, err := h.service.List(r.Context(), userID)
	if err != nil {
		slog.Error("listing vault records", "user_id", userID, "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// HandleCreate handles POST /api/v1/vault requests.
func (h *VaultHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.VaultRecordRequest
	if !decodeJSON(w, r, vaultBodyLimit, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleUpdate handles PUT /api/v1/vault/{id} requests.
func (h *VaultHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.VaultRecordRequest
	if !decodeJSON(w, r, vaultBodyLimit, &req) {
		return
	}

	resp, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /api/v1/vault/{id} requests.
func (h *VaultHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, userID, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *VaultHandler) writeError(w http.ResponseWriter, userID int64, err error) {
	switch {
	case errors.Is(err, service.ErrCiphertextRequired),
		errors.Is(err, service.ErrIVRequired),
		errors.Is(err, service.ErrIVTooLong):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrRecordNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	default:
		slog.Error("vault request failed", "user_id", userID, "error", err)
		internalError(w)
	}
}
