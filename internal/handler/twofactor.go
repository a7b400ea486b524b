package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vaultpass/securevault-go/internal/model"
	"github.com/vaultpass/securevault-go/internal/repository"
	"github.com/vaultpass/securevault-go/internal/service"
)

// TwoFactorHandler handles HTTP requests for two-factor enrolment.
type TwoFactorHandler struct {
	service *service.TwoFactorService
}

// NewTwoFactorHandler creates a new TwoFactorHandler.
func NewTwoFactorHandler(svc *service.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{service: svc}
}

// HandleSetup handles POST /api/v1/2fa/setup requests.
func (h *TwoFactorHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.RequestSetup(r.Context(), userID)
	if err != nil {
		h.writeError(w, "two-factor setup failed", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleVerify handles POST /api/v1/2fa/verify requests.
func (h *TwoFactorHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.ConfirmTwoFactorRequest
	if !decodeJSON(w, r, authBodyLimit, &req) {
		return
	}

	if err := h.service.ConfirmSetup(r.Context(), userID, req.Code); err != nil {
		h.writeError(w, "two-factor confirm failed", err)
		return
	}

	slog.Info("two-factor enabled", "user_id", userID)
	writeJSON(w, http.StatusOK, model.TwoFactorStatus{Enabled: true})
}

// HandleDisable handles POST /api/v1/2fa/disable requests.
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.DisableTwoFactorRequest
	if !decodeJSON(w, r, authBodyLimit, &req) {
		return
	}

	if err := h.service.Disable(r.Context(), userID, req.Password); err != nil {
		h.writeError(w, "two-factor disable failed", err)
		return
	}

	slog.Info("two-factor disabled", "user_id", userID)
	writeJSON(w, http.StatusOK, model.TwoFactorStatus{Enabled: false})
}

// HandleStatus handles GET /api/v1/2fa/status requests.
func (h *TwoFactorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Status(r.Context(), userID)
	if err != nil {
		h.writeError(w, "two-factor status failed", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *TwoFactorHandler) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidOTP), errors.Is(err, service.ErrNoPendingSetup):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrSetupChanged):
		writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse("invalid password"))
	case errors.Is(err, repository.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse("user not found"))
	default:
		slog.Error(msg, "error", err)
		internalError(w)
	}
}
