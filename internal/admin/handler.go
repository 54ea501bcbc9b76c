package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskmandi/backend/internal/httpx"
	"github.com/taskmandi/backend/internal/wallet"
)

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type addBalanceRequest struct {
	ProviderID  string `json:"provider_id"`
	AdminID     string `json:"admin_id"`
	AmountPaise int64  `json:"amount_paise"`
	Note        string `json:"note,omitempty"`
}

type addBalanceResponse struct {
	Message         string `json:"message"`
	NewBalancePaise int64  `json:"new_balance_paise"`
}

// AddBalance handles POST /api/admin/wallet/add-balance.
func (h *Handler) AddBalance(w http.ResponseWriter, r *http.Request) {
	var req addBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid JSON")
		return
	}
	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid provider_id")
		return
	}
	adminID, err := uuid.Parse(req.AdminID)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid admin_id")
		return
	}
	newBalance, err := h.svc.AddBalance(r.Context(), adminID, providerID, req.AmountPaise, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidAmount):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "amount_paise must be positive")
		case errors.Is(err, wallet.ErrWalletNotFound):
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeWalletNotFound, "no wallet for provider")
		default:
			h.log.Error("admin add-balance failed", "provider_id", providerID, "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, addBalanceResponse{Message: "balance added", NewBalancePaise: newBalance})
}
