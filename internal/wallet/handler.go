package wallet

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskmandi/backend/internal/httpx"
	"github.com/taskmandi/backend/internal/middleware"
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

type walletResponse struct {
	Wallet       *Wallet        `json:"wallet"`
	Transactions []*Transaction `json:"transactions"`
}

type rechargeRequest struct {
	AmountPaise int64  `json:"amount_paise"`
	ExternalRef string `json:"external_ref,omitempty"`
}

type rechargeResponse struct {
	Message         string `json:"message"`
	NewBalancePaise int64  `json:"new_balance_paise"`
}

// GetWallet handles GET /api/wallet/{providerID}.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	providerID, ok := h.authorizedProviderID(w, r)
	if !ok {
		return
	}
	wal, txns, err := h.svc.GetWallet(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeWalletNotFound, "no wallet for provider")
			return
		}
		h.log.Error("get wallet failed", "provider_id", providerID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
		return
	}
	if txns == nil {
		txns = []*Transaction{}
	}
	httpx.WriteJSON(w, http.StatusOK, walletResponse{Wallet: wal, Transactions: txns})
}

// Recharge handles POST /api/wallet/{providerID}/recharge.
func (h *Handler) Recharge(w http.ResponseWriter, r *http.Request) {
	providerID, ok := h.authorizedProviderID(w, r)
	if !ok {
		return
	}
	var req rechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid JSON")
		return
	}
	newBalance, err := h.svc.Recharge(r.Context(), providerID, req.AmountPaise, req.ExternalRef, "wallet recharge")
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, err.Error())
		case errors.Is(err, ErrWalletNotFound):
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeWalletNotFound, "no wallet for provider")
		default:
			h.log.Error("recharge failed", "provider_id", providerID, "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rechargeResponse{Message: "recharge successful", NewBalancePaise: newBalance})
}

// authorizedProviderID parses {providerID} and checks it matches the caller.
// Providers can only operate on their own wallet.
func (h *Handler) authorizedProviderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	providerID, err := uuid.Parse(r.PathValue("providerID"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid provider id")
		return uuid.Nil, false
	}
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	if p.UserID != providerID {
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "wallet belongs to another provider")
		return uuid.Nil, false
	}
	return providerID, true
}
