package unlock

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskmandi/backend/internal/directory"
	"github.com/taskmandi/backend/internal/httpx"
	"github.com/taskmandi/backend/internal/jobs"
	"github.com/taskmandi/backend/internal/middleware"
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

type unlockResponse struct {
	Message         string             `json:"message"`
	CustomerContact *directory.Contact `json:"customer_contact"`
	PricePaise      int64              `json:"price_paise"`
	NewBalancePaise int64              `json:"new_balance_paise"`
}

// UnlockJob handles POST /api/jobs/{jobID}/unlock. The provider identity is
// the authenticated principal, never the request body.
func (h *Handler) UnlockJob(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized")
		return
	}
	if p.Role != directory.RoleProvider {
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "only providers can unlock jobs")
		return
	}
	jobID, err := uuid.Parse(r.PathValue("jobID"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid job id")
		return
	}

	res, err := h.svc.UnlockJob(r.Context(), jobID, p.UserID)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrJobNotFound):
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeJobNotFound, "job not found")
		case errors.Is(err, ErrCapacityReached):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeCapacityReached, "job has reached its unlock limit")
		case errors.Is(err, ErrAlreadyUnlocked):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeAlreadyUnlocked, "you have already unlocked this job")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInsufficientBalance, "wallet balance is too low, please recharge")
		case errors.Is(err, wallet.ErrWalletNotFound):
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeWalletNotFound, "no wallet for provider")
		case errors.Is(err, directory.ErrUserNotFound):
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeUserNotFound, "user not found")
		case errors.Is(err, ErrConflict):
			httpx.WriteError(w, http.StatusConflict, httpx.CodeConcurrencyConflict, "unlock conflicted with a concurrent request, please retry")
		default:
			h.log.Error("unlock failed", "job_id", jobID, "provider_id", p.UserID, "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, unlockResponse{
		Message:         "job unlocked",
		CustomerContact: &res.Contact,
		PricePaise:      res.PricePaise,
		NewBalancePaise: res.NewBalancePaise,
	})
}
