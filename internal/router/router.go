package router

import (
	"net/http"

	"github.com/taskmandi/backend/internal/auth"
	"github.com/taskmandi/backend/internal/jobs"
	"github.com/taskmandi/backend/internal/unlock"
	"github.com/taskmandi/backend/internal/wallet"
)

// New returns the handler for the public /api surface. The admin surface is
// registered separately in cmd/api with its own key-based middleware.
func New(authH *auth.Handler, jobsH *jobs.Handler, walletH *wallet.Handler, unlockH *unlock.Handler, authMW func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authH.Register)
	mux.HandleFunc("POST /api/auth/login", authH.Login)

	protect := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	mux.Handle("POST /api/jobs", protect(jobsH.Create))
	mux.Handle("GET /api/jobs", protect(jobsH.List))
	mux.Handle("POST /api/jobs/hire-again", protect(jobsH.HireAgain))
	mux.Handle("POST /api/jobs/{jobID}/close", protect(jobsH.Close))
	mux.Handle("POST /api/jobs/{jobID}/reopen", protect(jobsH.Reopen))
	mux.Handle("POST /api/jobs/{jobID}/unlock", protect(unlockH.UnlockJob))

	mux.Handle("GET /api/wallet/{providerID}", protect(walletH.GetWallet))
	mux.Handle("POST /api/wallet/{providerID}/recharge", protect(walletH.Recharge))

	return mux
}
