package unlock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/taskmandi/backend/internal/directory"
	"github.com/taskmandi/backend/internal/jobs"
	"github.com/taskmandi/backend/internal/middleware"
	"github.com/taskmandi/backend/internal/wallet"
)

type stubService struct {
	res *Result
	err error
}

func (s stubService) UnlockJob(context.Context, uuid.UUID, uuid.UUID) (*Result, error) {
	return s.res, s.err
}

func doUnlock(t *testing.T, svc Service, principal *middleware.Principal) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(svc, nil)
	jobID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/"+jobID.String()+"/unlock", nil)
	req.SetPathValue("jobID", jobID.String())
	if principal != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	h.UnlockJob(rec, req)
	return rec
}

func providerPrincipal() *middleware.Principal {
	return &middleware.Principal{UserID: uuid.New(), Role: directory.RoleProvider}
}

func TestUnlockHandler_Success(t *testing.T) {
	svc := stubService{res: &Result{
		Contact:         directory.Contact{Name: "Asha Verma", PhoneNumber: "+919800000001"},
		PricePaise:      10_000,
		NewBalancePaise: 15_000,
	}}
	rec := doUnlock(t, svc, providerPrincipal())

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Message         string            `json:"message"`
		CustomerContact directory.Contact `json:"customer_contact"`
		PricePaise      int64             `json:"price_paise"`
		NewBalancePaise int64             `json:"new_balance_paise"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.CustomerContact.PhoneNumber != "+919800000001" {
		t.Errorf("contact phone: got %s", body.CustomerContact.PhoneNumber)
	}
	if body.PricePaise != 10_000 || body.NewBalancePaise != 15_000 {
		t.Errorf("amounts: got price=%d balance=%d", body.PricePaise, body.NewBalancePaise)
	}
}

func TestUnlockHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"job not found", jobs.ErrJobNotFound, http.StatusNotFound, "JOB_NOT_FOUND"},
		{"capacity reached", ErrCapacityReached, http.StatusBadRequest, "UNLOCK_CAPACITY_REACHED"},
		{"already unlocked", ErrAlreadyUnlocked, http.StatusBadRequest, "ALREADY_UNLOCKED"},
		{"insufficient balance", wallet.ErrInsufficientBalance, http.StatusBadRequest, "INSUFFICIENT_BALANCE"},
		{"wallet missing", wallet.ErrWalletNotFound, http.StatusNotFound, "WALLET_NOT_FOUND"},
		{"conflict", ErrConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doUnlock(t, stubService{err: tt.err}, providerPrincipal())

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("error code: got %s, want %s", body.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestUnlockHandler_RequiresProviderRole(t *testing.T) {
	rec := doUnlock(t, stubService{}, &middleware.Principal{UserID: uuid.New(), Role: directory.RoleCustomer})
	if rec.Code != http.StatusForbidden {
		t.Errorf("customer unlock: got %d, want 403", rec.Code)
	}

	rec = doUnlock(t, stubService{}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous unlock: got %d, want 401", rec.Code)
	}
}
