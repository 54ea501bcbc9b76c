package jobs

import (
	"context"
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

type createJobRequest struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	MaxUnlocks  int32    `json:"max_unlocks,omitempty"`
}

type statusChangeResponse struct {
	Message string `json:"message"`
	Changed bool   `json:"changed"`
}

type hireAgainRequest struct {
	OriginalJobID string `json:"original_job_id"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	Confirm       bool   `json:"confirm,omitempty"`
}

type hireAgainConflictResponse struct {
	Duplicates []*Job `json:"duplicates"`
}

// Create handles POST /api/jobs.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized")
		return
	}
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid JSON")
		return
	}
	job, err := h.svc.Create(r.Context(), p.UserID, CreateJobInput{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		MaxUnlocks:  req.MaxUnlocks,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidJob) {
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "title and category are required")
			return
		}
		h.log.Error("create job failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]*Job{"job": job})
}

// List handles GET /api/jobs, returning the caller's jobs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.ListByCustomer(r.Context(), p.UserID)
	if err != nil {
		h.log.Error("list jobs failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
		return
	}
	if list == nil {
		list = []*Job{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]*Job{"jobs": list})
}

// Close handles POST /api/jobs/{jobID}/close.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.svc.Close, "job closed")
}

// Reopen handles POST /api/jobs/{jobID}/reopen.
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.svc.Reopen, "job reopened")
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, jobID uuid.UUID) (bool, error), message string) {
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized")
		return
	}
	jobID, err := uuid.Parse(r.PathValue("jobID"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid job id")
		return
	}
	if job, _ := h.ownedJob(w, r, jobID, p); job == nil {
		return
	}
	changed, err := op(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeJobNotFound, "job not found")
			return
		}
		h.log.Error("job status change failed", "job_id", jobID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
		return
	}
	msg := message
	if !changed {
		msg = "no change"
	}
	httpx.WriteJSON(w, http.StatusOK, statusChangeResponse{Message: msg, Changed: changed})
}

// HireAgain handles POST /api/jobs/hire-again.
func (h *Handler) HireAgain(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized")
		return
	}
	var req hireAgainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid JSON")
		return
	}
	originalID, err := uuid.Parse(req.OriginalJobID)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid original_job_id")
		return
	}
	if orig, _ := h.ownedJob(w, r, originalID, p); orig == nil {
		return
	}
	job, dups, err := h.svc.HireAgain(r.Context(), originalID, HireAgainInput{
		Title:       req.Title,
		Description: req.Description,
		Confirm:     req.Confirm,
	})
	if err != nil {
		h.log.Error("hire-again failed", "original_job_id", originalID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
		return
	}
	if len(dups) > 0 {
		httpx.WriteJSON(w, http.StatusConflict, hireAgainConflictResponse{Duplicates: dups})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]*Job{"job": job})
}

// ownedJob loads the job and enforces that the caller owns it.
func (h *Handler) ownedJob(w http.ResponseWriter, r *http.Request, jobID uuid.UUID, p *middleware.Principal) (*Job, error) {
	job, err := h.svc.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeJobNotFound, "job not found")
			return nil, err
		}
		h.log.Error("get job failed", "job_id", jobID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
		return nil, err
	}
	if job.CustomerID != p.UserID {
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "job belongs to another customer")
		return nil, errors.New("forbidden")
	}
	return job, nil
}
