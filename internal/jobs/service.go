package jobs

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidJob is returned when required job fields are missing.
var ErrInvalidJob = errors.New("invalid job fields")

// Store is the persistence surface the lifecycle service needs.
type Store interface {
	Create(ctx context.Context, j *Job) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*Job, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Job, error)
	SetStatus(ctx context.Context, jobID uuid.UUID, status string) (bool, error)
	FindOpenNearDuplicates(ctx context.Context, customerID uuid.UUID, category, title string) ([]*Job, error)
}

type CreateJobInput struct {
	Title       string
	Category    string
	Description string
	Location    string
	Latitude    *float64
	Longitude   *float64
	MaxUnlocks  int32
}

// HireAgainInput carries optional overrides for the re-posted job. Confirm
// skips the near-duplicate warning.
type HireAgainInput struct {
	Title       string
	Description string
	Confirm     bool
}

type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, in CreateJobInput) (*Job, error)
	Get(ctx context.Context, jobID uuid.UUID) (*Job, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Job, error)
	Close(ctx context.Context, jobID uuid.UUID) (changed bool, err error)
	Reopen(ctx context.Context, jobID uuid.UUID) (changed bool, err error)
	HireAgain(ctx context.Context, originalJobID uuid.UUID, in HireAgainInput) (*Job, []*Job, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

var _ Service = (*service)(nil)

func (s *service) Create(ctx context.Context, customerID uuid.UUID, in CreateJobInput) (*Job, error) {
	title := strings.TrimSpace(in.Title)
	category := strings.TrimSpace(in.Category)
	if title == "" || category == "" {
		return nil, ErrInvalidJob
	}
	maxUnlocks := in.MaxUnlocks
	if maxUnlocks <= 0 {
		maxUnlocks = DefaultMaxUnlocks
	}
	j := &Job{
		CustomerID:  customerID,
		Title:       title,
		Category:    category,
		Description: in.Description,
		Location:    in.Location,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		MaxUnlocks:  maxUnlocks,
	}
	if err := s.store.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *service) Get(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	return s.store.GetByID(ctx, jobID)
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Job, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// Close transitions open -> closed. Closing an already-closed job is a
// no-change result, not an error.
func (s *service) Close(ctx context.Context, jobID uuid.UUID) (bool, error) {
	return s.setStatus(ctx, jobID, StatusClosed)
}

// Reopen transitions closed -> open, with the same idempotency as Close.
func (s *service) Reopen(ctx context.Context, jobID uuid.UUID) (bool, error) {
	return s.setStatus(ctx, jobID, StatusOpen)
}

func (s *service) setStatus(ctx context.Context, jobID uuid.UUID, status string) (bool, error) {
	// Existence check first so an unknown job is ErrJobNotFound rather than
	// an indistinguishable no-change.
	if _, err := s.store.GetByID(ctx, jobID); err != nil {
		return false, err
	}
	return s.store.SetStatus(ctx, jobID, status)
}

// HireAgain re-posts a job as a brand-new record (new id, zero unlock count,
// open) copying category/description/location from the original. When open
// near-duplicates exist and the caller has not confirmed, it returns the
// candidates instead of creating anything.
func (s *service) HireAgain(ctx context.Context, originalJobID uuid.UUID, in HireAgainInput) (*Job, []*Job, error) {
	orig, err := s.store.GetByID(ctx, originalJobID)
	if err != nil {
		return nil, nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = orig.Title
	}
	description := in.Description
	if description == "" {
		description = orig.Description
	}
	if !in.Confirm {
		dups, err := s.store.FindOpenNearDuplicates(ctx, orig.CustomerID, orig.Category, title)
		if err != nil {
			return nil, nil, err
		}
		if len(dups) > 0 {
			return nil, dups, nil
		}
	}
	j := &Job{
		CustomerID:  orig.CustomerID,
		Title:       title,
		Category:    orig.Category,
		Description: description,
		Location:    orig.Location,
		Latitude:    orig.Latitude,
		Longitude:   orig.Longitude,
		MaxUnlocks:  orig.MaxUnlocks,
	}
	if err := s.store.Create(ctx, j); err != nil {
		return nil, nil, err
	}
	return j, nil, nil
}
