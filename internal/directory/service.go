package directory

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Service is the user directory consumed by the unlock and notification flows.
type Service interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ContactForCustomer(ctx context.Context, customerID uuid.UUID) (*Contact, error)
}

type service struct {
	repo *Repository
	log  *slog.Logger
}

func NewService(repo *Repository, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{repo: repo, log: log}
}

var _ Service = (*service)(nil)

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// ContactForCustomer resolves the contact payload for a job's owning customer.
// A missing customer means a job references a nonexistent user, which is a
// data-integrity problem worth logging loudly rather than swallowing.
func (s *service) ContactForCustomer(ctx context.Context, customerID uuid.UUID) (*Contact, error) {
	u, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		s.log.Error("contact lookup failed for job customer", "customer_id", customerID, "error", err)
		return nil, err
	}
	return &Contact{Name: u.Name, PhoneNumber: u.Phone}, nil
}
