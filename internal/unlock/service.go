package unlock

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskmandi/backend/internal/directory"
	"github.com/taskmandi/backend/internal/jobs"
	"github.com/taskmandi/backend/internal/notify"
)

var (
	// ErrCapacityReached is returned once maxUnlocks distinct providers hold
	// the job's contact.
	ErrCapacityReached = errors.New("unlock capacity reached")
	// ErrConflict surfaces after a lost transactional race was already retried
	// once.
	ErrConflict = errors.New("concurrent unlock conflict")
)

// JobStore is the job-side surface the authority needs. The FOR UPDATE read
// serializes concurrent unlocks of the same job.
type JobStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	GetByIDForUpdateTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (*jobs.Job, error)
	IncrementUnlockCountTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (bool, error)
}

// UnlockStore records (job, provider) unlock grants.
type UnlockStore interface {
	InsertTx(ctx context.Context, tx pgx.Tx, jobID, providerID uuid.UUID, amountPaise int64) error
}

// Debiter is the wallet ledger operation executed in the same transaction.
type Debiter interface {
	DebitForUnlockTx(ctx context.Context, tx pgx.Tx, providerID uuid.UUID, amountPaise int64, jobID uuid.UUID) (int64, error)
}

// InsertNotifyTxFunc enqueues the unlock notification within the given
// transaction. Provided by main using river.Client.InsertTx.
type InsertNotifyTxFunc func(ctx context.Context, tx pgx.Tx, args notify.JobUnlockedArgs) error

// Result is what a provider gets for a successful unlock.
type Result struct {
	Contact         directory.Contact
	PricePaise      int64
	NewBalancePaise int64
}

type Service interface {
	UnlockJob(ctx context.Context, jobID, providerID uuid.UUID) (*Result, error)
}

type service struct {
	jobs         JobStore
	unlocks      UnlockStore
	wallet       Debiter
	users        directory.Service
	price        PricePolicy
	insertNotify InsertNotifyTxFunc
	log          *slog.Logger
}

func NewService(jobStore JobStore, unlockStore UnlockStore, wallet Debiter, users directory.Service, price PricePolicy, insertNotify InsertNotifyTxFunc, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{
		jobs:         jobStore,
		unlocks:      unlockStore,
		wallet:       wallet,
		users:        users,
		price:        price,
		insertNotify: insertNotify,
		log:          log,
	}
}

var _ Service = (*service)(nil)

// UnlockJob converts a provider's request into a paid, capacity-checked,
// duplicate-free grant of contact access. The checks and all writes run in one
// transaction; a lost serialization race is retried once before surfacing
// ErrConflict.
func (s *service) UnlockJob(ctx context.Context, jobID, providerID uuid.UUID) (*Result, error) {
	res, err := s.attempt(ctx, jobID, providerID)
	if err != nil && isRetryableConflict(err) {
		s.log.Warn("unlock lost a transactional race, retrying once", "job_id", jobID, "provider_id", providerID, "error", err)
		res, err = s.attempt(ctx, jobID, providerID)
		if err != nil && isRetryableConflict(err) {
			return nil, ErrConflict
		}
	}
	return res, err
}

func (s *service) attempt(ctx context.Context, jobID, providerID uuid.UUID) (*Result, error) {
	// Tier lookup stays outside the transaction to keep the critical section
	// short; the tier only influences the price.
	provider, err := s.users.GetUser(ctx, providerID)
	if err != nil {
		return nil, err
	}

	tx, err := s.jobs.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	job, err := s.jobs.GetByIDForUpdateTx(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UnlockCount >= job.MaxUnlocks {
		return nil, ErrCapacityReached
	}

	price := s.price.UnlockPricePaise(job, provider.SubscriptionTier)

	if err := s.unlocks.InsertTx(ctx, tx, jobID, providerID, price); err != nil {
		return nil, err
	}
	newBalance, err := s.wallet.DebitForUnlockTx(ctx, tx, providerID, price, jobID)
	if err != nil {
		return nil, err
	}
	incremented, err := s.jobs.IncrementUnlockCountTx(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	if !incremented {
		// Unreachable while the row lock is held; the guard is the second
		// line of defense for the capacity invariant.
		return nil, ErrCapacityReached
	}

	contact, err := s.users.ContactForCustomer(ctx, job.CustomerID)
	if err != nil {
		return nil, err
	}

	if err := s.insertNotify(ctx, tx, notify.JobUnlockedArgs{
		JobID:        job.ID,
		JobTitle:     job.Title,
		CustomerID:   job.CustomerID,
		ProviderID:   providerID,
		ProviderName: provider.Name,
		AmountPaise:  price,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &Result{Contact: *contact, PricePaise: price, NewBalancePaise: newBalance}, nil
}

// isRetryableConflict matches Postgres serialization failures and deadlocks.
func isRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
