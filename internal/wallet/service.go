package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Recharge bounds, enforced server-side regardless of what the UI allows.
const (
	MinRechargePaise int64 = 10_000    // ₹100
	MaxRechargePaise int64 = 5_000_000 // ₹50,000
)

// ErrInvalidAmount is returned for non-positive or out-of-bounds amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// Store is the persistence surface the ledger service needs.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	GetByProviderIDForUpdateTx(ctx context.Context, tx pgx.Tx, providerID uuid.UUID) (*Wallet, error)
	CreditTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountPaise int64) (int64, error)
	DebitTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountPaise int64) (int64, error)
	InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *Transaction) error
	ListTransactionsTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) ([]*Transaction, error)
}

// Service owns every balance mutation. Nothing outside this package writes a
// balance directly; all effects are signed deltas paired with a ledger entry.
type Service interface {
	GetWallet(ctx context.Context, providerID uuid.UUID) (*Wallet, []*Transaction, error)
	Recharge(ctx context.Context, providerID uuid.UUID, amountPaise int64, externalRef, description string) (int64, error)
	Refund(ctx context.Context, providerID uuid.UUID, amountPaise int64, jobID uuid.UUID, description string) (int64, error)
	DebitForUnlockTx(ctx context.Context, tx pgx.Tx, providerID uuid.UUID, amountPaise int64, jobID uuid.UUID) (int64, error)
}

type service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{store: store, log: log}
}

var _ Service = (*service)(nil)

// GetWallet returns the balance and the ledger as one consistent pair. Every
// writer locks the wallet row before touching the ledger, so reading the list
// under the same lock guarantees the balance equals the signed sum a client
// computes from the transactions.
func (s *service) GetWallet(ctx context.Context, providerID uuid.UUID) (*Wallet, []*Transaction, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	w, err := s.store.GetByProviderIDForUpdateTx(ctx, tx, providerID)
	if err != nil {
		return nil, nil, err
	}
	txns, err := s.store.ListTransactionsTx(ctx, tx, w.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return w, txns, nil
}

// Recharge credits the wallet and records a recharge entry. Each call is a new
// credit; replay protection relies on externalRef (the payment gateway's
// reference): a second call with the same ref returns the current balance
// without crediting again.
func (s *service) Recharge(ctx context.Context, providerID uuid.UUID, amountPaise int64, externalRef, description string) (int64, error) {
	if amountPaise < MinRechargePaise || amountPaise > MaxRechargePaise {
		return 0, fmt.Errorf("%w: recharge must be between %d and %d paise", ErrInvalidAmount, MinRechargePaise, MaxRechargePaise)
	}
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	w, err := s.store.GetByProviderIDForUpdateTx(ctx, tx, providerID)
	if err != nil {
		return 0, err
	}
	entry := &Transaction{WalletID: w.ID, Type: TxTypeRecharge, AmountPaise: amountPaise, Description: description}
	if externalRef != "" {
		entry.ExternalRef = &externalRef
	}
	if err := s.store.InsertTransactionTx(ctx, tx, entry); err != nil {
		if errors.Is(err, ErrDuplicateExternalRef) {
			s.log.Info("recharge replayed, returning existing result", "provider_id", providerID, "external_ref", externalRef)
			return w.BalancePaise, nil
		}
		return 0, err
	}
	newBalance, err := s.store.CreditTx(ctx, tx, w.ID, amountPaise)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Refund credits back a previously debited amount, e.g. admin-initiated
// dispute resolution. Nothing triggers it automatically.
func (s *service) Refund(ctx context.Context, providerID uuid.UUID, amountPaise int64, jobID uuid.UUID, description string) (int64, error) {
	if amountPaise <= 0 {
		return 0, ErrInvalidAmount
	}
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	w, err := s.store.GetByProviderIDForUpdateTx(ctx, tx, providerID)
	if err != nil {
		return 0, err
	}
	newBalance, err := s.store.CreditTx(ctx, tx, w.ID, amountPaise)
	if err != nil {
		return 0, err
	}
	entry := &Transaction{WalletID: w.ID, Type: TxTypeRefund, AmountPaise: amountPaise, JobID: &jobID, Description: description}
	if err := s.store.InsertTransactionTx(ctx, tx, entry); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// DebitForUnlockTx runs inside the unlock authority's transaction so the debit
// commits or rolls back together with the job_unlocks insert and the counter
// increment. Fails with ErrInsufficientBalance when the balance doesn't cover
// the price.
func (s *service) DebitForUnlockTx(ctx context.Context, tx pgx.Tx, providerID uuid.UUID, amountPaise int64, jobID uuid.UUID) (int64, error) {
	if amountPaise <= 0 {
		return 0, ErrInvalidAmount
	}
	w, err := s.store.GetByProviderIDForUpdateTx(ctx, tx, providerID)
	if err != nil {
		return 0, err
	}
	newBalance, err := s.store.DebitTx(ctx, tx, w.ID, amountPaise)
	if err != nil {
		return 0, err
	}
	entry := &Transaction{WalletID: w.ID, Type: TxTypeUnlock, AmountPaise: amountPaise, JobID: &jobID, Description: "job unlock"}
	if err := s.store.InsertTransactionTx(ctx, tx, entry); err != nil {
		return 0, err
	}
	return newBalance, nil
}
