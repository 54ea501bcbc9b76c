package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskmandi/backend/internal/wallet"
)

// WalletStore is the ledger surface the admin credit path needs.
type WalletStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	GetByProviderIDForUpdateTx(ctx context.Context, tx pgx.Tx, providerID uuid.UUID) (*wallet.Wallet, error)
	CreditTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountPaise int64) (int64, error)
	InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *wallet.Transaction) error
}

// ActionLogStore records admin actions.
type ActionLogStore interface {
	InsertActionLogTx(ctx context.Context, tx pgx.Tx, l *ActionLog) error
}

type Service interface {
	AddBalance(ctx context.Context, adminID, providerID uuid.UUID, amountPaise int64, note string) (int64, error)
}

type service struct {
	wallets WalletStore
	logs    ActionLogStore
	log     *slog.Logger
}

func NewService(wallets WalletStore, logs ActionLogStore, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{wallets: wallets, logs: logs, log: log}
}

var _ Service = (*service)(nil)

// AddBalance is the administrative credit path: functionally a recharge, but
// recorded as an admin action. The ledger entry and the audit log commit in
// one transaction.
func (s *service) AddBalance(ctx context.Context, adminID, providerID uuid.UUID, amountPaise int64, note string) (int64, error) {
	if amountPaise <= 0 {
		return 0, wallet.ErrInvalidAmount
	}
	tx, err := s.wallets.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	w, err := s.wallets.GetByProviderIDForUpdateTx(ctx, tx, providerID)
	if err != nil {
		return 0, err
	}
	newBalance, err := s.wallets.CreditTx(ctx, tx, w.ID, amountPaise)
	if err != nil {
		return 0, err
	}
	desc := fmt.Sprintf("admin credit by %s", adminID)
	if note != "" {
		desc = desc + ": " + note
	}
	if err := s.wallets.InsertTransactionTx(ctx, tx, &wallet.Transaction{
		WalletID:    w.ID,
		Type:        wallet.TxTypeRecharge,
		AmountPaise: amountPaise,
		Description: desc,
	}); err != nil {
		return 0, err
	}
	if err := s.logs.InsertActionLogTx(ctx, tx, &ActionLog{
		AdminID:      adminID,
		Action:       ActionWalletCredit,
		TargetUserID: &providerID,
		AmountPaise:  &amountPaise,
		Detail:       note,
	}); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	s.log.Info("admin wallet credit applied", "admin_id", adminID, "provider_id", providerID, "amount_paise", amountPaise)
	return newBalance, nil
}
