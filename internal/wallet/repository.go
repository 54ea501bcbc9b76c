package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transaction types. Every balance change is one of these, recorded append-only.
const (
	TxTypeRecharge = "recharge"
	TxTypeUnlock   = "unlock"
	TxTypeRefund   = "refund"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDuplicateExternalRef signals a recharge replay: a transaction with the
	// same (wallet, external_ref) already exists.
	ErrDuplicateExternalRef = errors.New("duplicate external reference")
)

type Wallet struct {
	ID           uuid.UUID `json:"id"`
	ProviderID   uuid.UUID `json:"provider_id"`
	BalancePaise int64     `json:"balance_paise"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Transaction struct {
	ID          uuid.UUID  `json:"id"`
	WalletID    uuid.UUID  `json:"wallet_id"`
	Type        string     `json:"type"`
	AmountPaise int64      `json:"amount_paise"`
	JobID       *uuid.UUID `json:"job_id,omitempty"`
	ExternalRef *string    `json:"external_ref,omitempty"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateTx inserts a zero-balance wallet for a provider inside the caller's
// transaction. Called once, at provider-account creation.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, providerID uuid.UUID) error {
	_, err := tx.Exec(ctx, `INSERT INTO wallets (provider_id) VALUES ($1)`, providerID)
	return err
}

// GetByProviderIDForUpdateTx locks the wallet row. Call within a transaction.
func (r *Repository) GetByProviderIDForUpdateTx(ctx context.Context, tx pgx.Tx, providerID uuid.UUID) (*Wallet, error) {
	return scanWallet(tx.QueryRow(ctx, `
		SELECT id, provider_id, balance_paise, created_at, updated_at
		FROM wallets WHERE provider_id = $1 FOR UPDATE
	`, providerID))
}

func scanWallet(row pgx.Row) (*Wallet, error) {
	var w Wallet
	err := row.Scan(&w.ID, &w.ProviderID, &w.BalancePaise, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreditTx adds amount to the wallet and returns the new balance.
func (r *Repository) CreditTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountPaise int64) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE wallets SET balance_paise = balance_paise + $1, updated_at = now()
		WHERE id = $2
		RETURNING balance_paise
	`, amountPaise, walletID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrWalletNotFound
	}
	return newBalance, err
}

// DebitTx atomically deducts amount if the balance covers it. The condition in
// the UPDATE is what guarantees the balance can never go negative.
func (r *Repository) DebitTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountPaise int64) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE wallets SET balance_paise = balance_paise - $1, updated_at = now()
		WHERE id = $2 AND balance_paise >= $1
		RETURNING balance_paise
	`, amountPaise, walletID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientBalance
	}
	return newBalance, err
}

// InsertTransactionTx appends a ledger entry inside the given transaction.
// A unique-violation on the (wallet_id, external_ref) index maps to
// ErrDuplicateExternalRef so the service can treat the recharge as a replay.
func (r *Repository) InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *Transaction) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO wallet_transactions (wallet_id, type, amount_paise, job_id, external_ref, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, t.WalletID, t.Type, t.AmountPaise, t.JobID, t.ExternalRef, t.Description).Scan(&t.ID, &t.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateExternalRef
	}
	return err
}

// ListTransactionsTx reads the ledger inside the caller's transaction so the
// list matches a balance read in the same transaction.
func (r *Repository) ListTransactionsTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) ([]*Transaction, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, wallet_id, type, amount_paise, job_id, external_ref, description, created_at
		FROM wallet_transactions WHERE wallet_id = $1 ORDER BY created_at DESC
	`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &t.AmountPaise, &t.JobID, &t.ExternalRef, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
