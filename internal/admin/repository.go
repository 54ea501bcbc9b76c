package admin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Admin action names recorded in admin_action_logs.
const ActionWalletCredit = "wallet_credit"

type ActionLog struct {
	ID           uuid.UUID  `json:"id"`
	AdminID      uuid.UUID  `json:"admin_id"`
	Action       string     `json:"action"`
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty"`
	AmountPaise  *int64     `json:"amount_paise,omitempty"`
	Detail       string     `json:"detail"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertActionLogTx appends the audit record inside the caller's transaction
// so the credit and its log commit together.
func (r *Repository) InsertActionLogTx(ctx context.Context, tx pgx.Tx, l *ActionLog) error {
	return tx.QueryRow(ctx, `
		INSERT INTO admin_action_logs (admin_id, action, target_user_id, amount_paise, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, l.AdminID, l.Action, l.TargetUserID, l.AmountPaise, l.Detail).Scan(&l.ID, &l.CreatedAt)
}

// FindActiveByKeyHash satisfies middleware.AdminKeyRepo.
func (r *Repository) FindActiveByKeyHash(ctx context.Context, keyHash string) error {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM admin_api_keys WHERE key_hash = $1 AND is_active
	`, keyHash).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.New("unknown admin api key")
	}
	return err
}
