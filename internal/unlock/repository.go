package unlock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyUnlocked is returned when the (job, provider) pair already has an
// unlock record. The primary key on job_unlocks is what rejects the race.
var ErrAlreadyUnlocked = errors.New("job already unlocked by this provider")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertTx records the unlock inside the authority's transaction.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, jobID, providerID uuid.UUID, amountPaise int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO job_unlocks (job_id, provider_id, amount_paise) VALUES ($1, $2, $3)
	`, jobID, providerID, amountPaise)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyUnlocked
	}
	return err
}
