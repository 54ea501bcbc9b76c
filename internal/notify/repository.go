package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) InsertNotification(ctx context.Context, userID uuid.UUID, kind string, payload json.RawMessage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (user_id, kind, payload) VALUES ($1, $2, $3)
	`, userID, kind, payload)
	return err
}
