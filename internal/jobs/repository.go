package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrJobNotFound is returned when no job exists for the given id.
var ErrJobNotFound = errors.New("job not found")

// Job status values. open -> closed (close) and closed -> open (reopen) are
// the only transitions; no other states exist.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// DefaultMaxUnlocks is how many distinct providers may unlock a job.
const DefaultMaxUnlocks = 3

type Job struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Status      string    `json:"status"`
	UnlockCount int32     `json:"unlock_count"`
	MaxUnlocks  int32     `json:"max_unlocks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const jobColumns = `id, customer_id, title, category, description, location, latitude, longitude,
	status, unlock_count, max_unlocks, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *Repository) Create(ctx context.Context, j *Job) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO jobs (customer_id, title, category, description, location, latitude, longitude, max_unlocks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, unlock_count, created_at, updated_at
	`, j.CustomerID, j.Title, j.Category, j.Description, j.Location, j.Latitude, j.Longitude, j.MaxUnlocks).
		Scan(&j.ID, &j.Status, &j.UnlockCount, &j.CreatedAt, &j.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	return scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
}

// GetByIDForUpdateTx locks the job row. The unlock authority serializes the
// capacity check on this lock.
func (r *Repository) GetByIDForUpdateTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (*Job, error) {
	return scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, jobID))
}

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.CustomerID, &j.Title, &j.Category, &j.Description, &j.Location,
		&j.Latitude, &j.Longitude, &j.Status, &j.UnlockCount, &j.MaxUnlocks, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE customer_id = $1 ORDER BY created_at DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// SetStatus transitions the job and reports whether anything changed. The
// status guard in the WHERE clause is what makes close/reopen idempotent.
func (r *Repository) SetStatus(ctx context.Context, jobID uuid.UUID, status string) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE jobs SET status = $2, updated_at = now() WHERE id = $1 AND status <> $2
	`, jobID, status)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// IncrementUnlockCountTx bumps the unlock counter, guarded so it can never
// exceed max_unlocks. Returns false when the job is already at capacity.
func (r *Repository) IncrementUnlockCountTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE jobs SET unlock_count = unlock_count + 1, updated_at = now()
		WHERE id = $1 AND unlock_count < max_unlocks
	`, jobID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// FindOpenNearDuplicates returns the customer's open jobs in the same category
// whose title loosely matches. Advisory only; hire-again surfaces them as a
// warning, never as a hard block.
func (r *Repository) FindOpenNearDuplicates(ctx context.Context, customerID uuid.UUID, category, title string) ([]*Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE customer_id = $1 AND status = 'open' AND category = $2
		  AND (title ILIKE '%' || $3 || '%' OR $3 ILIKE '%' || title || '%')
		ORDER BY created_at DESC
	`, customerID, category, title)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]*Job, error) {
	var list []*Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.CustomerID, &j.Title, &j.Category, &j.Description, &j.Location,
			&j.Latitude, &j.Longitude, &j.Status, &j.UnlockCount, &j.MaxUnlocks, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &j)
	}
	return list, rows.Err()
}
