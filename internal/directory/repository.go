package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound is returned when no user exists for the given id or email.
var ErrUserNotFound = errors.New("user not found")

// User roles and subscription tiers.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"

	TierFree = "free"
	TierPro  = "pro"
)

type User struct {
	ID               uuid.UUID
	Email            string
	Name             string
	Phone            string
	Role             string
	SubscriptionTier string
	CreatedAt        time.Time
}

// Contact is the minimum payload disclosed to a provider after a successful unlock.
type Contact struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, phone, role, subscription_tier, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.SubscriptionTier, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user and password hash for login.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, string, error) {
	var u User
	var passwordHash string
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, phone, role, subscription_tier, created_at, password_hash
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.SubscriptionTier, &u.CreatedAt, &passwordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &u, passwordHash, nil
}

// CreateTx inserts a user inside the given transaction so callers can create
// dependent rows (e.g. a provider's wallet) atomically.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, email, passwordHash, name, phone, role string) (*User, error) {
	u := User{Email: email, Name: name, Phone: phone, Role: role}
	err := tx.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, subscription_tier, created_at
	`, email, passwordHash, name, phone, role).Scan(&u.ID, &u.SubscriptionTier, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
