package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawkart/backend/internal/pricing"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CustomerType pricing.CustomerType
	Role         string
	CreatedAt    time.Time
}

type UsersRepo struct {
	Pool *pgxpool.Pool
}

func (r UsersRepo) Get(ctx context.Context, id string) (User, error) {
	const q = `
SELECT id::text, name, email, password_hash, customer_type, role, created_at
FROM users WHERE id = $1`
	return r.scanOne(r.Pool.QueryRow(ctx, q, id))
}

func (r UsersRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `
SELECT id::text, name, email, password_hash, customer_type, role, created_at
FROM users WHERE email = $1`
	return r.scanOne(r.Pool.QueryRow(ctx, q, email))
}

// CustomerType resolves the pricing tier for a user id. Unknown users price
// as regular customers.
func (r UsersRepo) CustomerType(ctx context.Context, id string) (pricing.CustomerType, error) {
	if id == "" {
		return pricing.CustomerRegular, nil
	}
	const q = `SELECT customer_type FROM users WHERE id = $1`
	var ct string
	if err := r.Pool.QueryRow(ctx, q, id).Scan(&ct); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.CustomerRegular, nil
		}
		return pricing.CustomerRegular, err
	}
	return pricing.CustomerType(ct), nil
}

// Create inserts a user; used by the seeder.
func (r UsersRepo) Create(ctx context.Context, u User) (string, error) {
	const q = `
INSERT INTO users (name, email, password_hash, customer_type, role)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text`
	var id string
	err := r.Pool.QueryRow(ctx, q, u.Name, u.Email, u.PasswordHash, string(u.CustomerType), u.Role).Scan(&id)
	return id, err
}

func (r UsersRepo) scanOne(row pgx.Row) (User, error) {
	var u User
	var ct string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &ct, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.CustomerType = pricing.CustomerType(ct)
	return u, nil
}
