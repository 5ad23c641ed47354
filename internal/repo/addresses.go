package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Address struct {
	ID        string
	UserID    string
	Line1     string
	Line2     *string
	City      string
	State     string
	Pincode   string
	IsDefault bool
}

type AddressesRepo struct {
	Pool *pgxpool.Pool
}

// Default returns the user's default address, or the most recent one when
// none is flagged. ErrNotFound means shipping must be quoted as an estimate.
func (r AddressesRepo) Default(ctx context.Context, userID string) (Address, error) {
	const q = `
SELECT id::text, user_id::text, line1, line2, city, state, pincode, is_default
FROM addresses
WHERE user_id = $1
ORDER BY is_default DESC, created_at DESC
LIMIT 1`
	var a Address
	err := r.Pool.QueryRow(ctx, q, userID).Scan(
		&a.ID, &a.UserID, &a.Line1, &a.Line2, &a.City, &a.State, &a.Pincode, &a.IsDefault,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, ErrNotFound
		}
		return Address{}, err
	}
	return a, nil
}

// List returns the user's addresses, default first.
func (r AddressesRepo) List(ctx context.Context, userID string) ([]Address, error) {
	const q = `
SELECT id::text, user_id::text, line1, line2, city, state, pincode, is_default
FROM addresses
WHERE user_id = $1
ORDER BY is_default DESC, created_at DESC`
	rows, err := r.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Line1, &a.Line2, &a.City, &a.State, &a.Pincode, &a.IsDefault); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts an address. Marking it default clears the flag on the
// user's other addresses first.
func (r AddressesRepo) Create(ctx context.Context, a Address) (string, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if a.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = false WHERE user_id = $1`, a.UserID); err != nil {
			return "", err
		}
	}
	const q = `
INSERT INTO addresses (user_id, line1, line2, city, state, pincode, is_default)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id::text`
	var id string
	if err := tx.QueryRow(ctx, q, a.UserID, a.Line1, a.Line2, a.City, a.State, a.Pincode, a.IsDefault).Scan(&id); err != nil {
		return "", err
	}
	return id, tx.Commit(ctx)
}

// Update modifies one of the user's addresses.
func (r AddressesRepo) Update(ctx context.Context, a Address) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if a.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = false WHERE user_id = $1 AND id <> $2`, a.UserID, a.ID); err != nil {
			return err
		}
	}
	const q = `
UPDATE addresses
SET line1 = $3, line2 = $4, city = $5, state = $6, pincode = $7, is_default = $8
WHERE id = $1 AND user_id = $2`
	tag, err := tx.Exec(ctx, q, a.ID, a.UserID, a.Line1, a.Line2, a.City, a.State, a.Pincode, a.IsDefault)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// Delete removes one of the user's addresses.
func (r AddressesRepo) Delete(ctx context.Context, addressID, userID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
