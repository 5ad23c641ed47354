package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FavoritesRepo struct {
	Pool *pgxpool.Pool
}

func (r FavoritesRepo) Add(ctx context.Context, userID, productID string) error {
	const q = `
INSERT INTO favorites (user_id, product_id)
VALUES ($1, $2)
ON CONFLICT (user_id, product_id) DO NOTHING`
	_, err := r.Pool.Exec(ctx, q, userID, productID)
	return err
}

func (r FavoritesRepo) Remove(ctx context.Context, userID, productID string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return err
}

// List returns the favourited products that are still active.
func (r FavoritesRepo) List(ctx context.Context, userID string) ([]Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products p
JOIN favorites f ON f.product_id = p.id
WHERE f.user_id = $1 AND p.is_active
ORDER BY f.created_at DESC`
	rows, err := r.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r FavoritesRepo) Exists(ctx context.Context, userID, productID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`
	var exists bool
	err := r.Pool.QueryRow(ctx, q, userID, productID).Scan(&exists)
	return exists, err
}
