package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawkart/backend/internal/coupon"
)

type CouponsRepo struct {
	Pool *pgxpool.Pool
}

const couponColumns = `
code, kind, amount, product_id::text, min_cart_total, min_quantity,
max_uses, used_count, expires_at, is_active
`

// GetByCode looks a coupon up by its normalized code.
func (r CouponsRepo) GetByCode(ctx context.Context, code string) (coupon.Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	c, err := scanCoupon(r.Pool.QueryRow(ctx, q, coupon.NormalizeCode(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.Coupon{}, coupon.ErrNotFound
		}
		return coupon.Coupon{}, err
	}
	return c, nil
}

// Create inserts an admin-defined coupon. The code is stored normalized and
// duplicates are rejected.
func (r CouponsRepo) Create(ctx context.Context, c coupon.Coupon) error {
	const q = `
INSERT INTO coupons (code, kind, amount, product_id, min_cart_total, min_quantity, max_uses, expires_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.Pool.Exec(ctx, q,
		coupon.NormalizeCode(c.Code), string(c.Kind), c.Amount, c.ProductID,
		c.MinCartTotal, c.MinQuantity, c.MaxUses, c.ExpiresAt, c.IsActive,
	)
	if isUniqueViolation(err) {
		return coupon.ErrDuplicateCode
	}
	return err
}

// HasUsage reports whether the customer key already redeemed the coupon.
func (r CouponsRepo) HasUsage(ctx context.Context, code, customerKey string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM coupon_usages WHERE coupon_code = $1 AND customer_key = $2)`
	var used bool
	err := r.Pool.QueryRow(ctx, q, coupon.NormalizeCode(code), customerKey).Scan(&used)
	return used, err
}

// RecordUsage inserts the usage row and bumps the coupon's counter inside
// the caller's transaction. The unique constraint on (coupon_code,
// customer_key) is what actually enforces single use under concurrency.
func RecordUsage(ctx context.Context, tx pgx.Tx, code, customerKey, orderID string) error {
	normalized := coupon.NormalizeCode(code)
	const insert = `
INSERT INTO coupon_usages (coupon_code, customer_key, order_id)
VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, insert, normalized, customerKey, orderID); err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrAlreadyUsed
		}
		return err
	}
	const bump = `UPDATE coupons SET used_count = used_count + 1 WHERE code = $1`
	_, err := tx.Exec(ctx, bump, normalized)
	return err
}

func scanCoupon(row pgx.Row) (coupon.Coupon, error) {
	var c coupon.Coupon
	var kind string
	err := row.Scan(
		&c.Code,
		&kind,
		&c.Amount,
		&c.ProductID,
		&c.MinCartTotal,
		&c.MinQuantity,
		&c.MaxUses,
		&c.UsedCount,
		&c.ExpiresAt,
		&c.IsActive,
	)
	c.Kind = coupon.Kind(kind)
	return c, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
