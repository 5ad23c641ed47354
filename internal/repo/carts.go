package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cart is a stored cart. OwnerKey is either "user:<id>" or "session:<id>".
type Cart struct {
	ID         string
	OwnerKey   string
	CouponCode *string
	UpdatedAt  time.Time
	Items      []CartItem
}

type CartItem struct {
	ID           string
	ProductID    string
	VariantID    *string
	Qty          int32
	ComboOfferID *string
	DeliveryDate *string
}

type CartsRepo struct {
	Pool *pgxpool.Pool
}

// Ensure returns the owner's cart, creating an empty one when absent.
func (r CartsRepo) Ensure(ctx context.Context, ownerKey string) (Cart, error) {
	const q = `
INSERT INTO carts (owner_key)
VALUES ($1)
ON CONFLICT (owner_key) DO UPDATE SET updated_at = now()
RETURNING id::text, owner_key, coupon_code, updated_at`
	var c Cart
	if err := r.Pool.QueryRow(ctx, q, ownerKey).Scan(&c.ID, &c.OwnerKey, &c.CouponCode, &c.UpdatedAt); err != nil {
		return Cart{}, err
	}
	items, err := r.items(ctx, c.ID)
	if err != nil {
		return Cart{}, err
	}
	c.Items = items
	return c, nil
}

func (r CartsRepo) Get(ctx context.Context, ownerKey string) (Cart, error) {
	const q = `SELECT id::text, owner_key, coupon_code, updated_at FROM carts WHERE owner_key = $1`
	var c Cart
	err := r.Pool.QueryRow(ctx, q, ownerKey).Scan(&c.ID, &c.OwnerKey, &c.CouponCode, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}
	c.Items, err = r.items(ctx, c.ID)
	return c, err
}

// AddItem upserts a cart line. The same product under a different combo
// offer or delivery date is a distinct line.
func (r CartsRepo) AddItem(ctx context.Context, cartID string, item CartItem) error {
	const q = `
INSERT INTO cart_items (cart_id, product_id, variant_id, qty, combo_offer_id, delivery_date)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (cart_id, product_id, COALESCE(variant_id, ''), COALESCE(combo_offer_id, ''), COALESCE(delivery_date, ''))
DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty`
	_, err := r.Pool.Exec(ctx, q, cartID, item.ProductID, item.VariantID, item.Qty, item.ComboOfferID, item.DeliveryDate)
	if err == nil {
		err = r.touch(ctx, cartID)
	}
	return err
}

// SetItemQty updates a line's quantity. Quantities below one remove the line.
func (r CartsRepo) SetItemQty(ctx context.Context, cartID, itemID string, qty int32) error {
	if qty < 1 {
		return r.RemoveItem(ctx, cartID, itemID)
	}
	const q = `UPDATE cart_items SET qty = $1 WHERE id = $2 AND cart_id = $3`
	cmd, err := r.Pool.Exec(ctx, q, qty, itemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return r.touch(ctx, cartID)
}

func (r CartsRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	const q = `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`
	cmd, err := r.Pool.Exec(ctx, q, itemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return r.touch(ctx, cartID)
}

// SetCoupon replaces any applied coupon; coupons never stack.
func (r CartsRepo) SetCoupon(ctx context.Context, cartID string, code *string) error {
	const q = `UPDATE carts SET coupon_code = $1, updated_at = now() WHERE id = $2`
	cmd, err := r.Pool.Exec(ctx, q, code, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Merge folds a guest cart into the user's cart on sign-in. Guest lines are
// added to the user cart and the guest cart is dropped. The user cart's
// coupon wins; the guest coupon is only kept when the user has none.
func (r CartsRepo) Merge(ctx context.Context, guestKey, userKey string) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var guestID string
	var guestCoupon *string
	err = tx.QueryRow(ctx, `SELECT id::text, coupon_code FROM carts WHERE owner_key = $1`, guestKey).
		Scan(&guestID, &guestCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	var userID string
	err = tx.QueryRow(ctx, `
INSERT INTO carts (owner_key) VALUES ($1)
ON CONFLICT (owner_key) DO UPDATE SET updated_at = now()
RETURNING id::text`, userKey).Scan(&userID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, variant_id, qty, combo_offer_id, delivery_date)
SELECT $1, product_id, variant_id, qty, combo_offer_id, delivery_date
FROM cart_items WHERE cart_id = $2
ON CONFLICT (cart_id, product_id, COALESCE(variant_id, ''), COALESCE(combo_offer_id, ''), COALESCE(delivery_date, ''))
DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty`, userID, guestID)
	if err != nil {
		return err
	}

	if guestCoupon != nil {
		_, err = tx.Exec(ctx, `
UPDATE carts SET coupon_code = COALESCE(coupon_code, $1) WHERE id = $2`, guestCoupon, userID)
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, guestID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Clear empties the cart after a successful order.
func (r CartsRepo) Clear(ctx context.Context, cartID string) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET coupon_code = NULL, updated_at = now() WHERE id = $1`, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PurgeStale removes carts idle for longer than ttl. Returns the number
// removed; run from the background worker.
func (r CartsRepo) PurgeStale(ctx context.Context, ttl time.Duration) (int64, error) {
	const q = `DELETE FROM carts WHERE updated_at < now() - $1::interval`
	cmd, err := r.Pool.Exec(ctx, q, ttl.String())
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r CartsRepo) touch(ctx context.Context, cartID string) error {
	_, err := r.Pool.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}

func (r CartsRepo) items(ctx context.Context, cartID string) ([]CartItem, error) {
	const q = `
SELECT id::text, product_id::text, variant_id::text, qty, combo_offer_id::text, delivery_date
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at ASC`
	rows, err := r.Pool.Query(ctx, q, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.VariantID, &it.Qty, &it.ComboOfferID, &it.DeliveryDate); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
