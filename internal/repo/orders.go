package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Order statuses form a small linear machine; cancellation is only allowed
// before fulfilment starts.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

var ErrOrderNotCancellable = errors.New("order can no longer be cancelled")

type Order struct {
	ID             string
	UserID         *string
	GuestEmail     *string
	Status         string
	Subtotal       decimal.Decimal
	ComboDiscount  decimal.Decimal
	CouponDiscount decimal.Decimal
	CouponCode     *string
	Shipping       decimal.Decimal
	GSTAmount      decimal.Decimal
	Total          decimal.Decimal
	Currency       string
	PaymentRef     *string
	CreatedAt      time.Time
	Items          []OrderItem
}

// OrderItem snapshots everything pricing resolved at purchase time so later
// catalog edits never change what the customer was charged.
type OrderItem struct {
	ID            string
	ProductID     string
	ProductName   string
	VariantID     *string
	Qty           int32
	UnitOriginal  decimal.Decimal
	UnitEffective decimal.Decimal
	HasDiscount   bool
	ComboOfferID  *string
	DeliveryDate  *string
	GSTRateBps    int32
}

type OrdersRepo struct {
	Pool *pgxpool.Pool
}

// CreateParams carries everything the order transaction persists.
type CreateParams struct {
	Order       Order
	CouponCode  *string
	CustomerKey string
}

// Create persists the order, its item snapshots and, when a coupon was
// applied, the usage record plus counter bump, all in one transaction.
// A duplicate usage row aborts the whole order with coupon.ErrAlreadyUsed.
func (r OrdersRepo) Create(ctx context.Context, p CreateParams) (Order, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx)

	o := p.Order
	const insertOrder = `
INSERT INTO orders (user_id, guest_email, status, subtotal, combo_discount,
	coupon_discount, coupon_code, shipping, gst_amount, total, currency, payment_ref)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id::text, created_at`
	err = tx.QueryRow(ctx, insertOrder,
		o.UserID, o.GuestEmail, OrderStatusPending, o.Subtotal, o.ComboDiscount,
		o.CouponDiscount, o.CouponCode, o.Shipping, o.GSTAmount, o.Total, o.Currency, o.PaymentRef,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Status = OrderStatusPending

	const insertItem = `
INSERT INTO order_items (order_id, product_id, product_name, variant_id, qty,
	unit_original, unit_effective, has_discount, combo_offer_id, delivery_date, gst_rate_bps)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id::text`
	for i := range o.Items {
		it := &o.Items[i]
		err = tx.QueryRow(ctx, insertItem,
			o.ID, it.ProductID, it.ProductName, it.VariantID, it.Qty,
			it.UnitOriginal, it.UnitEffective, it.HasDiscount, it.ComboOfferID, it.DeliveryDate, it.GSTRateBps,
		).Scan(&it.ID)
		if err != nil {
			return Order{}, err
		}
	}

	if p.CouponCode != nil && p.CustomerKey != "" {
		if err := RecordUsage(ctx, tx, *p.CouponCode, p.CustomerKey, o.ID); err != nil {
			return Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

const orderColumns = `
id::text, user_id::text, guest_email, status, subtotal, combo_discount,
coupon_discount, coupon_code, shipping, gst_amount, total, currency, payment_ref, created_at
`

func (r OrdersRepo) Get(ctx context.Context, id string) (Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	o.Items, err = r.itemsFor(ctx, o.ID)
	return o, err
}

// GetForUser is Get scoped to the owning user so customers cannot read each
// other's orders.
func (r OrdersRepo) GetForUser(ctx context.Context, id, userID string) (Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	o, err := scanOrder(r.Pool.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	o.Items, err = r.itemsFor(ctx, o.ID)
	return o, err
}

func (r OrdersRepo) ListForUser(ctx context.Context, userID string, limit, offset int32) ([]Order, error) {
	const q = `SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.Pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Cancel moves a pending or confirmed order to cancelled.
func (r OrdersRepo) Cancel(ctx context.Context, id, userID string) error {
	const q = `
UPDATE orders SET status = $1
WHERE id = $2 AND user_id = $3 AND status IN ($4, $5)`
	cmd, err := r.Pool.Exec(ctx, q, OrderStatusCancelled, id, userID, OrderStatusPending, OrderStatusConfirmed)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, getErr := r.GetForUser(ctx, id, userID); getErr != nil {
			return getErr
		}
		return ErrOrderNotCancellable
	}
	return nil
}

// MarkConfirmed transitions a pending order after payment verification.
func (r OrdersRepo) MarkConfirmed(ctx context.Context, id, paymentRef string) error {
	const q = `
UPDATE orders SET status = $1, payment_ref = $2
WHERE id = $3 AND status = $4`
	cmd, err := r.Pool.Exec(ctx, q, OrderStatusConfirmed, paymentRef, id, OrderStatusPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r OrdersRepo) itemsFor(ctx context.Context, orderID string) ([]OrderItem, error) {
	const q = `
SELECT id::text, product_id::text, product_name, variant_id::text, qty,
	unit_original, unit_effective, has_discount, combo_offer_id::text, delivery_date, gst_rate_bps
FROM order_items
WHERE order_id = $1
ORDER BY created_at ASC`
	rows, err := r.Pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.ProductID, &it.ProductName, &it.VariantID, &it.Qty,
			&it.UnitOriginal, &it.UnitEffective, &it.HasDiscount, &it.ComboOfferID, &it.DeliveryDate, &it.GSTRateBps,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.GuestEmail, &o.Status, &o.Subtotal, &o.ComboDiscount,
		&o.CouponDiscount, &o.CouponCode, &o.Shipping, &o.GSTAmount, &o.Total,
		&o.Currency, &o.PaymentRef, &o.CreatedAt,
	)
	return o, err
}
