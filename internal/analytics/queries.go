package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGQuerier implements Querier over the orders tables.
type PGQuerier struct {
	Pool *pgxpool.Pool
}

func (q PGQuerier) SalesDaily(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	const sql = `
SELECT date_trunc('day', created_at) AS day,
       count(*) AS orders,
       COALESCE(sum(total), 0) AS revenue,
       COALESCE(sum(combo_discount + coupon_discount), 0) AS discounts
FROM orders
WHERE status <> 'cancelled' AND created_at >= $1 AND created_at < $2
GROUP BY 1
ORDER BY 1`
	rows, err := q.Pool.Query(ctx, sql, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.Orders, &d.Revenue, &d.Discounts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (q PGQuerier) TopProducts(ctx context.Context, limit, offset int32) ([]TopProduct, error) {
	const sql = `
SELECT i.product_id::text, i.product_name,
       sum(i.qty) AS qty_sold,
       COALESCE(sum(i.unit_effective * i.qty), 0) AS revenue
FROM order_items i
JOIN orders o ON o.id = i.order_id
WHERE o.status <> 'cancelled'
GROUP BY i.product_id, i.product_name
ORDER BY qty_sold DESC, revenue DESC
LIMIT $1 OFFSET $2`
	rows, err := q.Pool.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopProduct
	for rows.Next() {
		var t TopProduct
		if err := rows.Scan(&t.ProductID, &t.Name, &t.QtySold, &t.Revenue); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q PGQuerier) Overview(ctx context.Context, since time.Time) (Overview, error) {
	const sql = `
SELECT count(*),
       COALESCE(sum(total), 0),
       COALESCE(avg(total), 0),
       count(coupon_code)
FROM orders
WHERE status <> 'cancelled' AND created_at >= $1`
	var o Overview
	err := q.Pool.QueryRow(ctx, sql, since).Scan(&o.Orders, &o.Revenue, &o.AvgOrderValue, &o.CouponRedemptions)
	if err != nil {
		return Overview{}, err
	}
	o.AvgOrderValue = o.AvgOrderValue.Round(2)
	return o, nil
}
