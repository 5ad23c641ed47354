package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Product is the catalog row pricing needs: base and sale prices, the sale
// window, logistics weight and the GST rate snapshotted onto orders.
type Product struct {
	ID            string
	Name          string
	CategoryID    string
	BasePrice     decimal.Decimal
	SalePrice     *decimal.Decimal
	SaleStartsAt  *time.Time
	SaleEndsAt    *time.Time
	WeightKg      decimal.Decimal
	GSTRateBps    int32
	IsActive      bool
	StockQuantity int32
}

// SaleActiveAt reports whether the product's sale price applies at the
// given instant.
func (p Product) SaleActiveAt(now time.Time) bool {
	if p.SalePrice == nil {
		return false
	}
	if p.SaleStartsAt != nil && now.Before(*p.SaleStartsAt) {
		return false
	}
	if p.SaleEndsAt != nil && now.After(*p.SaleEndsAt) {
		return false
	}
	return true
}

type ProductsRepo struct {
	Pool *pgxpool.Pool
}

const productColumns = `
id::text, name, category_id::text, base_price, sale_price,
sale_starts_at, sale_ends_at, weight_kg, gst_rate_bps, is_active, stock_quantity
`

func (r ProductsRepo) Get(ctx context.Context, id string) (Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	row := r.Pool.QueryRow(ctx, q, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// ListByIDs returns the products for the given ids keyed by id. Missing ids
// are simply absent from the map.
func (r ProductsRepo) ListByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	if len(ids) == 0 {
		return map[string]Product{}, nil
	}
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	rows, err := r.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r ProductsRepo) ListActive(ctx context.Context, limit, offset int32) ([]Product, error) {
	const q = `SELECT ` + productColumns + `
FROM products
WHERE is_active
ORDER BY name ASC
LIMIT $1 OFFSET $2`
	rows, err := r.Pool.Query(ctx, q, limit, offset)
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

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.CategoryID,
		&p.BasePrice,
		&p.SalePrice,
		&p.SaleStartsAt,
		&p.SaleEndsAt,
		&p.WeightKg,
		&p.GSTRateBps,
		&p.IsActive,
		&p.StockQuantity,
	)
	return p, err
}
