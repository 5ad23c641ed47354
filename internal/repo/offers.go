package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawkart/backend/internal/combo"
)

type OffersRepo struct {
	Pool *pgxpool.Pool
}

const offerColumns = `
id::text, product_ids::text[], original_price, combo_price, is_active, start_date, end_date
`

func (r OffersRepo) Get(ctx context.Context, id string) (combo.Offer, error) {
	const q = `SELECT ` + offerColumns + ` FROM combo_offers WHERE id = $1`
	o, err := scanOffer(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return combo.Offer{}, ErrNotFound
		}
		return combo.Offer{}, err
	}
	return o, nil
}

func (r OffersRepo) ListActive(ctx context.Context) ([]combo.Offer, error) {
	const q = `SELECT ` + offerColumns + ` FROM combo_offers WHERE is_active ORDER BY id`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []combo.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOffer(row pgx.Row) (combo.Offer, error) {
	var o combo.Offer
	err := row.Scan(
		&o.ID,
		&o.ProductIDs,
		&o.OriginalPrice,
		&o.ComboPrice,
		&o.IsActive,
		&o.StartDate,
		&o.EndDate,
	)
	return o, err
}
