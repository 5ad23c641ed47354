package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawkart/backend/internal/shipping"
)

type TiersRepo struct {
	Pool *pgxpool.Pool
}

// ListActive returns delivery fee tiers ordered by weight bound ascending,
// the order tier selection expects.
func (r TiersRepo) ListActive(ctx context.Context) ([]shipping.Tier, error) {
	const q = `
SELECT label, up_to_weight_kg, chennai_fee, pan_india_fee, is_active
FROM delivery_fee_tiers
WHERE is_active
ORDER BY up_to_weight_kg ASC`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shipping.Tier
	for rows.Next() {
		var t shipping.Tier
		if err := rows.Scan(&t.Label, &t.UpToWeightKg, &t.ChennaiFee, &t.PanIndiaFee, &t.IsActive); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
