package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawkart/backend/internal/pricing"
)

type ProfilesRepo struct {
	Pool *pgxpool.Pool
}

// GetByCustomerType loads the discount profile and its category overrides.
// A customer type without a stored profile gets an empty profile, which the
// resolver treats as "no discounts".
func (r ProfilesRepo) GetByCustomerType(ctx context.Context, ct pricing.CustomerType) (pricing.DiscountProfile, error) {
	profile := pricing.DiscountProfile{CustomerType: ct}

	const q = `
SELECT discount_kind, discount_value, sale_discount_kind, sale_discount_value
FROM discount_profiles
WHERE customer_type = $1 AND is_active`
	rows, err := r.Pool.Query(ctx, q, string(ct))
	if err != nil {
		return profile, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(
			&profile.Discount.Kind,
			&profile.Discount.Value,
			&profile.SaleDiscount.Kind,
			&profile.SaleDiscount.Value,
		); err != nil {
			return profile, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return profile, err
	}

	const categories = `
SELECT c.category_id::text,
       c.discount_kind, c.discount_value,
       c.sale_discount_kind, c.sale_discount_value
FROM discount_profile_categories c
JOIN discount_profiles p ON p.id = c.profile_id
WHERE p.customer_type = $1 AND p.is_active`
	catRows, err := r.Pool.Query(ctx, categories, string(ct))
	if err != nil {
		return profile, err
	}
	defer catRows.Close()
	for catRows.Next() {
		var cd pricing.CategoryDiscount
		if err := catRows.Scan(
			&cd.CategoryID,
			&cd.Discount.Kind,
			&cd.Discount.Value,
			&cd.SaleDiscount.Kind,
			&cd.SaleDiscount.Value,
		); err != nil {
			return profile, err
		}
		profile.CategoryDiscounts = append(profile.CategoryDiscounts, cd)
	}
	return profile, catRows.Err()
}
