package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ResolveUnitPrice computes the effective unit price for a line item under the
// provided discount profile. All rounding is half-up to two decimal places and
// happens at the unit level, before multiplying by quantity.
func ResolveUnitPrice(item LineItem, profile DiscountProfile) ResolvedLine {
	saleActive := item.SaleActive()
	current := item.UnitBasePrice
	if saleActive {
		current = *item.UnitSalePrice
	}
	original := current.Round(2)

	resolved := ResolvedLine{Item: item, UnitOriginal: original, UnitEffective: original}
	if profile.CustomerType != CustomerSubscription {
		return resolved
	}

	discount := resolveDiscount(item.CategoryID, saleActive, profile)
	if !discount.Usable() {
		return resolved
	}

	effective := applyDiscount(current, discount)
	resolved.UnitEffective = effective
	// Strict post-rounding comparison: a discount that rounds away is not a discount.
	resolved.HasDiscount = effective.LessThan(original)
	return resolved
}

// resolveDiscount picks the applicable discount tuple by priority: the
// category-specific entry wins over the profile-level fallback. Sale and
// non-sale discounts never substitute for one another: an on-sale item only
// consults sale discounts at both levels.
func resolveDiscount(categoryID string, saleActive bool, profile DiscountProfile) Discount {
	if entry, ok := profile.categoryEntry(categoryID); ok {
		d := entry.Discount
		if saleActive {
			d = entry.SaleDiscount
		}
		if d.Usable() {
			return d
		}
	}
	if saleActive {
		return profile.SaleDiscount
	}
	return profile.Discount
}

func applyDiscount(price decimal.Decimal, d Discount) decimal.Decimal {
	var out decimal.Decimal
	switch d.Kind {
	case KindPercentage:
		out = price.Mul(decimal.NewFromInt(1).Sub(d.Value.Div(hundred)))
	case KindFixed:
		out = price.Sub(d.Value)
	default:
		out = price
	}
	if out.IsNegative() {
		out = decimal.Zero
	}
	return out.Round(2)
}
