// Package combo detects complete combo-offer sets in a cart and computes the
// aggregate discount they earn.
package combo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer describes a combo promotion: buying every product in ProductIDs
// together earns the difference between OriginalPrice and ComboPrice.
type Offer struct {
	ID            string
	ProductIDs    []string
	OriginalPrice decimal.Decimal
	ComboPrice    decimal.Decimal
	IsActive      bool
	StartDate     *time.Time
	EndDate       *time.Time
}

// ActiveAt reports whether the offer is live at the given instant.
func (o Offer) ActiveAt(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if o.StartDate != nil && o.StartDate.After(now) {
		return false
	}
	if o.EndDate != nil && o.EndDate.Before(now) {
		return false
	}
	return true
}

// PerSetDiscount returns the discount one complete set earns, clamped at zero.
func (o Offer) PerSetDiscount() decimal.Decimal {
	d := o.OriginalPrice.Sub(o.ComboPrice)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Item is a cart line tagged with the combo offer it was added under.
type Item struct {
	OfferID   string
	ProductID string
	Qty       int
}

// TotalDiscount sums the combo discount across all offer groups in the cart.
// Items referencing a missing, inactive or out-of-window offer contribute
// nothing; carts can outlive offer campaigns so that is not an error.
func TotalDiscount(items []Item, offers []Offer, now time.Time) decimal.Decimal {
	byID := make(map[string]Offer, len(offers))
	for _, o := range offers {
		byID[o.ID] = o
	}

	groups := make(map[string]map[string]int)
	for _, it := range items {
		if it.OfferID == "" || it.Qty <= 0 {
			continue
		}
		g, ok := groups[it.OfferID]
		if !ok {
			g = make(map[string]int)
			groups[it.OfferID] = g
		}
		g[it.ProductID] += it.Qty
	}

	total := decimal.Zero
	for offerID, qtyByProduct := range groups {
		offer, ok := byID[offerID]
		if !ok || !offer.ActiveAt(now) || len(offer.ProductIDs) == 0 {
			continue
		}
		sets := completeSets(offer, qtyByProduct)
		if sets <= 0 {
			continue
		}
		total = total.Add(offer.PerSetDiscount().Mul(decimal.NewFromInt(int64(sets))))
	}
	return total
}

// completeSets returns the number of whole sets purchasable: the minimum
// quantity across every required product, or zero when any is absent.
func completeSets(offer Offer, qtyByProduct map[string]int) int {
	sets := 0
	for i, pid := range offer.ProductIDs {
		qty := qtyByProduct[pid]
		if qty <= 0 {
			return 0
		}
		if i == 0 || qty < sets {
			sets = qty
		}
	}
	return sets
}
