package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawkart/backend/internal/combo"
	"github.com/pawkart/backend/internal/coupon"
	"github.com/pawkart/backend/internal/shipping"
)

// Input gathers everything the total composer needs. Now is the explicit
// evaluation instant used for combo windows and coupon expiry; the function
// never reads a wall clock.
type Input struct {
	Items   []LineItem
	Profile DiscountProfile
	Offers  []combo.Offer
	Coupon  *coupon.Coupon
	Tiers   []shipping.Tier

	Region          shipping.Region
	HasSavedAddress bool

	FlatShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal

	Now time.Time
}

// ComputeOrderTotals is the single source of truth for order money. Cart
// view, checkout view and order creation all call it with their own data;
// given identical inputs it returns identical results.
//
// Steps, strictly ordered: resolve per-line effective prices, compute the
// combo discount from the offers' own prices, apply the coupon over the
// resolved totals, add shipping, then clamp the grand total at zero.
func ComputeOrderTotals(in Input) OrderTotals {
	totals := OrderTotals{EvaluatedAt: in.Now}

	subtotal := decimal.Zero
	totals.Lines = make([]ResolvedLine, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Qty <= 0 {
			continue
		}
		line := ResolveUnitPrice(item, in.Profile)
		totals.Lines = append(totals.Lines, line)
		subtotal = subtotal.Add(line.LineTotal())
	}
	totals.Subtotal = subtotal

	totals.ComboDiscount = combo.TotalDiscount(comboItems(in.Items), in.Offers, in.Now)
	totals.CouponDiscount = couponDiscount(in.Coupon, totals.Lines)
	totals.Shipping, totals.ShippingIsEstimate, totals.HasMultipleDeliveryDates = shippingCost(in, subtotal)

	total := subtotal.Sub(totals.ComboDiscount).Sub(totals.CouponDiscount).Add(totals.Shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}
	totals.Total = total
	return totals
}

func comboItems(items []LineItem) []combo.Item {
	out := make([]combo.Item, 0, len(items))
	for _, it := range items {
		if it.ComboOfferID == nil || *it.ComboOfferID == "" {
			continue
		}
		out = append(out, combo.Item{OfferID: *it.ComboOfferID, ProductID: it.ProductID, Qty: it.Qty})
	}
	return out
}

func couponDiscount(c *coupon.Coupon, lines []ResolvedLine) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	items := make([]coupon.Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, coupon.Item{ProductID: line.Item.ProductID, LineTotal: line.LineTotal()})
	}
	return coupon.Apply(*c, items)
}

func shippingCost(in Input, subtotal decimal.Decimal) (decimal.Decimal, bool, bool) {
	if in.Profile.CustomerType != CustomerSubscription {
		return shipping.FlatFee(subtotal, in.FlatShippingThreshold, in.FlatShippingFee), false, false
	}
	items := make([]shipping.Item, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, shipping.Item{WeightKg: it.WeightKg, Qty: it.Qty, DeliveryDate: it.RequestedDeliveryDate})
	}
	region := in.Region
	estimate := false
	if !in.HasSavedAddress {
		// Final cost depends on the checkout address; quote chennai fees
		// until one is chosen.
		region = shipping.RegionChennai
		estimate = true
	}
	quote := shipping.SubscriptionQuote(items, in.Tiers, region, estimate)
	return quote.Total, quote.IsEstimate, quote.HasMultipleDeliveryDates
}
