// Package shipping computes delivery fees: a flat threshold rule for regular
// customers and a weight-tiered, per-delivery-date schedule for subscribers.
package shipping

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Region keys the fee column of a delivery tier.
type Region string

const (
	RegionChennai  Region = "chennai"
	RegionPanIndia Region = "panIndia"
)

// RegionForCity maps a shipping city to a fee region.
func RegionForCity(city string) Region {
	if strings.Contains(strings.ToLower(city), "chennai") {
		return RegionChennai
	}
	return RegionPanIndia
}

// Tier is one row of the subscription delivery fee table. Tiers partition the
// weight axis by their ascending UpToWeightKg bounds.
type Tier struct {
	Label        string
	UpToWeightKg decimal.Decimal
	ChennaiFee   decimal.Decimal
	PanIndiaFee  decimal.Decimal
	IsActive     bool
}

func (t Tier) fee(region Region) decimal.Decimal {
	if region == RegionChennai {
		return t.ChennaiFee
	}
	return t.PanIndiaFee
}

// Item carries the weight contribution of a cart line. DeliveryDate is the
// customer-requested date in YYYY-MM-DD form; empty means unscheduled.
type Item struct {
	WeightKg     decimal.Decimal
	Qty          int
	DeliveryDate string
}

// Quote is the computed shipping cost plus the signals the UI needs.
type Quote struct {
	Total                    decimal.Decimal
	IsEstimate               bool
	HasMultipleDeliveryDates bool
	GroupFees                map[string]decimal.Decimal
}

// FlatFee applies the non-subscription rule: free at or above the threshold,
// a fixed fee below it.
func FlatFee(subtotal, threshold, fee decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(threshold) {
		return decimal.Zero
	}
	return fee
}

// SubscriptionQuote groups items by requested delivery date, weighs each
// group and charges the first active tier whose bound covers the group
// weight. Group weights beyond every tier fall back to the highest tier.
func SubscriptionQuote(items []Item, tiers []Tier, region Region, isEstimate bool) Quote {
	quote := Quote{Total: decimal.Zero, IsEstimate: isEstimate, GroupFees: map[string]decimal.Decimal{}}

	groups := make(map[string]decimal.Decimal)
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		key := it.DeliveryDate
		groups[key] = groups[key].Add(it.WeightKg.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	if len(groups) == 0 {
		return quote
	}

	if len(groups) > 1 {
		quote.HasMultipleDeliveryDates = true
	} else {
		for key := range groups {
			quote.HasMultipleDeliveryDates = key != ""
		}
	}

	active := activeAscending(tiers)
	for key, weight := range groups {
		fee := tierFee(weight, active, region)
		quote.GroupFees[key] = fee
		quote.Total = quote.Total.Add(fee)
	}
	return quote
}

func activeAscending(tiers []Tier) []Tier {
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.IsActive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpToWeightKg.LessThan(out[j].UpToWeightKg)
	})
	return out
}

func tierFee(weight decimal.Decimal, tiers []Tier, region Region) decimal.Decimal {
	if len(tiers) == 0 || !weight.IsPositive() {
		return decimal.Zero
	}
	for _, t := range tiers {
		if t.UpToWeightKg.GreaterThanOrEqual(weight) {
			return t.fee(region)
		}
	}
	return tiers[len(tiers)-1].fee(region)
}
