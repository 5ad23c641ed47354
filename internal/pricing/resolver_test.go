package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func subscriptionProfile(mutate func(*DiscountProfile)) DiscountProfile {
	p := DiscountProfile{CustomerType: CustomerSubscription}
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func TestNonSubscriptionGetsNoDiscount(t *testing.T) {
	item := LineItem{ProductID: "p1", CategoryID: "treats", Qty: 1, UnitBasePrice: dec("1000")}
	for _, ct := range []CustomerType{CustomerRegular, CustomerRetailer, CustomerDistributor, CustomerSelfEmployed} {
		line := ResolveUnitPrice(item, DiscountProfile{CustomerType: ct})
		if !line.UnitEffective.Equal(dec("1000")) || line.HasDiscount {
			t.Fatalf("%s: expected 1000 with no discount, got %s discount=%v", ct, line.UnitEffective, line.HasDiscount)
		}
	}
}

func TestCategoryOverrideBeatsProfileDiscount(t *testing.T) {
	profile := subscriptionProfile(func(p *DiscountProfile) {
		p.Discount = Discount{Kind: KindPercentage, Value: dec("50")}
		p.CategoryDiscounts = []CategoryDiscount{{
			CategoryID: "treats",
			Discount:   Discount{Kind: KindPercentage, Value: dec("10")},
		}}
	})
	item := LineItem{ProductID: "p1", CategoryID: "treats", Qty: 1, UnitBasePrice: dec("1000")}
	line := ResolveUnitPrice(item, profile)
	if !line.UnitEffective.Equal(dec("900")) {
		t.Fatalf("expected category discount to win: got %s", line.UnitEffective)
	}
	if !line.HasDiscount {
		t.Fatal("expected hasDiscount")
	}
}

func TestSaleItemIgnoresRegularCategoryDiscount(t *testing.T) {
	// Scenario: item on sale, category has only a regular discount and the
	// profile has no sale fallback. The sale price stands untouched.
	profile := subscriptionProfile(func(p *DiscountProfile) {
		p.CategoryDiscounts = []CategoryDiscount{{
			CategoryID: "treats",
			Discount:   Discount{Kind: KindPercentage, Value: dec("10")},
		}}
	})
	item := LineItem{ProductID: "p1", CategoryID: "treats", Qty: 2, UnitBasePrice: dec("1000"), UnitSalePrice: decPtr("800")}
	line := ResolveUnitPrice(item, profile)
	if !line.UnitEffective.Equal(dec("800")) || line.HasDiscount {
		t.Fatalf("expected sale price 800 with no discount, got %s discount=%v", line.UnitEffective, line.HasDiscount)
	}
	if !line.LineTotal().Equal(dec("1600")) {
		t.Fatalf("expected line total 1600, got %s", line.LineTotal())
	}
}

func TestSaleItemIgnoresFixedNonSaleFallback(t *testing.T) {
	// A fixed profile-level discount applies to non-sale prices only; an
	// on-sale item without a sale fallback keeps its sale price.
	profile := subscriptionProfile(func(p *DiscountProfile) {
		p.Discount = Discount{Kind: KindFixed, Value: dec("50")}
	})
	item := LineItem{ProductID: "p1", CategoryID: "treats", Qty: 1, UnitBasePrice: dec("1000"), UnitSalePrice: decPtr("800")}
	line := ResolveUnitPrice(item, profile)
	if !line.UnitEffective.Equal(dec("800")) || line.HasDiscount {
		t.Fatalf("expected 800 with no discount, got %s discount=%v", line.UnitEffective, line.HasDiscount)
	}
}

func TestSaleFallbackAppliesToSaleItems(t *testing.T) {
	profile := subscriptionProfile(func(p *DiscountProfile) {
		p.SaleDiscount = Discount{Kind: KindPercentage, Value: dec("5")}
	})
	item := LineItem{ProductID: "p1", CategoryID: "treats", Qty: 1, UnitBasePrice: dec("1000"), UnitSalePrice: decPtr("800")}
	line := ResolveUnitPrice(item, profile)
	if !line.UnitEffective.Equal(dec("760")) || !line.HasDiscount {
		t.Fatalf("expected 760 with discount, got %s discount=%v", line.UnitEffective, line.HasDiscount)
	}
}

func TestEffectiveNeverExceedsOriginal(t *testing.T) {
	profiles := []DiscountProfile{
		subscriptionProfile(nil),
		subscriptionProfile(func(p *DiscountProfile) { p.Discount = Discount{Kind: KindPercentage, Value: dec("25")} }),
		subscriptionProfile(func(p *DiscountProfile) { p.Discount = Discount{Kind: KindFixed, Value: dec("5000")} }),
	}
	item := LineItem{ProductID: "p1", CategoryID: "food", Qty: 3, UnitBasePrice: dec("499.99")}
	for i, profile := range profiles {
		line := ResolveUnitPrice(item, profile)
		if line.UnitEffective.GreaterThan(line.UnitOriginal) {
			t.Fatalf("profile %d: effective %s exceeds original %s", i, line.UnitEffective, line.UnitOriginal)
		}
		strict := line.UnitEffective.LessThan(line.UnitOriginal)
		if line.HasDiscount != strict {
			t.Fatalf("profile %d: hasDiscount=%v but strict comparison is %v", i, line.HasDiscount, strict)
		}
	}
}

func TestFixedDiscountClampsAtZero(t *testing.T) {
	profile := subscriptionProfile(func(p *DiscountProfile) {
		p.Discount = Discount{Kind: KindFixed, Value: dec("500")}
	})
	item := LineItem{ProductID: "p1", CategoryID: "food", Qty: 1, UnitBasePrice: dec("300")}
	line := ResolveUnitPrice(item, profile)
	if !line.UnitEffective.Equal(decimal.Zero) {
		t.Fatalf("expected clamp to zero, got %s", line.UnitEffective)
	}
}

func TestUnitLevelHalfUpRounding(t *testing.T) {
	// 10.005 * 3 must round at the unit (10.01 -> 30.03), not at the line
	// (30.015 -> 30.02 would disagree with the reference).
	profile := subscriptionProfile(func(p *DiscountProfile) {
		p.Discount = Discount{Kind: KindPercentage, Value: dec("50")}
	})
	item := LineItem{ProductID: "p1", CategoryID: "food", Qty: 3, UnitBasePrice: dec("20.01")}
	line := ResolveUnitPrice(item, profile)
	if got := line.UnitEffective.StringFixed(2); got != "10.01" {
		t.Fatalf("expected unit 10.01, got %s", got)
	}
	if got := line.LineTotal().StringFixed(2); got != "30.03" {
		t.Fatalf("expected line total 30.03, got %s", got)
	}
}

func TestDiscountRoundingToNoDifferenceIsNotADiscount(t *testing.T) {
	profile := subscriptionProfile(func(p *DiscountProfile) {
		p.Discount = Discount{Kind: KindPercentage, Value: dec("0.01")}
	})
	item := LineItem{ProductID: "p1", CategoryID: "food", Qty: 1, UnitBasePrice: dec("0.10")}
	line := ResolveUnitPrice(item, profile)
	if line.HasDiscount {
		t.Fatalf("discount rounding to zero difference must not flag hasDiscount (effective %s)", line.UnitEffective)
	}
}
