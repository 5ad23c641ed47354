package coupon

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var now = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

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

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func active(mutate func(*Coupon)) Coupon {
	c := Coupon{Code: "SAVE10", Kind: KindPercentage, Amount: dec("10"), IsActive: true}
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  save10 "); got != "SAVE10" {
		t.Fatalf("expected SAVE10, got %q", got)
	}
}

func TestValidateRejections(t *testing.T) {
	past := now.Add(-time.Hour)
	cases := []struct {
		name   string
		coupon Coupon
		total  decimal.Decimal
		qty    int
		want   error
	}{
		{"inactive", active(func(c *Coupon) { c.IsActive = false }), dec("1000"), 3, ErrInactive},
		{"expired", active(func(c *Coupon) { c.ExpiresAt = &past }), dec("1000"), 3, ErrExpired},
		{"usage cap", active(func(c *Coupon) { c.MaxUses = intPtr(5); c.UsedCount = 5 }), dec("1000"), 3, ErrUsageLimitReached},
		{"below floor", active(func(c *Coupon) { c.MinCartTotal = decPtr("500") }), dec("499.99"), 3, ErrMinimumSpendUnmet},
		{"too few items", active(func(c *Coupon) { c.MinQuantity = intPtr(3) }), dec("1000"), 2, ErrMinimumQuantityUnmet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.coupon.Validate(now, tc.total, tc.qty); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidatePassesAtBoundaries(t *testing.T) {
	future := now.Add(time.Minute)
	c := active(func(c *Coupon) {
		c.ExpiresAt = &future
		c.MaxUses = intPtr(5)
		c.UsedCount = 4
		c.MinCartTotal = decPtr("500")
		c.MinQuantity = intPtr(3)
	})
	if err := c.Validate(now, dec("500"), 3); err != nil {
		t.Fatalf("expected boundary values to validate, got %v", err)
	}
}

func TestExpiryIsInstantaneous(t *testing.T) {
	exactly := now
	c := active(func(c *Coupon) { c.ExpiresAt = &exactly })
	if err := c.Validate(now, dec("1000"), 1); !errors.Is(err, ErrExpired) {
		t.Fatalf("a coupon expiring at the evaluation instant is expired, got %v", err)
	}
}

func TestStoreWidePercentage(t *testing.T) {
	items := []Item{
		{ProductID: "p1", LineTotal: dec("600")},
		{ProductID: "p2", LineTotal: dec("400")},
	}
	if got := Apply(active(nil), items); !got.Equal(dec("100")) {
		t.Fatalf("expected 100, got %s", got)
	}
}

func TestProductScopedCouponDiscountsOnlyItsLine(t *testing.T) {
	c := active(func(c *Coupon) { c.ProductID = strPtr("p2") })
	items := []Item{
		{ProductID: "p1", LineTotal: dec("600")},
		{ProductID: "p2", LineTotal: dec("400")},
	}
	if got := Apply(c, items); !got.Equal(dec("40")) {
		t.Fatalf("expected 40 on the scoped line, got %s", got)
	}
}

func TestScopedProductAbsentIsZeroNotError(t *testing.T) {
	c := active(func(c *Coupon) { c.ProductID = strPtr("missing") })
	items := []Item{{ProductID: "p1", LineTotal: dec("600")}}
	if got := Apply(c, items); !got.IsZero() {
		t.Fatalf("expected zero for absent product, got %s", got)
	}
}

func TestFixedAmountClampsToScope(t *testing.T) {
	c := active(func(c *Coupon) { c.Kind = KindFixed; c.Amount = dec("1000") })
	items := []Item{{ProductID: "p1", LineTotal: dec("300")}}
	if got := Apply(c, items); !got.Equal(dec("300")) {
		t.Fatalf("expected clamp to 300, got %s", got)
	}
}

func TestPercentageRoundsToTwoPlaces(t *testing.T) {
	c := active(func(c *Coupon) { c.Amount = dec("7.5") })
	items := []Item{{ProductID: "p1", LineTotal: dec("33.33")}}
	// 33.33 * 7.5% = 2.49975 -> 2.50
	if got := Apply(c, items).StringFixed(2); got != "2.50" {
		t.Fatalf("expected 2.50, got %s", got)
	}
}

func TestEmptyCartDiscountsNothing(t *testing.T) {
	if got := Apply(active(nil), nil); !got.IsZero() {
		t.Fatalf("expected zero on empty cart, got %s", got)
	}
}
