package shipping

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

func feeTable() []Tier {
	return []Tier{
		{Label: "0-2kg", UpToWeightKg: dec("2"), ChennaiFee: dec("30"), PanIndiaFee: dec("60"), IsActive: true},
		{Label: "2-5kg", UpToWeightKg: dec("5"), ChennaiFee: dec("50"), PanIndiaFee: dec("100"), IsActive: true},
		{Label: "5-10kg", UpToWeightKg: dec("10"), ChennaiFee: dec("80"), PanIndiaFee: dec("160"), IsActive: true},
	}
}

func TestFlatFeeThreshold(t *testing.T) {
	if got := FlatFee(dec("450"), dec("500"), dec("99")); !got.Equal(dec("99")) {
		t.Fatalf("below threshold: expected 99, got %s", got)
	}
	if got := FlatFee(dec("500"), dec("500"), dec("99")); !got.IsZero() {
		t.Fatalf("at threshold: expected 0, got %s", got)
	}
}

func TestRegionForCity(t *testing.T) {
	cases := map[string]Region{
		"Chennai":        RegionChennai,
		"CHENNAI NORTH":  RegionChennai,
		"Greater chenNAI": RegionChennai,
		"Coimbatore":     RegionPanIndia,
		"":               RegionPanIndia,
	}
	for city, want := range cases {
		if got := RegionForCity(city); got != want {
			t.Fatalf("%q: expected %s, got %s", city, want, got)
		}
	}
}

func TestTierSelectionBoundaries(t *testing.T) {
	items := func(w string) []Item { return []Item{{WeightKg: dec(w), Qty: 1}} }

	q := SubscriptionQuote(items("2"), feeTable(), RegionChennai, false)
	if !q.Total.Equal(dec("30")) {
		t.Fatalf("weight at bound stays in tier: expected 30, got %s", q.Total)
	}
	q = SubscriptionQuote(items("2.1"), feeTable(), RegionChennai, false)
	if !q.Total.Equal(dec("50")) {
		t.Fatalf("weight past bound moves up: expected 50, got %s", q.Total)
	}
}

func TestFeesNeverDecreaseWithWeight(t *testing.T) {
	prev := decimal.Zero
	for _, w := range []string{"0.5", "1.9", "2", "3", "5", "7", "10", "25"} {
		q := SubscriptionQuote([]Item{{WeightKg: dec(w), Qty: 1}}, feeTable(), RegionPanIndia, false)
		if q.Total.LessThan(prev) {
			t.Fatalf("fee decreased from %s to %s at weight %s", prev, q.Total, w)
		}
		prev = q.Total
	}
}

func TestWeightBeyondAllTiersUsesHighest(t *testing.T) {
	q := SubscriptionQuote([]Item{{WeightKg: dec("40"), Qty: 1}}, feeTable(), RegionChennai, false)
	if !q.Total.Equal(dec("80")) {
		t.Fatalf("expected highest tier fee 80, got %s", q.Total)
	}
}

func TestPerDeliveryDateGrouping(t *testing.T) {
	items := []Item{
		{WeightKg: dec("1"), Qty: 1, DeliveryDate: "2025-03-12"},
		{WeightKg: dec("0.5"), Qty: 2, DeliveryDate: "2025-03-12"},
		{WeightKg: dec("3"), Qty: 1, DeliveryDate: "2025-03-19"},
		{WeightKg: dec("0.25"), Qty: 4},
	}
	q := SubscriptionQuote(items, feeTable(), RegionChennai, false)
	// Groups: 12th = 2kg (30), 19th = 3kg (50), unassigned = 1kg (30).
	if !q.Total.Equal(dec("110")) {
		t.Fatalf("expected 110, got %s", q.Total)
	}
	if !q.HasMultipleDeliveryDates {
		t.Fatal("expected multiple delivery dates")
	}
	if len(q.GroupFees) != 3 {
		t.Fatalf("expected three groups, got %d", len(q.GroupFees))
	}
}

func TestSingleUnassignedGroupIsNotScheduled(t *testing.T) {
	q := SubscriptionQuote([]Item{{WeightKg: dec("1"), Qty: 1}}, feeTable(), RegionChennai, false)
	if q.HasMultipleDeliveryDates {
		t.Fatal("an unscheduled cart must not report delivery-date grouping")
	}
}

func TestZeroWeightAndEmptyTiers(t *testing.T) {
	q := SubscriptionQuote([]Item{{WeightKg: decimal.Zero, Qty: 3}}, feeTable(), RegionChennai, false)
	if !q.Total.IsZero() {
		t.Fatalf("zero weight ships free, got %s", q.Total)
	}
	q = SubscriptionQuote([]Item{{WeightKg: dec("2"), Qty: 1}}, nil, RegionChennai, false)
	if !q.Total.IsZero() {
		t.Fatalf("no tiers configured means no fee, got %s", q.Total)
	}
}

func TestInactiveTiersAreSkipped(t *testing.T) {
	tiers := feeTable()
	tiers[0].IsActive = false
	q := SubscriptionQuote([]Item{{WeightKg: dec("1"), Qty: 1}}, tiers, RegionChennai, false)
	if !q.Total.Equal(dec("50")) {
		t.Fatalf("expected next active tier fee 50, got %s", q.Total)
	}
}
