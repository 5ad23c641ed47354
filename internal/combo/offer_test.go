package combo

import (
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

func bundle() Offer {
	return Offer{
		ID:            "bundle",
		ProductIDs:    []string{"p1", "p2"},
		OriginalPrice: dec("500"),
		ComboPrice:    dec("400"),
		IsActive:      true,
	}
}

func TestCompleteSetsMultiplyDiscount(t *testing.T) {
	items := []Item{
		{OfferID: "bundle", ProductID: "p1", Qty: 2},
		{OfferID: "bundle", ProductID: "p2", Qty: 3},
	}
	got := TotalDiscount(items, []Offer{bundle()}, now)
	if !got.Equal(dec("200")) {
		t.Fatalf("expected (500-400)*min(2,3)=200, got %s", got)
	}
}

func TestSetsAreTheMinimumRequiredQuantity(t *testing.T) {
	offer := bundle()
	offer.ProductIDs = []string{"a", "b", "c"}
	items := []Item{
		{OfferID: "bundle", ProductID: "a", Qty: 3},
		{OfferID: "bundle", ProductID: "b", Qty: 1},
		{OfferID: "bundle", ProductID: "c", Qty: 5},
	}
	got := TotalDiscount(items, []Offer{offer}, now)
	if !got.Equal(dec("100")) {
		t.Fatalf("expected exactly one set-worth (100), got %s", got)
	}
}

func TestIncompleteSetPaysNothing(t *testing.T) {
	items := []Item{{OfferID: "bundle", ProductID: "p1", Qty: 4}}
	if got := TotalDiscount(items, []Offer{bundle()}, now); !got.IsZero() {
		t.Fatalf("incomplete combo must earn zero, got %s", got)
	}
}

func TestStaleOfferReferenceIsSilentlyZero(t *testing.T) {
	items := []Item{
		{OfferID: "long-gone", ProductID: "p1", Qty: 1},
		{OfferID: "long-gone", ProductID: "p2", Qty: 1},
	}
	if got := TotalDiscount(items, []Offer{bundle()}, now); !got.IsZero() {
		t.Fatalf("missing offer must contribute zero, got %s", got)
	}
}

func TestDateWindowAgainstEvaluationTime(t *testing.T) {
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	items := []Item{
		{OfferID: "bundle", ProductID: "p1", Qty: 1},
		{OfferID: "bundle", ProductID: "p2", Qty: 1},
	}

	notStarted := bundle()
	notStarted.StartDate = &future
	if got := TotalDiscount(items, []Offer{notStarted}, now); !got.IsZero() {
		t.Fatalf("offer starting in the future must pay zero, got %s", got)
	}

	ended := bundle()
	ended.EndDate = &past
	if got := TotalDiscount(items, []Offer{ended}, now); !got.IsZero() {
		t.Fatalf("ended offer must pay zero, got %s", got)
	}

	inactive := bundle()
	inactive.IsActive = false
	if got := TotalDiscount(items, []Offer{inactive}, now); !got.IsZero() {
		t.Fatalf("inactive offer must pay zero, got %s", got)
	}
}

func TestNegativePerSetDiscountClamps(t *testing.T) {
	offer := bundle()
	offer.ComboPrice = dec("600")
	items := []Item{
		{OfferID: "bundle", ProductID: "p1", Qty: 1},
		{OfferID: "bundle", ProductID: "p2", Qty: 1},
	}
	if got := TotalDiscount(items, []Offer{offer}, now); !got.IsZero() {
		t.Fatalf("combo price above original must clamp to zero, got %s", got)
	}
}
