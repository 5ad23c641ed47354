package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawkart/backend/internal/combo"
	"github.com/pawkart/backend/internal/coupon"
	"github.com/pawkart/backend/internal/shipping"
)

var evalTime = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func regularCart(subtotal string) Input {
	return Input{
		Items: []LineItem{{
			ProductID:     "p1",
			CategoryID:    "food",
			Qty:           1,
			UnitBasePrice: dec(subtotal),
		}},
		Profile:               DiscountProfile{CustomerType: CustomerRegular},
		FlatShippingThreshold: dec("500"),
		FlatShippingFee:       dec("99"),
		Now:                   evalTime,
	}
}

func TestFlatShippingThreshold(t *testing.T) {
	below := ComputeOrderTotals(regularCart("450"))
	if !below.Shipping.Equal(dec("99")) {
		t.Fatalf("expected 99 shipping below threshold, got %s", below.Shipping)
	}
	at := ComputeOrderTotals(regularCart("500"))
	if !at.Shipping.Equal(decimal.Zero) {
		t.Fatalf("expected free shipping at threshold, got %s", at.Shipping)
	}
}

func TestStoreWideCouponOverResolvedSubtotal(t *testing.T) {
	in := regularCart("1000")
	in.Coupon = &coupon.Coupon{Code: "SAVE10", Kind: coupon.KindPercentage, Amount: dec("10"), IsActive: true}
	totals := ComputeOrderTotals(in)
	if !totals.CouponDiscount.Equal(dec("100")) {
		t.Fatalf("expected coupon discount 100, got %s", totals.CouponDiscount)
	}
	want := dec("1000").Sub(dec("100")).Add(totals.Shipping)
	if !totals.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, totals.Total)
	}
}

func TestComboDiscountUsesOfferPricesNotResolvedPrices(t *testing.T) {
	offerID := "bundle"
	in := Input{
		Items: []LineItem{
			{ProductID: "p1", CategoryID: "food", Qty: 1, UnitBasePrice: dec("300"), ComboOfferID: &offerID},
			{ProductID: "p2", CategoryID: "food", Qty: 1, UnitBasePrice: dec("300"), ComboOfferID: &offerID},
		},
		Profile: DiscountProfile{
			CustomerType: CustomerSubscription,
			Discount:     Discount{Kind: KindPercentage, Value: dec("50")},
		},
		Offers: []combo.Offer{{
			ID:            offerID,
			ProductIDs:    []string{"p1", "p2"},
			OriginalPrice: dec("600"),
			ComboPrice:    dec("500"),
			IsActive:      true,
		}},
		FlatShippingThreshold: dec("500"),
		FlatShippingFee:       dec("99"),
		Now:                   evalTime,
	}
	totals := ComputeOrderTotals(in)
	// Subtotal reflects subscription pricing, combo discount the offer's own
	// original/combo difference.
	if !totals.Subtotal.Equal(dec("300")) {
		t.Fatalf("expected subscription subtotal 300, got %s", totals.Subtotal)
	}
	if !totals.ComboDiscount.Equal(dec("100")) {
		t.Fatalf("expected combo discount 100, got %s", totals.ComboDiscount)
	}
}

func TestTotalsIdentityAndDeterminism(t *testing.T) {
	in := regularCart("1000")
	in.Coupon = &coupon.Coupon{Code: "SAVE10", Kind: coupon.KindPercentage, Amount: dec("10"), IsActive: true}
	first := ComputeOrderTotals(in)
	second := ComputeOrderTotals(in)

	identity := first.Subtotal.Sub(first.ComboDiscount).Sub(first.CouponDiscount).Add(first.Shipping)
	if !first.Total.Equal(identity) {
		t.Fatalf("totals identity violated: %s != %s", first.Total, identity)
	}
	if first.Total.String() != second.Total.String() ||
		first.Subtotal.String() != second.Subtotal.String() ||
		first.CouponDiscount.String() != second.CouponDiscount.String() {
		t.Fatal("identical inputs must produce identical totals")
	}
}

func TestNegativeTotalClampsToZero(t *testing.T) {
	in := regularCart("100")
	// A fixed coupon larger than the cart is clamped to the cart by Apply,
	// but shipping interactions must still never push the total negative.
	in.Coupon = &coupon.Coupon{Code: "BIG", Kind: coupon.KindFixed, Amount: dec("1000"), IsActive: true}
	totals := ComputeOrderTotals(in)
	if totals.Total.IsNegative() {
		t.Fatalf("total must never be negative, got %s", totals.Total)
	}
}

func TestSubscriptionShippingEstimateWithoutAddress(t *testing.T) {
	in := Input{
		Items: []LineItem{
			{ProductID: "p1", CategoryID: "food", Qty: 2, UnitBasePrice: dec("400"), WeightKg: dec("1.5"), RequestedDeliveryDate: "2025-03-12"},
		},
		Profile: DiscountProfile{CustomerType: CustomerSubscription},
		Tiers: []shipping.Tier{
			{Label: "0-5kg", UpToWeightKg: dec("5"), ChennaiFee: dec("40"), PanIndiaFee: dec("80"), IsActive: true},
		},
		Region:          shipping.RegionPanIndia,
		HasSavedAddress: false,
		Now:             evalTime,
	}
	totals := ComputeOrderTotals(in)
	if !totals.ShippingIsEstimate {
		t.Fatal("expected estimate flag without a saved address")
	}
	if !totals.Shipping.Equal(dec("40")) {
		t.Fatalf("estimates quote chennai fees, got %s", totals.Shipping)
	}
	if !totals.HasMultipleDeliveryDates {
		t.Fatal("an explicitly scheduled single date still groups deliveries")
	}
}
