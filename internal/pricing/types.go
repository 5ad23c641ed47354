package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerType identifies the pricing tier a customer belongs to.
type CustomerType string

const (
	CustomerRegular      CustomerType = "regular"
	CustomerSubscription CustomerType = "subscription"
	CustomerRetailer     CustomerType = "retailer"
	CustomerDistributor  CustomerType = "distributor"
	CustomerSelfEmployed CustomerType = "self_employed"
)

// DiscountKind is the closed set of supported discount mechanics.
type DiscountKind string

const (
	KindPercentage DiscountKind = "percentage"
	KindFixed      DiscountKind = "fixed"
)

// Discount pairs a kind with its numeric payload. A zero-value Discount is
// unusable and resolves to no discount.
type Discount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

// Usable reports whether the discount can actually reduce a price.
func (d Discount) Usable() bool {
	if d.Kind != KindPercentage && d.Kind != KindFixed {
		return false
	}
	return d.Value.IsPositive()
}

// CategoryDiscount overrides the profile-level subscription discount for a
// single category. At most one entry exists per category.
type CategoryDiscount struct {
	CategoryID   string
	Discount     Discount
	SaleDiscount Discount
}

// DiscountProfile is the read-only discount configuration attached to a
// customer. Category entries take precedence over the profile-level values.
type DiscountProfile struct {
	CustomerType      CustomerType
	Discount          Discount
	SaleDiscount      Discount
	CategoryDiscounts []CategoryDiscount
}

func (p DiscountProfile) categoryEntry(categoryID string) (CategoryDiscount, bool) {
	for _, cd := range p.CategoryDiscounts {
		if cd.CategoryID == categoryID {
			return cd, true
		}
	}
	return CategoryDiscount{}, false
}

// LineItem is a cart line as seen by the pricing core.
type LineItem struct {
	ProductID             string
	VariantID             *string
	CategoryID            string
	Qty                   int
	UnitBasePrice         decimal.Decimal
	UnitSalePrice         *decimal.Decimal
	ComboOfferID          *string
	WeightKg              decimal.Decimal
	GSTRateBps            int32
	RequestedDeliveryDate string
}

// SaleActive reports whether the sale price applies for this line.
func (li LineItem) SaleActive() bool {
	return li.UnitSalePrice != nil && li.UnitSalePrice.LessThan(li.UnitBasePrice)
}

// ResolvedLine is the per-line output of unit price resolution.
type ResolvedLine struct {
	Item          LineItem
	UnitEffective decimal.Decimal
	UnitOriginal  decimal.Decimal
	HasDiscount   bool
}

// LineTotal returns the effective unit price multiplied by quantity.
func (r ResolvedLine) LineTotal() decimal.Decimal {
	return r.UnitEffective.Mul(decimal.NewFromInt(int64(r.Item.Qty)))
}

// OrderTotals is the composed pricing summary shared by cart view, checkout
// view and order creation.
type OrderTotals struct {
	Subtotal       decimal.Decimal
	ComboDiscount  decimal.Decimal
	CouponDiscount decimal.Decimal
	Shipping       decimal.Decimal
	Total          decimal.Decimal

	ShippingIsEstimate       bool
	HasMultipleDeliveryDates bool
	Lines                    []ResolvedLine
	EvaluatedAt              time.Time
}
