package coupon

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no coupon exists for the supplied code.
	ErrNotFound = errors.New("invalid coupon")
	// ErrInactive is returned when the coupon has been disabled.
	ErrInactive = errors.New("coupon not active")
	// ErrExpired is returned when the coupon is past its expiry instant.
	ErrExpired = errors.New("coupon expired")
	// ErrUsageLimitReached indicates the global usage cap is exhausted.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrAlreadyUsed indicates this customer has redeemed the coupon before.
	ErrAlreadyUsed = errors.New("coupon already used")
	// ErrMinimumSpendUnmet indicates the cart total is below the coupon floor.
	ErrMinimumSpendUnmet = errors.New("coupon minimum cart total not met")
	// ErrMinimumQuantityUnmet indicates the cart holds too few items.
	ErrMinimumQuantityUnmet = errors.New("coupon minimum quantity not met")
	// ErrDuplicateCode indicates an admin tried to create an existing code.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Kind is the closed set of coupon discount mechanics.
type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
)

// Coupon captures the runtime constraints of a discount code. Codes are
// stored uppercase and matched case-insensitively.
type Coupon struct {
	Code         string
	Kind         Kind
	Amount       decimal.Decimal
	ProductID    *string
	MinCartTotal *decimal.Decimal
	MinQuantity  *int
	MaxUses      *int
	UsedCount    int
	ExpiresAt    *time.Time
	IsActive     bool
}

// NormalizeCode canonicalises a coupon code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the stateless rules: active, unexpired, under the global
// cap and above the cart floors. Per-customer single use is checked by the
// service since it needs order history.
func (c Coupon) Validate(now time.Time, cartTotal decimal.Decimal, totalQty int) error {
	if !c.IsActive {
		return ErrInactive
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return ErrExpired
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return ErrUsageLimitReached
	}
	if c.MinCartTotal != nil && cartTotal.LessThan(*c.MinCartTotal) {
		return ErrMinimumSpendUnmet
	}
	if c.MinQuantity != nil && totalQty < *c.MinQuantity {
		return ErrMinimumQuantityUnmet
	}
	return nil
}

// AppliesTo reports whether the coupon can serve a request scoped to the
// given product. Store-wide coupons apply everywhere.
func (c Coupon) AppliesTo(productID string) bool {
	return c.ProductID == nil || *c.ProductID == productID
}

// Item is a pricing-resolved cart line used for discount application.
// LineTotal must already include subscription and sale adjustments.
type Item struct {
	ProductID string
	LineTotal decimal.Decimal
}

// Apply computes the discount contribution. Product-specific coupons discount
// only the matching line (zero when absent, not an error); store-wide coupons
// discount the whole subtotal. Fixed amounts never exceed the scoped total.
func Apply(c Coupon, items []Item) decimal.Decimal {
	scope := decimal.Zero
	if c.ProductID != nil {
		for _, it := range items {
			if it.ProductID == *c.ProductID {
				scope = scope.Add(it.LineTotal)
			}
		}
	} else {
		for _, it := range items {
			scope = scope.Add(it.LineTotal)
		}
	}
	if !scope.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.Kind {
	case KindPercentage:
		discount = scope.Mul(c.Amount).Div(decimal.NewFromInt(100))
	case KindFixed:
		discount = decimal.Min(c.Amount, scope)
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}
