package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pawkart/backend/internal/catalog"
	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/coupon"
	"github.com/pawkart/backend/internal/obs"
	"github.com/pawkart/backend/internal/pricing"
	"github.com/pawkart/backend/internal/repo"
	"github.com/pawkart/backend/internal/shipping"
)

var (
	// ErrEmptyCart is returned when a quote is requested for an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrProductUnavailable is returned when a cart line references a
	// product that no longer exists or was deactivated.
	ErrProductUnavailable = errors.New("product unavailable")
)

// Service assembles a full pricing quote for a stored cart: subscription
// pricing, combo discounts, the applied coupon and shipping.
type Service struct {
	carts     repo.CartsRepo
	users     repo.UsersRepo
	profiles  repo.ProfilesRepo
	addresses repo.AddressesRepo
	catalog   *catalog.Service
	coupons   *coupon.Service

	flatThreshold decimal.Decimal
	flatFee       decimal.Decimal
	logger        zerolog.Logger
	now           func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Carts     repo.CartsRepo
	Users     repo.UsersRepo
	Profiles  repo.ProfilesRepo
	Addresses repo.AddressesRepo
	Catalog   *catalog.Service
	Coupons   *coupon.Service

	FlatShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	Logger                zerolog.Logger
	Now                   func() time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		carts:         cfg.Carts,
		users:         cfg.Users,
		profiles:      cfg.Profiles,
		addresses:     cfg.Addresses,
		catalog:       cfg.Catalog,
		coupons:       cfg.Coupons,
		flatThreshold: cfg.FlatShippingThreshold,
		flatFee:       cfg.FlatShippingFee,
		logger:        cfg.Logger,
		now:           now,
	}
}

// Quote is the priced view of a cart.
type Quote struct {
	Cart        repo.Cart
	Totals      pricing.OrderTotals
	CouponError error
	Products    map[string]repo.Product
}

// QuoteCart prices the identity's cart as of now. An applied coupon that
// became ineligible is surfaced via CouponError and excluded from totals
// instead of failing the quote.
func (s *Service) QuoteCart(ctx context.Context, identity common.Identity) (Quote, error) {
	cart, err := s.carts.Get(ctx, identity.CartKey())
	if err != nil {
		return Quote{}, err
	}
	return s.quote(ctx, identity, cart)
}

func (s *Service) quote(ctx context.Context, identity common.Identity, cart repo.Cart) (Quote, error) {
	started := time.Now()
	if len(cart.Items) == 0 {
		return Quote{}, ErrEmptyCart
	}
	now := s.now()

	ids := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return Quote{}, err
	}

	ct, err := s.users.CustomerType(ctx, identity.UserID)
	if err != nil {
		return Quote{}, err
	}
	profile, err := s.profiles.GetByCustomerType(ctx, ct)
	if err != nil {
		return Quote{}, err
	}

	items := make([]pricing.LineItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		p, ok := products[it.ProductID]
		if !ok || !p.IsActive {
			return Quote{}, ErrProductUnavailable
		}
		line := pricing.LineItem{
			ProductID:     p.ID,
			VariantID:     it.VariantID,
			CategoryID:    p.CategoryID,
			Qty:           int(it.Qty),
			UnitBasePrice: p.BasePrice,
			ComboOfferID:  it.ComboOfferID,
			WeightKg:      p.WeightKg,
			GSTRateBps:    p.GSTRateBps,
		}
		if p.SaleActiveAt(now) {
			line.UnitSalePrice = p.SalePrice
		}
		if it.DeliveryDate != nil {
			line.RequestedDeliveryDate = *it.DeliveryDate
		}
		items = append(items, line)
	}

	offers, err := s.catalog.ActiveOffers(ctx)
	if err != nil {
		return Quote{}, err
	}
	tiers, err := s.catalog.ActiveTiers(ctx)
	if err != nil {
		return Quote{}, err
	}

	region := shipping.RegionChennai
	hasAddress := false
	if identity.Authenticated() {
		addr, err := s.addresses.Default(ctx, identity.UserID)
		switch {
		case err == nil:
			hasAddress = true
			region = shipping.RegionForCity(addr.City)
		case errors.Is(err, repo.ErrNotFound):
		default:
			return Quote{}, err
		}
	}

	in := pricing.Input{
		Items:                 items,
		Profile:               profile,
		Offers:                offers,
		Tiers:                 tiers,
		Region:                region,
		HasSavedAddress:       hasAddress,
		FlatShippingThreshold: s.flatThreshold,
		FlatShippingFee:       s.flatFee,
		Now:                   now,
	}

	var couponErr error
	if cart.CouponCode != nil {
		couponErr = s.attachCoupon(ctx, &in, identity, items, *cart.CouponCode)
	}

	totals := pricing.ComputeOrderTotals(in)
	if obs.QuoteLatency != nil {
		obs.QuoteLatency.Observe(obs.DurationMillis(time.Since(started)))
	}
	if obs.ComboDiscountApplied != nil && totals.ComboDiscount.IsPositive() {
		f, _ := totals.ComboDiscount.Float64()
		obs.ComboDiscountApplied.Observe(f)
	}
	return Quote{Cart: cart, Totals: totals, CouponError: couponErr, Products: products}, nil
}

// attachCoupon re-validates the stored coupon against the freshly resolved
// lines and, when eligible, wires it into the pricing input.
func (s *Service) attachCoupon(ctx context.Context, in *pricing.Input, identity common.Identity, items []pricing.LineItem, code string) error {
	resolved := make([]coupon.Item, 0, len(items))
	totalQty := 0
	for _, it := range items {
		line := pricing.ResolveUnitPrice(it, in.Profile)
		resolved = append(resolved, coupon.Item{ProductID: it.ProductID, LineTotal: line.LineTotal()})
		totalQty += int(it.Qty)
	}
	v, err := s.coupons.Validate(ctx, code, identity.CouponKey(), resolved, totalQty)
	if err != nil {
		s.logger.Debug().Str("code", code).Err(err).Msg("stored coupon no longer eligible")
		return err
	}
	c := v.Coupon
	in.Coupon = &c
	return nil
}
