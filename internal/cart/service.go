package cart

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/pawkart/backend/internal/checkout"
	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/coupon"
	"github.com/pawkart/backend/internal/repo"
)

var (
	// ErrProductNotFound is returned when an added product does not exist
	// or is inactive.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidQuantity is returned for non-positive add quantities.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrStaleOffer is returned when an added line references a combo offer
	// that is missing or outside its window. Existing cart lines with stale
	// offers still price, just without the combo discount.
	ErrStaleOffer = errors.New("combo offer not available")
)

// Service owns cart mutations. Pricing is delegated to the checkout quoter
// so the cart view and the final order always agree.
type Service struct {
	carts    repo.CartsRepo
	products repo.ProductsRepo
	offers   repo.OffersRepo
	quoter   *checkout.Service
	coupons  *coupon.Service
	logger   zerolog.Logger
	now      func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Carts    repo.CartsRepo
	Products repo.ProductsRepo
	Offers   repo.OffersRepo
	Quoter   *checkout.Service
	Coupons  *coupon.Service
	Logger   zerolog.Logger
	Now      func() time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		carts:    cfg.Carts,
		products: cfg.Products,
		offers:   cfg.Offers,
		quoter:   cfg.Quoter,
		coupons:  cfg.Coupons,
		logger:   cfg.Logger,
		now:      now,
	}
}

// Ensure returns the identity's cart, creating one when absent.
func (s *Service) Ensure(ctx context.Context, identity common.Identity) (repo.Cart, error) {
	return s.carts.Ensure(ctx, identity.CartKey())
}

// AddItemParams describes a line to add.
type AddItemParams struct {
	ProductID    string
	VariantID    *string
	Qty          int32
	ComboOfferID *string
	DeliveryDate *string
}

// AddItem validates the product (and combo offer, when referenced) and
// upserts the line.
func (s *Service) AddItem(ctx context.Context, identity common.Identity, p AddItemParams) (repo.Cart, error) {
	if p.Qty < 1 {
		return repo.Cart{}, ErrInvalidQuantity
	}
	product, err := s.products.Get(ctx, p.ProductID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Cart{}, ErrProductNotFound
		}
		return repo.Cart{}, err
	}
	if !product.IsActive {
		return repo.Cart{}, ErrProductNotFound
	}
	if p.ComboOfferID != nil && *p.ComboOfferID != "" {
		offer, err := s.offers.Get(ctx, *p.ComboOfferID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return repo.Cart{}, ErrStaleOffer
			}
			return repo.Cart{}, err
		}
		if !offer.ActiveAt(s.now()) {
			return repo.Cart{}, ErrStaleOffer
		}
	}

	cart, err := s.carts.Ensure(ctx, identity.CartKey())
	if err != nil {
		return repo.Cart{}, err
	}
	item := repo.CartItem{
		ProductID:    p.ProductID,
		VariantID:    p.VariantID,
		Qty:          p.Qty,
		ComboOfferID: p.ComboOfferID,
		DeliveryDate: p.DeliveryDate,
	}
	if err := s.carts.AddItem(ctx, cart.ID, item); err != nil {
		return repo.Cart{}, err
	}
	return s.carts.Get(ctx, identity.CartKey())
}

// SetQty updates a line quantity; below one removes the line.
func (s *Service) SetQty(ctx context.Context, identity common.Identity, itemID string, qty int32) (repo.Cart, error) {
	cart, err := s.carts.Get(ctx, identity.CartKey())
	if err != nil {
		return repo.Cart{}, err
	}
	if err := s.carts.SetItemQty(ctx, cart.ID, itemID, qty); err != nil {
		return repo.Cart{}, err
	}
	return s.carts.Get(ctx, identity.CartKey())
}

// RemoveItem deletes a line.
func (s *Service) RemoveItem(ctx context.Context, identity common.Identity, itemID string) (repo.Cart, error) {
	cart, err := s.carts.Get(ctx, identity.CartKey())
	if err != nil {
		return repo.Cart{}, err
	}
	if err := s.carts.RemoveItem(ctx, cart.ID, itemID); err != nil {
		return repo.Cart{}, err
	}
	return s.carts.Get(ctx, identity.CartKey())
}

// ApplyCoupon validates the code against the current quote and stores it on
// the cart, replacing any previous coupon. Coupons never stack.
func (s *Service) ApplyCoupon(ctx context.Context, identity common.Identity, code string) (repo.Cart, error) {
	q, err := s.quoter.QuoteCart(ctx, identity)
	if err != nil {
		return repo.Cart{}, err
	}

	items := make([]coupon.Item, 0, len(q.Totals.Lines))
	totalQty := 0
	for _, line := range q.Totals.Lines {
		items = append(items, coupon.Item{ProductID: line.Item.ProductID, LineTotal: line.LineTotal()})
		totalQty += int(line.Item.Qty)
	}
	v, err := s.coupons.Validate(ctx, code, identity.CouponKey(), items, totalQty)
	if err != nil {
		return repo.Cart{}, err
	}

	normalized := v.Coupon.Code
	if err := s.carts.SetCoupon(ctx, q.Cart.ID, &normalized); err != nil {
		return repo.Cart{}, err
	}
	s.logger.Info().Str("code", normalized).Msg("coupon applied to cart")
	return s.carts.Get(ctx, identity.CartKey())
}

// RemoveCoupon clears any applied coupon.
func (s *Service) RemoveCoupon(ctx context.Context, identity common.Identity) (repo.Cart, error) {
	cart, err := s.carts.Get(ctx, identity.CartKey())
	if err != nil {
		return repo.Cart{}, err
	}
	if err := s.carts.SetCoupon(ctx, cart.ID, nil); err != nil {
		return repo.Cart{}, err
	}
	return s.carts.Get(ctx, identity.CartKey())
}

// MergeGuest folds the guest session cart into the signed-in user's cart.
func (s *Service) MergeGuest(ctx context.Context, sessionID, userID string) error {
	guest := common.Identity{SessionID: sessionID}
	user := common.Identity{UserID: userID}
	return s.carts.Merge(ctx, guest.CartKey(), user.CartKey())
}
