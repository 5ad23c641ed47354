package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pawkart/backend/internal/checkout"
	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/coupon"
	"github.com/pawkart/backend/internal/events"
	"github.com/pawkart/backend/internal/lock"
	"github.com/pawkart/backend/internal/obs"
	"github.com/pawkart/backend/internal/repo"
)

var (
	// ErrGuestEmailRequired is returned when a guest places an order
	// without an email address.
	ErrGuestEmailRequired = errors.New("guest email is required")
	// ErrPaymentNotVerified is returned when no consumable verified
	// payment record exists for the supplied payment id.
	ErrPaymentNotVerified = errors.New("payment not verified")
	// ErrCouponIneligible aborts order creation when the stored coupon
	// fails re-validation at placement time.
	ErrCouponIneligible = errors.New("applied coupon is no longer eligible")
)

// PaymentConsumer redeems a verified-payment record exactly once.
type PaymentConsumer interface {
	Consume(ctx context.Context, paymentID string) (orderRef string, err error)
}

// Service creates and manages orders. Totals are always recomputed
// server-side from stored state; client-sent amounts are never trusted.
type Service struct {
	quoter   *checkout.Service
	orders   repo.OrdersRepo
	carts    repo.CartsRepo
	users    repo.UsersRepo
	payments PaymentConsumer
	bus      *events.Bus
	locks    *lock.Locker
	currency string
	logger   zerolog.Logger
	now      func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Quoter   *checkout.Service
	Orders   repo.OrdersRepo
	Carts    repo.CartsRepo
	Users    repo.UsersRepo
	Payments PaymentConsumer
	Bus      *events.Bus
	Locks    *lock.Locker
	Currency string
	Logger   zerolog.Logger
	Now      func() time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		quoter:   cfg.Quoter,
		orders:   cfg.Orders,
		carts:    cfg.Carts,
		users:    cfg.Users,
		payments: cfg.Payments,
		bus:      cfg.Bus,
		locks:    cfg.Locks,
		currency: currency,
		logger:   cfg.Logger,
		now:      now,
	}
}

// CreateParams carries the client's inputs to order placement. Everything
// that affects money is recomputed from the stored cart.
type CreateParams struct {
	GuestEmail string
	PaymentID  string
}

// Create places an order for the identity's cart: re-quote, consume the
// verified payment, persist the order with item snapshots and the coupon
// usage in one transaction, then clear the cart and emit order.created.
func (s *Service) Create(ctx context.Context, identity common.Identity, p CreateParams) (repo.Order, error) {
	if !identity.Authenticated() {
		if common.NormalizeEmail(p.GuestEmail) == "" {
			s.countOrder(identity, "guest_email_missing")
			return repo.Order{}, ErrGuestEmailRequired
		}
		identity.GuestEmail = p.GuestEmail
	}

	if s.locks == nil {
		return s.create(ctx, identity, p)
	}
	// Serialise concurrent submits of the same cart.
	var created repo.Order
	err := s.locks.WithLock(ctx, "order:place:"+identity.CartKey(), 30*time.Second, func(ctx context.Context) error {
		var err error
		created, err = s.create(ctx, identity, p)
		return err
	})
	return created, err
}

func (s *Service) create(ctx context.Context, identity common.Identity, p CreateParams) (repo.Order, error) {
	q, err := s.quoter.QuoteCart(ctx, identity)
	if err != nil {
		s.countOrder(identity, "quote_failed")
		return repo.Order{}, err
	}
	if q.CouponError != nil {
		s.countOrder(identity, "coupon_ineligible")
		return repo.Order{}, fmt.Errorf("%w: %v", ErrCouponIneligible, q.CouponError)
	}

	var paymentRef *string
	if s.payments != nil && p.PaymentID != "" {
		ref, err := s.payments.Consume(ctx, p.PaymentID)
		if err != nil {
			s.countOrder(identity, "payment_unverified")
			return repo.Order{}, ErrPaymentNotVerified
		}
		paymentRef = &ref
	}

	o := s.buildOrder(identity, q)
	o.PaymentRef = paymentRef

	params := repo.CreateParams{Order: o}
	if q.Cart.CouponCode != nil {
		params.CouponCode = q.Cart.CouponCode
		params.CustomerKey = identity.CouponKey()
	}
	created, err := s.orders.Create(ctx, params)
	if err != nil {
		if errors.Is(err, coupon.ErrAlreadyUsed) {
			s.countOrder(identity, "coupon_already_used")
			return repo.Order{}, err
		}
		s.countOrder(identity, "error")
		return repo.Order{}, err
	}

	if err := s.carts.Clear(ctx, q.Cart.ID); err != nil {
		s.logger.Error().Err(err).Str("cart_id", q.Cart.ID).Msg("failed to clear cart after order")
	}

	s.countOrder(identity, "ok")
	s.emit(ctx, events.TopicOrderCreated, created)
	if created.CouponCode != nil {
		s.emit(ctx, events.TopicCouponRedeemed, created)
	}
	s.logger.Info().
		Str("order_id", created.ID).
		Str("total", created.Total.String()).
		Msg("order created")
	return created, nil
}

func (s *Service) buildOrder(identity common.Identity, q checkout.Quote) repo.Order {
	o := repo.Order{
		Subtotal:       q.Totals.Subtotal,
		ComboDiscount:  q.Totals.ComboDiscount,
		CouponDiscount: q.Totals.CouponDiscount,
		CouponCode:     q.Cart.CouponCode,
		Shipping:       q.Totals.Shipping,
		GSTAmount:      gstPortion(q),
		Total:          q.Totals.Total,
		Currency:       s.currency,
	}
	if identity.Authenticated() {
		uid := identity.UserID
		o.UserID = &uid
	} else {
		email := common.NormalizeEmail(identity.GuestEmail)
		o.GuestEmail = &email
	}
	for _, line := range q.Totals.Lines {
		item := repo.OrderItem{
			ProductID:     line.Item.ProductID,
			VariantID:     line.Item.VariantID,
			Qty:           int32(line.Item.Qty),
			UnitOriginal:  line.UnitOriginal,
			UnitEffective: line.UnitEffective,
			HasDiscount:   line.HasDiscount,
			ComboOfferID:  line.Item.ComboOfferID,
			GSTRateBps:    line.Item.GSTRateBps,
		}
		if line.Item.RequestedDeliveryDate != "" {
			d := line.Item.RequestedDeliveryDate
			item.DeliveryDate = &d
		}
		if p, ok := q.Products[line.Item.ProductID]; ok {
			item.ProductName = p.Name
		}
		o.Items = append(o.Items, item)
	}
	return o
}

// gstPortion extracts the GST contained in each tax-inclusive line total,
// snapshotted per line rate.
func gstPortion(q checkout.Quote) decimal.Decimal {
	total := decimal.Zero
	for _, line := range q.Totals.Lines {
		rate := decimal.NewFromInt32(line.Item.GSTRateBps)
		if !rate.IsPositive() {
			continue
		}
		gross := line.LineTotal()
		portion := gross.Mul(rate).Div(rate.Add(decimal.NewFromInt(10000)))
		total = total.Add(portion)
	}
	return total.Round(2)
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int32) ([]repo.Order, error) {
	return s.orders.ListForUser(ctx, userID, limit, offset)
}

// Get returns one of the user's orders.
func (s *Service) Get(ctx context.Context, orderID, userID string) (repo.Order, error) {
	return s.orders.GetForUser(ctx, orderID, userID)
}

// Cancel cancels a not-yet-shipped order and emits order.cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, userID string) error {
	if err := s.orders.Cancel(ctx, orderID, userID); err != nil {
		return err
	}
	s.emit(ctx, events.TopicOrderCancelled, repo.Order{ID: orderID})
	return nil
}

// Confirm marks an order paid after payment verification.
func (s *Service) Confirm(ctx context.Context, orderID, paymentRef string) error {
	if err := s.orders.MarkConfirmed(ctx, orderID, paymentRef); err != nil {
		return err
	}
	s.emit(ctx, events.TopicOrderConfirmed, repo.Order{ID: orderID})
	return nil
}

func (s *Service) emit(ctx context.Context, topic string, o repo.Order) {
	if s.bus == nil {
		return
	}
	payload := map[string]any{"orderId": o.ID}
	if !o.Total.IsZero() {
		payload["total"] = o.Total.String()
	}
	if email := s.recipient(ctx, o); email != "" {
		payload["email"] = email
	}
	if _, err := s.bus.Emit(ctx, topic, o.ID, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("event emit failed")
	}
}

func (s *Service) recipient(ctx context.Context, o repo.Order) string {
	if o.GuestEmail != nil {
		return *o.GuestEmail
	}
	if o.UserID == nil {
		return ""
	}
	u, err := s.users.Get(ctx, *o.UserID)
	if err != nil {
		return ""
	}
	return u.Email
}

func (s *Service) countOrder(identity common.Identity, result string) {
	if obs.OrdersCreatedTotal == nil {
		return
	}
	ctLabel := "guest"
	if identity.Authenticated() {
		ctLabel = "user"
	}
	obs.OrdersCreatedTotal.WithLabelValues(ctLabel, result).Inc()
}
