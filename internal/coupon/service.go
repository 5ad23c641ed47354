package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pawkart/backend/internal/obs"
)

// Store is the persistence surface the service needs.
type Store interface {
	GetByCode(ctx context.Context, code string) (Coupon, error)
	HasUsage(ctx context.Context, code, customerKey string) (bool, error)
}

// Service validates coupons against both their stateless rules and the
// customer's redemption history.
type Service struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  Store
	Logger zerolog.Logger
	Now    func() time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{store: cfg.Store, logger: cfg.Logger, now: now}
}

// Validation is the outcome of a successful coupon check.
type Validation struct {
	Coupon   Coupon
	Discount decimal.Decimal
}

// Validate looks the code up, runs every eligibility rule and returns the
// discount the coupon would grant over the already-priced cart lines.
// customerKey is empty for anonymous browsing; single-use is then deferred
// to order placement where a guest email is known.
func (s *Service) Validate(ctx context.Context, code, customerKey string, items []Item, totalQty int) (Validation, error) {
	c, err := s.store.GetByCode(ctx, code)
	if err != nil {
		s.record(err)
		return Validation{}, err
	}

	cartTotal := decimal.Zero
	for _, it := range items {
		cartTotal = cartTotal.Add(it.LineTotal)
	}
	if err := c.Validate(s.now(), cartTotal, totalQty); err != nil {
		s.record(err)
		return Validation{}, err
	}

	if customerKey != "" {
		used, err := s.store.HasUsage(ctx, c.Code, customerKey)
		if err != nil {
			return Validation{}, err
		}
		if used {
			s.record(ErrAlreadyUsed)
			return Validation{}, ErrAlreadyUsed
		}
	}

	v := Validation{Coupon: c, Discount: Apply(c, items)}
	s.record(nil)
	s.logger.Debug().
		Str("code", c.Code).
		Str("discount", v.Discount.String()).
		Msg("coupon validated")
	return v, nil
}

func (s *Service) record(err error) {
	if obs.CouponRedemptionsTotal == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrInactive):
		result = "inactive"
	case errors.Is(err, ErrExpired):
		result = "expired"
	case errors.Is(err, ErrUsageLimitReached):
		result = "limit_reached"
	case errors.Is(err, ErrAlreadyUsed):
		result = "already_used"
	case errors.Is(err, ErrMinimumSpendUnmet), errors.Is(err, ErrMinimumQuantityUnmet):
		result = "minimum_unmet"
	default:
		result = "error"
	}
	obs.CouponRedemptionsTotal.WithLabelValues(result).Inc()
}
