package payment

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pawkart/backend/internal/obs"
)

var (
	// ErrInvalidSignature is returned when the gateway callback signature
	// does not match.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrNotVerified is returned when no verified-payment record exists
	// for the payment id, or it was already consumed.
	ErrNotVerified = errors.New("payment not verified")
)

const recordPrefix = "payment:verified:"

// Service verifies gateway callbacks and keeps consume-once records of
// verified payments in Redis. Order creation redeems a record exactly once;
// the TTL bounds how long a verified payment can wait for its order.
type Service struct {
	Provider Provider
	Redis    *redis.Client
	TTL      time.Duration
	Logger   zerolog.Logger
}

// VerifyAndRecord checks the signature and stores the verified-payment
// record. Verifying the same payment twice is idempotent while the record
// is unconsumed.
func (s *Service) VerifyAndRecord(ctx context.Context, orderRef, paymentID, signature string) error {
	if !s.Provider.VerifySignature(orderRef, paymentID, signature) {
		s.count("invalid_signature")
		s.Logger.Warn().Str("payment_id", paymentID).Msg("payment signature rejected")
		return ErrInvalidSignature
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if err := s.Redis.Set(ctx, recordPrefix+paymentID, orderRef, ttl).Err(); err != nil {
		s.count("store_error")
		return err
	}
	s.count("ok")
	return nil
}

// Consume atomically redeems the verified-payment record, returning the
// order reference it was verified for. A second consume fails.
func (s *Service) Consume(ctx context.Context, paymentID string) (string, error) {
	orderRef, err := s.Redis.GetDel(ctx, recordPrefix+paymentID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.count("consume_miss")
			return "", ErrNotVerified
		}
		return "", err
	}
	s.count("consumed")
	return orderRef, nil
}

func (s *Service) count(result string) {
	if obs.PaymentVerificationsTotal != nil {
		obs.PaymentVerificationsTotal.WithLabelValues(result).Inc()
	}
}
