package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DailySales is one day's order aggregates.
type DailySales struct {
	Day       time.Time       `json:"day"`
	Orders    int64           `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
	Discounts decimal.Decimal `json:"discounts"`
}

// TopProduct is a ranked best-seller row.
type TopProduct struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	QtySold   int64           `json:"qtySold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Overview summarises recent store performance.
type Overview struct {
	Orders            int64           `json:"orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	AvgOrderValue     decimal.Decimal `json:"avgOrderValue"`
	CouponRedemptions int64           `json:"couponRedemptions"`
}

// Querier defines the database access required for analytics reads.
type Querier interface {
	SalesDaily(ctx context.Context, from, to time.Time) ([]DailySales, error)
	TopProducts(ctx context.Context, limit, offset int32) ([]TopProduct, error)
	Overview(ctx context.Context, since time.Time) (Overview, error)
}

// Service provides cached access to order aggregates. Cancelled orders are
// excluded from every metric.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesRange returns per-day sales between from (inclusive) and to (exclusive).
func (s *Service) SalesRange(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("an", "sales", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []DailySales
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.SalesDaily(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopProducts returns best sellers ordered by quantity sold.
func (s *Service) TopProducts(ctx context.Context, limit, offset int32) ([]TopProduct, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	key := cacheKey("an", "top", limit, offset)
	var cached []TopProduct
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopProducts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// StoreOverview summarises the trailing default range.
func (s *Service) StoreOverview(ctx context.Context) (Overview, error) {
	if s == nil || s.Q == nil {
		return Overview{}, fmt.Errorf("analytics service not configured")
	}
	days := s.DefaultRange
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)
	key := cacheKey("an", "overview", since.Format("2006-01-02"))
	var cached Overview
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	overview, err := s.Q.Overview(ctx, since)
	if err != nil {
		return Overview{}, err
	}
	s.store(ctx, key, overview)
	return overview, nil
}

func (s *Service) getCached(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
