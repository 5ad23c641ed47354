package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/pawkart/backend/internal/analytics"
)

type stubQueries struct {
	salesCalls    int
	topCalls      int
	overviewCalls int
}

func (s *stubQueries) SalesDaily(_ context.Context, from, _ time.Time) ([]analytics.DailySales, error) {
	s.salesCalls++
	return []analytics.DailySales{{
		Day:     from,
		Orders:  3,
		Revenue: decimal.NewFromInt(4500),
	}}, nil
}

func (s *stubQueries) TopProducts(context.Context, int32, int32) ([]analytics.TopProduct, error) {
	s.topCalls++
	return []analytics.TopProduct{{ProductID: "p1", Name: "Adult Dog Kibble 3kg", QtySold: 12, Revenue: decimal.NewFromInt(15588)}}, nil
}

func (s *stubQueries) Overview(context.Context, time.Time) (analytics.Overview, error) {
	s.overviewCalls++
	return analytics.Overview{Orders: 10, Revenue: decimal.NewFromInt(12000), AvgOrderValue: decimal.NewFromInt(1200)}, nil
}

func newTestService(t *testing.T) (*analytics.Service, *stubQueries) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	queries := &stubQueries{}
	return &analytics.Service{Q: queries, R: rdb, TTL: time.Minute, DefaultRange: 30}, queries
}

func TestSalesRangeCached(t *testing.T) {
	svc, queries := newTestService(t)
	from := time.Now().Add(-24 * time.Hour).Truncate(24 * time.Hour)
	to := time.Now().Truncate(24 * time.Hour)

	if _, err := svc.SalesRange(context.Background(), from, to); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.SalesRange(context.Background(), from, to); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if queries.salesCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.salesCalls)
	}
}

func TestTopProductsCached(t *testing.T) {
	svc, queries := newTestService(t)

	rows, err := svc.TopProducts(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(rows) != 1 || rows[0].QtySold != 12 {
		t.Fatalf("unexpected rows %#v", rows)
	}
	if _, err := svc.TopProducts(context.Background(), 10, 0); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if queries.topCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.topCalls)
	}

	// Different pagination misses the cache.
	if _, err := svc.TopProducts(context.Background(), 5, 0); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if queries.topCalls != 2 {
		t.Fatalf("expected 2 DB calls, got %d", queries.topCalls)
	}
}

func TestOverviewCached(t *testing.T) {
	svc, queries := newTestService(t)

	if _, err := svc.StoreOverview(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.StoreOverview(context.Background()); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if queries.overviewCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.overviewCalls)
	}
}
