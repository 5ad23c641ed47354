package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts order creation outcomes.
	OrdersCreatedTotal *prometheus.CounterVec
	// CouponRedemptionsTotal counts coupon validation and redemption outcomes.
	CouponRedemptionsTotal *prometheus.CounterVec
	// PaymentVerificationsTotal counts payment signature verification outcomes.
	PaymentVerificationsTotal *prometheus.CounterVec
	// ComboDiscountApplied tracks combo discount amounts granted at quote time.
	ComboDiscountApplied prometheus.Histogram
	// QuoteLatency records pricing quote computation latency in milliseconds.
	QuoteLatency prometheus.Histogram
	// CatalogCacheHits counts catalog cache lookups by result.
	CatalogCacheHits *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of order creation attempts by outcome.",
		}, []string{"customer_type", "result"})
		CouponRedemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_total",
			Help:      "Count of coupon validations and redemptions by outcome.",
		}, []string{"result"})
		PaymentVerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Count of payment signature verifications by outcome.",
		}, []string{"result"})
		ComboDiscountApplied = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "combo_discount_amount",
			Help:      "Combo discount amounts granted at quote time.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500},
		})
		QuoteLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Pricing quote computation latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		})
		CatalogCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_lookups_total",
			Help:      "Catalog cache lookups by result.",
		}, []string{"kind", "result"})

		mustRegisterCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, CouponRedemptionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponRedemptionsTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentVerificationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentVerificationsTotal = v
			}
		})
		mustRegisterCollector(reg, ComboDiscountApplied, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				ComboDiscountApplied = v
			}
		})
		mustRegisterCollector(reg, QuoteLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				QuoteLatency = v
			}
		})
		mustRegisterCollector(reg, CatalogCacheHits, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogCacheHits = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
