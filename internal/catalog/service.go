package catalog

import (
	"context"
	"time"

	"github.com/pawkart/backend/internal/combo"
	"github.com/pawkart/backend/internal/obs"
	"github.com/pawkart/backend/internal/repo"
	"github.com/pawkart/backend/internal/shipping"
)

const (
	keyOffers = "catalog:combo-offers"
	keyTiers  = "catalog:delivery-tiers"
)

// Service serves catalog reads the pricing pipeline depends on, fronted by
// a short-lived Redis cache. The cache is best effort: a Redis outage
// degrades to database reads.
type Service struct {
	products repo.ProductsRepo
	offers   repo.OffersRepo
	tiers    repo.TiersRepo
	cache    *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Products repo.ProductsRepo
	Offers   repo.OffersRepo
	Tiers    repo.TiersRepo
	Cache    *Cache
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		products: cfg.Products,
		offers:   cfg.Offers,
		tiers:    cfg.Tiers,
		cache:    cfg.Cache,
	}
}

// ActiveOffers returns active combo offers, cached.
func (s *Service) ActiveOffers(ctx context.Context) ([]combo.Offer, error) {
	var cached []combo.Offer
	if hit, err := s.cache.GetJSON(ctx, keyOffers, &cached); err == nil && hit {
		recordCacheLookup("offers", "hit")
		return cached, nil
	}
	recordCacheLookup("offers", "miss")
	offers, err := s.offers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, keyOffers, offers)
	return offers, nil
}

// ActiveTiers returns the delivery fee table, cached.
func (s *Service) ActiveTiers(ctx context.Context) ([]shipping.Tier, error) {
	var cached []shipping.Tier
	if hit, err := s.cache.GetJSON(ctx, keyTiers, &cached); err == nil && hit {
		recordCacheLookup("tiers", "hit")
		return cached, nil
	}
	recordCacheLookup("tiers", "miss")
	tiers, err := s.tiers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, keyTiers, tiers)
	return tiers, nil
}

// ProductsByIDs loads the product rows needed to price a cart. Not cached:
// prices and stock change too often for the catalog TTL.
func (s *Service) ProductsByIDs(ctx context.Context, ids []string) (map[string]repo.Product, error) {
	return s.products.ListByIDs(ctx, ids)
}

// ListProducts returns the active catalog page.
func (s *Service) ListProducts(ctx context.Context, limit, offset int32) ([]repo.Product, error) {
	return s.products.ListActive(ctx, limit, offset)
}

// SaleWindow is re-exported for handlers needing "on sale now" badges.
func (s *Service) SaleActive(p repo.Product, now time.Time) bool {
	return p.SaleActiveAt(now)
}

func recordCacheLookup(kind, result string) {
	if obs.CatalogCacheHits != nil {
		obs.CatalogCacheHits.WithLabelValues(kind, result).Inc()
	}
}
