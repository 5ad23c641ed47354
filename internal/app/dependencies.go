package app

import (
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pawkart/backend/internal/analytics"
	"github.com/pawkart/backend/internal/audit"
	"github.com/pawkart/backend/internal/auth"
	"github.com/pawkart/backend/internal/cart"
	"github.com/pawkart/backend/internal/catalog"
	"github.com/pawkart/backend/internal/checkout"
	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/config"
	"github.com/pawkart/backend/internal/coupon"
	"github.com/pawkart/backend/internal/events"
	"github.com/pawkart/backend/internal/favorites"
	"github.com/pawkart/backend/internal/lock"
	"github.com/pawkart/backend/internal/notify"
	"github.com/pawkart/backend/internal/order"
	"github.com/pawkart/backend/internal/payment"
	"github.com/pawkart/backend/internal/repo"
	"github.com/pawkart/backend/internal/resilience"
	"github.com/pawkart/backend/internal/user"
)

// Dependencies is the fully constructed service graph shared by the API
// and worker entrypoints.
type Dependencies struct {
	Repos RepoSet

	Catalog   *catalog.Service
	Coupons   *coupon.Service
	Checkout  *checkout.Service
	Cart      *cart.Service
	Orders    *order.Service
	Payments  *payment.Service
	Auth      *auth.Service
	Addresses *user.Service
	Favorites *favorites.Service
	Analytics *analytics.Service
	Audit     audit.Service
	Bus       *events.Bus

	Validator  *validator.Validate
	Idem       common.Idem
	TaskClient *asynq.Client
}

// RepoSet groups the postgres repositories.
type RepoSet struct {
	Users     repo.UsersRepo
	Sessions  repo.SessionsRepo
	Addresses repo.AddressesRepo
	Products  repo.ProductsRepo
	Profiles  repo.ProfilesRepo
	Offers    repo.OffersRepo
	Tiers     repo.TiersRepo
	Coupons   repo.CouponsRepo
	Carts     repo.CartsRepo
	Orders    repo.OrdersRepo
	Events    repo.EventsRepo
	Favorites repo.FavoritesRepo
	Audit     repo.AuditRepo
}

// BuildParams carries the external resources Build wires together.
type BuildParams struct {
	Config     *config.Config
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Logger     zerolog.Logger
	TaskClient *asynq.Client
}

// Build constructs the service graph. It performs no I/O.
func Build(p BuildParams) *Dependencies {
	cfg := p.Config
	repos := RepoSet{
		Users:     repo.UsersRepo{Pool: p.Pool},
		Sessions:  repo.SessionsRepo{Pool: p.Pool},
		Addresses: repo.AddressesRepo{Pool: p.Pool},
		Products:  repo.ProductsRepo{Pool: p.Pool},
		Profiles:  repo.ProfilesRepo{Pool: p.Pool},
		Offers:    repo.OffersRepo{Pool: p.Pool},
		Tiers:     repo.TiersRepo{Pool: p.Pool},
		Coupons:   repo.CouponsRepo{Pool: p.Pool},
		Carts:     repo.CartsRepo{Pool: p.Pool},
		Orders:    repo.OrdersRepo{Pool: p.Pool},
		Events:    repo.EventsRepo{Pool: p.Pool},
		Favorites: repo.FavoritesRepo{Pool: p.Pool},
		Audit:     repo.AuditRepo{Pool: p.Pool},
	}

	catalogSvc := catalog.NewService(catalog.ServiceConfig{
		Products: repos.Products,
		Offers:   repos.Offers,
		Tiers:    repos.Tiers,
		Cache:    catalog.NewCache(p.Redis, cfg.CatalogCacheTTL),
	})

	couponSvc := coupon.NewService(coupon.ServiceConfig{
		Store:  repos.Coupons,
		Logger: p.Logger,
	})

	checkoutSvc := checkout.NewService(checkout.ServiceConfig{
		Carts:                 repos.Carts,
		Users:                 repos.Users,
		Profiles:              repos.Profiles,
		Addresses:             repos.Addresses,
		Catalog:               catalogSvc,
		Coupons:               couponSvc,
		FlatShippingThreshold: cfg.FlatShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
		Logger:                p.Logger,
	})

	cartSvc := cart.NewService(cart.ServiceConfig{
		Carts:    repos.Carts,
		Products: repos.Products,
		Offers:   repos.Offers,
		Quoter:   checkoutSvc,
		Coupons:  couponSvc,
		Logger:   p.Logger,
	})

	paymentSvc := &payment.Service{
		Provider: payment.Gateway{
			KeyID:     cfg.PaymentKeyID,
			KeySecret: cfg.PaymentKeySecret,
			BaseURL:   cfg.PaymentBaseURL,
			HTTP:      resilience.NewHTTPClient(10 * time.Second),
			IntentTTL: cfg.PaymentRecordTTL,
		},
		Redis:  p.Redis,
		TTL:    cfg.PaymentRecordTTL,
		Logger: p.Logger,
	}

	bus := &events.Bus{Store: repos.Events}
	if p.TaskClient != nil {
		bus.Notifiers = append(bus.Notifiers, notify.Enqueuer{Client: p.TaskClient, Logger: p.Logger})
	}

	orderSvc := order.NewService(order.ServiceConfig{
		Quoter:   checkoutSvc,
		Orders:   repos.Orders,
		Carts:    repos.Carts,
		Users:    repos.Users,
		Payments: paymentSvc,
		Bus:      bus,
		Locks:    &lock.Locker{R: p.Redis},
		Currency: cfg.Currency,
		Logger:   p.Logger,
	})

	authSvc := auth.NewService(auth.Config{
		Users:    repos.Users,
		Sessions: repos.Sessions,
		Tokens: auth.TokenService{
			Secret:    []byte(cfg.JWTSecret),
			Issuer:    cfg.JWTIssuer,
			Audience:  cfg.JWTAudience,
			AccessTTL: cfg.AccessTokenTTL,
			ClockSkew: 30 * time.Second,
		},
		RefreshTTL: cfg.RefreshTokenTTL,
	})

	return &Dependencies{
		Repos:     repos,
		Catalog:   catalogSvc,
		Coupons:   couponSvc,
		Checkout:  checkoutSvc,
		Cart:      cartSvc,
		Orders:    orderSvc,
		Payments:  paymentSvc,
		Auth:      authSvc,
		Addresses: &user.Service{Addresses: repos.Addresses},
		Favorites: &favorites.Service{Favorites: repos.Favorites, Products: repos.Products},
		Analytics: &analytics.Service{
			Q:            analytics.PGQuerier{Pool: p.Pool},
			R:            p.Redis,
			TTL:          cfg.AnalyticsCacheTTL,
			DefaultRange: 30,
		},
		Audit:      audit.Service{Store: repos.Audit, Enabled: true, SamplingRate: 1},
		Bus:        bus,
		Validator:  validator.New(),
		Idem:       common.Idem{R: p.Redis, TTL: cfg.IdempotencyTTL},
		TaskClient: p.TaskClient,
	}
}
