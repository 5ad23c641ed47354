package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/pawkart/backend/internal/analytics"
	"github.com/pawkart/backend/internal/app"
	"github.com/pawkart/backend/internal/audit"
	"github.com/pawkart/backend/internal/auth"
	"github.com/pawkart/backend/internal/cart"
	"github.com/pawkart/backend/internal/catalog"
	"github.com/pawkart/backend/internal/checkout"
	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/config"
	"github.com/pawkart/backend/internal/coupon"
	"github.com/pawkart/backend/internal/db"
	"github.com/pawkart/backend/internal/favorites"
	"github.com/pawkart/backend/internal/health"
	"github.com/pawkart/backend/internal/obs"
	"github.com/pawkart/backend/internal/order"
	"github.com/pawkart/backend/internal/payment"
	"github.com/pawkart/backend/internal/ratelimit"
	"github.com/pawkart/backend/internal/security"
	"github.com/pawkart/backend/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pawkart")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pawkart-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "pawkart-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if tracingEnabled {
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	deps := app.Build(app.BuildParams{
		Config:     cfg,
		Pool:       pool,
		Redis:      redisClient,
		Logger:     logger,
		TaskClient: taskClient,
	})

	secureCookies := cfg.AppEnv == "production"
	authMw := auth.Middleware{
		Service:       deps.Auth,
		SessionCookie: cfg.SessionCookie,
		SecureCookies: secureCookies,
	}

	rateLimiter, err := ratelimit.New(redisClient, cfg.RateLimitPerMinute, time.Minute)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	limitMw := ratelimit.Handler{Limiter: rateLimiter, Key: ratelimit.ClientKey}

	catalogHandler := catalog.NewHandler(deps.Catalog)
	authHandler := &auth.Handler{Svc: deps.Auth, Validate: deps.Validator}
	cartHandler := &cart.Handler{Svc: deps.Cart, Quoter: deps.Checkout, Validate: deps.Validator}
	checkoutHandler := &checkout.Handler{Svc: deps.Checkout}
	couponHandler := &coupon.Handler{Svc: deps.Coupons, Creator: deps.Repos.Coupons, Validate: deps.Validator}
	orderHandler := &order.Handler{Svc: deps.Orders, Validate: deps.Validator}
	paymentHandler := &payment.Handler{Svc: deps.Payments, Quoter: deps.Checkout, Currency: cfg.Currency, Validate: deps.Validator}
	addressHandler := &user.Handler{Svc: deps.Addresses, Validate: deps.Validator}
	favoritesHandler := &favorites.Handler{Svc: deps.Favorites}
	analyticsHandler := &analytics.Handler{Svc: deps.Analytics}
	auditHandler := audit.Handler{Store: deps.Repos.Audit}
	auditRecorder := audit.HTTPRecorder{
		Service: &deps.Audit,
		OnError: func(err error) { logger.Warn().Err(err).Msg("audit record failed") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: secureCookies}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      health.Probes{Pool: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limitMw.Middleware)
		v.Use(authMw.Identify)

		v.Get("/products", catalogHandler.Products)
		v.Get("/combo-offers", catalogHandler.Offers)
		v.Get("/delivery-tiers", catalogHandler.DeliveryTiers)

		v.Route("/auth", func(a chi.Router) {
			a.Post("/register", authHandler.Register)
			a.Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)
			a.With(authMw.RequireUser).Get("/me", authHandler.Me)
		})

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items/{itemID}", cartHandler.SetQty)
			c.Delete("/items/{itemID}", cartHandler.RemoveItem)
			c.Post("/coupon", cartHandler.ApplyCoupon)
			c.Delete("/coupon", cartHandler.RemoveCoupon)
			c.With(authMw.RequireUser).Post("/merge", cartHandler.Merge)
		})

		v.Get("/checkout/quote", checkoutHandler.Quote)
		v.Post("/coupons/check", couponHandler.CheckCoupon)

		v.Route("/payments", func(p chi.Router) {
			p.With(deps.Idem.Middleware).Post("/intent", paymentHandler.CreateIntent)
			p.Post("/verify", paymentHandler.Verify)
		})

		v.Route("/users/me/addresses", func(a chi.Router) {
			a.Use(authMw.RequireUser)
			a.Get("/", addressHandler.List)
			a.Post("/", addressHandler.Create)
			a.Put("/{addressID}", addressHandler.Update)
			a.Delete("/{addressID}", addressHandler.Delete)
		})

		v.Route("/favorites", func(f chi.Router) {
			f.Use(authMw.RequireUser)
			f.Get("/", favoritesHandler.List)
			f.Put("/{productID}", favoritesHandler.Add)
			f.Delete("/{productID}", favoritesHandler.Remove)
		})

		v.Route("/orders", func(o chi.Router) {
			o.With(deps.Idem.Middleware).Post("/", orderHandler.Create)
			o.Group(func(g chi.Router) {
				g.Use(authMw.RequireUser)
				g.Get("/", orderHandler.List)
				g.Get("/{orderID}", orderHandler.Get)
				g.Post("/{orderID}/cancel", orderHandler.Cancel)
			})
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMw.RequireUser)
			admin.Use(requireRole(deps, "admin"))
			admin.With(auditRecorder.Middleware(audit.HTTPConfig{
				Action:       "coupon.create",
				ResourceType: "coupon",
			})).Post("/coupons", couponHandler.Create)
			admin.Route("/analytics", func(an chi.Router) {
				an.Get("/sales", analyticsHandler.Sales)
				an.Get("/top-products", analyticsHandler.TopProducts)
				an.Get("/overview", analyticsHandler.Overview)
			})
			admin.Get("/audit-logs", auditHandler.List)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// requireRole gates admin routes on the stored user role.
func requireRole(deps *app.Dependencies, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := common.IdentityFrom(r.Context())
			if !ok || !identity.Authenticated() {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "forbidden", nil)
				return
			}
			user, err := deps.Repos.Users.Get(r.Context(), identity.UserID)
			if err != nil || user.Role != role {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
