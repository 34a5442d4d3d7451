package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/storefront-toko/internal/catalog"
	"github.com/noah-isme/storefront-toko/internal/checkout"
	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/config"
	"github.com/noah-isme/storefront-toko/internal/favorites"
	"github.com/noah-isme/storefront-toko/internal/health"
	"github.com/noah-isme/storefront-toko/internal/lock"
	"github.com/noah-isme/storefront-toko/internal/money"
	"github.com/noah-isme/storefront-toko/internal/obs"
	"github.com/noah-isme/storefront-toko/internal/order"
	"github.com/noah-isme/storefront-toko/internal/ratelimit"
	"github.com/noah-isme/storefront-toko/internal/security"
	"github.com/noah-isme/storefront-toko/internal/session"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/tracking"
	"github.com/noah-isme/storefront-toko/internal/user"
	"github.com/noah-isme/storefront-toko/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "storefront")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", false)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:    envOrDefault("OBS_SERVICE_NAME", obs.DefaultServiceName),
			ServiceVersion: envOrDefault("OBS_SERVICE_VERSION", ""),
			Endpoint:       envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:       envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio:  sampling,
			Environment:    cfg.AppEnv,
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

	redisClient := connectRedis(cfg, logger, metricsEnabled)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	shopClient, err := shopapi.NewClient(shopapi.Config{
		BaseURL:             cfg.ShopAPIBaseURL,
		Timeout:             cfg.ShopAPITimeout,
		MaxAttempts:         cfg.ShopAPIRetryMaxAttempts,
		BaseBackoff:         cfg.ShopAPIRetryBase,
		Jitter:              cfg.ShopAPIRetryJitter,
		BreakerMinRequests:  cfg.ShopAPIBreakerMinRequests,
		BreakerFailureRatio: cfg.ShopAPIBreakerFailureRate,
		BreakerOpenFor:      cfg.ShopAPIBreakerOpenFor,
		Logger:              logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise shop api client")
	}
	shop := &catalog.CachedAPI{
		API:    shopClient,
		Cache:  catalog.NewCache(redisClient, cfg.CatalogCacheTTL, "storefront:catalog:"),
		Lock:   &lock.Locker{Client: redisClient, Prefix: "storefront:lock:"},
		Logger: logger,
	}

	moneyFmt := money.New(cfg.MoneySymbol, cfg.MoneyExchangeRate)
	renderer := view.New(view.Options{
		Money:       moneyFmt,
		AssetBase:   cfg.AssetBaseURL,
		Development: cfg.AppEnv == "development",
		Logger:      logger,
	})

	users := user.NewStore()
	var wishlistStore favorites.Store
	memWishlist := favorites.NewMemoryStore()
	if redisClient != nil {
		wishlistStore = &favorites.RedisStore{Client: redisClient, TTL: 30 * 24 * time.Hour}
	} else {
		wishlistStore = memWishlist
	}

	registry := session.NewRegistry(func() *checkout.Session {
		return checkout.NewSession(shop, logger)
	}, cfg.SessionIdleTTL)
	registry.OnEvict = func(id string) {
		users.Forget(id)
		memWishlist.Forget(id)
	}
	cartCount := func(r *http.Request) int {
		return registry.Current(r).CartQuantity(r.Context())
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{API: shop, Money: moneyFmt})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService, Sessions: registry, View: renderer})

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	checkoutHandler := &checkout.Handler{
		Sessions:    registry,
		View:        renderer,
		Presenter:   checkout.NewPresenter(moneyFmt, cfg.DisplayLocation),
		OrderGuards: []func(http.Handler) http.Handler{idem.Middleware},
	}

	orderService := &order.Service{API: shop, Decorator: order.Decorator{Money: moneyFmt, Location: cfg.DisplayLocation}}
	orderHandler := &order.Handler{Service: orderService, View: renderer, CartCount: cartCount}

	trackingHandler := &tracking.Handler{
		Service:   &tracking.Service{API: shop, Location: cfg.DisplayLocation, Now: time.Now},
		View:      renderer,
		CartCount: cartCount,
	}

	favoritesService := &favorites.Service{Catalog: catalogService, Store: wishlistStore, Size: cfg.WishlistSize}
	favoritesHandler := &favorites.Handler{Svc: favoritesService, Sessions: registry, View: renderer}

	profileHandler := &user.Handler{
		Service:   user.NewService(users),
		Orders:    orderService,
		Favorites: favoritesService,
		View:      renderer,
		CartCount: cartCount,
	}

	sessions := session.NewStore(session.Options{
		AuthKey:  cfg.SessionAuthKey,
		EncKey:   cfg.SessionEncKey,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
		Logger:   logger,
	})
	csrf := security.CSRF{Secure: cfg.CookieSecure, SameSite: cfg.CookieSameSite}

	limiterStore, err := ratelimit.NewStore(redisClient, cfg.RateLimitMutations, "storefront:ratelimit")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	mutationLimit := ratelimit.Handler{
		Limiter: limiterStore,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
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
	r.Use(obs.SurfaceMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", security.DefaultCSRFHeader},
		ExposedHeaders:   []string{"X-Total-Count", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.Headers{
		Enable:                true,
		EnableHSTS:            cfg.CookieSecure,
		ContentSecurityPolicy: security.StorefrontCSP(cfg.AssetBaseURL),
	}.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		pprofUser := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pprofPass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), pprofUser, pprofPass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{shop: shopClient, redis: redisClient},
		ShopTimeout:  envDurationMillis("HEALTH_READY_SHOP_TIMEOUT_MS", 2000),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Group(func(s chi.Router) {
		s.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
		s.Use(sessions.Middleware)
		s.Use(withRequestLogger(logger))
		s.Use(csrf.Middleware)
		s.Use(mutationsOnly(mutationLimit.Middleware))

		s.Get("/", catalogHandler.Home)
		s.Post("/cart", catalogHandler.AddToCart)
		s.Route("/checkout", checkoutHandler.Routes)
		s.Get("/tracking", trackingHandler.Track)
		s.Route("/orders", orderHandler.Routes)
		s.Route("/profile", func(p chi.Router) {
			p.Route("/wishlist", favoritesHandler.Routes)
			profileHandler.Routes(p)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, registry, cfg.SessionIdleTTL, logger)

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("shop_api", cfg.ShopAPIBaseURL).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-ctx.Done()
	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func connectRedis(cfg *config.Config, logger zerolog.Logger, metricsEnabled bool) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set, using in-process stores")
		return nil
	}
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(client, redisotel.WithMeterProvider(obs.MeterProvider())); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

// withRequestLogger puts a logger tagged with the request and session ids on
// the context for zerolog.Ctx.
func withRequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, _ := common.SessionID(r.Context())
			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("storefront.session_id", sid))
			l := base.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("session_id", sid).
				Logger()
			next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
		})
	}
}

// mutationsOnly applies mw to unsafe methods and lets reads through.
func mutationsOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				limited.ServeHTTP(w, r)
			}
		})
	}
}

func sweepSessions(ctx context.Context, registry *session.Registry, idleTTL time.Duration, logger zerolog.Logger) {
	if idleTTL <= 0 {
		return
	}
	interval := idleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := registry.Sweep(); dropped > 0 {
				logger.Debug().Int("dropped", dropped).Int("live", registry.Len()).Msg("swept idle sessions")
			}
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	shop  shopapi.API
	redis *redis.Client
}

func (c readinessChecker) PingShop(ctx context.Context, timeout time.Duration) error {
	if c.shop == nil {
		return errors.New("shop api not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := c.shop.DeliveryOptions(ctx)
	return err
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		// optional dependency
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
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

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
