package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/api/controllers"
	"github.com/Abhijit5011/Electromart/api/routes"
	"github.com/Abhijit5011/Electromart/internal/address"
	"github.com/Abhijit5011/Electromart/internal/auth"
	"github.com/Abhijit5011/Electromart/internal/cart"
	"github.com/Abhijit5011/Electromart/internal/checkout"
	"github.com/Abhijit5011/Electromart/internal/dashboard"
	"github.com/Abhijit5011/Electromart/internal/favorites"
	"github.com/Abhijit5011/Electromart/internal/feedback"
	"github.com/Abhijit5011/Electromart/internal/orders"
	product "github.com/Abhijit5011/Electromart/internal/products"
	"github.com/Abhijit5011/Electromart/internal/profiles"
	"github.com/Abhijit5011/Electromart/internal/reviews"
	"github.com/Abhijit5011/Electromart/pkg/auth/session"
	"github.com/Abhijit5011/Electromart/pkg/config"
	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/metrics"
	"github.com/Abhijit5011/Electromart/pkg/migrate"
	"github.com/Abhijit5011/Electromart/pkg/outbox"
	"github.com/Abhijit5011/Electromart/pkg/redis"
	"github.com/Abhijit5011/Electromart/pkg/retry"
	"github.com/Abhijit5011/Electromart/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	bucket, err := storage.Open(bootCtx, cfg.Storage, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, bucket.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	params, err := buildServices(cfg, logg, dbClient, redisClient, bucket, sessionManager, promReg)
	if err != nil {
		return err
	}
	params.Metrics = metrics.NewHTTPMetrics(promReg)
	params.Pingers = map[string]controllers.Pinger{
		"db":      dbClient,
		"redis":   redisClient,
		"storage": bucket,
	}
	params.Redis = redisClient
	params.Sessions = sessionManager

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"serviceKind": cfg.Service.Kind,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.Handle("/", routes.NewRouter(params))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	bucket *storage.Bucket,
	sessionManager *session.Manager,
	promReg prometheus.Registerer,
) (routes.Params, error) {
	conn := dbClient.DB()
	resolve := bucket.PublicURL
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	profileRepo := profiles.NewRepository(conn)
	addressRepo := address.NewRepository(conn)
	productRepo := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	favoritesRepo := favorites.NewRepository(conn)
	reviewsRepo := reviews.NewRepository(conn)
	feedbackRepo := feedback.NewRepository(conn)
	notifier := cart.NewRedisNotifier(redisClient, logg)

	p := routes.Params{
		Config:          cfg,
		Logger:          logg,
		Bans:            profiles.NewBanChecker(profileRepo),
		CartFeed:        cart.NewRedisCountFeed(redisClient, logg),
		ResolveImageURL: resolve,
	}

	var errs error
	collect := func(err error) { errs = multierr.Append(errs, err) }
	var err error

	p.Auth, err = auth.NewService(auth.ServiceParams{
		ProfileRepo:    profileRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	collect(err)

	p.Profiles, err = profiles.NewService(profiles.ServiceParams{
		DB:         dbClient,
		Repo:       profileRepo,
		Addresses:  addressRepo,
		Cart:       cartRepo,
		Favorites:  favoritesRepo,
		Orders:     func(tx *gorm.DB) profiles.OrderCounter { return ordersRepo.WithTx(tx) },
		Outbox:     outboxSvc,
		ResolveURL: resolve,
		Logger:     logg,
	})
	collect(err)

	p.Addresses, err = address.NewService(addressRepo, dbClient)
	collect(err)

	p.Products, err = product.NewService(productRepo, bucket, logg)
	collect(err)

	p.Cart, err = cart.NewService(cart.ServiceParams{
		Repo:       cartRepo,
		Products:   productRepo,
		Notifier:   notifier,
		ResolveURL: resolve,
		Logger:     logg,
	})
	collect(err)

	p.Checkout, err = checkout.NewService(checkout.ServiceParams{
		DB:        dbClient,
		CartRepo:  cartRepo,
		Orders:    ordersRepo,
		Addresses: checkout.AddressRepoFactory(addressRepo),
		Outbox:    outboxSvc,
		Notifier:  notifier,
		Retry:     retry.PolicyFromConfig(cfg.Retry),
		Logger:    logg,
	})
	collect(err)

	p.Orders, err = orders.NewService(orders.ServiceParams{
		DB:         dbClient,
		Repo:       ordersRepo,
		Stock:      func(tx *gorm.DB) orders.StockRepository { return productRepo.WithTx(tx) },
		Profiles:   profileRepo,
		Outbox:     outboxSvc,
		ResolveURL: resolve,
		Logger:     logg,
	})
	collect(err)

	p.Favorites, err = favorites.NewService(favorites.ServiceParams{
		Repo:       favoritesRepo,
		Products:   productRepo,
		ResolveURL: resolve,
		Logger:     logg,
	})
	collect(err)

	p.Reviews, err = reviews.NewService(reviews.ServiceParams{
		Repo:       reviewsRepo,
		Orders:     ordersRepo,
		Products:   productRepo,
		ResolveURL: resolve,
		Logger:     logg,
	})
	collect(err)

	p.Feedback, err = feedback.NewService(feedbackRepo, logg)
	collect(err)

	p.Dashboard, err = dashboard.NewService(dashboard.ServiceParams{
		Orders:   dashboard.NewOrderReader(conn),
		Profiles: profileRepo,
		Products: productRepo,
		Reviews:  reviewsRepo,
		Feedback: feedbackRepo,
		Metrics:  metrics.NewDashboardMetrics(promReg),
		Logger:   logg,
	})
	collect(err)

	return p, errs
}
