package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Abhijit5011/Electromart/api/controllers"
	admincontrollers "github.com/Abhijit5011/Electromart/api/controllers/admin"
	cartcontrollers "github.com/Abhijit5011/Electromart/api/controllers/cart"
	ordercontrollers "github.com/Abhijit5011/Electromart/api/controllers/orders"
	"github.com/Abhijit5011/Electromart/api/middleware"
	"github.com/Abhijit5011/Electromart/internal/address"
	"github.com/Abhijit5011/Electromart/internal/auth"
	"github.com/Abhijit5011/Electromart/internal/cart"
	checkoutsvc "github.com/Abhijit5011/Electromart/internal/checkout"
	"github.com/Abhijit5011/Electromart/internal/dashboard"
	"github.com/Abhijit5011/Electromart/internal/favorites"
	"github.com/Abhijit5011/Electromart/internal/feedback"
	"github.com/Abhijit5011/Electromart/internal/orders"
	products "github.com/Abhijit5011/Electromart/internal/products"
	"github.com/Abhijit5011/Electromart/internal/profiles"
	"github.com/Abhijit5011/Electromart/internal/reviews"
	"github.com/Abhijit5011/Electromart/pkg/auth/session"
	"github.com/Abhijit5011/Electromart/pkg/config"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/metrics"
	pkgredis "github.com/Abhijit5011/Electromart/pkg/redis"
)

// RedisStore is the Redis surface the HTTP layer needs for idempotency replay and auth throttling.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Params groups everything the router mounts. Nil services answer 500 from their handlers.
type Params struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.HTTPMetrics

	// Readiness probes keyed by dependency name.
	Pingers map[string]controllers.Pinger
	Redis   RedisStore

	Sessions session.AccessSessionChecker
	Bans     middleware.BanChecker

	Auth      auth.Service
	Profiles  profiles.Service
	Addresses address.Service
	Products  products.Service
	Cart      cart.Service
	CartFeed  cartcontrollers.CountFeed
	Checkout  checkoutsvc.Service
	Orders    orders.Service
	Favorites favorites.Service
	Reviews   reviews.Service
	Feedback  feedback.Service
	Dashboard dashboard.Service

	// ResolveImageURL turns a stored image path into a public URL.
	ResolveImageURL func(string) string
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	// typed nil must not reach the middleware as a non-nil interface
	var idemStore pkgredis.IdempotencyStore
	var limiter RedisStore
	if p.Redis != nil {
		idemStore = p.Redis
		limiter = p.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	customer := []func(http.Handler) http.Handler{
		middleware.Auth(cfg.JWT, p.Sessions, p.Bans, logg),
		middleware.Idempotency(idemStore, logg),
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Pingers))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
			r.With(
				middleware.AuthRateLimit(signupPolicy, limiter, logg),
				middleware.Idempotency(idemStore, logg),
			).Post("/signup", controllers.AuthSignup(p.Auth, logg))
			r.Post("/resume", controllers.AuthResume(p.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(p.Auth, cfg.JWT, logg))
		})

		// catalog is public
		r.Get("/categories", controllers.Categories(p.Products))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.Products, logg))
			r.Get("/featured", controllers.ProductFeatured(p.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(p.Products, logg))
			r.Get("/{productId}/related", controllers.ProductRelated(p.Products, logg))
			r.Get("/{productId}/reviews", controllers.ProductReviews(p.Reviews, logg))

			r.Group(func(r chi.Router) {
				r.Use(customer...)
				r.Get("/{productId}/reviews/eligibility", controllers.ReviewEligibility(p.Reviews, logg))
				r.Post("/{productId}/reviews", controllers.ReviewCreate(p.Reviews, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(customer...)

			r.Get("/me", controllers.MeGet(p.Profiles, logg))
			r.Patch("/me", controllers.MeUpdate(p.Profiles, logg))

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(p.Addresses, logg))
				r.Post("/", controllers.AddressCreate(p.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(p.Addresses, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(p.Cart, logg))
				r.Get("/count", cartcontrollers.CartCount(p.Cart, logg))
				r.Get("/stream", cartcontrollers.CartStream(p.Cart, p.CartFeed, cfg.App.AllowedOrigins(), logg))
				r.Post("/items", cartcontrollers.CartAddItem(p.Cart, logg))
				r.Patch("/items/{itemId}", cartcontrollers.CartUpdateQuantity(p.Cart, logg))
				r.Post("/items/{itemId}/increment", cartcontrollers.CartIncrement(p.Cart, logg))
				r.Post("/items/{itemId}/decrement", cartcontrollers.CartDecrement(p.Cart, logg))
				r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(p.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(p.Checkout, p.ResolveImageURL, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(p.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(p.Orders, logg))
				r.Post("/{orderId}/cancel", ordercontrollers.CancelOrder(p.Orders, logg))
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", controllers.FavoriteList(p.Favorites, logg))
				r.Get("/{productId}", controllers.FavoriteStatus(p.Favorites, logg))
				r.Post("/{productId}/toggle", controllers.FavoriteToggle(p.Favorites, logg))
			})

			r.Route("/feedback", func(r chi.Router) {
				r.Get("/", controllers.FeedbackList(p.Feedback, logg))
				r.Post("/", controllers.FeedbackCreate(p.Feedback, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, p.Bans, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/dashboard", admincontrollers.Dashboard(p.Dashboard, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(p.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.AdminUpdateStatus(p.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", admincontrollers.ProductList(p.Products, logg))
			r.Post("/", admincontrollers.ProductCreate(p.Products, logg))
			r.Post("/images", admincontrollers.ProductImageUpload(p.Products, uploadLimit(cfg), logg))
			r.Put("/{productId}", admincontrollers.ProductUpdate(p.Products, logg))
			r.Delete("/{productId}", admincontrollers.ProductDelete(p.Products, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", admincontrollers.UserList(p.Profiles, logg))
			r.Post("/{userId}/ban", admincontrollers.UserToggleBan(p.Profiles, logg))
			r.Delete("/{userId}", admincontrollers.UserDelete(p.Profiles, logg))
			r.Get("/{userId}/details", admincontrollers.UserDetails(p.Profiles, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", admincontrollers.ReviewList(p.Reviews, logg))
			r.Delete("/{reviewId}", admincontrollers.ReviewDelete(p.Reviews, logg))
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Get("/", admincontrollers.FeedbackList(p.Feedback, logg))
			r.Patch("/{feedbackId}/status", admincontrollers.FeedbackUpdateStatus(p.Feedback, logg))
		})
	})

	return r
}

// uploadLimit caps multipart bodies slightly above the configured image size so the
// storage layer reports the size violation instead of the form parser.
func uploadLimit(cfg *config.Config) int64 {
	mb := cfg.Storage.MaxUploadMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb)<<20 + 1<<20
}
