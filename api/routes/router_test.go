package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gocloud.dev/blob/memblob"

	"github.com/Abhijit5011/Electromart/api/controllers"
	"github.com/Abhijit5011/Electromart/internal/auth"
	checkoutsvc "github.com/Abhijit5011/Electromart/internal/checkout"
	"github.com/Abhijit5011/Electromart/internal/dashboard"
	product "github.com/Abhijit5011/Electromart/internal/products"
	"github.com/Abhijit5011/Electromart/internal/reviews"
	pkgAuth "github.com/Abhijit5011/Electromart/pkg/auth"
	"github.com/Abhijit5011/Electromart/pkg/config"
	"github.com/Abhijit5011/Electromart/pkg/db/dbtest"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
	"github.com/Abhijit5011/Electromart/pkg/storage"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubBans struct{}

func (stubBans) IsBanned(context.Context, uuid.UUID) (bool, error) { return false, nil }

// memoryRedis keeps idempotency records and window counters in process.
type memoryRedis struct {
	mu       sync.Mutex
	values   map[string]string
	counters map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, counters: map[string]int64{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[scope]++
	count := m.counters[scope]
	return count <= limit, count, nil
}

type stubAuth struct{}

func (stubAuth) Login(context.Context, auth.LoginRequest) (*auth.SessionResponse, error) {
	return &auth.SessionResponse{AccessToken: "a", RefreshToken: "r"}, nil
}

func (stubAuth) Signup(context.Context, auth.SignupRequest) (*auth.SessionResponse, error) {
	return &auth.SessionResponse{AccessToken: "a", RefreshToken: "r"}, nil
}

func (stubAuth) Resume(context.Context, auth.ResumeRequest) (*auth.SessionResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
}

func (stubAuth) Logout(context.Context, string) error { return nil }

type countingCheckout struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCheckout) PlaceOrder(_ context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return &models.Order{
		ID:          uuid.New(),
		UserID:      input.UserID,
		TotalAmount: decimal.NewFromInt(500),
		Status:      enums.OrderStatusPlaced,
	}, nil
}

type stubDashboard struct{}

func (stubDashboard) Stats(context.Context) (dashboard.Stats, error) {
	return dashboard.Stats{TotalOrders: 3, PendingOrders: 1}, nil
}

type stubReviews struct{}

func (stubReviews) CanReview(context.Context, uuid.UUID, uuid.UUID) bool { return false }

func (stubReviews) Create(context.Context, uuid.UUID, uuid.UUID, reviews.CreateInput) (reviews.ReviewDTO, error) {
	return reviews.ReviewDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "not eligible")
}

func (stubReviews) ListForProduct(context.Context, uuid.UUID) (reviews.ProductReviews, error) {
	return reviews.ProductReviews{Items: []reviews.ReviewDTO{}}, nil
}

func (stubReviews) AdminList(context.Context, pagination.Params) (reviews.AdminReviewPage, error) {
	return reviews.AdminReviewPage{}, nil
}

func (stubReviews) Delete(context.Context, uuid.UUID) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", CORSOrigins: "*"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginIPLimit:    2,
			LoginEmailLimit: 2,
		},
	}
}

type testEnv struct {
	cfg      *config.Config
	router   http.Handler
	checkout *countingCheckout
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})

	bucket := storage.New(memblob.OpenBucket(nil), "https://cdn.electromart.test", 1<<20)
	t.Cleanup(func() { _ = bucket.Close() })
	products, err := product.NewService(product.NewRepository(dbtest.Open(t)), bucket, logg)
	if err != nil {
		t.Fatalf("product service: %v", err)
	}

	checkout := &countingCheckout{}
	router := NewRouter(Params{
		Config:          cfg,
		Logger:          logg,
		Pingers:         map[string]controllers.Pinger{"db": stubPinger{}},
		Redis:           newMemoryRedis(),
		Sessions:        stubSessions{},
		Bans:            stubBans{},
		Auth:            stubAuth{},
		Products:        products,
		Checkout:        checkout,
		Reviews:         stubReviews{},
		Dashboard:       stubDashboard{},
		ResolveImageURL: bucket.PublicURL,
	})
	return testEnv{cfg: cfg, router: router, checkout: checkout}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(env testEnv, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndPublicCatalog(t *testing.T) {
	env := newTestEnv(t)

	if resp := serve(env, httptest.NewRequest(http.MethodGet, "/health/live", nil)); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp := serve(env, httptest.NewRequest(http.MethodGet, "/health/ready", nil)); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", resp.Code)
	}
	if resp := serve(env, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)); resp.Code != http.StatusOK {
		t.Fatalf("categories: expected 200 got %d", resp.Code)
	}
	if resp := serve(env, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)); resp.Code != http.StatusOK {
		t.Fatalf("products: expected 200 got %d", resp.Code)
	}
}

func TestProductReviewsPublicButPostingNeedsLogin(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v1/products/" + uuid.NewString() + "/reviews"

	if resp := serve(env, httptest.NewRequest(http.MethodGet, path, nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected public reviews 200 got %d", resp.Code)
	}
	resp := serve(env, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"rating":5,"comment":"ok"}`)))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, path+"/eligibility", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, env.cfg, enums.RoleUser))
	resp = serve(env, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"can_review":false`) {
		t.Fatalf("unexpected eligibility %d %s", resp.Code, resp.Body.String())
	}
}

func TestCustomerRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/v1/me", "/api/v1/cart", "/api/v1/orders", "/api/v1/favorites", "/api/v1/addresses"} {
		if resp := serve(env, httptest.NewRequest(http.MethodGet, path, nil)); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, env.cfg, enums.RoleUser))
	if resp := serve(env, req); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, env.cfg, enums.RoleAdmin))
	resp := serve(env, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"pending_orders":1`) {
		t.Fatalf("unexpected dashboard body %s", resp.Body.String())
	}
}

func TestCheckoutReplaysStoredResponse(t *testing.T) {
	env := newTestEnv(t)
	token := buildToken(t, env.cfg, enums.RoleUser)
	body := `{"address_id":"` + uuid.NewString() + `"}`

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "checkout-1")
		return serve(env, req)
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical replay body")
	}
	if env.checkout.calls != 1 {
		t.Fatalf("expected one placement, got %d", env.checkout.calls)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t)
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.co","password":"secret1"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		last = serve(env, req).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third attempt got %d", last)
	}
}
