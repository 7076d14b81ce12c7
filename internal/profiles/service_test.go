package profiles

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/internal/address"
	"github.com/Abhijit5011/Electromart/internal/cart"
	"github.com/Abhijit5011/Electromart/internal/favorites"
	"github.com/Abhijit5011/Electromart/internal/orders"
	product "github.com/Abhijit5011/Electromart/internal/products"
	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/db/dbtest"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/outbox"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

type fixture struct {
	client   *db.Client
	repo     *Repository
	outbox   *outbox.Repository
	products *product.Repository
	svc      Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.OpenClient(t)
	conn := client.DB()
	logg := logger.New(logger.Options{ServiceName: "profiles-test", Output: io.Discard})
	repo := NewRepository(conn)
	outboxRepo := outbox.NewRepository(conn)

	svc, err := NewService(ServiceParams{
		DB:        client,
		Repo:      repo,
		Addresses: address.NewRepository(conn),
		Cart:      cart.NewRepository(conn),
		Favorites: favorites.NewRepository(conn),
		Orders:    countOrdersIn(orders.NewRepository(conn)),
		Outbox:    outbox.NewService(outboxRepo, logg),
		Logger:    logg,
	})
	require.NoError(t, err)
	return &fixture{client: client, repo: repo, outbox: outboxRepo, products: product.NewRepository(conn), svc: svc}
}

func countOrdersIn(repo orders.Repository) OrderCounterFactory {
	return func(tx *gorm.DB) OrderCounter { return repo.WithTx(tx) }
}

func (f *fixture) seedProfile(t *testing.T, email string, role enums.Role) models.Profile {
	t.Helper()
	p := models.Profile{Name: "Asha", Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, f.repo.Create(context.Background(), &p))
	return p
}

func TestUpdateMeTrimsAndRequiresName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProfile(t, "asha@example.com", enums.RoleUser)

	dto, err := f.svc.UpdateMe(ctx, p.ID, UpdateInput{Name: "  Asha Rao ", Phone: " 9876543210 "})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", dto.Name)
	assert.Equal(t, "9876543210", dto.Phone)

	_, err = f.svc.UpdateMe(ctx, p.ID, UpdateInput{Name: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateMe(ctx, uuid.New(), UpdateInput{Name: "Ghost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestToggleBanFlipsAndEmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedProfile(t, "admin@example.com", enums.RoleAdmin)
	user := f.seedProfile(t, "user@example.com", enums.RoleUser)
	checker := NewBanChecker(f.repo)

	dto, err := f.svc.ToggleBan(ctx, admin.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, dto.IsBanned)
	banned, err := checker.IsBanned(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, banned)

	dto, err = f.svc.ToggleBan(ctx, admin.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, dto.IsBanned)

	rows, err := f.outbox.ListByAggregate(nil, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.EventProfileBanToggled, rows[0].EventType)

	_, err = f.svc.ToggleBan(ctx, admin.ID, admin.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestBanCheckerTreatsMissingProfileAsBanned(t *testing.T) {
	f := newFixture(t)
	banned, err := NewBanChecker(f.repo).IsBanned(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestDeleteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedProfile(t, "admin@example.com", enums.RoleAdmin)
	buyer := f.seedProfile(t, "buyer@example.com", enums.RoleUser)
	idle := f.seedProfile(t, "idle@example.com", enums.RoleUser)

	order := models.Order{
		UserID:       buyer.ID,
		TotalAmount:  decimal.NewFromInt(100),
		Status:       enums.OrderStatusPlaced,
		ItemsSummary: types.OrderItemSummaries{},
	}
	require.NoError(t, f.client.DB().Create(&order).Error)

	err := f.svc.Delete(ctx, admin.ID, admin.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = f.svc.Delete(ctx, admin.ID, buyer.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, f.svc.Delete(ctx, admin.ID, idle.ID))
	_, err = f.svc.Me(ctx, idle.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteCountsOrdersInsideTransaction(t *testing.T) {
	f := newFixture(t)
	admin := f.seedProfile(t, "admin@example.com", enums.RoleAdmin)
	idle := f.seedProfile(t, "idle@example.com", enums.RoleUser)

	// the test database allows a single open connection
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, f.svc.Delete(ctx, admin.ID, idle.ID))
	require.NoError(t, ctx.Err())
}

func TestDeleteUsesTransactionBoundCounter(t *testing.T) {
	f := newFixture(t)
	conn := f.client.DB()
	logg := logger.New(logger.Options{ServiceName: "profiles-test", Output: io.Discard})

	var bound []*gorm.DB
	svc, err := NewService(ServiceParams{
		DB:        f.client,
		Repo:      f.repo,
		Addresses: address.NewRepository(conn),
		Cart:      cart.NewRepository(conn),
		Favorites: favorites.NewRepository(conn),
		Orders: func(tx *gorm.DB) OrderCounter {
			bound = append(bound, tx)
			return orders.NewRepository(conn).WithTx(tx)
		},
		Outbox: outbox.NewService(f.outbox, logg),
		Logger: logg,
	})
	require.NoError(t, err)

	admin := f.seedProfile(t, "admin@example.com", enums.RoleAdmin)
	buyer := f.seedProfile(t, "buyer@example.com", enums.RoleUser)
	require.NoError(t, conn.Create(&models.Order{
		UserID:       buyer.ID,
		TotalAmount:  decimal.NewFromInt(50),
		Status:       enums.OrderStatusPlaced,
		ItemsSummary: types.OrderItemSummaries{},
	}).Error)

	err = svc.Delete(context.Background(), admin.ID, buyer.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	require.Len(t, bound, 1)
	assert.NotNil(t, bound[0])
}

func TestDetailsCollectsOwnedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conn := f.client.DB()
	user := f.seedProfile(t, "user@example.com", enums.RoleUser)

	p := models.Product{Name: "Fan", Category: "Appliances", Price: decimal.NewFromInt(1500), Images: types.StringList{"fan.png"}}
	require.NoError(t, f.products.Create(ctx, &p))
	require.NoError(t, address.NewRepository(conn).Create(ctx, &models.Address{
		UserID: user.ID, Name: "Asha", Phone: "9876543210", AddressLine: "1 Main", City: "Pune", State: "MH", Pincode: "411001",
	}))
	_, err := cart.NewRepository(conn).UpsertSingle(ctx, user.ID, p.ID)
	require.NoError(t, err)
	require.NoError(t, favorites.NewRepository(conn).Add(ctx, user.ID, p.ID))

	details, err := f.svc.Details(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, details.Profile.Email)
	assert.Len(t, details.Addresses, 1)
	require.Len(t, details.Cart, 1)
	assert.Equal(t, "Fan", details.Cart[0].Product.Name)
	assert.Len(t, details.Favorites, 1)
}

func TestAdminListPages(t *testing.T) {
	f := newFixture(t)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		f.seedProfile(t, email, enums.RoleUser)
	}

	page, err := f.svc.AdminList(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)

	rest, err := f.svc.AdminList(context.Background(), pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
}

func TestAdminListSearchesNameEmailAndPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.seedProfile(t, "asha@example.com", enums.RoleUser)
	ravi := models.Profile{Name: "Ravi Kumar", Email: "rk@example.com", Phone: "9123456789", PasswordHash: "x", Role: enums.RoleUser}
	require.NoError(t, f.repo.Create(ctx, &ravi))

	cases := []struct {
		query string
		want  uuid.UUID
	}{
		{"KUMAR", ravi.ID},
		{"asha@", asha.ID},
		{"912345", ravi.ID},
	}
	for _, tc := range cases {
		page, err := f.svc.AdminList(ctx, pagination.Params{Query: tc.query})
		require.NoError(t, err)
		require.Len(t, page.Items, 1, tc.query)
		assert.Equal(t, tc.want, page.Items[0].ID, tc.query)
	}
}
