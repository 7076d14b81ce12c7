package cart

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/Abhijit5011/Electromart/internal/products"
	"github.com/Abhijit5011/Electromart/pkg/db/dbtest"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

type recordingNotifier struct {
	mu     sync.Mutex
	counts []int64
}

func (n *recordingNotifier) CartChanged(_ context.Context, _ uuid.UUID, count int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.counts = append(n.counts, count)
}

type fixture struct {
	svc      Service
	notifier *recordingNotifier
	products *product.Repository
	userID   uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	products := product.NewRepository(conn)
	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Products: products,
		Notifier: notifier,
		Logger:   logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return fixture{svc: svc, notifier: notifier, products: products, userID: uuid.New()}
}

func (f fixture) seed(t *testing.T, name, price string) models.Product {
	t.Helper()
	p := models.Product{
		Name:           name,
		Category:       "Electrical",
		Price:          decimal.RequireFromString(price),
		Images:         types.StringList{name + ".png"},
		StockQuantity:  10,
		DeliveryCharge: decimal.NewFromInt(40),
	}
	require.NoError(t, f.products.Create(context.Background(), &p))
	return p
}

func TestAddToCartIsNotCumulative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Switch", "80")

	first, err := f.svc.AddToCart(ctx, f.userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)

	_, err = f.svc.IncrementQuantity(ctx, f.userID, first.ID)
	require.NoError(t, err)

	again, err := f.svc.AddToCart(ctx, f.userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, again.Quantity, "re-adding resets to one")

	count, err := f.svc.Count(ctx, f.userID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestStepperFloorsAtOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Socket", "120")

	line, err := f.svc.AddToCart(ctx, f.userID, p.ID)
	require.NoError(t, err)

	line, err = f.svc.DecrementQuantity(ctx, f.userID, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)

	line, err = f.svc.IncrementQuantity(ctx, f.userID, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.LineTotal.Equal(decimal.NewFromInt(240)))

	line, err = f.svc.UpdateQuantity(ctx, f.userID, line.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)

	line, err = f.svc.UpdateQuantity(ctx, f.userID, line.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
}

func TestOnlyOwnerMayChangeLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Fuse", "30")

	line, err := f.svc.AddToCart(ctx, f.userID, p.ID)
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = f.svc.IncrementQuantity(ctx, stranger, line.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.UpdateQuantity(ctx, stranger, line.ID, 9)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = f.svc.RemoveLine(ctx, stranger, line.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	view, err := f.svc.ListCart(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)
}

func TestListCartTotalsAndNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed(t, "Bulb", "100")
	b := f.seed(t, "Tube", "250")

	_, err := f.svc.AddToCart(ctx, f.userID, a.ID)
	require.NoError(t, err)
	lineB, err := f.svc.AddToCart(ctx, f.userID, b.ID)
	require.NoError(t, err)
	_, err = f.svc.IncrementQuantity(ctx, f.userID, lineB.ID)
	require.NoError(t, err)

	view, err := f.svc.ListCart(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.True(t, view.Totals.Subtotal.Equal(decimal.NewFromInt(600)))
	assert.True(t, view.Totals.Delivery.Equal(decimal.NewFromInt(80)))
	assert.True(t, view.Totals.Total.Equal(decimal.NewFromInt(680)))

	require.NoError(t, f.svc.RemoveLine(ctx, f.userID, lineB.ID))
	assert.Equal(t, []int64{1, 2, 2, 1}, f.notifier.counts)
}

func TestAddUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddToCart(context.Background(), f.userID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestEmptyCartRendersEmptySlice(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.ListCart(context.Background(), f.userID)
	require.NoError(t, err)
	assert.NotNil(t, view.Items)
	assert.True(t, view.Totals.Total.IsZero())
}

type fakePublisher struct {
	channel string
	message any
	err     error
}

func (p *fakePublisher) CartChannel(userID string) string { return "em:cart:" + userID }

func (p *fakePublisher) Publish(_ context.Context, channel string, message any) (int64, error) {
	p.channel = channel
	p.message = message
	return 1, p.err
}

func TestRedisNotifierPublishesCount(t *testing.T) {
	pub := &fakePublisher{}
	userID := uuid.New()
	n := NewRedisNotifier(pub, logger.New(logger.Options{Output: io.Discard}))

	n.CartChanged(context.Background(), userID, 3)
	assert.Equal(t, "em:cart:"+userID.String(), pub.channel)

	evt, err := DecodeCountEvent(pub.message.(string))
	require.NoError(t, err)
	assert.EqualValues(t, 3, evt.Count)

	pub.err = errors.New("redis down")
	assert.NotPanics(t, func() { n.CartChanged(context.Background(), userID, 4) })
}
