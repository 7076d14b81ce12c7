package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Abhijit5011/Electromart/internal/reviews"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/metrics"
)

// Stats is the admin overview. Nothing is cached between calls.
type Stats struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int             `json:"total_orders"`
	PendingOrders int             `json:"pending_orders"`
	TotalUsers    int64           `json:"total_users"`
	TotalProducts int64           `json:"total_products"`
	AverageRating float64         `json:"average_rating"`
	TotalReviews  int             `json:"total_reviews"`
	TotalFeedback int64           `json:"total_feedback"`
}

type orderTotals interface {
	OrderTotals(ctx context.Context) ([]OrderTotal, error)
}

type counter interface {
	Count(ctx context.Context) (int64, error)
}

type ratingReader interface {
	Ratings(ctx context.Context) ([]int, error)
}

// ServiceParams groups the five independent readers.
type ServiceParams struct {
	Orders   orderTotals
	Profiles counter
	Products counter
	Reviews  ratingReader
	Feedback counter
	Metrics  *metrics.DashboardMetrics
	Logger   *logger.Logger
}

type Service interface {
	Stats(ctx context.Context) (Stats, error)
}

type service struct {
	orders   orderTotals
	profiles counter
	products counter
	reviews  ratingReader
	feedback counter
	metrics  *metrics.DashboardMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil || params.Profiles == nil || params.Products == nil || params.Reviews == nil || params.Feedback == nil {
		return nil, fmt.Errorf("dashboard readers required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:   params.Orders,
		profiles: params.Profiles,
		products: params.Products,
		reviews:  params.Reviews,
		feedback: params.Feedback,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Stats runs the five reads concurrently and reduces them in memory.
func (s *service) Stats(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStats(time.Since(start), err) }()

	var (
		orders              []OrderTotal
		ratings             []int
		users, products, fb int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.orders.OrderTotals(gctx)
		return wrap(err, "load order totals")
	})
	g.Go(func() error {
		var err error
		users, err = s.profiles.Count(gctx)
		return wrap(err, "count profiles")
	})
	g.Go(func() error {
		var err error
		products, err = s.products.Count(gctx)
		return wrap(err, "count products")
	})
	g.Go(func() error {
		var err error
		ratings, err = s.reviews.Ratings(gctx)
		return wrap(err, "load ratings")
	})
	g.Go(func() error {
		var err error
		fb, err = s.feedback.Count(gctx)
		return wrap(err, "count feedback")
	})
	if err = g.Wait(); err != nil {
		s.logg.Error(ctx, "dashboard stats failed", err)
		return Stats{}, err
	}

	stats = Reduce(orders, ratings)
	stats.TotalUsers = users
	stats.TotalProducts = products
	stats.TotalFeedback = fb
	return stats, nil
}

// Reduce folds order totals and ratings into the order and review figures.
func Reduce(orders []OrderTotal, ratings []int) Stats {
	revenue := decimal.Zero
	pending := 0
	for _, o := range orders {
		if o.Status != enums.OrderStatusCancelled {
			revenue = revenue.Add(o.TotalAmount)
		}
		if o.Status.IsPending() {
			pending++
		}
	}
	return Stats{
		TotalRevenue:  revenue,
		TotalOrders:   len(orders),
		PendingOrders: pending,
		AverageRating: reviews.AverageRating(ratings),
		TotalReviews:  len(ratings),
	}
}

func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
