package admin

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

const dashboardListSize = 5

type Stats struct {
	TotalBooks   int                  `json:"totalBooks"`
	TotalUsers   int                  `json:"totalUsers"`
	TotalOrders  int                  `json:"totalOrders"`
	TotalRevenue decimal.Decimal      `json:"totalRevenue"`
	OrderStats   []domain.StatusCount `json:"orderStats"`
	RecentOrders []domain.Order       `json:"recentOrders"`
	TopBooks     []domain.Book        `json:"topBooks"`
}

// OrderLedger is the read side of the order ledger used by the dashboard.
type OrderLedger interface {
	Count(ctx context.Context) (int, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	CountByStatus(ctx context.Context) ([]domain.StatusCount, error)
	Recent(ctx context.Context, limit int) ([]domain.Order, error)
}

// collectStats runs the dashboard queries concurrently.
func (h *Handler) collectStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalBooks, err = h.books.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = h.users.CountByRole(gctx, domain.RoleUser)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = h.ledger.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = h.ledger.Revenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OrderStats, err = h.ledger.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentOrders, err = h.ledger.Recent(gctx, dashboardListSize)
		return err
	})
	g.Go(func() (err error) {
		stats.TopBooks, err = h.books.TopReviewed(gctx, dashboardListSize)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
