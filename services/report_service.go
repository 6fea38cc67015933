package services

import (
	"context"
	"time"

	"agri-market/models"
	"agri-market/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// salesWindow is how far back the sales chart reaches.
const salesWindow = 30 * 24 * time.Hour

// ReportService answers the dashboard queries. It never writes.
type ReportService struct {
	users    UserStore
	products ProductStore
	orders   OrderStore
	reports  ReportStore
	now      func() time.Time
}

func NewReportService(users UserStore, products ProductStore, orders OrderStore, reports ReportStore) *ReportService {
	return &ReportService{users: users, products: products, orders: orders, reports: reports, now: time.Now}
}

// Summary counts accounts, products and orders and sums delivered revenue.
func (rs *ReportService) Summary(ctx context.Context) (*models.AdminSummary, error) {
	var s models.AdminSummary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.TotalConsumers, err = rs.users.CountUsers(ctx, models.RoleConsumer)
		return err
	})
	g.Go(func() (err error) {
		s.TotalFarmers, err = rs.users.CountUsers(ctx, models.RoleFarmer)
		return err
	})
	g.Go(func() (err error) {
		s.TotalProducts, err = rs.products.CountProducts(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.TotalOrders, err = rs.orders.CountOrders(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.TotalRevenue, err = rs.reports.DeliveredRevenue(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, utils.ServerError(err)
	}
	s.TotalUsers = s.TotalConsumers + s.TotalFarmers
	return &s, nil
}

// SalesOverTime returns delivered revenue per UTC day over the last 30
// days, oldest first. Days without sales are omitted.
func (rs *ReportService) SalesOverTime(ctx context.Context) ([]models.DailySales, error) {
	sales, err := rs.reports.SalesSince(ctx, rs.now().UTC().Add(-salesWindow))
	if err != nil {
		return nil, utils.ServerError(err)
	}
	if sales == nil {
		sales = []models.DailySales{}
	}
	return sales, nil
}

// FarmerQueue returns the orders the farmer still has to act on, restricted
// to the farmer's own line items. Only the farmer or an admin may see it.
func (rs *ReportService) FarmerQueue(ctx context.Context, actor models.Identity, farmerID primitive.ObjectID) ([]models.FarmerOrder, error) {
	if !actor.IsAdmin() && !(actor.Role == models.RoleFarmer && actor.Is(farmerID)) {
		return nil, utils.Forbidden("User not authorized")
	}
	queue, err := rs.reports.FarmerOrderQueue(ctx, farmerID)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	if queue == nil {
		queue = []models.FarmerOrder{}
	}
	return queue, nil
}

// AdminOrders returns every order, newest first, with the consumer, the
// products and their farmers resolved.
func (rs *ReportService) AdminOrders(ctx context.Context) ([]models.PopulatedOrder, error) {
	orders, err := rs.orders.ListOrders(ctx)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	views, err := populateOrders(ctx, rs.users, rs.products, orders, true)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	return views, nil
}
