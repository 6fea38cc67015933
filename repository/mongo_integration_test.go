package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"agri-market/models"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRepoTestSuite runs against a live server, set MONGO_TEST_URI to
// enable it. Every run uses a throwaway database.
type MongoRepoTestSuite struct {
	suite.Suite
	client   *mongo.Client
	db       *mongo.Database
	users    *UserRepository
	products *ProductRepository
	orders   *OrderRepository
}

func (s *MongoRepoTestSuite) SetupSuite() {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		s.T().Skip("MONGO_TEST_URI not set")
	}
	client, err := ConnectDB(context.Background(), uri)
	require.NoError(s.T(), err)
	s.client = client
	s.db = client.Database("agrimarket_test_" + primitive.NewObjectID().Hex())
	require.NoError(s.T(), EnsureIndexes(context.Background(), s.db))

	s.users = NewUserRepository(s.db)
	s.products = NewProductRepository(s.db)
	s.orders = NewOrderRepository(s.db)
}

func (s *MongoRepoTestSuite) SetupTest() {
	ctx := context.Background()
	for _, name := range []string{UsersCollection, ProductsCollection, OrdersCollection} {
		_, err := s.db.Collection(name).DeleteMany(ctx, map[string]interface{}{})
		require.NoError(s.T(), err)
	}
}

func (s *MongoRepoTestSuite) TearDownSuite() {
	if s.client == nil {
		return
	}
	ctx := context.Background()
	require.NoError(s.T(), s.db.Drop(ctx))
	require.NoError(s.T(), s.client.Disconnect(ctx))
}

func (s *MongoRepoTestSuite) TestDuplicateUsername() {
	ctx := context.Background()
	require.NoError(s.T(), s.users.CreateUser(ctx, &models.User{Username: "dup", Role: models.RoleConsumer}))

	err := s.users.CreateUser(ctx, &models.User{Username: "dup", Role: models.RoleFarmer})
	var dup *DuplicateKeyError
	require.True(s.T(), errors.As(err, &dup), "got %v", err)
	s.Equal("username", dup.Field)

	_, err = s.users.FindUserByUsername(ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *MongoRepoTestSuite) TestCartRoundTrip() {
	ctx := context.Background()
	user := &models.User{Username: "cart", Role: models.RoleConsumer}
	require.NoError(s.T(), s.users.CreateUser(ctx, user))

	product := primitive.NewObjectID()
	require.NoError(s.T(), s.users.SaveCart(ctx, user.ID, []models.CartItem{{Product: product, Quantity: 4}}))

	got, err := s.users.FindUserByID(ctx, user.ID)
	require.NoError(s.T(), err)
	s.Equal([]models.CartItem{{Product: product, Quantity: 4}}, got.Cart)

	require.NoError(s.T(), s.users.ClearAllCarts(ctx))
	got, err = s.users.FindUserByID(ctx, user.ID)
	require.NoError(s.T(), err)
	s.Empty(got.Cart)
}

func (s *MongoRepoTestSuite) TestConditionalStatusWrites() {
	ctx := context.Background()
	order := &models.Order{
		User:          primitive.NewObjectID(),
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(s.T(), s.orders.CreateOrder(ctx, order))

	require.NoError(s.T(), s.orders.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusProcessing))
	s.ErrorIs(s.orders.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled), ErrConflict)
	s.ErrorIs(s.orders.TransitionStatus(ctx, primitive.NewObjectID(), models.OrderStatusPending, models.OrderStatusProcessing), ErrNotFound)

	s.ErrorIs(s.orders.CompletePayment(ctx, order.ID), ErrConflict)
	require.NoError(s.T(), s.orders.TransitionStatus(ctx, order.ID, models.OrderStatusProcessing, models.OrderStatusDelivered))
	require.NoError(s.T(), s.orders.CompletePayment(ctx, order.ID))

	got, err := s.orders.FindOrderByID(ctx, order.ID)
	require.NoError(s.T(), err)
	s.Equal(models.PaymentStatusCompleted, got.PaymentStatus)
}

func (s *MongoRepoTestSuite) TestReports() {
	ctx := context.Background()
	farmer := primitive.NewObjectID()
	product := &models.Product{Name: "Okra", Price: 30, Farmer: farmer}
	require.NoError(s.T(), s.products.CreateProduct(ctx, product))

	now := time.Now().UTC()
	delivered := &models.Order{
		User:          primitive.NewObjectID(),
		Items:         []models.OrderItem{{Product: product.ID, Quantity: 2, Price: 30}},
		TotalAmount:   60,
		Status:        models.OrderStatusDelivered,
		PaymentStatus: models.PaymentStatusCompleted,
		CreatedAt:     now,
	}
	pending := &models.Order{
		User:          primitive.NewObjectID(),
		Items:         []models.OrderItem{{Product: product.ID, Quantity: 1, Price: 30}},
		TotalAmount:   30,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		CreatedAt:     now,
	}
	require.NoError(s.T(), s.orders.CreateOrder(ctx, delivered))
	require.NoError(s.T(), s.orders.CreateOrder(ctx, pending))

	revenue, err := s.orders.DeliveredRevenue(ctx)
	require.NoError(s.T(), err)
	s.Equal(60.0, revenue)

	sales, err := s.orders.SalesSince(ctx, now.Add(-time.Hour))
	require.NoError(s.T(), err)
	require.Len(s.T(), sales, 1)
	s.Equal(now.Format("2006-01-02"), sales[0].Date)

	queue, err := s.orders.FarmerOrderQueue(ctx, farmer)
	require.NoError(s.T(), err)
	require.Len(s.T(), queue, 1)
	s.Equal(pending.ID, queue[0].ID)

	n, err := s.orders.CountDeliveredItems(ctx, farmer)
	require.NoError(s.T(), err)
	s.EqualValues(1, n)

	deleted, err := s.products.DeleteProductsByFarmer(ctx, farmer)
	require.NoError(s.T(), err)
	s.EqualValues(1, deleted)
}

func TestMongoRepoTestSuite(t *testing.T) {
	suite.Run(t, new(MongoRepoTestSuite))
}
