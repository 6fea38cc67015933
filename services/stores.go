package services

import (
	"context"
	"errors"
	"time"

	"agri-market/models"
	"agri-market/repository"
	"agri-market/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore persists accounts and their embedded carts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context, role models.Role) (int64, error)
	SaveCart(ctx context.Context, id primitive.ObjectID, cart []models.CartItem) error
	ClearAllCarts(ctx context.Context) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, role models.Role, p models.Profile) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

// ProductStore persists the catalog.
type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	InsertProducts(ctx context.Context, products []models.Product) error
	FindProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListProductsByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]models.Product, error)
	ListProductIDs(ctx context.Context) ([]primitive.ObjectID, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	DeleteProductsByFarmer(ctx context.Context, farmerID primitive.ObjectID) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
}

// OrderStore persists orders. Status writes are conditional on the
// previous state and fail with repository.ErrConflict when it changed.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
	FindOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) error
	CompletePayment(ctx context.Context, id primitive.ObjectID) error
	DeleteOrdersByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
}

// ReportStore runs the read-only aggregations behind the dashboards.
type ReportStore interface {
	DeliveredRevenue(ctx context.Context) (float64, error)
	SalesSince(ctx context.Context, since time.Time) ([]models.DailySales, error)
	FarmerOrderQueue(ctx context.Context, farmerID primitive.ObjectID) ([]models.FarmerOrder, error)
	CountDeliveredItems(ctx context.Context, farmerID primitive.ObjectID) (int64, error)
}

// FeedbackStore persists user feedback.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
}

// Transactor runs fn as one atomic unit of store work.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoTransaction runs fn directly, for backends without transactions.
type NoTransaction struct{}

func (NoTransaction) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ParseID parses a hex object id supplied by a client.
func ParseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, utils.InvalidInput("Invalid " + what + " ID")
	}
	return id, nil
}

// notFoundOr turns repository.ErrNotFound into a NotFound error with msg and
// wraps anything else as a server error.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NotFound(msg)
	}
	return utils.ServerError(err)
}

// Stores bundles the backends the services run on.
type Stores struct {
	Users    UserStore
	Products ProductStore
	Orders   OrderStore
	Reports  ReportStore
	Feedback FeedbackStore
	Tx       Transactor
}

// Services is the full set of marketplace services over one backend.
type Services struct {
	Auth     *AuthService
	Cart     *CartService
	Orders   *OrderService
	Products *ProductService
	Users    *UserService
	Reports  *ReportService
	Feedback *FeedbackService
	Seeder   *Seeder
}

// New wires every service to st. notifier may be nil.
func New(st Stores, tokens *utils.TokenManager, notifier OrderNotifier) *Services {
	return &Services{
		Auth:     NewAuthService(st.Users, st.Products, tokens),
		Cart:     NewCartService(st.Users, st.Products),
		Orders:   NewOrderService(st.Users, st.Products, st.Orders, st.Tx, notifier),
		Products: NewProductService(st.Products, st.Users),
		Users:    NewUserService(st.Users, st.Products, st.Orders, st.Reports, st.Tx),
		Reports:  NewReportService(st.Users, st.Products, st.Orders, st.Reports),
		Feedback: NewFeedbackService(st.Feedback),
		Seeder:   NewSeeder(st.Users, st.Products),
	}
}
