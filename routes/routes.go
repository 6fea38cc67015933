// routes/routes.go
package routes

import (
	"net/http"
	"time"

	"agri-market/controllers"
	"agri-market/middleware"
	"agri-market/models"
	"agri-market/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Controllers groups every HTTP controller of the API
type Controllers struct {
	Auth     *controllers.AuthController
	Product  *controllers.ProductController
	Cart     *controllers.CartController
	Order    *controllers.OrderController
	User     *controllers.UserController
	Admin    *controllers.AdminController
	Feedback *controllers.FeedbackController
	Health   *controllers.HealthController
}

// Options configures the cross-cutting middleware
type Options struct {
	Authenticator  *middleware.Authenticator
	Logger         zerolog.Logger
	RequestTimeout time.Duration
	// Metrics and MetricsHandler are optional
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, auth *middleware.Authenticator) {
	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(h)
	}
	withRole := func(h http.HandlerFunc, roles ...models.Role) http.Handler {
		return auth.Authenticate(middleware.RequireRole(roles...)(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return withRole(h, models.RoleAdmin)
	}

	api := router.PathPrefix("/api").Subrouter()

	// Auth routes
	api.HandleFunc("/auth/register", c.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", c.Auth.Login).Methods(http.MethodPost)

	// Product routes
	api.HandleFunc("/products", c.Product.GetProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/farmer/{farmerId}", c.Product.GetFarmerProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", c.Product.GetProduct).Methods(http.MethodGet)
	api.Handle("/products", withRole(c.Product.CreateProduct, models.RoleFarmer)).Methods(http.MethodPost)
	api.Handle("/products/{id}", withRole(c.Product.UpdateProduct, models.RoleFarmer)).Methods(http.MethodPut)
	api.Handle("/products/{id}", withRole(c.Product.DeleteProduct, models.RoleFarmer)).Methods(http.MethodDelete)

	// Cart routes
	api.Handle("/cart/add", authed(c.Cart.AddToCart)).Methods(http.MethodPost)
	api.Handle("/cart/remove", authed(c.Cart.RemoveFromCart)).Methods(http.MethodPost)

	// Order routes
	api.Handle("/orders", authed(c.Order.CreateOrder)).Methods(http.MethodPost)
	api.Handle("/orders/details/{orderId}", authed(c.Order.GetOrderDetails)).Methods(http.MethodGet)
	api.Handle("/orders/farmer/{farmerId}", withRole(c.Order.GetFarmerOrders, models.RoleFarmer, models.RoleAdmin)).Methods(http.MethodGet)
	api.Handle("/orders/status/{orderId}", withRole(c.Order.UpdateOrderStatus, models.RoleFarmer, models.RoleAdmin)).Methods(http.MethodPut)
	api.Handle("/orders/confirm-payment/{orderId}", authed(c.Order.ConfirmPayment)).Methods(http.MethodPost)
	api.Handle("/orders/{userId}", authed(c.Order.GetUserOrders)).Methods(http.MethodGet)
	api.Handle("/orders/{orderId}", authed(c.Order.CancelOrder)).Methods(http.MethodDelete)

	// User routes; /all must stay ahead of /{userId}
	api.Handle("/users/all", admin(c.User.GetAllUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users/farmer-profile/{farmerId}", c.User.GetFarmerProfile).Methods(http.MethodGet)
	api.Handle("/users/change-password/{userId}", authed(c.User.ChangePassword)).Methods(http.MethodPut)
	api.Handle("/users/verify/{userId}", admin(c.User.ToggleVerify)).Methods(http.MethodPut)
	api.Handle("/users/{userId}", authed(c.User.UpdateUser)).Methods(http.MethodPut)
	api.Handle("/users/{userId}", admin(c.User.DeleteUser)).Methods(http.MethodDelete)
	api.Handle("/users/{userId}", authed(c.User.GetUser)).Methods(http.MethodGet)

	// Analytics and admin routes
	api.Handle("/analytics/summary", admin(c.Admin.GetSummary)).Methods(http.MethodGet)
	api.Handle("/analytics/sales-over-time", admin(c.Admin.GetSalesOverTime)).Methods(http.MethodGet)
	api.Handle("/admin/orders", admin(c.Admin.GetOrders)).Methods(http.MethodGet)
	api.Handle("/admin/orders/export", admin(c.Admin.ExportOrders)).Methods(http.MethodGet)

	// Feedback routes
	api.Handle("/feedback", authed(c.Feedback.SubmitFeedback)).Methods(http.MethodPost)

	router.HandleFunc("/healthz", c.Health.Healthz).Methods(http.MethodGet)
}

// NewHandler builds the complete API handler: routes, request logging,
// per-request timeouts and, when configured, metrics.
func NewHandler(c Controllers, opts Options) http.Handler {
	router := mux.NewRouter()
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}
	RegisterRoutes(router, c, opts.Authenticator)
	if opts.MetricsHandler != nil {
		router.Handle("/metrics", opts.MetricsHandler).Methods(http.MethodGet)
	}

	var h http.Handler = router
	if opts.RequestTimeout > 0 {
		h = middleware.Timeout(opts.RequestTimeout)(h)
	}
	return middleware.Logger(opts.Logger)(h)
}

// NewControllers builds every controller on top of svc.
func NewControllers(svc *services.Services, store controllers.Pinger) Controllers {
	return Controllers{
		Auth:     controllers.NewAuthController(svc.Auth),
		Product:  controllers.NewProductController(svc.Products),
		Cart:     controllers.NewCartController(svc.Cart),
		Order:    controllers.NewOrderController(svc.Orders, svc.Reports),
		User:     controllers.NewUserController(svc.Users),
		Admin:    controllers.NewAdminController(svc.Reports),
		Feedback: controllers.NewFeedbackController(svc.Feedback),
		Health:   controllers.NewHealthController(store),
	}
}
