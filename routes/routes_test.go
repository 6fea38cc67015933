package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agri-market/middleware"
	"agri-market/models"
	"agri-market/repository/memstore"
	"agri-market/services"
	"agri-market/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type APITestSuite struct {
	suite.Suite
	store   *memstore.Store
	handler http.Handler
}

func (s *APITestSuite) SetupTest() {
	s.store = memstore.New()
	tokens, err := utils.NewTokenManager("routes-test-secret", time.Hour)
	require.NoError(s.T(), err)

	svc := services.New(services.Stores{
		Users:    s.store,
		Products: s.store,
		Orders:   s.store,
		Reports:  s.store,
		Feedback: s.store,
		Tx:       services.NoTransaction{},
	}, tokens, nil)
	require.NoError(s.T(), svc.Seeder.Seed(context.Background()))

	reg := prometheus.NewRegistry()
	s.handler = NewHandler(NewControllers(svc, s.store), Options{
		Authenticator:  middleware.NewAuthenticator(tokens, s.store),
		Logger:         zerolog.Nop(),
		RequestTimeout: 5 * time.Second,
		Metrics:        middleware.NewMetrics(reg),
		MetricsHandler: middleware.MetricsHandler(reg),
	})
}

func (s *APITestSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *APITestSuite) decode(rec *httptest.ResponseRecorder, out interface{}) {
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func (s *APITestSuite) msg(rec *httptest.ResponseRecorder) string {
	var body utils.ErrorBody
	s.decode(rec, &body)
	return body.Msg
}

type session struct {
	Token  string          `json:"token"`
	Role   models.Role     `json:"role"`
	UserID string          `json:"userId"`
	Cart   models.CartView `json:"cart"`
}

func (s *APITestSuite) login(username string, role models.Role) session {
	creds := map[string]string{"username": username, "password": "password123", "role": string(role)}
	if role == models.RoleFarmer {
		creds["aadhar"] = "123456789012"
	}
	rec := s.do(http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())
	var sess session
	s.decode(rec, &sess)
	return sess
}

func (s *APITestSuite) catalog() []models.CatalogProduct {
	rec := s.do(http.MethodGet, "/api/products", "", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	var products []models.CatalogProduct
	s.decode(rec, &products)
	return products
}

// placeOrder fills the consumer's cart with two units of the first product
// and places a cash order.
func (s *APITestSuite) placeOrder(consumer session) models.Order {
	product := s.catalog()[0]
	rec := s.do(http.MethodPost, "/api/cart/add", consumer.Token, map[string]interface{}{
		"userId": consumer.UserID, "productId": product.ID.Hex(), "quantity": 2,
	})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/orders", consumer.Token, map[string]string{
		"userId":          consumer.UserID,
		"shippingAddress": "12 Market Road",
		"paymentMethod":   string(models.PaymentCashOnDelivery),
	})
	require.Equal(s.T(), http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Msg   string       `json:"msg"`
		Order models.Order `json:"order"`
	}
	s.decode(rec, &body)
	require.Equal(s.T(), "Order placed successfully!", body.Msg)
	return body.Order
}

func (s *APITestSuite) TestRegisterAndLogin() {
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "asha", "password": "secret", "role": "consumer",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var reg session
	s.decode(rec, &reg)
	s.NotEmpty(reg.Token)
	s.Equal(models.RoleConsumer, reg.Role)

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "asha", "password": "other", "role": "consumer",
	})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "boss", "password": "secret", "role": "admin",
	})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "grower", "password": "secret", "role": "farmer", "aadhar": "1234",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid Aadhaar number", s.msg(rec))

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "asha", "password": "wrong", "role": "consumer",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid credentials", s.msg(rec))

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "x"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("password value missing", s.msg(rec))
}

func (s *APITestSuite) TestCatalogIsPublic() {
	products := s.catalog()
	s.Len(products, 20)
	s.Require().NotNil(products[0].Farmer)
	s.Equal("farmer1", products[0].Farmer.Username)

	rec := s.do(http.MethodGet, "/api/products/"+products[0].ID.Hex(), "", nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/products/not-an-id", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestProductWritesNeedFarmer() {
	consumer := s.login("consumer1", models.RoleConsumer)
	farmer := s.login("farmer1", models.RoleFarmer)
	body := map[string]interface{}{"name": "Millet", "price": 90}

	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/products", "", body).Code)
	rec := s.do(http.MethodPost, "/api/products", consumer.Token, body)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("Access denied", s.msg(rec))

	rec = s.do(http.MethodPost, "/api/products", farmer.Token, body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Product
	s.decode(rec, &created)
	s.Equal(farmer.UserID, created.Farmer.Hex())
	s.Equal(models.DefaultProductImage, created.Image)

	rec = s.do(http.MethodPost, "/api/products", farmer.Token, map[string]interface{}{"name": "Bad", "price": -1})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/products/"+created.ID.Hex(), farmer.Token, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Product removed", s.msg(rec))
}

func (s *APITestSuite) TestCartIsPrivate() {
	consumer := s.login("consumer1", models.RoleConsumer)
	farmer := s.login("farmer1", models.RoleFarmer)
	product := s.catalog()[0]

	rec := s.do(http.MethodPost, "/api/cart/add", farmer.Token, map[string]interface{}{
		"userId": consumer.UserID, "productId": product.ID.Hex(), "quantity": 1,
	})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/cart/add", consumer.Token, map[string]interface{}{
		"userId": consumer.UserID, "productId": product.ID.Hex(), "quantity": 3,
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	var body struct {
		Cart models.CartView `json:"cart"`
	}
	s.decode(rec, &body)
	s.Equal(3, body.Cart[product.ID.Hex()])

	rec = s.do(http.MethodPost, "/api/cart/remove", consumer.Token, map[string]interface{}{
		"userId": consumer.UserID, "productId": product.ID.Hex(),
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	body.Cart = nil
	s.decode(rec, &body)
	s.Empty(body.Cart)
}

func (s *APITestSuite) TestOrderLifecycle() {
	consumer := s.login("consumer1", models.RoleConsumer)
	farmer := s.login("farmer1", models.RoleFarmer)
	order := s.placeOrder(consumer)
	s.Equal(models.OrderStatusPending, order.Status)

	// the cart was emptied
	rec := s.do(http.MethodPost, "/api/orders", consumer.Token, map[string]string{
		"userId": consumer.UserID, "shippingAddress": "12 Market Road", "paymentMethod": "UPI",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Cart is empty or user not found.", s.msg(rec))

	rec = s.do(http.MethodGet, "/api/orders/"+consumer.UserID, consumer.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var mine []models.Order
	s.decode(rec, &mine)
	s.Len(mine, 1)

	rec = s.do(http.MethodGet, "/api/orders/farmer/"+farmer.UserID, farmer.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var queue []models.FarmerOrder
	s.decode(rec, &queue)
	s.Len(queue, 1)

	rec = s.do(http.MethodPost, "/api/orders/confirm-payment/"+order.ID.Hex(), consumer.Token, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/orders/status/"+order.ID.Hex(), consumer.Token, map[string]string{"status": "Processing"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, "/api/orders/status/"+order.ID.Hex(), farmer.Token, map[string]string{"status": "Delivered"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Cannot change order status from Pending to Delivered", s.msg(rec))

	for _, status := range []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered} {
		rec = s.do(http.MethodPut, "/api/orders/status/"+order.ID.Hex(), farmer.Token, map[string]string{"status": string(status)})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodDelete, "/api/orders/"+order.ID.Hex(), consumer.Token, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/orders/confirm-payment/"+order.ID.Hex(), consumer.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Payment confirmed. Thank you!", s.msg(rec))

	rec = s.do(http.MethodGet, "/api/orders/details/"+order.ID.Hex(), consumer.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var details models.PopulatedOrder
	s.decode(rec, &details)
	s.Equal(models.PaymentStatusCompleted, details.PaymentStatus)
	s.Require().Len(details.Items, 1)
	s.NotNil(details.Items[0].Product)

	rec = s.do(http.MethodGet, "/api/users/farmer-profile/"+farmer.UserID, "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var profile models.FarmerProfile
	s.decode(rec, &profile)
	s.EqualValues(1, profile.Stats.OrdersDelivered)
}

func (s *APITestSuite) TestCancelOrder() {
	consumer := s.login("consumer1", models.RoleConsumer)
	order := s.placeOrder(consumer)

	rec := s.do(http.MethodDelete, "/api/orders/"+order.ID.Hex(), consumer.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Order cancelled successfully", s.msg(rec))

	rec = s.do(http.MethodDelete, "/api/orders/"+order.ID.Hex(), consumer.Token, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestUserRoutes() {
	consumer := s.login("consumer1", models.RoleConsumer)
	admin := s.login("admin1", models.RoleAdmin)
	farmer := s.login("farmer1", models.RoleFarmer)

	// /users/all is not captured by /users/{userId}
	rec := s.do(http.MethodGet, "/api/users/all", consumer.Token, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodGet, "/api/users/all", admin.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var users []models.User
	s.decode(rec, &users)
	s.Len(users, 3)

	rec = s.do(http.MethodGet, "/api/users/"+farmer.UserID, consumer.Token, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodGet, "/api/users/"+consumer.UserID, consumer.Token, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "password")

	rec = s.do(http.MethodPut, "/api/users/"+consumer.UserID, consumer.Token, map[string]string{"username": "farmer1"})
	s.Equal(http.StatusConflict, rec.Code)
	rec = s.do(http.MethodPut, "/api/users/"+consumer.UserID, consumer.Token, map[string]string{"username": "consumer1", "name": "Meera"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "profileUpdateSuccess")

	rec = s.do(http.MethodPut, "/api/users/change-password/"+consumer.UserID, consumer.Token, map[string]string{
		"currentPassword": "nope", "newPassword": "fresh",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "incorrectCurrentPassword")

	rec = s.do(http.MethodPut, "/api/users/verify/"+farmer.UserID, admin.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var verify struct {
		Msg        string `json:"msg"`
		IsVerified bool   `json:"isVerified"`
	}
	s.decode(rec, &verify)
	s.True(verify.IsVerified)

	rec = s.do(http.MethodDelete, "/api/users/"+admin.UserID, admin.Token, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodDelete, "/api/users/"+farmer.UserID, admin.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Empty(s.catalog())

	// the deleted farmer's token no longer authenticates
	rec = s.do(http.MethodGet, "/api/users/"+farmer.UserID, farmer.Token, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APITestSuite) TestAdminDashboard() {
	consumer := s.login("consumer1", models.RoleConsumer)
	admin := s.login("admin1", models.RoleAdmin)
	s.placeOrder(consumer)

	rec := s.do(http.MethodGet, "/api/analytics/summary", consumer.Token, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/analytics/summary", admin.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var summary models.AdminSummary
	s.decode(rec, &summary)
	s.EqualValues(2, summary.TotalUsers)
	s.EqualValues(20, summary.TotalProducts)
	s.EqualValues(1, summary.TotalOrders)
	s.Zero(summary.TotalRevenue)

	rec = s.do(http.MethodGet, "/api/analytics/sales-over-time", admin.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq("[]", rec.Body.String())

	rec = s.do(http.MethodGet, "/api/admin/orders", admin.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var orders []models.PopulatedOrder
	s.decode(rec, &orders)
	s.Require().Len(orders, 1)
	s.Require().NotNil(orders[0].User)
	s.Equal("consumer1", orders[0].User.Username)

	rec = s.do(http.MethodGet, "/api/admin/orders/export", admin.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	s.Contains(rec.Header().Get("Content-Disposition"), "orders-")
	// xlsx files are zip archives
	s.True(bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func (s *APITestSuite) TestFeedback() {
	consumer := s.login("consumer1", models.RoleConsumer)

	rec := s.do(http.MethodPost, "/api/feedback", "", map[string]interface{}{"userId": consumer.UserID, "rating": 5, "comment": "Great"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/feedback", consumer.Token, map[string]interface{}{"userId": consumer.UserID, "rating": 9, "comment": "Great"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/feedback", consumer.Token, map[string]interface{}{"userId": consumer.UserID, "rating": 5, "comment": "Great"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Equal("Thank you for your feedback!", s.msg(rec))
}

func (s *APITestSuite) TestHealthAndMetrics() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
	s.NotEmpty(rec.Header().Get(middleware.RequestIDHeader))

	s.catalog()
	rec = s.do(http.MethodGet, "/metrics", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `handler="/api/products"`)
}

func (s *APITestSuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/api/nowhere", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
