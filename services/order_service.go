package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"agri-market/models"
	"agri-market/repository"
	"agri-market/utils"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderNotifier is told about every order that was placed.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, user *models.User, order *models.Order)
}

// PlaceOrderInput describes the checkout of a user's cart
type PlaceOrderInput struct {
	UserID          primitive.ObjectID
	ShippingAddress string
	PaymentMethod   models.PaymentMethod
}

// OrderService turns carts into orders and moves orders through their lifecycle.
type OrderService struct {
	users    UserStore
	products ProductStore
	orders   OrderStore
	tx       Transactor
	notifier OrderNotifier
	now      func() time.Time
}

func NewOrderService(users UserStore, products ProductStore, orders OrderStore, tx Transactor, notifier OrderNotifier) *OrderService {
	if tx == nil {
		tx = NoTransaction{}
	}
	return &OrderService{
		users:    users,
		products: products,
		orders:   orders,
		tx:       tx,
		notifier: notifier,
		now:      time.Now,
	}
}

// orderTotal sums quantity*price over items without float drift.
func orderTotal(items []models.OrderItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.InexactFloat64()
}

// PlaceOrder snapshots the user's cart into a new Pending order priced at
// the current catalog prices and empties the cart.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	if in.ShippingAddress == "" {
		return nil, utils.InvalidInput("Shipping address is required")
	}
	if !in.PaymentMethod.Valid() {
		return nil, utils.InvalidInput("Invalid payment method")
	}

	var (
		user  *models.User
		order *models.Order
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.FindUserByID(ctx, in.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.InvalidState("Cart is empty or user not found.")
		}
		if err != nil {
			return utils.ServerError(err)
		}
		if len(user.Cart) == 0 {
			return utils.InvalidState("Cart is empty or user not found.")
		}

		items, err := s.snapshot(ctx, user.Cart)
		if err != nil {
			return err
		}
		order = &models.Order{
			User:            user.ID,
			Items:           items,
			TotalAmount:     orderTotal(items),
			ShippingAddress: in.ShippingAddress,
			Status:          models.OrderStatusPending,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   models.PaymentStatusPending,
			CreatedAt:       s.now().UTC(),
		}
		if err := s.orders.CreateOrder(ctx, order); err != nil {
			return utils.ServerError(err)
		}

		if err := s.users.SaveCart(ctx, user.ID, []models.CartItem{}); err != nil {
			if delErr := s.orders.DeleteOrder(ctx, order.ID); delErr != nil {
				zerolog.Ctx(ctx).Error().Err(delErr).Str("order_id", order.ID.Hex()).Msg("failed to roll back order")
			}
			return utils.ServerError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.Hex()).
		Str("user_id", user.ID.Hex()).
		Float64("total", order.TotalAmount).
		Msg("order placed")
	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, user, order)
	}
	return order, nil
}

// snapshot prices every cart entry at the product's current price.
func (s *OrderService) snapshot(ctx context.Context, cart []models.CartItem) ([]models.OrderItem, error) {
	ids := make([]primitive.ObjectID, len(cart))
	for i, item := range cart {
		ids[i] = item.Product
	}
	products, err := s.products.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	prices := make(map[primitive.ObjectID]float64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	items := make([]models.OrderItem, len(cart))
	for i, entry := range cart {
		price, ok := prices[entry.Product]
		if !ok {
			return nil, utils.InvalidState("A product in your cart is no longer available.")
		}
		items[i] = models.OrderItem{Product: entry.Product, Quantity: entry.Quantity, Price: price}
	}
	return items, nil
}

// ListForUser returns the user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// Details returns one order with its consumer and product names resolved.
// It is visible to the consumer who placed it, admins, and farmers selling
// one of its products.
func (s *OrderService) Details(ctx context.Context, actor models.Identity, orderID primitive.ObjectID) (*models.PopulatedOrder, error) {
	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}
	views, err := populateOrders(ctx, s.users, s.products, []models.Order{*order}, false)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	view := &views[0]

	if !actor.IsAdmin() && !actor.Is(order.User) && !sellsIn(actor, view) {
		return nil, utils.Forbidden("Not authorized to view this order")
	}
	return view, nil
}

func sellsIn(actor models.Identity, order *models.PopulatedOrder) bool {
	if actor.Role != models.RoleFarmer {
		return false
	}
	for _, item := range order.Items {
		if item.Product != nil && actor.Is(item.Product.FarmerID()) {
			return true
		}
	}
	return false
}

// Cancel moves the order to Cancelled. Only its consumer or an admin may
// cancel, and only while the order is not yet delivered.
func (s *OrderService) Cancel(ctx context.Context, actor models.Identity, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}
	if !actor.IsAdmin() && !actor.Is(order.User) {
		return nil, utils.Forbidden("User not authorized")
	}
	if err := s.transition(ctx, order, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves the order to status along the fulfilment path.
// Admins and farmers selling one of the order's products may do this.
func (s *OrderService) UpdateStatus(ctx context.Context, actor models.Identity, orderID primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, utils.InvalidInput("Invalid order status")
	}
	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}

	if !actor.IsAdmin() {
		allowed := false
		if actor.Role == models.RoleFarmer {
			products, err := s.products.FindProductsByIDs(ctx, order.ProductRefs())
			if err != nil {
				return nil, utils.ServerError(err)
			}
			for _, p := range products {
				if actor.Is(p.Farmer) {
					allowed = true
					break
				}
			}
		}
		if !allowed {
			return nil, utils.Forbidden("User not authorized")
		}
	}

	if err := s.transition(ctx, order, status); err != nil {
		return nil, err
	}
	return order, nil
}

// transition applies a legal status change as a compare-and-set on the
// status the order was read with, and updates order on success.
func (s *OrderService) transition(ctx context.Context, order *models.Order, to models.OrderStatus) error {
	from := order.Status
	if !from.CanTransitionTo(to) {
		return utils.InvalidState("Cannot change order status from " + string(from) + " to " + string(to))
	}
	err := s.orders.TransitionStatus(ctx, order.ID, from, to)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return utils.NotFound("Order not found")
	case errors.Is(err, repository.ErrConflict):
		return utils.InvalidState("Order status changed, please reload the order")
	case err != nil:
		return utils.ServerError(err)
	}
	order.Status = to
	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.Hex()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("order status changed")
	return nil
}

// ConfirmPayment marks a delivered order as paid. Only its consumer or an
// admin may confirm.
func (s *OrderService) ConfirmPayment(ctx context.Context, actor models.Identity, orderID primitive.ObjectID) error {
	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return notFoundOr(err, "Order not found")
	}
	if !actor.IsAdmin() && !actor.Is(order.User) {
		return utils.Forbidden("User not authorized")
	}

	notApplicable := utils.InvalidState("This action is not applicable for this order.")
	if order.Status != models.OrderStatusDelivered || order.PaymentStatus != models.PaymentStatusPending {
		return notApplicable
	}
	err = s.orders.CompletePayment(ctx, order.ID)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return notApplicable
	case err != nil:
		return notFoundOr(err, "Order not found")
	}
	zerolog.Ctx(ctx).Info().Str("order_id", order.ID.Hex()).Msg("payment confirmed")
	return nil
}
