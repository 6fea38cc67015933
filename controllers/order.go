// controllers/order.go
package controllers

import (
	"net/http"

	"agri-market/models"
	"agri-market/services"
	"agri-market/utils"
)

// OrderController handles order-related requests
type OrderController struct {
	Service *services.OrderService
	Reports *services.ReportService
}

// NewOrderController creates a new OrderController
func NewOrderController(service *services.OrderService, reports *services.ReportService) *OrderController {
	return &OrderController{Service: service, Reports: reports}
}

type placeOrderRequest struct {
	UserID          string `json:"userId" validate:"required"`
	ShippingAddress string `json:"shippingAddress" validate:"required"`
	PaymentMethod   string `json:"paymentMethod" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderResponse struct {
	Msg   string        `json:"msg"`
	Order *models.Order `json:"order"`
}

// CreateOrder places an order from the user's cart
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	userID, err := services.ParseID(req.UserID, "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := selfOrAdmin(r, userID); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	order, err := oc.Service.PlaceOrder(r.Context(), services.PlaceOrderInput{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, orderResponse{Msg: "Order placed successfully!", Order: order})
}

// GetUserOrders lists the orders of one consumer, newest first
func (oc *OrderController) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := selfOrAdmin(r, userID); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	orders, err := oc.Service.ListForUser(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GetOrderDetails returns a single order with names resolved
func (oc *OrderController) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	actor, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	orderID, err := pathID(r, "orderId", "order")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	order, err := oc.Service.Details(r.Context(), actor, orderID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// CancelOrder cancels an order that has not been delivered yet
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	orderID, err := pathID(r, "orderId", "order")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	if _, err := oc.Service.Cancel(r.Context(), actor, orderID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, msgResponse{Msg: "Order cancelled successfully"})
}

// GetFarmerOrders lists the orders a farmer still has to fulfil
func (oc *OrderController) GetFarmerOrders(w http.ResponseWriter, r *http.Request) {
	actor, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	farmerID, err := pathID(r, "farmerId", "farmer")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	orders, err := oc.Reports.FarmerQueue(r.Context(), actor, farmerID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus moves an order along its fulfilment path
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	orderID, err := pathID(r, "orderId", "order")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	order, err := oc.Service.UpdateStatus(r.Context(), actor, orderID, models.OrderStatus(req.Status))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orderResponse{Msg: "Order status updated successfully", Order: order})
}

// ConfirmPayment marks a delivered order as paid
func (oc *OrderController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	orderID, err := pathID(r, "orderId", "order")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	if err := oc.Service.ConfirmPayment(r.Context(), actor, orderID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, msgResponse{Msg: "Payment confirmed. Thank you!"})
}
