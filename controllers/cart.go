// controllers/cart.go
package controllers

import (
	"net/http"

	"agri-market/models"
	"agri-market/services"
	"agri-market/utils"
)

// CartController handles cart-related requests
type CartController struct {
	Service *services.CartService
}

// NewCartController creates a new CartController
func NewCartController(service *services.CartService) *CartController {
	return &CartController{Service: service}
}

type addToCartRequest struct {
	UserID    string `json:"userId" validate:"required"`
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required"`
}

type removeFromCartRequest struct {
	UserID    string `json:"userId" validate:"required"`
	ProductID string `json:"productId" validate:"required"`
}

type cartResponse struct {
	Msg  string          `json:"msg"`
	Cart models.CartView `json:"cart"`
}

// AddToCart adds a product or changes its quantity. A negative quantity decrements.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	userID, err := services.ParseID(req.UserID, "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	productID, err := services.ParseID(req.ProductID, "product")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := selfOrAdmin(r, userID); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	cart, err := cc.Service.AddOrAdjust(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cartResponse{Msg: "Item added to cart", Cart: cart})
}

// RemoveFromCart drops a product from the cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req removeFromCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	userID, err := services.ParseID(req.UserID, "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	productID, err := services.ParseID(req.ProductID, "product")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := selfOrAdmin(r, userID); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	cart, err := cc.Service.Remove(r.Context(), userID, productID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cartResponse{Msg: "Item removed from cart", Cart: cart})
}
