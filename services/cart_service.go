package services

import (
	"context"

	"agri-market/models"
	"agri-market/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartService mutates the cart embedded in a user's account.
// Concurrent edits by the same user are last-write-wins.
type CartService struct {
	users    UserStore
	products ProductStore
}

func NewCartService(users UserStore, products ProductStore) *CartService {
	return &CartService{users: users, products: products}
}

// AddOrAdjust adds delta to the quantity of productID in the user's cart.
// A negative delta decrements and drops the entry once it reaches zero.
func (cs *CartService) AddOrAdjust(ctx context.Context, userID, productID primitive.ObjectID, delta int) (models.CartView, error) {
	user, err := cs.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	if delta > 0 && !inCart(user.Cart, productID) {
		if _, err := cs.products.FindProductByID(ctx, productID); err != nil {
			return nil, notFoundOr(err, "Product not found")
		}
	}

	user.Cart = models.AdjustCart(user.Cart, productID, delta)
	if err := cs.users.SaveCart(ctx, user.ID, user.Cart); err != nil {
		return nil, utils.ServerError(err)
	}
	return models.NewCartView(user.Cart), nil
}

// Remove drops productID from the user's cart. Removing an absent product is a no-op.
func (cs *CartService) Remove(ctx context.Context, userID, productID primitive.ObjectID) (models.CartView, error) {
	user, err := cs.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	user.Cart = models.RemoveFromCart(user.Cart, productID)
	if err := cs.users.SaveCart(ctx, user.ID, user.Cart); err != nil {
		return nil, utils.ServerError(err)
	}
	return models.NewCartView(user.Cart), nil
}

func inCart(cart []models.CartItem, productID primitive.ObjectID) bool {
	for _, item := range cart {
		if item.Product == productID {
			return true
		}
	}
	return false
}
