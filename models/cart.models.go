package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents an item in a user's embedded cart
type CartItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// CartView is the cart as clients see it: product id to quantity.
type CartView map[string]int

// NewCartView reprojects stored cart items into a CartView.
func NewCartView(items []CartItem) CartView {
	view := make(CartView, len(items))
	for _, item := range items {
		view[item.Product.Hex()] = item.Quantity
	}
	return view
}

// AdjustCart adds delta to the entry for product and returns the new cart.
// An entry whose quantity drops to zero or below is removed. A missing entry
// is appended only when delta is positive.
func AdjustCart(items []CartItem, product primitive.ObjectID, delta int) []CartItem {
	for i := range items {
		if items[i].Product != product {
			continue
		}
		items[i].Quantity += delta
		if items[i].Quantity <= 0 {
			return append(items[:i], items[i+1:]...)
		}
		return items
	}
	if delta > 0 {
		items = append(items, CartItem{Product: product, Quantity: delta})
	}
	return items
}

// RemoveFromCart drops the entry for product, if any.
func RemoveFromCart(items []CartItem, product primitive.ObjectID) []CartItem {
	kept := make([]CartItem, 0, len(items))
	for _, item := range items {
		if item.Product != product {
			kept = append(kept, item)
		}
	}
	return kept
}

// PruneCart keeps only the entries whose product is in valid. The second
// return value reports whether anything was dropped.
func PruneCart(items []CartItem, valid map[primitive.ObjectID]struct{}) ([]CartItem, bool) {
	kept := make([]CartItem, 0, len(items))
	for _, item := range items {
		if _, ok := valid[item.Product]; ok {
			kept = append(kept, item)
		}
	}
	return kept, len(kept) < len(items)
}
