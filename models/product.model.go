package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultProductImage is used when a farmer lists a product without a picture.
const DefaultProductImage = "/assets/products/placeholder.png"

// Product represents a catalog entry listed by a farmer
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	Image       string             `bson:"image" json:"image"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Farmer      primitive.ObjectID `bson:"farmer" json:"farmer"`
}

// CatalogProduct is a product with its farmer populated.
// Farmer is nil when the owning account no longer exists.
type CatalogProduct struct {
	ID          primitive.ObjectID `json:"_id"`
	Name        string             `json:"name"`
	Price       float64            `json:"price"`
	Image       string             `json:"image"`
	Description string             `json:"description,omitempty"`
	Farmer      *UserSummary       `json:"farmer"`
}
