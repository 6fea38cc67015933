package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminSummary is the headline block of the admin dashboard
type AdminSummary struct {
	TotalUsers     int64   `json:"totalUsers"`
	TotalConsumers int64   `json:"totalConsumers"`
	TotalFarmers   int64   `json:"totalFarmers"`
	TotalProducts  int64   `json:"totalProducts"`
	TotalOrders    int64   `json:"totalOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
}

// DailySales is the delivered revenue of one UTC day, Date formatted as YYYY-MM-DD.
type DailySales struct {
	Date       string  `bson:"_id" json:"_id"`
	TotalSales float64 `bson:"totalSales" json:"totalSales"`
}

// FarmerOrderItem is a line item of a farmer's product with the product joined in.
type FarmerOrderItem struct {
	Product  Product `bson:"product" json:"product"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Price    float64 `bson:"price" json:"price"`
}

// FarmerOrder is an order reshaped for one farmer's queue: only that farmer's
// line items are kept.
type FarmerOrder struct {
	ID              primitive.ObjectID `bson:"_id" json:"_id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	UserDetails     []UserSummary      `bson:"userDetails" json:"userDetails"`
	ShippingAddress string             `bson:"shippingAddress" json:"shippingAddress"`
	Status          OrderStatus        `bson:"status" json:"status"`
	PaymentStatus   PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	Items           []FarmerOrderItem  `bson:"items" json:"items"`
}

// FarmerStats are the public counters shown on a farmer's profile
type FarmerStats struct {
	OrdersDelivered int64 `json:"ordersDelivered"`
}

// FarmerProfile is the public profile page of a farmer
type FarmerProfile struct {
	Farmer FarmerPublic `json:"farmer"`
	Stats  FarmerStats  `json:"stats"`
}

// PopulatedProduct is the part of a product shown inside an order view.
type PopulatedProduct struct {
	ID     primitive.ObjectID `json:"_id"`
	Name   string             `json:"name"`
	Farmer *UserSummary       `json:"farmer,omitempty"`

	farmerID primitive.ObjectID
}

// FarmerID is the owning farmer of the product, populated or not.
func (p *PopulatedProduct) FarmerID() primitive.ObjectID { return p.farmerID }

// NewPopulatedProduct builds the order-view projection of p. farmer may be nil.
func NewPopulatedProduct(p *Product, farmer *UserSummary) *PopulatedProduct {
	return &PopulatedProduct{ID: p.ID, Name: p.Name, Farmer: farmer, farmerID: p.Farmer}
}

// PopulatedItem is an order line with its product resolved.
// Product is nil when the product has since been deleted.
type PopulatedItem struct {
	Product  *PopulatedProduct `json:"product"`
	Quantity int               `json:"quantity"`
	Price    float64           `json:"price"`
}

// PopulatedOrder is an order with its consumer and products resolved
type PopulatedOrder struct {
	ID              primitive.ObjectID `json:"_id"`
	User            *UserSummary       `json:"user"`
	Items           []PopulatedItem    `json:"items"`
	TotalAmount     float64            `json:"totalAmount"`
	ShippingAddress string             `json:"shippingAddress"`
	Status          OrderStatus        `json:"status"`
	PaymentMethod   PaymentMethod      `json:"paymentMethod"`
	PaymentStatus   PaymentStatus      `json:"paymentStatus"`
	CreatedAt       time.Time          `json:"createdAt"`
}
