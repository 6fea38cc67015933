package repository

import (
	"time"

	"agri-market/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// deliveredRevenuePipeline sums totalAmount over delivered orders.
func deliveredRevenuePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: models.OrderStatusDelivered}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalRevenue", Value: bson.D{{Key: "$sum", Value: "$totalAmount"}}},
		}}},
	}
}

// salesSincePipeline groups delivered orders created at or after since by
// UTC day and sums their totals, oldest day first.
func salesSincePipeline(since time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "status", Value: models.OrderStatusDelivered},
			{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$createdAt"},
				{Key: "timezone", Value: "UTC"},
			}}}},
			{Key: "totalSales", Value: bson.D{{Key: "$sum", Value: "$totalAmount"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// actionableFilter matches orders a farmer still has to work on: not
// cancelled and not both delivered and paid.
func actionableFilter() bson.D {
	return bson.D{
		{Key: "status", Value: bson.D{{Key: "$ne", Value: models.OrderStatusCancelled}}},
		{Key: "$nor", Value: bson.A{bson.D{
			{Key: "status", Value: models.OrderStatusDelivered},
			{Key: "paymentStatus", Value: models.PaymentStatusCompleted},
		}}},
	}
}

// farmerQueuePipeline reshapes actionable orders to the line items of the
// farmer's products, joined with the product and the consumer summary.
func farmerQueuePipeline(farmerID primitive.ObjectID) mongo.Pipeline {
	first := func(field string) bson.D {
		return bson.D{{Key: "$first", Value: "$" + field}}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: actionableFilter()}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ProductsCollection},
			{Key: "localField", Value: "items.product"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "productDetails"},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "productDetails.farmer", Value: farmerID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id"},
			{Key: "user", Value: first("user")},
			{Key: "shippingAddress", Value: first("shippingAddress")},
			{Key: "status", Value: first("status")},
			{Key: "paymentStatus", Value: first("paymentStatus")},
			{Key: "createdAt", Value: first("createdAt")},
			{Key: "items", Value: bson.D{{Key: "$push", Value: bson.D{
				{Key: "product", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$productDetails", 0}}}},
				{Key: "quantity", Value: "$items.quantity"},
				{Key: "price", Value: "$items.price"},
			}}}},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: UsersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "userDetails"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "userDetails.password", Value: 0},
			{Key: "userDetails.cart", Value: 0},
			{Key: "userDetails.aadhar", Value: 0},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
}

// deliveredItemsPipeline counts the farmer's line items in delivered and
// paid orders.
func deliveredItemsPipeline(farmerID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "status", Value: models.OrderStatusDelivered},
			{Key: "paymentStatus", Value: models.PaymentStatusCompleted},
		}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ProductsCollection},
			{Key: "localField", Value: "items.product"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "productInfo"},
		}}},
		{{Key: "$unwind", Value: "$productInfo"}},
		{{Key: "$match", Value: bson.D{{Key: "productInfo.farmer", Value: farmerID}}}},
		{{Key: "$count", Value: "successfullyDelivered"}},
	}
}
