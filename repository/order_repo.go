package repository

import (
	"context"
	"time"

	"agri-market/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderRepository persists orders and runs the reporting aggregations
type OrderRepository struct {
	Collection *mongo.Collection
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{Collection: db.Collection(OrdersCollection)}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, order)
	return err
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderRepository) FindOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.find(ctx, bson.M{"user": userID})
}

func (r *OrderRepository) ListOrders(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// TransitionStatus moves the order from status from to status to. It fails
// with ErrConflict when the stored status is no longer from.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) error {
	filter := bson.M{"_id": id, "status": from}
	return r.conditionalUpdate(ctx, filter, bson.M{"$set": bson.M{"status": to}})
}

// CompletePayment marks a delivered order with a pending payment as paid.
func (r *OrderRepository) CompletePayment(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id":           id,
		"status":        models.OrderStatusDelivered,
		"paymentStatus": models.PaymentStatusPending,
	}
	return r.conditionalUpdate(ctx, filter, bson.M{"$set": bson.M{"paymentStatus": models.PaymentStatusCompleted}})
}

func (r *OrderRepository) conditionalUpdate(ctx context.Context, filter, update bson.M) error {
	result, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}
	n, err := r.Collection.CountDocuments(ctx, bson.M{"_id": filter["_id"]})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *OrderRepository) DeleteOrdersByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.Collection.DeleteMany(ctx, bson.M{"user": userID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *OrderRepository) CountOrders(ctx context.Context) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{})
}

func (r *OrderRepository) DeliveredRevenue(ctx context.Context) (float64, error) {
	var rows []struct {
		TotalRevenue float64 `bson:"totalRevenue"`
	}
	if err := r.aggregate(ctx, deliveredRevenuePipeline(), &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].TotalRevenue, nil
}

func (r *OrderRepository) SalesSince(ctx context.Context, since time.Time) ([]models.DailySales, error) {
	var sales []models.DailySales
	if err := r.aggregate(ctx, salesSincePipeline(since), &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *OrderRepository) FarmerOrderQueue(ctx context.Context, farmerID primitive.ObjectID) ([]models.FarmerOrder, error) {
	var orders []models.FarmerOrder
	if err := r.aggregate(ctx, farmerQueuePipeline(farmerID), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) CountDeliveredItems(ctx context.Context, farmerID primitive.ObjectID) (int64, error) {
	var rows []struct {
		Count int64 `bson:"successfullyDelivered"`
	}
	if err := r.aggregate(ctx, deliveredItemsPipeline(farmerID), &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Count, nil
}

func (r *OrderRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
