package repository

import (
	"context"

	"agri-market/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductRepository persists the catalog
type ProductRepository struct {
	Collection *mongo.Collection
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{Collection: db.Collection(ProductsCollection)}
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, product)
	return err
}

func (r *ProductRepository) InsertProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	docs := make([]interface{}, len(products))
	for i := range products {
		if products[i].ID.IsZero() {
			products[i].ID = primitive.NewObjectID()
		}
		docs[i] = products[i]
	}
	_, err := r.Collection.InsertMany(ctx, docs)
	return err
}

func (r *ProductRepository) FindProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	return r.find(ctx, bson.M{})
}

func (r *ProductRepository) ListProductsByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]models.Product, error) {
	return r.find(ctx, bson.M{"farmer": farmerID})
}

// ListProductIDs returns the id of every product in the catalog.
func (r *ProductRepository) ListProductIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M) ([]models.Product, error) {
	cursor, err := r.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProduct overwrites the mutable fields of product. The owner is never changed.
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"price":       product.Price,
		"image":       product.Image,
		"description": product.Description,
	}}
	result, err := r.Collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) DeleteProductsByFarmer(ctx context.Context, farmerID primitive.ObjectID) (int64, error) {
	result, err := r.Collection.DeleteMany(ctx, bson.M{"farmer": farmerID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *ProductRepository) CountProducts(ctx context.Context) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{})
}
