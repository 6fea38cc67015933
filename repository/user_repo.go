package repository

import (
	"context"

	"agri-market/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var userUniqueFields = []string{"username", "email"}

// UserRepository persists accounts and their embedded carts
type UserRepository struct {
	Collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{Collection: db.Collection(UsersCollection)}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}
	_, err := r.Collection.InsertOne(ctx, user)
	return translate(err, userUniqueFields...)
}

func (r *UserRepository) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.Collection.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListUsers returns every account, newest first.
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cursor, err := r.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountUsers counts accounts with role, or all accounts when role is empty.
func (r *UserRepository) CountUsers(ctx context.Context, role models.Role) (int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return r.Collection.CountDocuments(ctx, filter)
}

func (r *UserRepository) SaveCart(ctx context.Context, id primitive.ObjectID, cart []models.CartItem) error {
	if cart == nil {
		cart = []models.CartItem{}
	}
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"cart": cart}})
}

// ClearAllCarts empties every user's cart.
func (r *UserRepository) ClearAllCarts(ctx context.Context) error {
	_, err := r.Collection.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{"cart": []models.CartItem{}}})
	return err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, role models.Role, p models.Profile) error {
	set := bson.M{
		"username": p.Username,
		"name":     p.Name,
		"phone":    p.Phone,
	}
	if role == models.RoleFarmer {
		set["experience"] = p.Experience
		set["awards"] = p.Awards
		set["techUsed"] = p.TechUsed
	}
	update := bson.M{"$set": set}
	// an empty email is removed so the sparse unique index ignores it
	if p.Email == "" {
		update["$unset"] = bson.M{"email": ""}
	} else {
		set["email"] = p.Email
	}
	return r.updateOne(ctx, id, update)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"password": hash}})
}

func (r *UserRepository) SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"isVerified": verified}})
}

func (r *UserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err, userUniqueFields...)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
