package repository

import (
	"context"

	"agri-market/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FeedbackRepository stores user feedback
type FeedbackRepository struct {
	Collection *mongo.Collection
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *mongo.Database) *FeedbackRepository {
	return &FeedbackRepository{Collection: db.Collection(FeedbackCollection)}
}

func (r *FeedbackRepository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID.IsZero() {
		feedback.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, feedback)
	return err
}
