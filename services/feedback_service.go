package services

import (
	"context"
	"strings"
	"time"

	"agri-market/models"
	"agri-market/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedbackService stores ratings left by users.
type FeedbackService struct {
	feedback FeedbackStore
	now      func() time.Time
}

func NewFeedbackService(feedback FeedbackStore) *FeedbackService {
	return &FeedbackService{feedback: feedback, now: time.Now}
}

// Submit records a 1 to 5 rating with a comment.
func (fs *FeedbackService) Submit(ctx context.Context, userID primitive.ObjectID, rating int, comment string) (*models.Feedback, error) {
	comment = strings.TrimSpace(comment)
	if userID.IsZero() || rating == 0 || comment == "" {
		return nil, utils.InvalidInput("Please provide all required fields.")
	}
	if rating < 1 || rating > 5 {
		return nil, utils.InvalidInput("Rating must be between 1 and 5")
	}
	fb := &models.Feedback{
		User:      userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: fs.now().UTC(),
	}
	if err := fs.feedback.CreateFeedback(ctx, fb); err != nil {
		return nil, utils.ServerError(err)
	}
	return fb, nil
}
