package controllers

import (
	"net/http"

	"agri-market/services"
	"agri-market/utils"
)

// FeedbackController accepts marketplace feedback
type FeedbackController struct {
	Service *services.FeedbackService
}

// NewFeedbackController creates a new FeedbackController
func NewFeedbackController(service *services.FeedbackService) *FeedbackController {
	return &FeedbackController{Service: service}
}

type feedbackRequest struct {
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitFeedback stores a rating and comment from the caller
func (fc *FeedbackController) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if req.UserID == "" {
		utils.WriteError(w, r, utils.InvalidInput("Please provide all required fields."))
		return
	}
	userID, err := services.ParseID(req.UserID, "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := selfOrAdmin(r, userID); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	if _, err := fc.Service.Submit(r.Context(), userID, req.Rating, req.Comment); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, msgResponse{Msg: "Thank you for your feedback!"})
}
