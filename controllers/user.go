// controllers/user.go
package controllers

import (
	"net/http"

	"agri-market/models"
	"agri-market/services"
	"agri-market/utils"
)

// UserController handles account requests
type UserController struct {
	Service *services.UserService
}

// NewUserController creates a new UserController
func NewUserController(service *services.UserService) *UserController {
	return &UserController{Service: service}
}

type updateProfileRequest struct {
	Username   string `json:"username" validate:"required"`
	Name       string `json:"name"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	Experience string `json:"experience"`
	Awards     string `json:"awards"`
	TechUsed   string `json:"techUsed"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type verifyResponse struct {
	Msg        string `json:"msg"`
	IsVerified bool   `json:"isVerified"`
}

// GetAllUsers lists every account (admin only)
func (uc *UserController) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := uc.Service.List(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, users)
}

// GetFarmerProfile returns the public profile of a farmer
func (uc *UserController) GetFarmerProfile(w http.ResponseWriter, r *http.Request) {
	farmerID, err := pathID(r, "farmerId", "farmer")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	profile, err := uc.Service.FarmerProfile(r.Context(), farmerID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, profile)
}

// GetUser returns an account without its password or cart
func (uc *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := selfOrAdmin(r, userID); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	user, err := uc.Service.Get(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

// UpdateUser updates the profile of the caller
func (uc *UserController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := selfOrAdmin(r, userID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	err = uc.Service.UpdateProfile(r.Context(), userID, models.Profile{
		Username:   req.Username,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Experience: req.Experience,
		Awards:     req.Awards,
		TechUsed:   req.TechUsed,
	})
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, messageKeyResponse{MessageKey: "profileUpdateSuccess"})
}

// ChangePassword replaces the caller's password
func (uc *UserController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := selfOrAdmin(r, userID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	if err := uc.Service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, messageKeyResponse{MessageKey: "passwordUpdateSuccess"})
}

// ToggleVerify verifies or un-verifies a farmer (admin only)
func (uc *UserController) ToggleVerify(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	verified, err := uc.Service.ToggleVerify(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	msg := "User un-verified successfully."
	if verified {
		msg = "User verified successfully."
	}
	utils.WriteJSON(w, http.StatusOK, verifyResponse{Msg: msg, IsVerified: verified})
}

// DeleteUser removes an account and what it owns (admin only)
func (uc *UserController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	userID, err := pathID(r, "userId", "user")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := uc.Service.Delete(r.Context(), actor, userID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, msgResponse{Msg: "User deleted successfully."})
}
