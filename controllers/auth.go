// controllers/auth.go
package controllers

import (
	"net/http"

	"agri-market/models"
	"agri-market/services"
	"agri-market/utils"
)

// AuthController handles registration and login
type AuthController struct {
	Service *services.AuthService
}

// NewAuthController creates a new AuthController
func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{Service: service}
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=consumer farmer admin"`
	Aadhar   string `json:"aadhar"`
}

type registerResponse struct {
	Token  string      `json:"token"`
	Role   models.Role `json:"role"`
	UserID string      `json:"userId"`
	Msg    string      `json:"msg"`
}

type loginResponse struct {
	Token  string          `json:"token"`
	Role   models.Role     `json:"role"`
	UserID string          `json:"userId"`
	Cart   models.CartView `json:"cart"`
}

// Register creates an account and returns a token for it
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	res, err := ac.Service.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     models.Role(req.Role),
		Aadhar:   req.Aadhar,
	})
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, registerResponse{
		Token:  res.Token,
		Role:   res.Role,
		UserID: res.UserID.Hex(),
		Msg:    "User registered successfully",
	})
}

// Login authenticates a user and returns a token with the user's cart
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	res, err := ac.Service.Login(r.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
		Role:     models.Role(req.Role),
		Aadhar:   req.Aadhar,
	})
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, loginResponse{
		Token:  res.Token,
		Role:   res.Role,
		UserID: res.UserID.Hex(),
		Cart:   res.Cart,
	})
}
