// controllers/product.go
package controllers

import (
	"net/http"

	"agri-market/services"
	"agri-market/utils"
)

// ProductController handles product-related requests
type ProductController struct {
	Service *services.ProductService
}

// NewProductController creates a new ProductController
func NewProductController(service *services.ProductService) *ProductController {
	return &ProductController{Service: service}
}

// productRequest is the body of create and update. FarmerID is accepted from
// older clients and ignored; the owner is always the caller.
type productRequest struct {
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	FarmerID    string  `json:"farmerId"`
}

func (req productRequest) input() services.ProductInput {
	return services.ProductInput{Name: req.Name, Price: req.Price, Image: req.Image, Description: req.Description}
}

// GetProducts lists the catalog with farmer details
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := pc.Service.Catalog(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetFarmerProducts lists the products of one farmer
func (pc *ProductController) GetFarmerProducts(w http.ResponseWriter, r *http.Request) {
	farmerID, err := pathID(r, "farmerId", "farmer")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	products, err := pc.Service.ByFarmer(r.Context(), farmerID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetProduct retrieves a single product by ID
func (pc *ProductController) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "product")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	product, err := pc.Service.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// CreateProduct lists a new product for the calling farmer
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actor, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	product, err := pc.Service.Create(r.Context(), actor, req.input())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, product)
}

// UpdateProduct updates a product owned by the caller
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	actor, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id", "product")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	product, err := pc.Service.Update(r.Context(), actor, id, req.input())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct deletes a product owned by the caller
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	actor, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id", "product")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := pc.Service.Delete(r.Context(), actor, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, msgResponse{Msg: "Product removed"})
}
