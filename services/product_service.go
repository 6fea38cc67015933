package services

import (
	"context"
	"strings"

	"agri-market/models"
	"agri-market/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductInput carries the farmer-editable fields of a product
type ProductInput struct {
	Name        string
	Price       float64
	Image       string
	Description string
}

func (in *ProductInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return utils.InvalidInput("Product name is required")
	}
	if in.Price < 0 {
		return utils.InvalidInput("Price cannot be negative")
	}
	if strings.TrimSpace(in.Image) == "" {
		in.Image = models.DefaultProductImage
	}
	return nil
}

// ProductService serves the catalog and the farmer's own listings.
type ProductService struct {
	products ProductStore
	users    UserStore
}

func NewProductService(products ProductStore, users UserStore) *ProductService {
	return &ProductService{products: products, users: users}
}

// Catalog lists every product with its farmer's public summary.
func (ps *ProductService) Catalog(ctx context.Context) ([]models.CatalogProduct, error) {
	products, err := ps.products.ListProducts(ctx)
	if err != nil {
		return nil, utils.ServerError(err)
	}

	var farmerIDs []primitive.ObjectID
	seen := map[primitive.ObjectID]struct{}{}
	for _, p := range products {
		if _, ok := seen[p.Farmer]; !ok {
			seen[p.Farmer] = struct{}{}
			farmerIDs = append(farmerIDs, p.Farmer)
		}
	}
	farmers := map[primitive.ObjectID]models.UserSummary{}
	if len(farmerIDs) > 0 {
		users, err := ps.users.FindUsersByIDs(ctx, farmerIDs)
		if err != nil {
			return nil, utils.ServerError(err)
		}
		for i := range users {
			farmers[users[i].ID] = users[i].Summary()
		}
	}

	catalog := make([]models.CatalogProduct, len(products))
	for i, p := range products {
		catalog[i] = models.CatalogProduct{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Image:       p.Image,
			Description: p.Description,
		}
		if f, ok := farmers[p.Farmer]; ok {
			catalog[i].Farmer = &f
		}
	}
	return catalog, nil
}

// ByFarmer lists the products owned by farmerID.
func (ps *ProductService) ByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]models.Product, error) {
	products, err := ps.products.ListProductsByFarmer(ctx, farmerID)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Get returns a single product.
func (ps *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := ps.products.FindProductByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	return product, nil
}

// Create lists a new product owned by the calling farmer.
func (ps *ProductService) Create(ctx context.Context, actor models.Identity, in ProductInput) (*models.Product, error) {
	if actor.Role != models.RoleFarmer {
		return nil, utils.Forbidden("Only farmers can list products")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:        in.Name,
		Price:       in.Price,
		Image:       in.Image,
		Description: in.Description,
		Farmer:      actor.ID,
	}
	if err := ps.products.CreateProduct(ctx, product); err != nil {
		return nil, utils.ServerError(err)
	}
	zerolog.Ctx(ctx).Info().Str("product_id", product.ID.Hex()).Str("farmer_id", actor.ID.Hex()).Msg("product created")
	return product, nil
}

// owned loads the product and checks the caller listed it.
func (ps *ProductService) owned(ctx context.Context, actor models.Identity, id primitive.ObjectID) (*models.Product, error) {
	product, err := ps.products.FindProductByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	if !actor.Is(product.Farmer) {
		return nil, utils.Forbidden("User not authorized")
	}
	return product, nil
}

// Update replaces the editable fields of a product the caller owns.
func (ps *ProductService) Update(ctx context.Context, actor models.Identity, id primitive.ObjectID, in ProductInput) (*models.Product, error) {
	product, err := ps.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	product.Name = in.Name
	product.Price = in.Price
	product.Image = in.Image
	product.Description = in.Description
	if err := ps.products.UpdateProduct(ctx, product); err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	return product, nil
}

// Delete removes a product the caller owns. Stored orders keep their snapshot
// and carts drop the product on the owner's next login.
func (ps *ProductService) Delete(ctx context.Context, actor models.Identity, id primitive.ObjectID) error {
	if _, err := ps.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := ps.products.DeleteProduct(ctx, id); err != nil {
		return notFoundOr(err, "Product not found")
	}
	zerolog.Ctx(ctx).Info().Str("product_id", id.Hex()).Msg("product removed")
	return nil
}
