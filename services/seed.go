package services

import (
	"context"
	"errors"
	"time"

	"agri-market/models"
	"agri-market/repository"

	"github.com/rs/zerolog"
)

const seedPassword = "password123"

var seedUsers = []models.User{
	{Username: "consumer1", Role: models.RoleConsumer},
	{
		Username:   "farmer1",
		Role:       models.RoleFarmer,
		Aadhar:     "123456789012",
		Name:       "Rajesh Kumar",
		Experience: "15+ years in traditional and organic farming.",
		Awards:     `Recipient of the "Krishi Karman Award" for outstanding wheat production.`,
		TechUsed:   "Utilizes drip irrigation, solar-powered water pumps, and soil moisture sensors.",
	},
	{Username: "admin1", Role: models.RoleAdmin},
}

var seedProducts = []struct {
	name  string
	price float64
	image string
}{
	// vegetables
	{"Fresh Tomatoes", 40, "tomatoes"},
	{"Organic Carrots", 60, "carrots"},
	{"Crisp Spinach", 30, "spinach"},
	{"New Potatoes", 35, "potatoes"},
	{"Red Bell Pepper", 55, "bell-pepper"},
	{"Sweet Corn", 25, "sweet-corn"},
	{"Fresh Onions", 20, "onions"},
	{"Green Broccoli", 50, "broccoli"},
	{"Cauliflower", 45, "cauliflower"},
	{"Cucumber", 20, "cucumber"},
	{"Garlic", 120, "garlic"},
	{"Ginger", 150, "ginger"},
	// fruits
	{"Royal Gala Apples", 150, "apples"},
	{"Ripe Bananas", 45, "bananas"},
	{"Juicy Oranges", 80, "oranges"},
	{"Alphonso Mangoes", 250, "mangoes"},
	{"Green Grapes", 70, "grapes"},
	{"Kiwi", 180, "kiwi"},
	{"Fresh Strawberries", 200, "strawberry"},
	{"Pineapple", 60, "pineapple"},
}

// Seeder fills an empty database with demo accounts and a demo catalog.
type Seeder struct {
	users    UserStore
	products ProductStore
	now      func() time.Time
}

func NewSeeder(users UserStore, products ProductStore) *Seeder {
	return &Seeder{users: users, products: products, now: time.Now}
}

// Seed creates the demo users when there are no users at all and the demo
// products when there are no products. Running it again changes nothing.
func (s *Seeder) Seed(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	userCount, err := s.users.CountUsers(ctx, "")
	if err != nil {
		return err
	}
	if userCount == 0 {
		hash, err := hashPassword(seedPassword)
		if err != nil {
			return err
		}
		for _, u := range seedUsers {
			u.Password = hash
			u.Cart = []models.CartItem{}
			u.CreatedAt = s.now().UTC()
			if err := s.users.CreateUser(ctx, &u); err != nil {
				return err
			}
			logger.Info().Str("username", u.Username).Str("role", string(u.Role)).Msg("seeded demo user")
		}
	} else {
		logger.Debug().Int64("users", userCount).Msg("users already exist, skipping user seeding")
	}

	productCount, err := s.products.CountProducts(ctx)
	if err != nil {
		return err
	}
	if productCount > 0 {
		return nil
	}

	// carts may still point at products of an earlier catalog
	if err := s.users.ClearAllCarts(ctx); err != nil {
		return err
	}
	farmer, err := s.users.FindUserByUsername(ctx, "farmer1")
	if errors.Is(err, repository.ErrNotFound) {
		logger.Warn().Msg("demo farmer missing, skipping product seeding")
		return nil
	}
	if err != nil {
		return err
	}

	products := make([]models.Product, len(seedProducts))
	for i, p := range seedProducts {
		products[i] = models.Product{
			Name:   p.name,
			Price:  p.price,
			Image:  "/assets/products/" + p.image + ".jpg",
			Farmer: farmer.ID,
		}
	}
	if err := s.products.InsertProducts(ctx, products); err != nil {
		return err
	}
	logger.Info().Int("products", len(products)).Msg("seeded demo products")
	return nil
}
