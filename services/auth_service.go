package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"agri-market/models"
	"agri-market/repository"
	"agri-market/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var aadharPattern = regexp.MustCompile(`^\d{12}$`)

// RegisterInput is a sign-up request. Aadhar is only read for farmers.
type RegisterInput struct {
	Username string
	Password string
	Role     models.Role
	Aadhar   string
}

// LoginInput is a sign-in request. Aadhar must match for farmers.
type LoginInput struct {
	Username string
	Password string
	Role     models.Role
	Aadhar   string
}

// AuthResult is returned by a successful register or login
type AuthResult struct {
	Token  string
	Role   models.Role
	UserID primitive.ObjectID
	Cart   models.CartView
}

// AuthService registers accounts and checks credentials.
type AuthService struct {
	users    UserStore
	products ProductStore
	tokens   *utils.TokenManager
	now      func() time.Time
}

func NewAuthService(users UserStore, products ProductStore, tokens *utils.TokenManager) *AuthService {
	return &AuthService{users: users, products: products, tokens: tokens, now: time.Now}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a consumer or farmer account and signs the caller in.
// Administrator accounts cannot be self-registered.
func (as *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, utils.InvalidInput("Username and password are required")
	}
	switch in.Role {
	case models.RoleConsumer, models.RoleFarmer:
	case models.RoleAdmin:
		return nil, utils.Forbidden("Admin accounts cannot be registered")
	default:
		return nil, utils.InvalidInput("Invalid role")
	}
	if in.Role == models.RoleFarmer && !aadharPattern.MatchString(in.Aadhar) {
		return nil, utils.InvalidInput("Invalid Aadhaar number")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	user := &models.User{
		Username:  in.Username,
		Role:      in.Role,
		Password:  hash,
		Cart:      []models.CartItem{},
		CreatedAt: as.now().UTC(),
	}
	if in.Role == models.RoleFarmer {
		user.Aadhar = in.Aadhar
	}
	if err := as.users.CreateUser(ctx, user); err != nil {
		var dup *repository.DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, utils.Conflict("Username already taken").WithKey("usernameInUse")
		}
		return nil, utils.ServerError(err)
	}

	token, err := as.tokens.Generate(user.ID, string(user.Role))
	if err != nil {
		return nil, utils.ServerError(err)
	}
	zerolog.Ctx(ctx).Info().Str("user_id", user.ID.Hex()).Str("role", string(user.Role)).Msg("user registered")
	return &AuthResult{Token: token, Role: user.Role, UserID: user.ID, Cart: models.CartView{}}, nil
}

// Login checks the credentials and returns a token with the user's cart,
// pruned of products that no longer exist.
func (as *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	invalid := utils.InvalidCredentials("Invalid credentials")

	user, err := as.users.FindUserByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, utils.ServerError(err)
	}
	if user.Role != in.Role {
		return nil, invalid
	}
	if user.Role == models.RoleFarmer && user.Aadhar != in.Aadhar {
		return nil, invalid
	}
	if !checkPassword(user.Password, in.Password) {
		return nil, invalid
	}

	token, err := as.tokens.Generate(user.ID, string(user.Role))
	if err != nil {
		return nil, utils.ServerError(err)
	}
	cart, err := as.reconcileCart(ctx, user)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	return &AuthResult{Token: token, Role: user.Role, UserID: user.ID, Cart: models.NewCartView(cart)}, nil
}

// reconcileCart drops cart entries whose product was deleted and persists
// the pruned cart when anything changed.
func (as *AuthService) reconcileCart(ctx context.Context, user *models.User) ([]models.CartItem, error) {
	if len(user.Cart) == 0 {
		return user.Cart, nil
	}
	ids, err := as.products.ListProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	valid := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		valid[id] = struct{}{}
	}

	cart, dropped := models.PruneCart(user.Cart, valid)
	if !dropped {
		return cart, nil
	}
	if err := as.users.SaveCart(ctx, user.ID, cart); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("user_id", user.ID.Hex()).
		Int("removed", len(user.Cart)-len(cart)).
		Msg("cleaned invalid items from cart")
	return cart, nil
}
