package services

import (
	"context"
	"errors"
	"strings"

	"agri-market/models"
	"agri-market/repository"
	"agri-market/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService manages accounts: profiles, passwords, farmer verification and removal.
type UserService struct {
	users    UserStore
	products ProductStore
	orders   OrderStore
	reports  ReportStore
	tx       Transactor
}

func NewUserService(users UserStore, products ProductStore, orders OrderStore, reports ReportStore, tx Transactor) *UserService {
	if tx == nil {
		tx = NoTransaction{}
	}
	return &UserService{users: users, products: products, orders: orders, reports: reports, tx: tx}
}

// List returns every account, newest first.
func (us *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := us.users.ListUsers(ctx)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// Get returns one account.
func (us *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := us.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return user, nil
}

// FarmerProfile returns the public profile of a farmer and the number of
// their line items in delivered and paid orders.
func (us *UserService) FarmerProfile(ctx context.Context, farmerID primitive.ObjectID) (*models.FarmerProfile, error) {
	user, err := us.users.FindUserByID(ctx, farmerID)
	if err != nil {
		return nil, notFoundOr(err, "Farmer not found")
	}
	if user.Role != models.RoleFarmer {
		return nil, utils.NotFound("Farmer not found")
	}
	delivered, err := us.reports.CountDeliveredItems(ctx, farmerID)
	if err != nil {
		return nil, utils.ServerError(err)
	}
	return &models.FarmerProfile{
		Farmer: models.FarmerPublic{
			ID:         user.ID,
			Username:   user.Username,
			Name:       user.Name,
			Experience: user.Experience,
			Awards:     user.Awards,
			TechUsed:   user.TechUsed,
			IsVerified: user.IsVerified,
		},
		Stats: models.FarmerStats{OrdersDelivered: delivered},
	}, nil
}

// UpdateProfile overwrites the editable profile fields. Farmer-only fields are
// ignored for other roles.
func (us *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.Profile) error {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
	if p.Username == "" {
		return utils.InvalidInput("Username is required")
	}
	user, err := us.users.FindUserByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "User not found")
	}

	err = us.users.UpdateProfile(ctx, id, user.Role, p)
	var dup *repository.DuplicateKeyError
	switch {
	case errors.As(err, &dup) && dup.Field == "username":
		return utils.Conflict("Username already in use").WithKey("usernameInUse")
	case errors.As(err, &dup):
		return utils.Conflict("Email already in use").WithKey("emailInUse")
	case err != nil:
		return notFoundOr(err, "User not found")
	}
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (us *UserService) ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error {
	if next == "" {
		return utils.InvalidInput("New password is required")
	}
	user, err := us.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NotFound("User not found").WithKey("userNotFound")
		}
		return utils.ServerError(err)
	}
	if !checkPassword(user.Password, current) {
		return utils.InvalidCredentials("Incorrect current password").WithKey("incorrectCurrentPassword")
	}
	hash, err := hashPassword(next)
	if err != nil {
		return utils.ServerError(err)
	}
	if err := us.users.UpdatePassword(ctx, id, hash); err != nil {
		return notFoundOr(err, "User not found")
	}
	zerolog.Ctx(ctx).Info().Str("user_id", id.Hex()).Msg("password changed")
	return nil
}

// ToggleVerify flips the verified flag of a farmer and returns the new value.
func (us *UserService) ToggleVerify(ctx context.Context, id primitive.ObjectID) (bool, error) {
	user, err := us.users.FindUserByID(ctx, id)
	if err != nil {
		return false, notFoundOr(err, "User not found.")
	}
	if user.Role != models.RoleFarmer {
		return false, utils.InvalidState(`Can only verify users with the role "farmer".`)
	}
	verified := !user.IsVerified
	if err := us.users.SetVerified(ctx, id, verified); err != nil {
		return false, notFoundOr(err, "User not found.")
	}
	return verified, nil
}

// Delete removes an account together with the farmer's products or the
// consumer's orders. An admin cannot delete their own account.
func (us *UserService) Delete(ctx context.Context, actor models.Identity, id primitive.ObjectID) error {
	if actor.Is(id) {
		return utils.InvalidState("Admin cannot delete their own account.")
	}
	user, err := us.users.FindUserByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "User not found.")
	}

	var removed int64
	err = us.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		switch user.Role {
		case models.RoleFarmer:
			removed, err = us.products.DeleteProductsByFarmer(ctx, id)
		case models.RoleConsumer:
			removed, err = us.orders.DeleteOrdersByUser(ctx, id)
		}
		if err != nil {
			return utils.ServerError(err)
		}
		if err := us.users.DeleteUser(ctx, id); err != nil {
			return notFoundOr(err, "User not found.")
		}
		return nil
	})
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", id.Hex()).
		Str("role", string(user.Role)).
		Int64("cascaded", removed).
		Msg("user deleted")
	return nil
}
