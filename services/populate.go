package services

import (
	"context"

	"agri-market/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// populateOrders resolves the consumer and products of every order with two
// batched lookups. withFarmers also resolves each product's farmer and the
// consumer's name. References that no longer resolve are left nil.
func populateOrders(ctx context.Context, users UserStore, products ProductStore, orders []models.Order, withFarmers bool) ([]models.PopulatedOrder, error) {
	var productIDs []primitive.ObjectID
	seenProduct := map[primitive.ObjectID]struct{}{}
	userIDs := []primitive.ObjectID{}
	seenUser := map[primitive.ObjectID]struct{}{}
	addUser := func(id primitive.ObjectID) {
		if _, ok := seenUser[id]; !ok {
			seenUser[id] = struct{}{}
			userIDs = append(userIDs, id)
		}
	}

	for i := range orders {
		addUser(orders[i].User)
		for _, id := range orders[i].ProductRefs() {
			if _, ok := seenProduct[id]; !ok {
				seenProduct[id] = struct{}{}
				productIDs = append(productIDs, id)
			}
		}
	}

	productByID := map[primitive.ObjectID]*models.Product{}
	if len(productIDs) > 0 {
		found, err := products.FindProductsByIDs(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		for i := range found {
			productByID[found[i].ID] = &found[i]
			if withFarmers {
				addUser(found[i].Farmer)
			}
		}
	}

	userByID := map[primitive.ObjectID]models.UserSummary{}
	found, err := users.FindUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	for i := range found {
		summary := found[i].Summary()
		if !withFarmers {
			summary.Name = ""
		}
		userByID[found[i].ID] = summary
	}

	views := make([]models.PopulatedOrder, len(orders))
	for i, o := range orders {
		view := models.PopulatedOrder{
			ID:              o.ID,
			Items:           make([]models.PopulatedItem, len(o.Items)),
			TotalAmount:     o.TotalAmount,
			ShippingAddress: o.ShippingAddress,
			Status:          o.Status,
			PaymentMethod:   o.PaymentMethod,
			PaymentStatus:   o.PaymentStatus,
			CreatedAt:       o.CreatedAt,
		}
		if u, ok := userByID[o.User]; ok {
			view.User = &u
		}
		for j, item := range o.Items {
			view.Items[j] = models.PopulatedItem{Quantity: item.Quantity, Price: item.Price}
			p, ok := productByID[item.Product]
			if !ok {
				continue
			}
			var farmer *models.UserSummary
			if withFarmers {
				if f, ok := userByID[p.Farmer]; ok {
					farmer = &f
				}
			}
			view.Items[j].Product = models.NewPopulatedProduct(p, farmer)
		}
		views[i] = view
	}
	return views, nil
}
