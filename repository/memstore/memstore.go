// Package memstore is an in-memory implementation of the marketplace stores.
// It backs STORE_DRIVER=memory and the service and route tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"agri-market/models"
	"agri-market/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRow struct {
	seq  int
	user models.User
}

type productRow struct {
	seq     int
	product models.Product
}

// Store keeps users, products, orders and feedback in maps guarded by one lock.
type Store struct {
	mu       sync.RWMutex
	seq      int
	users    map[primitive.ObjectID]*userRow
	products map[primitive.ObjectID]*productRow
	orders   map[primitive.ObjectID]*models.Order
	feedback []models.Feedback
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[primitive.ObjectID]*userRow),
		products: make(map[primitive.ObjectID]*productRow),
		orders:   make(map[primitive.ObjectID]*models.Order),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) next() int {
	s.seq++
	return s.seq
}

func cloneUser(u models.User) models.User {
	u.Cart = append([]models.CartItem{}, u.Cart...)
	return u
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	return o
}

// users

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(primitive.NilObjectID, user.Username, user.Email); err != nil {
		return err
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}
	s.users[user.ID] = &userRow{seq: s.next(), user: cloneUser(*user)}
	return nil
}

func (s *Store) checkUnique(self primitive.ObjectID, username, email string) error {
	for id, row := range s.users {
		if id == self {
			continue
		}
		if row.user.Username == username {
			return &repository.DuplicateKeyError{Field: "username"}
		}
		if email != "" && row.user.Email == email {
			return &repository.DuplicateKeyError{Field: "email"}
		}
	}
	return nil
}

func (s *Store) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := cloneUser(row.user)
	return &u, nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.users {
		if row.user.Username == username {
			u := cloneUser(row.user)
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []models.User
	for _, id := range ids {
		if row, ok := s.users[id]; ok {
			users = append(users, cloneUser(row.user))
		}
	}
	return users, nil
}

func (s *Store) ListUsers(context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*userRow, 0, len(s.users))
	for _, row := range s.users {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].user.CreatedAt.Equal(rows[j].user.CreatedAt) {
			return rows[i].user.CreatedAt.After(rows[j].user.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	users := make([]models.User, len(rows))
	for i, row := range rows {
		users[i] = cloneUser(row.user)
	}
	return users, nil
}

func (s *Store) CountUsers(_ context.Context, role models.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, row := range s.users {
		if role == "" || row.user.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *Store) updateUser(id primitive.ObjectID, fn func(u *models.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u := cloneUser(row.user)
	if err := fn(&u); err != nil {
		return err
	}
	row.user = u
	return nil
}

func (s *Store) SaveCart(_ context.Context, id primitive.ObjectID, cart []models.CartItem) error {
	return s.updateUser(id, func(u *models.User) error {
		u.Cart = append([]models.CartItem{}, cart...)
		return nil
	})
}

func (s *Store) ClearAllCarts(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.users {
		row.user.Cart = []models.CartItem{}
	}
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, id primitive.ObjectID, role models.Role, p models.Profile) error {
	return s.updateUser(id, func(u *models.User) error {
		if err := s.checkUnique(id, p.Username, p.Email); err != nil {
			return err
		}
		u.Username, u.Name, u.Email, u.Phone = p.Username, p.Name, p.Email, p.Phone
		if role == models.RoleFarmer {
			u.Experience, u.Awards, u.TechUsed = p.Experience, p.Awards, p.TechUsed
		}
		return nil
	})
}

func (s *Store) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return s.updateUser(id, func(u *models.User) error {
		u.Password = hash
		return nil
	})
}

func (s *Store) SetVerified(_ context.Context, id primitive.ObjectID, verified bool) error {
	return s.updateUser(id, func(u *models.User) error {
		u.IsVerified = verified
		return nil
	})
}

func (s *Store) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// products

func (s *Store) CreateProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	s.products[product.ID] = &productRow{seq: s.next(), product: *product}
	return nil
}

func (s *Store) InsertProducts(ctx context.Context, products []models.Product) error {
	for i := range products {
		if err := s.CreateProduct(ctx, &products[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) FindProductByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := row.product
	return &p, nil
}

func (s *Store) FindProductsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var products []models.Product
	for _, id := range ids {
		if row, ok := s.products[id]; ok {
			products = append(products, row.product)
		}
	}
	return products, nil
}

func (s *Store) listProducts(keep func(p *models.Product) bool) []models.Product {
	rows := make([]*productRow, 0, len(s.products))
	for _, row := range s.products {
		if keep(&row.product) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	products := make([]models.Product, len(rows))
	for i, row := range rows {
		products[i] = row.product
	}
	return products
}

func (s *Store) ListProducts(context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listProducts(func(*models.Product) bool { return true }), nil
}

func (s *Store) ListProductsByFarmer(_ context.Context, farmerID primitive.ObjectID) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listProducts(func(p *models.Product) bool { return p.Farmer == farmerID }), nil
}

func (s *Store) ListProductIDs(context.Context) ([]primitive.ObjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]primitive.ObjectID, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) UpdateProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	row.product.Name = product.Name
	row.product.Price = product.Price
	row.product.Image = product.Image
	row.product.Description = product.Description
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) DeleteProductsByFarmer(_ context.Context, farmerID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, row := range s.products {
		if row.product.Farmer == farmerID {
			delete(s.products, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) CountProducts(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}

// orders

func (s *Store) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	o := cloneOrder(*order)
	s.orders[order.ID] = &o
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) FindOrderByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneOrder(*o)
	return &c, nil
}

// listOrders returns matching orders newest first. Callers hold the lock.
func (s *Store) listOrders(keep func(o *models.Order) bool) []models.Order {
	var orders []models.Order
	for _, o := range s.orders {
		if keep(o) {
			orders = append(orders, cloneOrder(*o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (s *Store) ListOrdersByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listOrders(func(o *models.Order) bool { return o.User == userID }), nil
}

func (s *Store) ListOrders(context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listOrders(func(*models.Order) bool { return true }), nil
}

func (s *Store) updateOrder(id primitive.ObjectID, match func(o *models.Order) bool, apply func(o *models.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !match(o) {
		return repository.ErrConflict
	}
	apply(o)
	return nil
}

func (s *Store) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus) error {
	return s.updateOrder(id,
		func(o *models.Order) bool { return o.Status == from },
		func(o *models.Order) { o.Status = to })
}

func (s *Store) CompletePayment(_ context.Context, id primitive.ObjectID) error {
	return s.updateOrder(id,
		func(o *models.Order) bool {
			return o.Status == models.OrderStatusDelivered && o.PaymentStatus == models.PaymentStatusPending
		},
		func(o *models.Order) { o.PaymentStatus = models.PaymentStatusCompleted })
}

func (s *Store) DeleteOrdersByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, o := range s.orders {
		if o.User == userID {
			delete(s.orders, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) CountOrders(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.orders)), nil
}

// reporting

func (s *Store) DeliveredRevenue(context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, o := range s.orders {
		if o.Status == models.OrderStatusDelivered {
			total += o.TotalAmount
		}
	}
	return total, nil
}

func (s *Store) SalesSince(_ context.Context, since time.Time) ([]models.DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := map[string]float64{}
	for _, o := range s.orders {
		if o.Status != models.OrderStatusDelivered || o.CreatedAt.Before(since) {
			continue
		}
		byDay[o.CreatedAt.UTC().Format("2006-01-02")] += o.TotalAmount
	}
	sales := make([]models.DailySales, 0, len(byDay))
	for day, total := range byDay {
		sales = append(sales, models.DailySales{Date: day, TotalSales: total})
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].Date < sales[j].Date })
	return sales, nil
}

func (s *Store) FarmerOrderQueue(_ context.Context, farmerID primitive.ObjectID) ([]models.FarmerOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actionable := s.listOrders(func(o *models.Order) bool {
		return o.Status != models.OrderStatusCancelled && !o.Done()
	})
	var queue []models.FarmerOrder
	for _, o := range actionable {
		var items []models.FarmerOrderItem
		for _, item := range o.Items {
			row, ok := s.products[item.Product]
			if !ok || row.product.Farmer != farmerID {
				continue
			}
			items = append(items, models.FarmerOrderItem{Product: row.product, Quantity: item.Quantity, Price: item.Price})
		}
		if len(items) == 0 {
			continue
		}
		fo := models.FarmerOrder{
			ID:              o.ID,
			User:            o.User,
			UserDetails:     []models.UserSummary{},
			ShippingAddress: o.ShippingAddress,
			Status:          o.Status,
			PaymentStatus:   o.PaymentStatus,
			CreatedAt:       o.CreatedAt,
			Items:           items,
		}
		if row, ok := s.users[o.User]; ok {
			fo.UserDetails = append(fo.UserDetails, row.user.Summary())
		}
		queue = append(queue, fo)
	}
	return queue, nil
}

func (s *Store) CountDeliveredItems(_ context.Context, farmerID primitive.ObjectID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, o := range s.orders {
		if !o.Done() {
			continue
		}
		for _, item := range o.Items {
			if row, ok := s.products[item.Product]; ok && row.product.Farmer == farmerID {
				n++
			}
		}
	}
	return n, nil
}

// feedback

func (s *Store) CreateFeedback(_ context.Context, feedback *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if feedback.ID.IsZero() {
		feedback.ID = primitive.NewObjectID()
	}
	s.feedback = append(s.feedback, *feedback)
	return nil
}

// Feedback returns everything submitted so far.
func (s *Store) Feedback() []models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Feedback{}, s.feedback...)
}
