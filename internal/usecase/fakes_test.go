package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// --- users ---

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ConflictError("user with email '%s' already exists", user.Email)
		}
	}
	r.nextID++
	created := *user
	created.ID = r.nextID
	created.CreatedAt = time.Now()
	r.users[created.ID] = &created
	out := created
	return &out, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.NotFoundError("user with email %s not found", email)
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NotFoundError("user with id %d not found", id)
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id int64, update domain.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NotFoundError("user with id %d not found", id)
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Avatar != nil {
		u.Avatar = *update.Avatar
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.NotFoundError("user with id %d not found", id)
	}
	u.PasswordHash = hash
	return nil
}

type fakeTokens struct{}

func (fakeTokens) IssueToken(user *domain.User) (string, error) {
	return "token-for-" + user.Email, nil
}

// --- catalog ---

type fakeCategoryRepo struct {
	categories map[int64]*domain.Category
	nextID     int64
	updateErr  error
}

func newFakeCategoryRepo(cats ...domain.Category) *fakeCategoryRepo {
	r := &fakeCategoryRepo{categories: map[int64]*domain.Category{}}
	for i := range cats {
		c := cats[i]
		r.categories[c.ID] = &c
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
	}
	return r
}

func (r *fakeCategoryRepo) CreateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	for _, existing := range r.categories {
		if existing.Name == c.Name {
			return nil, domain.ConflictError("category with name '%s' already exists", c.Name)
		}
	}
	r.nextID++
	created := *c
	created.ID = r.nextID
	r.categories[created.ID] = &created
	out := created
	return &out, nil
}

func (r *fakeCategoryRepo) GetCategoryByID(_ context.Context, id int64) (*domain.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, domain.NotFoundError("category not found")
	}
	out := *c
	return &out, nil
}

func (r *fakeCategoryRepo) ListCategories(context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) UpdateCategory(_ context.Context, id int64, u domain.CategoryUpdate) (*domain.Category, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	c, ok := r.categories[id]
	if !ok {
		return nil, domain.NotFoundError("category not found")
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.Image != nil {
		c.ImageURL, c.ImagePublicID = u.Image.URL, u.Image.PublicID
	}
	out := *c
	return &out, nil
}

func (r *fakeCategoryRepo) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := r.categories[id]; !ok {
		return domain.NotFoundError("category not found")
	}
	delete(r.categories, id)
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	nextID   int64
	reads    int
}

func newFakeProductRepo(products ...domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[int64]*domain.Product{}}
	for i := range products {
		p := products[i]
		if p.Status == "" {
			p.Status = domain.StatusActive
		}
		r.products[p.ID] = &p
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *fakeProductRepo) stock(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].Stock
}

func (r *fakeProductRepo) CreateProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	created := *p
	created.ID = r.nextID
	r.products[created.ID] = &created
	out := created
	return &out, nil
}

func (r *fakeProductRepo) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	p, ok := r.products[id]
	if !ok {
		return nil, domain.NotFoundError("product not found")
	}
	out := *p
	return &out, nil
}

func (r *fakeProductRepo) ListProducts(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Product{}
	for _, p := range r.products {
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, id int64, u domain.ProductUpdate) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.NotFoundError("product not found")
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.CategoryID != nil {
		p.CategoryID = *u.CategoryID
	}
	if u.Image != nil {
		p.ImageURL, p.ImagePublicID = u.Image.URL, u.Image.PublicID
	}
	out := *p
	return &out, nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.NotFoundError("product not found")
	}
	delete(r.products, id)
	return nil
}

type fakeImageStore struct {
	uploads   []string
	deleted   []string
	uploadErr error
	deleteErr error
	counter   int
}

func (s *fakeImageStore) Upload(_ context.Context, folder string, image *domain.ImageUpload) (*domain.StoredImage, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.counter++
	id := fmt.Sprintf("%s/%d-%s", folder, s.counter, image.Filename)
	s.uploads = append(s.uploads, id)
	return &domain.StoredImage{URL: "https://img.test/" + id, PublicID: id}, nil
}

func (s *fakeImageStore) Delete(_ context.Context, publicID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, publicID)
	return nil
}

type fakeCache struct {
	entries     map[int64]domain.Product
	invalidated []int64
	getErr      error
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[int64]domain.Product{}} }

func (c *fakeCache) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	p, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *fakeCache) SetProduct(_ context.Context, p *domain.Product) error {
	c.entries[p.ID] = *p
	return nil
}

func (c *fakeCache) InvalidateProducts(_ context.Context, ids ...int64) error {
	for _, id := range ids {
		delete(c.entries, id)
	}
	c.invalidated = append(c.invalidated, ids...)
	return nil
}

// --- carts and orders ---

type fakeCartRepo struct {
	products *fakeProductRepo
	carts    map[int64]*domain.Cart
	items    map[int64]*domain.CartItem
	nextCart int64
	nextItem int64
}

func newFakeCartRepo(products *fakeProductRepo) *fakeCartRepo {
	return &fakeCartRepo{products: products, carts: map[int64]*domain.Cart{}, items: map[int64]*domain.CartItem{}}
}

// seed creates an OPEN cart for userID with the given product quantities at current prices.
func (r *fakeCartRepo) seed(userID int64, lines map[int64]int) *domain.Cart {
	cart, _ := r.CreateCart(context.Background(), userID)
	ids := make([]int64, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		p, _ := r.products.GetProductByID(context.Background(), id)
		_, _ = r.AddCartItem(context.Background(), &domain.CartItem{CartID: cart.ID, ProductID: id, Quantity: lines[id], UnitPrice: p.Price})
	}
	return cart
}

func (r *fakeCartRepo) CreateCart(_ context.Context, userID int64) (*domain.Cart, error) {
	for _, c := range r.carts {
		if c.OwnedBy(userID) && c.Status == domain.CartStatusOpen {
			return nil, domain.ConflictError("user %d already has an open cart", userID)
		}
	}
	r.nextCart++
	uid := userID
	c := &domain.Cart{ID: r.nextCart, UserID: &uid, Status: domain.CartStatusOpen}
	r.carts[c.ID] = c
	return r.view(c), nil
}

func (r *fakeCartRepo) view(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = []domain.CartItem{}
	ids := make([]int64, 0)
	for id, item := range r.items {
		if item.CartID == c.ID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		item := *r.items[id]
		item.Product, _ = r.products.GetProductByID(context.Background(), item.ProductID)
		out.Items = append(out.Items, item)
	}
	out.RecalculateTotal()
	return &out
}

func (r *fakeCartRepo) GetCartByID(_ context.Context, id int64) (*domain.Cart, error) {
	c, ok := r.carts[id]
	if !ok {
		return nil, domain.NotFoundError("cart not found")
	}
	return r.view(c), nil
}

func (r *fakeCartRepo) GetOpenCartByUserID(_ context.Context, userID int64) (*domain.Cart, error) {
	for _, c := range r.carts {
		if c.OwnedBy(userID) && c.Status == domain.CartStatusOpen {
			return r.view(c), nil
		}
	}
	return nil, domain.NotFoundError("no open cart for user %d", userID)
}

func (r *fakeCartRepo) GetCartItemByID(_ context.Context, itemID int64) (*domain.CartItem, error) {
	item, ok := r.items[itemID]
	if !ok {
		return nil, domain.NotFoundError("cart item not found")
	}
	out := *item
	return &out, nil
}

func (r *fakeCartRepo) AddCartItem(_ context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	r.nextItem++
	stored := *item
	stored.ID = r.nextItem
	r.items[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *fakeCartRepo) UpdateCartItemQuantity(_ context.Context, itemID int64, quantity int) error {
	item, ok := r.items[itemID]
	if !ok {
		return domain.NotFoundError("cart item not found")
	}
	item.Quantity = quantity
	return nil
}

func (r *fakeCartRepo) DeleteCartItem(_ context.Context, itemID int64) error {
	if _, ok := r.items[itemID]; !ok {
		return domain.NotFoundError("cart item not found")
	}
	delete(r.items, itemID)
	return nil
}

func (r *fakeCartRepo) ClearCart(_ context.Context, cartID int64) error {
	for id, item := range r.items {
		if item.CartID == cartID {
			delete(r.items, id)
		}
	}
	return nil
}

// fakeOrderRepo applies a checkout all-or-nothing against the fake product
// and cart repositories.
type fakeOrderRepo struct {
	products *fakeProductRepo
	carts    *fakeCartRepo
	orders   map[int64]*domain.Order
	nextID   int64
	creates  int
}

func newFakeOrderRepo(products *fakeProductRepo, carts *fakeCartRepo) *fakeOrderRepo {
	return &fakeOrderRepo{products: products, carts: carts, orders: map[int64]*domain.Order{}}
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, o *domain.NewOrder) (int64, error) {
	r.creates++
	r.products.mu.Lock()
	defer r.products.mu.Unlock()

	for _, item := range o.Items {
		p, ok := r.products.products[item.ProductID]
		if !ok {
			return 0, domain.NotFoundError("product %d not found", item.ProductID)
		}
		if p.Stock < item.Quantity {
			return 0, domain.InsufficientStockError(item.ProductName)
		}
	}
	if o.CartID != nil {
		c, ok := r.carts.carts[*o.CartID]
		if !ok || c.Status != domain.CartStatusOpen {
			return 0, domain.ForbiddenError("invalid cart")
		}
		c.Status = domain.CartStatusCheckedOut
	}
	for _, item := range o.Items {
		r.products.products[item.ProductID].Stock -= item.Quantity
	}

	r.nextID++
	order := &domain.Order{
		ID:          r.nextID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now(),
	}
	for _, item := range o.Items {
		order.Items = append(order.Items, domain.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	shipping := o.Shipping
	shipping.OrderID = order.ID
	order.ShippingInfo = &shipping
	order.Payments = []domain.Payment{{
		OrderID:       order.ID,
		PaymentMethod: o.PaymentMethod,
		Amount:        o.TotalAmount,
		PaymentStatus: domain.PaymentStatusPending,
	}}
	r.orders[order.ID] = order
	return order.ID, nil
}

func (r *fakeOrderRepo) GetOrderByID(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.NotFoundError("order not found")
	}
	out := *o
	return &out, nil
}

func (r *fakeOrderRepo) ListOrdersByUserID(_ context.Context, userID int64) ([]domain.Order, error) {
	out := []domain.Order{}
	for id := r.nextID; id > 0; id-- {
		if o, ok := r.orders[id]; ok && o.OwnedBy(userID) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListAllOrders(context.Context) ([]domain.Order, error) {
	out := []domain.Order{}
	for id := r.nextID; id > 0; id-- {
		if o, ok := r.orders[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, id int64, from, to domain.OrderStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.NotFoundError("order not found")
	}
	if o.Status != from {
		return domain.ConflictError("order %d is no longer %s", id, from)
	}
	o.Status = to
	if to == domain.OrderStatusCancelled {
		r.products.mu.Lock()
		for _, item := range o.Items {
			r.products.products[item.ProductID].Stock += item.Quantity
		}
		r.products.mu.Unlock()
	}
	return nil
}

type fakePublisher struct {
	events []domain.OrderEvent
	err    error
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, e domain.OrderEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

var errBoom = errors.New("boom")

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }
