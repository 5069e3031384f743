package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusOpen       CartStatus = "OPEN"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
)

type Cart struct {
	ID        int64           `json:"id_cart"`
	UserID    *int64          `json:"id_user"`
	Status    CartStatus      `json:"status"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CartItem struct {
	ID        int64           `json:"id_cart_item"`
	CartID    int64           `json:"id_cart"`
	ProductID int64           `json:"id_product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Product   *Product        `json:"product,omitempty"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RecalculateTotal sets Total to the sum of the item subtotals.
func (c *Cart) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	c.Total = total
}

func (c *Cart) OwnedBy(userID int64) bool {
	return c.UserID != nil && *c.UserID == userID
}

func (c *Cart) FindItemByProduct(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

type CartRepository interface {
	CreateCart(ctx context.Context, userID int64) (*Cart, error)
	GetCartByID(ctx context.Context, id int64) (*Cart, error)
	GetOpenCartByUserID(ctx context.Context, userID int64) (*Cart, error)
	GetCartItemByID(ctx context.Context, itemID int64) (*CartItem, error)
	AddCartItem(ctx context.Context, item *CartItem) (*CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteCartItem(ctx context.Context, itemID int64) error
	ClearCart(ctx context.Context, cartID int64) error
}

type CartUseCase interface {
	GetCart(ctx context.Context, userID int64) (*Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*Cart, error)
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*Cart, error)
	ClearCart(ctx context.Context, userID, cartID int64) (*Cart, error)
}
