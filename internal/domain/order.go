package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusCompleted},
}

func IsValidOrderStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "STANDARD"
	ShippingExpress   ShippingMethod = "EXPRESS"
	ShippingOvernight ShippingMethod = "OVERNIGHT"
)

func IsValidShippingMethod(m ShippingMethod) bool {
	switch m {
	case ShippingStandard, ShippingExpress, ShippingOvernight:
		return true
	default:
		return false
	}
}

type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard      PaymentMethod = "DEBIT_CARD"
	PaymentPaypal         PaymentMethod = "PAYPAL"
	PaymentBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentPaypal, PaymentBankTransfer, PaymentCashOnDelivery:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// GuestGeographyPlaceholder fills the shipping fields a guest checkout does not collect.
const GuestGeographyPlaceholder = "N/A"

type Order struct {
	ID           int64           `json:"id_order"`
	UserID       *int64          `json:"id_user"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       OrderStatus     `json:"status"`
	Items        []OrderItem     `json:"items"`
	ShippingInfo *ShippingInfo   `json:"shipping_info"`
	Payments     []Payment       `json:"payments"`
	User         *OrderCustomer  `json:"user,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (o *Order) IsGuest() bool { return o.UserID == nil }

func (o *Order) OwnedBy(userID int64) bool {
	return o.UserID != nil && *o.UserID == userID
}

// OrderCustomer is the subset of the user shown on admin order listings.
type OrderCustomer struct {
	ID       int64  `json:"id_user"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type OrderItem struct {
	ID        int64           `json:"id_order_item"`
	OrderID   int64           `json:"id_order"`
	ProductID int64           `json:"id_product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Product   *Product        `json:"product,omitempty"`
}

type ShippingInfo struct {
	ID             int64          `json:"id_shipping"`
	OrderID        int64          `json:"id_order"`
	FullName       string         `json:"full_name"`
	Identification string         `json:"identification,omitempty"`
	Phone          string         `json:"phone"`
	Email          string         `json:"email"`
	Province       string         `json:"province"`
	Canton         string         `json:"canton"`
	District       string         `json:"district"`
	AddressDetails string         `json:"address_details"`
	DeliveryNotes  string         `json:"delivery_notes,omitempty"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
}

type Payment struct {
	ID               int64           `json:"id_payment"`
	OrderID          int64           `json:"id_order"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type PlaceOrderInput struct {
	CartID        int64
	Shipping      ShippingInfo
	PaymentMethod PaymentMethod
	TotalAmount   decimal.Decimal
}

type GuestOrderInput struct {
	FullName      string
	Phone         string
	Email         string
	Address       string
	Items         []GuestOrderItem
	TotalAmount   decimal.Decimal
	PaymentMethod PaymentMethod
}

type GuestOrderItem struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// NewOrder is everything written by a single checkout transaction.
type NewOrder struct {
	UserID        *int64
	CartID        *int64
	TotalAmount   decimal.Decimal
	Items         []NewOrderItem
	Shipping      ShippingInfo
	PaymentMethod PaymentMethod
}

type NewOrderItem struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// SumItems returns Σ quantity × unit price.
func SumItems(items []NewOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *NewOrder) (int64, error)
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	ListOrdersByUserID(ctx context.Context, userID int64) ([]Order, error)
	ListAllOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, from, to OrderStatus) error
}

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, userID int64, input PlaceOrderInput) (*Order, error)
	PlaceGuestOrder(ctx context.Context, input GuestOrderInput) (*Order, error)
	GetOrder(ctx context.Context, caller Principal, id int64) (*Order, error)
	ListUserOrders(ctx context.Context, userID int64) ([]Order, error)
	ListAllOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) (*Order, error)
}

type ReceiptRenderer interface {
	RenderReceipt(order *Order) ([]byte, error)
}
