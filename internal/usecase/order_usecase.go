package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

var _ domain.OrderUseCase = (*orderUseCase)(nil)

type orderUseCase struct {
	orderRepo   domain.OrderRepository
	cartRepo    domain.CartRepository
	productRepo domain.ProductRepository
	cache       domain.ProductCache
	events      domain.OrderEventPublisher
	log         *logrus.Logger
}

func NewOrderUseCase(
	orderRepo domain.OrderRepository,
	cartRepo domain.CartRepository,
	productRepo domain.ProductRepository,
	cache domain.ProductCache,
	events domain.OrderEventPublisher,
	logger *logrus.Logger,
) domain.OrderUseCase {
	return &orderUseCase{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cache:       cache,
		events:      events,
		log:         logger,
	}
}

func (uc *orderUseCase) PlaceOrder(ctx context.Context, userID int64, input domain.PlaceOrderInput) (*domain.Order, error) {
	if userID <= 0 {
		return nil, domain.UnauthorizedError("invalid user ID")
	}

	cart, err := uc.cartRepo.GetCartByID(ctx, input.CartID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Warnf("Use Case: User %d referenced unknown cart %d", userID, input.CartID)
			return nil, domain.ForbiddenError("invalid cart")
		}
		return nil, err
	}
	if !cart.OwnedBy(userID) || cart.Status != domain.CartStatusOpen {
		uc.log.Warnf("Use Case: User %d cannot check out cart %d (status %s)", userID, cart.ID, cart.Status)
		return nil, domain.ForbiddenError("invalid cart")
	}
	if len(cart.Items) == 0 {
		return nil, domain.ValidationError("empty cart")
	}

	items := make([]domain.NewOrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		name := productName(item.Product, item.ProductID)
		if item.Product == nil || item.Product.Stock < item.Quantity {
			uc.log.Warnf("Use Case: Insufficient stock for product %d in cart %d", item.ProductID, cart.ID)
			return nil, domain.InsufficientStockError(name)
		}
		items = append(items, domain.NewOrderItem{
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	total, err := checkTotal(items, input.TotalAmount)
	if err != nil {
		return nil, err
	}

	shipping, err := normalizeShipping(input.Shipping)
	if err != nil {
		return nil, err
	}
	if !domain.IsValidPaymentMethod(input.PaymentMethod) {
		return nil, domain.ValidationError("invalid payment method: %s", input.PaymentMethod)
	}

	uc.log.Infof("Use Case: Placing order for user %d from cart %d (%d items, total %s)", userID, cart.ID, len(items), total.StringFixed(2))
	orderID, err := uc.orderRepo.CreateOrder(ctx, &domain.NewOrder{
		UserID:        &userID,
		CartID:        &cart.ID,
		TotalAmount:   total,
		Items:         items,
		Shipping:      shipping,
		PaymentMethod: input.PaymentMethod,
	})
	if err != nil {
		uc.log.Warnf("Use Case: Order creation failed for user %d: %v", userID, err)
		return nil, err
	}

	return uc.afterCreate(ctx, orderID, items)
}

func (uc *orderUseCase) PlaceGuestOrder(ctx context.Context, input domain.GuestOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, domain.ValidationError("empty cart")
	}

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentCashOnDelivery
	}
	if !domain.IsValidPaymentMethod(paymentMethod) {
		return nil, domain.ValidationError("invalid payment method: %s", paymentMethod)
	}

	shipping, err := normalizeShipping(domain.ShippingInfo{
		FullName:       input.FullName,
		Phone:          input.Phone,
		Email:          input.Email,
		Province:       domain.GuestGeographyPlaceholder,
		Canton:         domain.GuestGeographyPlaceholder,
		District:       domain.GuestGeographyPlaceholder,
		AddressDetails: input.Address,
		ShippingMethod: domain.ShippingStandard,
	})
	if err != nil {
		return nil, err
	}

	// one line per product so the stock check sees the combined quantity
	merged := make([]domain.NewOrderItem, 0, len(input.Items))
	index := make(map[int64]int, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID <= 0 {
			return nil, domain.ValidationError("invalid product ID")
		}
		if item.Quantity <= 0 {
			return nil, domain.ValidationError("quantity for product %d must be greater than zero", item.ProductID)
		}
		if i, ok := index[item.ProductID]; ok {
			if !merged[i].UnitPrice.Equal(item.UnitPrice) {
				return nil, domain.ValidationError("price mismatch for product %d", item.ProductID)
			}
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, domain.NewOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	for i := range merged {
		item := &merged[i]
		product, err := uc.productRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NotFoundError("product %d not found", item.ProductID)
			}
			return nil, err
		}
		item.ProductName = product.Name
		if product.Status != domain.StatusActive {
			return nil, domain.ValidationError("product %s is not available", product.Name)
		}
		if product.Stock < item.Quantity {
			uc.log.Warnf("Use Case: Guest order rejected - product %d stock %d < %d", product.ID, product.Stock, item.Quantity)
			return nil, insufficientStock(product, item.Quantity)
		}
		if !item.UnitPrice.Equal(product.Price) {
			return nil, domain.ValidationError("price mismatch for %s", product.Name)
		}
	}

	total, err := checkTotal(merged, input.TotalAmount)
	if err != nil {
		return nil, err
	}

	uc.log.Infof("Use Case: Placing guest order (%d items, total %s)", len(merged), total.StringFixed(2))
	orderID, err := uc.orderRepo.CreateOrder(ctx, &domain.NewOrder{
		TotalAmount:   total,
		Items:         merged,
		Shipping:      shipping,
		PaymentMethod: paymentMethod,
	})
	if err != nil {
		uc.log.Warnf("Use Case: Guest order creation failed: %v", err)
		return nil, err
	}

	return uc.afterCreate(ctx, orderID, merged)
}

func (uc *orderUseCase) afterCreate(ctx context.Context, orderID int64, items []domain.NewOrderItem) (*domain.Order, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	uc.invalidate(ctx, ids)

	order, err := uc.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		uc.log.Errorf("Use Case: Order %d created but could not be reloaded: %v", orderID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Order %d created successfully", orderID)
	uc.publish(ctx, newOrderEvent(domain.EventOrderCreated, order, ""))
	return order, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, caller domain.Principal, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, domain.ValidationError("invalid order ID")
	}
	order, err := uc.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !order.OwnedBy(caller.UserID) {
		uc.log.Warnf("Use Case: User %d denied access to order %d", caller.UserID, id)
		return nil, domain.ForbiddenError("no access to this order")
	}
	return order, nil
}

func (uc *orderUseCase) ListUserOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	return uc.orderRepo.ListOrdersByUserID(ctx, userID)
}

func (uc *orderUseCase) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return uc.orderRepo.ListAllOrders(ctx)
}

func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if id <= 0 {
		return nil, domain.ValidationError("invalid order ID for status update")
	}
	if !domain.IsValidOrderStatus(status) {
		return nil, domain.ValidationError("invalid status: %s", status)
	}

	current, err := uc.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Could not get current order %d for status update check: %v", id, err)
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		uc.log.Warnf("Use Case: Rejected transition of order %d from %s to %s", id, current.Status, status)
		return nil, domain.ValidationError("invalid status transition from %s to %s", current.Status, status)
	}

	if err := uc.orderRepo.UpdateOrderStatus(ctx, id, current.Status, status); err != nil {
		uc.log.Errorf("Use Case: Repository failed to update status of order %d: %v", id, err)
		return nil, err
	}
	if status == domain.OrderStatusCancelled {
		ids := make([]int64, 0, len(current.Items))
		for _, item := range current.Items {
			ids = append(ids, item.ProductID)
		}
		uc.invalidate(ctx, ids)
	}

	updated, err := uc.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.log.Infof("Use Case: Order %d moved from %s to %s", id, current.Status, status)
	uc.publish(ctx, newOrderEvent(domain.EventOrderStatusChanged, updated, current.Status))
	return updated, nil
}

func (uc *orderUseCase) invalidate(ctx context.Context, ids []int64) {
	if err := uc.cache.InvalidateProducts(ctx, ids...); err != nil {
		uc.log.Warnf("Use Case: Cache invalidation failed for products %v: %v", ids, err)
	}
}

func (uc *orderUseCase) publish(ctx context.Context, event domain.OrderEvent) {
	if err := uc.events.PublishOrderEvent(ctx, event); err != nil {
		uc.log.Warnf("Use Case: Event %s for order %d was not published: %v", event.Type, event.OrderID, err)
	}
}

func newOrderEvent(eventType string, order *domain.Order, previous domain.OrderStatus) domain.OrderEvent {
	items := make([]domain.OrderEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, domain.OrderEventItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return domain.OrderEvent{
		EventID:        uuid.NewString(),
		Type:           eventType,
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalAmount:    order.TotalAmount,
		Items:          items,
		OccurredAt:     time.Now().UTC(),
	}
}

// checkTotal recomputes the item sum and compares it with the caller's total.
func checkTotal(items []domain.NewOrderItem, claimed decimal.Decimal) (decimal.Decimal, error) {
	total := domain.SumItems(items)
	if !total.Equal(claimed) {
		return decimal.Zero, domain.ValidationError("invalid total amount: expected %s, got %s",
			total.StringFixed(2), claimed.StringFixed(2))
	}
	return total, nil
}

func normalizeShipping(s domain.ShippingInfo) (domain.ShippingInfo, error) {
	s.FullName = strings.TrimSpace(s.FullName)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Email = normalizeEmail(s.Email)
	s.AddressDetails = strings.TrimSpace(s.AddressDetails)
	s.Identification = strings.TrimSpace(s.Identification)
	s.DeliveryNotes = strings.TrimSpace(s.DeliveryNotes)

	if s.FullName == "" {
		return s, domain.ValidationError("full_name is required")
	}
	if s.Phone == "" {
		return s, domain.ValidationError("phone is required")
	}
	if s.Email != "" && !isValidEmail(s.Email) {
		return s, domain.ValidationError("invalid email format")
	}
	if s.AddressDetails == "" {
		return s, domain.ValidationError("address is required")
	}
	for _, f := range []struct {
		name  string
		value *string
	}{{"province", &s.Province}, {"canton", &s.Canton}, {"district", &s.District}} {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return s, domain.ValidationError("%s is required", f.name)
		}
	}
	if s.ShippingMethod == "" {
		s.ShippingMethod = domain.ShippingStandard
	}
	if !domain.IsValidShippingMethod(s.ShippingMethod) {
		return s, domain.ValidationError("invalid shipping method: %s", s.ShippingMethod)
	}
	return s, nil
}

func productName(p *domain.Product, id int64) string {
	if p != nil && p.Name != "" {
		return p.Name
	}
	return "product " + strconv.FormatInt(id, 10)
}
