package delivery

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type OrderHandler struct {
	useCase  domain.OrderUseCase
	receipts domain.ReceiptRenderer
	log      *logrus.Logger
}

func NewOrderHandler(uc domain.OrderUseCase, receipts domain.ReceiptRenderer, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		useCase:  uc,
		receipts: receipts,
		log:      logger,
	}
}

func (h *OrderHandler) RegisterRoutes(router gin.IRouter, guards Guards) {
	orders := router.Group("/orders")
	{
		orders.POST("/guest", guards.RateLimit, h.CreateGuestOrder)
		orders.POST("", guards.Auth, h.CreateOrder)
		orders.GET("", guards.Auth, h.ListOrders)
		orders.GET("/admin/all", guards.Auth, guards.Admin, h.ListAllOrders)
		orders.GET("/:id", guards.Auth, h.GetOrder)
		orders.GET("/:id/receipt", guards.Auth, h.GetReceipt)
		orders.PUT("/:id/status", guards.Auth, guards.Admin, h.UpdateOrderStatus)
	}
}

type createOrderRequest struct {
	CartID         int64                 `json:"id_cart" binding:"required"`
	FullName       string                `json:"full_name"`
	Identification string                `json:"identification"`
	Phone          string                `json:"phone"`
	Email          string                `json:"email"`
	Province       string                `json:"province"`
	Canton         string                `json:"canton"`
	District       string                `json:"district"`
	AddressDetails string                `json:"address_details"`
	DeliveryNotes  string                `json:"delivery_notes"`
	ShippingMethod domain.ShippingMethod `json:"shipping_method"`
	PaymentMethod  domain.PaymentMethod  `json:"payment_method"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	order, err := h.useCase.PlaceOrder(c.Request.Context(), principal.UserID, domain.PlaceOrderInput{
		CartID: req.CartID,
		Shipping: domain.ShippingInfo{
			FullName:       req.FullName,
			Identification: req.Identification,
			Phone:          req.Phone,
			Email:          req.Email,
			Province:       req.Province,
			Canton:         req.Canton,
			District:       req.District,
			AddressDetails: req.AddressDetails,
			DeliveryNotes:  req.DeliveryNotes,
			ShippingMethod: req.ShippingMethod,
		},
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   req.TotalAmount,
	})
	if err != nil {
		respondError(c, h.log.WithField("user_id", principal.UserID), err)
		return
	}

	h.log.Infof("Handler: Order %d created for user %d", order.ID, principal.UserID)
	SuccessResponse(c, http.StatusCreated, "Order created successfully", order)
}

type guestOrderRequest struct {
	FullName      string                  `json:"full_name" binding:"required"`
	Phone         string                  `json:"phone" binding:"required"`
	Email         string                  `json:"email"`
	Address       string                  `json:"address" binding:"required"`
	Items         []guestOrderItemRequest `json:"items" binding:"required,dive"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	PaymentMethod domain.PaymentMethod    `json:"payment_method"`
}

type guestOrderItemRequest struct {
	ProductID int64           `json:"id_product" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (h *OrderHandler) CreateGuestOrder(c *gin.Context) {
	var req guestOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	items := make([]domain.GuestOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.GuestOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := h.useCase.PlaceGuestOrder(c.Request.Context(), domain.GuestOrderInput{
		FullName:      req.FullName,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Items:         items,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(c, h.log.WithField("guest", true), err)
		return
	}

	h.log.Infof("Handler: Guest order %d created", order.ID)
	SuccessResponse(c, http.StatusCreated, "Order created successfully", order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	orders, err := h.useCase.ListUserOrders(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	orders, err := h.useCase.ListAllOrders(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "Order retrieved successfully", order)
}

func (h *OrderHandler) GetReceipt(c *gin.Context) {
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}

	pdf, err := h.receipts.RenderReceipt(order)
	if err != nil {
		respondError(c, h.log.WithField("order_id", order.ID), err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="order-%d.pdf"`, order.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// loadOrder applies the read access rule shared by the order and receipt routes.
func (h *OrderHandler) loadOrder(c *gin.Context) (*domain.Order, bool) {
	principal := currentPrincipal(c)
	if principal == nil {
		return nil, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	order, err := h.useCase.GetOrder(c.Request.Context(), *principal, id)
	if err != nil {
		respondError(c, h.log.WithField("order_id", id), err)
		return nil, false
	}
	return order, true
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	order, err := h.useCase.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.log.WithField("order_id", id), err)
		return
	}

	h.log.Infof("Handler: Order %d moved to %s", id, order.Status)
	SuccessResponse(c, http.StatusOK, "Order status updated successfully", order)
}
