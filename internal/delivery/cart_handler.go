package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type CartHandler struct {
	useCase domain.CartUseCase
	log     *logrus.Logger
}

func NewCartHandler(uc domain.CartUseCase, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *CartHandler) RegisterRoutes(router gin.IRouter, guards Guards) {
	cart := router.Group("/cart", guards.Auth)
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items/:id", h.UpdateItem)
		cart.DELETE("/items/:id", h.RemoveItem)
		cart.DELETE("/:cartId/clear", h.ClearCart)
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	cart, err := h.useCase.GetCart(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart retrieved successfully", cart)
}

type addItemRequest struct {
	ProductID int64 `json:"id_product" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	cart, err := h.useCase.AddItem(c.Request.Context(), principal.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Item added to cart", cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	cart, err := h.useCase.UpdateItem(c.Request.Context(), principal.UserID, itemID, req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart item updated", cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	cart, err := h.useCase.RemoveItem(c.Request.Context(), principal.UserID, itemID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart item removed", cart)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	cartID, ok := parseID(c, "cartId")
	if !ok {
		return
	}

	cart, err := h.useCase.ClearCart(c.Request.Context(), principal.UserID, cartID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart cleared", cart)
}
