package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type ProductHandler struct {
	useCase  domain.ProductUseCase
	maxImage int64
	log      *logrus.Logger
}

func NewProductHandler(uc domain.ProductUseCase, maxImageBytes int64, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		useCase:  uc,
		maxImage: maxImageBytes,
		log:      logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter, guards Guards) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.GET("/category/:id", h.ListProductsByCategory)
		products.POST("", guards.Auth, guards.Admin, limitBody(h.maxImage), h.CreateProduct)
		products.PUT("/:id", guards.Auth, guards.Admin, limitBody(h.maxImage), h.UpdateProduct)
		products.DELETE("/:id", guards.Auth, guards.Admin, h.DeleteProduct)
	}
}

// productRequest binds both JSON and multipart bodies; absent fields stay nil.
type productRequest struct {
	Name        *string          `json:"name" form:"name"`
	Description *string          `json:"description" form:"description"`
	Price       *decimal.Decimal `json:"price" form:"price"`
	Stock       *int             `json:"stock" form:"stock"`
	CategoryID  *int64           `json:"id_category" form:"id_category"`
	Status      *domain.Status   `json:"status" form:"status"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "CreateProduct")
	var req productRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, handlerLogger, err)
		return
	}
	if req.Price == nil {
		ErrorResponse(c, http.StatusBadRequest, "product price is required")
		return
	}
	image, err := readImage(c, h.maxImage)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}

	input := domain.ProductInput{Price: *req.Price}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Stock != nil {
		input.Stock = *req.Stock
	}
	if req.CategoryID != nil {
		input.CategoryID = *req.CategoryID
	}
	if req.Status != nil {
		input.Status = *req.Status
	}

	res, err := h.useCase.CreateProduct(c.Request.Context(), input, image)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Product created successfully", res)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.useCase.GetProductByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log.WithField("handler", "GetProduct"), err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "ListProducts")
	filter := domain.ProductFilter{Search: c.Query("search")}

	if raw := c.Query("id_category"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid id_category parameter")
			return
		}
		filter.CategoryID = &categoryID
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.Status(raw)
		filter.Status = &status
	}

	products, err := h.useCase.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", products)
}

func (h *ProductHandler) ListProductsByCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	products, err := h.useCase.ListProductsByCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log.WithField("handler", "ListProductsByCategory"), err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", products)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "UpdateProduct")
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, handlerLogger, err)
		return
	}
	image, err := readImage(c, h.maxImage)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}

	res, err := h.useCase.UpdateProduct(c.Request.Context(), id, domain.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Status:      req.Status,
	}, image)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}
	logCleanup(handlerLogger, res.ImageCleanup)
	SuccessResponse(c, http.StatusOK, "Product updated successfully", res)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "DeleteProduct")
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cleanup, err := h.useCase.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}
	logCleanup(handlerLogger, *cleanup)
	SuccessResponse(c, http.StatusOK, "Product deleted successfully", gin.H{"image_cleanup": cleanup})
}
