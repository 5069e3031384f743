package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type CategoryHandler struct {
	useCase  domain.CategoryUseCase
	maxImage int64
	log      *logrus.Logger
}

func NewCategoryHandler(uc domain.CategoryUseCase, maxImageBytes int64, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{
		useCase:  uc,
		maxImage: maxImageBytes,
		log:      logger,
	}
}

func (h *CategoryHandler) RegisterRoutes(router gin.IRouter, guards Guards) {
	categories := router.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
		categories.POST("", guards.Auth, guards.Admin, limitBody(h.maxImage), h.CreateCategory)
		categories.PUT("/:id", guards.Auth, guards.Admin, limitBody(h.maxImage), h.UpdateCategory)
		categories.DELETE("/:id", guards.Auth, guards.Admin, h.DeleteCategory)
	}
}

type categoryRequest struct {
	Name        *string        `json:"name" form:"name"`
	Description *string        `json:"description" form:"description"`
	Status      *domain.Status `json:"status" form:"status"`
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "CreateCategory")
	var req categoryRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, handlerLogger, err)
		return
	}
	image, err := readImage(c, h.maxImage)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}

	input := domain.CategoryInput{}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Status != nil {
		input.Status = *req.Status
	}

	res, err := h.useCase.CreateCategory(c.Request.Context(), input, image)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Category created successfully", res)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	category, err := h.useCase.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log.WithField("handler", "GetCategory"), err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Category retrieved successfully", category)
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.log.WithField("handler", "ListCategories"), err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "UpdateCategory")
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, handlerLogger, err)
		return
	}
	image, err := readImage(c, h.maxImage)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}

	res, err := h.useCase.UpdateCategory(c.Request.Context(), id, domain.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	}, image)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}
	logCleanup(handlerLogger, res.ImageCleanup)
	SuccessResponse(c, http.StatusOK, "Category updated successfully", res)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "DeleteCategory")
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cleanup, err := h.useCase.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, handlerLogger, err)
		return
	}
	logCleanup(handlerLogger, *cleanup)
	SuccessResponse(c, http.StatusOK, "Category deleted successfully", gin.H{"image_cleanup": cleanup})
}

func logCleanup(log logrus.FieldLogger, cleanup domain.ImageCleanup) {
	if cleanup.Failed() {
		log.WithField("public_id", cleanup.PublicID).Warnf("Handler: Previous image left behind: %s", cleanup.Error)
	}
}
