package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type AuthHandler struct {
	useCase domain.UserUseCase
	log     *logrus.Logger
}

func NewAuthHandler(uc domain.UserUseCase, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router gin.IRouter, guards Guards) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", guards.RateLimit, h.Register)
		auth.POST("/login", guards.RateLimit, h.Login)
		auth.GET("/profile", guards.Auth, h.GetProfile)
		auth.PUT("/profile", guards.Auth, h.UpdateProfile)
		auth.POST("/change-password", guards.Auth, h.ChangePassword)
	}
}

type registerRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	resp, err := h.useCase.Register(c.Request.Context(), domain.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Infof("Handler: User %d registered", resp.ID)
	SuccessResponse(c, http.StatusCreated, "User registered successfully", resp)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	resp, err := h.useCase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Login successful", resp)
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}

	profile, err := h.useCase.GetProfile(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", profile)
}

type profileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Avatar   *string `json:"avatar"`
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	profile, err := h.useCase.UpdateProfile(c.Request.Context(), principal.UserID, domain.ProfileUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Profile updated successfully", profile)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	if err := h.useCase.ChangePassword(c.Request.Context(), principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Password changed successfully", nil)
}
