package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/internal/domain"
	"github.com/gartanggali/resort-backend/internal/repository"
	"github.com/gartanggali/resort-backend/internal/service/user"
)

type UserHandler struct {
	service user.UserUseCase
	logger  *zap.Logger
}

type profileResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type updateProfileRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Bio     *string `json:"bio"`
	Avatar  *string `json:"avatar"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func NewUserHandler(service user.UserUseCase, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

func (h *UserHandler) Register(rg *gin.RouterGroup, authRequired gin.HandlerFunc) {
	rg.GET("/getprofile", authRequired, h.getProfile)
	rg.PUT("/updateprofile", authRequired, h.updateProfile)
}

func (h *UserHandler) getProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized, userId not found"})
		return
	}

	u, err := h.service.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile fetched successfully",
		"user":    toProfileResponse(u),
	})
}

func (h *UserHandler) updateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized, userId not found"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), userID, repository.ProfileUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Bio:     req.Bio,
		Avatar:  req.Avatar,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User profile updated successfully",
		"user":    toProfileResponse(u),
	})
}

func toProfileResponse(u *domain.User) profileResponse {
	return profileResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}
