package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/internal/service/auth"
)

type AuthHandler struct {
	service       auth.AuthUseCase
	clientURL     string
	secureCookies bool
	logger        *zap.Logger
}

type loginRequest struct {
	Email    string `json:"userEmail"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"userEmail"`
	Code  string `json:"otp"`
}

type resetPasswordRequest struct {
	Email       string `json:"userEmail"`
	Code        string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewAuthHandler(service auth.AuthUseCase, clientURL string, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, clientURL: clientURL, secureCookies: secureCookies, logger: logger}
}

func (h *AuthHandler) Register(rg *gin.RouterGroup, authRequired, superAdminOnly gin.HandlerFunc) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
	rg.POST("/logout", h.logout)
	rg.POST("/createadmin", authRequired, superAdminOnly, h.createAdmin)
	rg.POST("/forgot-password", h.forgotPassword)
	rg.POST("/verify-otp", h.verifyOTP)
	rg.POST("/reset-password", h.resetPassword)
	rg.GET("/google", h.googleLogin)
	rg.GET("/google/callback", h.googleCallback)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"data":    userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user, session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, session)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"data":    userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

func (h *AuthHandler) createAdmin(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user, err := h.service.CreateAdmin(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Admin created successfully",
		"data":    userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

func (h *AuthHandler) forgotPassword(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := h.service.SendResetOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	// Same response whether or not the account exists.
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "If the email is registered, an OTP has been sent"})
}

func (h *AuthHandler) verifyOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := h.service.VerifyResetOTP(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP verified"})
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password reset successful"})
}

func (h *AuthHandler) googleLogin(c *gin.Context) {
	url, err := h.service.GoogleLoginURL(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *AuthHandler) googleCallback(c *gin.Context) {
	_, session, err := h.service.GoogleCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, session)
	c.Redirect(http.StatusFound, h.clientURL)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, session, int(h.service.SessionTTL().Seconds()), "/", "", h.secureCookies, true)
}
