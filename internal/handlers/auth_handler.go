package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

// AuthHandler serves registration, verification, login and password flows
type AuthHandler struct {
	BaseHandler
	service services.AuthService
}

func NewAuthHandler(service services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger.With("handler", "auth")),
		service:     service,
	}
}

// Register creates a student account and mails its verification code
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !h.bindSanitized(c, &req, "username", "first_name", "middle_name", "last_name", "email") {
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "User registered successfully. Check your email for the verification code.", user)
}

// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req models.VerifyEmailRequest
	if !h.bindSanitized(c, &req, "email", "otp") {
		return
	}

	user, err := h.service.VerifyEmail(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Email verified successfully", user)
}

// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bindSanitized(c, &req, "email") {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Login successful", resp)
}

// @Router /auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req models.ResendOTPRequest
	if !h.bindSanitized(c, &req, "email") {
		return
	}

	if err := h.service.ResendOTP(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "A new verification code has been sent.", nil)
}

// @Router /auth/password/reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req models.PasswordResetRequest
	if !h.bindSanitized(c, &req, "email") {
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "A password reset code has been sent.", nil)
}

// @Router /auth/password/reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req models.PasswordResetConfirmRequest
	if !h.bindSanitized(c, &req, "email", "otp") {
		return
	}

	user, err := h.service.ConfirmPasswordReset(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Password has been reset successfully", user)
}

// @Router /auth/password/change [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if !h.bindSanitized(c, &req) {
		return
	}

	user, err := h.service.ChangePassword(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Password changed successfully", user)
}
