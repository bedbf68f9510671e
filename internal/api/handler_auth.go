package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"habitrack-backend/internal/store"
)

type sendOTPRequest struct {
	CountryCode string `json:"countryCode" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// SendOTP handles POST /api/auth/otp.
func (h *Handler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "countryCode and phoneNumber are required"})
		return
	}

	auth := h.stores.Auth
	phone, err := auth.RequestOTP(c.Request.Context(), req.CountryCode, req.PhoneNumber)
	switch {
	case errors.Is(err, store.ErrInvalidPhone):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"phoneNumber": "enter a valid phone number"}})
		return
	case errors.Is(err, store.ErrCooldown):
		retry := int(math.Ceil(auth.CooldownRemaining().Seconds()))
		c.Header("Retry-After", strconv.Itoa(retry))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "please wait before requesting another code", "cooldownSeconds": retry})
		return
	case err != nil:
		remoteFailed(c, "send code")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"phoneNumber":     phone,
		"cooldownSeconds": int(math.Ceil(auth.CooldownRemaining().Seconds())),
	})
}

type verifyOTPRequest struct {
	Code string `json:"code" binding:"required"`
}

// VerifyOTP handles POST /api/auth/otp/verify.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	switch err := h.stores.Auth.VerifyOTP(c.Request.Context(), req.Code); {
	case errors.Is(err, store.ErrNoPhoneNumber):
		c.JSON(http.StatusConflict, gin.H{"error": "request a code first"})
	case errors.Is(err, store.ErrInvalidCode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"code": "code must be six digits"}})
	case err != nil:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OTP verification failed. Please try again."})
	default:
		c.JSON(http.StatusOK, gin.H{"authenticated": true})
	}
}

// Logout handles POST /api/auth/logout. It drops the token, the local
// profile and the session's property selection.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.stores.Auth.ClearToken(ctx); err != nil {
		h.log.WithError(err).Error("Failed to clear token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
		return
	}
	if err := h.stores.Users.Clear(ctx); err != nil {
		h.log.WithError(err).Error("Failed to clear profile")
	}
	h.stores.Properties.ClearCurrentProperty()
	c.Status(http.StatusNoContent)
}

// GetSession handles GET /api/auth/session.
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authenticated": h.stores.Auth.IsAuthenticated(),
		"guest":         h.stores.Users.IsGuest(),
	})
}
