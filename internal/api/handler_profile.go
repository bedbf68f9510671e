package api

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"habitrack-backend/internal/model"
	"habitrack-backend/internal/validation"
)

// GetProfile handles GET /api/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	p, ok := h.stores.Users.Profile()
	if !ok {
		notFound(c, "profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProfile handles POST /api/profile.
func (h *Handler) CreateProfile(c *gin.Context) {
	if !h.stores.Users.IsGuest() {
		c.JSON(http.StatusConflict, gin.H{"error": "profile already exists"})
		return
	}
	input, ok := bindInput(c)
	if !ok {
		return
	}
	res := validation.ValidateUser(input)
	if !res.Success {
		validationFailed(c, validation.User.ErrorMap(res.Error.Issues), res.Error)
		return
	}

	saved, ok := h.stores.Users.Save(c.Request.Context(), res.Data)
	if !ok {
		remoteFailed(c, "create profile")
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	if h.stores.Users.IsGuest() {
		notFound(c, "profile")
		return
	}
	input, ok := bindInput(c)
	if !ok {
		return
	}
	res := validation.ValidateUser(input)
	if !res.Success {
		validationFailed(c, validation.User.ErrorMap(res.Error.Issues), res.Error)
		return
	}

	updated, ok := h.stores.Users.Update(c.Request.Context(), res.Data)
	if !ok {
		remoteFailed(c, "update profile")
		return
	}
	c.JSON(http.StatusOK, updated)
}

type languageRequest struct {
	Language string `json:"language" binding:"required"`
}

// PutLanguage handles PUT /api/profile/language.
func (h *Handler) PutLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "language is required"})
		return
	}
	if h.stores.Users.IsGuest() {
		notFound(c, "profile")
		return
	}
	if !slices.Contains(model.Languages, req.Language) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"language": "unsupported language"}})
		return
	}
	if !h.stores.Users.SetLanguage(c.Request.Context(), req.Language) {
		remoteFailed(c, "change language")
		return
	}
	p, _ := h.stores.Users.Profile()
	c.JSON(http.StatusOK, p)
}

// DeleteProfile handles DELETE /api/profile.
func (h *Handler) DeleteProfile(c *gin.Context) {
	if h.stores.Users.IsGuest() {
		notFound(c, "profile")
		return
	}
	if !h.stores.Users.DeleteAccount(c.Request.Context()) {
		remoteFailed(c, "delete account")
		return
	}
	c.Status(http.StatusNoContent)
}
