package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"habitrack-backend/internal/model"
	"habitrack-backend/internal/view"
)

type groupedResponse[T any] struct {
	Labels []string       `json:"labels"`
	Groups view.Groups[T] `json:"groups"`
}

// AssetsByRoom handles GET /api/views/assets-by-room.
func (h *Handler) AssetsByRoom(c *gin.Context) {
	groups := h.stores.Assets.AssetsByRooms()
	c.JSON(http.StatusOK, groupedResponse[model.Asset]{
		Labels: groups.Labels(view.UnspecifiedRoom),
		Groups: groups,
	})
}

// PropertiesByCountry handles GET /api/views/properties-by-country.
func (h *Handler) PropertiesByCountry(c *gin.Context) {
	groups := h.stores.Properties.PropertiesByCountry()
	c.JSON(http.StatusOK, groupedResponse[model.Property]{
		Labels: groups.Labels(view.UnspecifiedCountry),
		Groups: groups,
	})
}

// GetCategories handles GET /api/categories.
func GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, model.AssetCategories)
}
