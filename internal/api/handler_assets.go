package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"habitrack-backend/internal/model"
	"habitrack-backend/internal/notification"
	"habitrack-backend/internal/validation"
)

// ListAssets handles GET /api/assets: the assets of the current property.
func (h *Handler) ListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, h.stores.Assets.AssetsForCurrentProperty())
}

// currentProperty writes a 409 when no property is selected.
func (h *Handler) currentProperty(c *gin.Context) (model.Property, bool) {
	p, ok := h.stores.Properties.CurrentProperty()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "select a property first"})
	}
	return p, ok
}

// CreateAsset handles POST /api/assets.
func (h *Handler) CreateAsset(c *gin.Context) {
	property, ok := h.currentProperty(c)
	if !ok {
		return
	}
	input, ok := bindInput(c)
	if !ok {
		return
	}
	res := validation.ValidateAssetForProperty(input, property)
	if !res.Success {
		validationFailed(c, validation.Asset.ErrorMap(res.Error.Issues), res.Error)
		return
	}

	saved, ok := h.stores.Assets.Save(c.Request.Context(), res.Data)
	if !ok {
		remoteFailed(c, "save asset")
		return
	}
	h.dispatch(notification.Alert{
		PropertyID: saved.PropertyID,
		Title:      "Asset added",
		Body:       fmt.Sprintf("%s was added to %s", saved.Label(), roomLabel(saved)),
	})
	c.JSON(http.StatusCreated, saved)
}

// GetAsset handles GET /api/assets/:id.
func (h *Handler) GetAsset(c *gin.Context) {
	a, ok := h.stores.Assets.GetByID(c.Param("id"))
	if !ok {
		notFound(c, "asset")
		return
	}
	c.JSON(http.StatusOK, a)
}

// UpdateAsset handles PUT /api/assets/:id.
func (h *Handler) UpdateAsset(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.stores.Assets.GetByID(id); !ok {
		notFound(c, "asset")
		return
	}
	property, ok := h.currentProperty(c)
	if !ok {
		return
	}
	input, ok := bindInput(c)
	if !ok {
		return
	}
	res := validation.ValidateAssetForProperty(input, property)
	if !res.Success {
		validationFailed(c, validation.Asset.ErrorMap(res.Error.Issues), res.Error)
		return
	}

	updated, ok := h.stores.Assets.Update(c.Request.Context(), id, res.Data)
	if !ok {
		remoteFailed(c, "update asset")
		return
	}
	h.dispatch(notification.Alert{
		PropertyID: updated.PropertyID,
		Title:      "Asset updated",
		Body:       fmt.Sprintf("%s in %s was updated", updated.Label(), roomLabel(updated)),
	})
	c.JSON(http.StatusOK, updated)
}

// DeleteAsset handles DELETE /api/assets/:id.
func (h *Handler) DeleteAsset(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.stores.Assets.GetByID(id); !ok {
		notFound(c, "asset")
		return
	}
	if !h.stores.Assets.Delete(c.Request.Context(), id) {
		remoteFailed(c, "delete asset")
		return
	}
	c.Status(http.StatusNoContent)
}

func roomLabel(a model.Asset) string {
	if a.Room == "" {
		return "an unspecified room"
	}
	return a.Room
}
