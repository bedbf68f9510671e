package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"habitrack-backend/internal/validation"
)

// ListProperties handles GET /api/properties.
func (h *Handler) ListProperties(c *gin.Context) {
	c.JSON(http.StatusOK, nonNil(h.stores.Properties.GetAll()))
}

// CreateProperty handles POST /api/properties.
func (h *Handler) CreateProperty(c *gin.Context) {
	input, ok := bindInput(c)
	if !ok {
		return
	}
	res := validation.ValidateProperty(input)
	if !res.Success {
		validationFailed(c, validation.Property.ErrorMap(res.Error.Issues), res.Error)
		return
	}

	saved, ok := h.stores.Properties.Save(c.Request.Context(), res.Data)
	if !ok {
		remoteFailed(c, "save property")
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// GetProperty handles GET /api/properties/:id.
func (h *Handler) GetProperty(c *gin.Context) {
	p, ok := h.stores.Properties.GetByID(c.Param("id"))
	if !ok {
		notFound(c, "property")
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProperty handles PUT /api/properties/:id.
func (h *Handler) UpdateProperty(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.stores.Properties.GetByID(id); !ok {
		notFound(c, "property")
		return
	}
	input, ok := bindInput(c)
	if !ok {
		return
	}
	res := validation.ValidateProperty(input)
	if !res.Success {
		validationFailed(c, validation.Property.ErrorMap(res.Error.Issues), res.Error)
		return
	}

	updated, ok := h.stores.Properties.Update(c.Request.Context(), id, res.Data)
	if !ok {
		remoteFailed(c, "update property")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteProperty handles DELETE /api/properties/:id.
func (h *Handler) DeleteProperty(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.stores.Properties.GetByID(id); !ok {
		notFound(c, "property")
		return
	}
	if !h.stores.Properties.Delete(c.Request.Context(), id) {
		remoteFailed(c, "delete property")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRooms handles GET /api/properties/:id/rooms.
func (h *Handler) GetRooms(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.stores.Properties.GetByID(id); !ok {
		notFound(c, "property")
		return
	}
	c.JSON(http.StatusOK, h.stores.Properties.GetAllRooms(id))
}

type currentPropertyRequest struct {
	PropertyID string `json:"propertyId" binding:"required"`
}

// GetCurrentProperty handles GET /api/session/property.
func (h *Handler) GetCurrentProperty(c *gin.Context) {
	p, ok := h.stores.Properties.CurrentProperty()
	if !ok {
		notFound(c, "current property")
		return
	}
	c.JSON(http.StatusOK, p)
}

// PutCurrentProperty handles PUT /api/session/property.
func (h *Handler) PutCurrentProperty(c *gin.Context) {
	var req currentPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "propertyId is required"})
		return
	}
	p, err := h.stores.Properties.SetCurrentProperty(req.PropertyID)
	if err != nil {
		notFound(c, "property")
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteCurrentProperty handles DELETE /api/session/property.
func (h *Handler) DeleteCurrentProperty(c *gin.Context) {
	h.stores.Properties.ClearCurrentProperty()
	c.Status(http.StatusNoContent)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
