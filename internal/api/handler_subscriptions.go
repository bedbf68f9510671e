package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habitrack-backend/internal/model"
	"habitrack-backend/internal/notification"
)

type putSubscriptionRequest struct {
	Endpoint   string   `json:"endpoint" binding:"required"`
	P256DH     string   `json:"p256dh" binding:"required"`
	Auth       string   `json:"auth" binding:"required"`
	Properties []string `json:"properties"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	for _, id := range req.Properties {
		if _, ok := h.stores.Properties.GetByID(id); !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"properties": "unknown property " + id}})
			return
		}
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&subscription).Error; err != nil {
			return err
		}

		if err := tx.Where("endpoint = ?", req.Endpoint).Delete(&model.PropertySubscription{}).Error; err != nil {
			return err
		}
		if len(req.Properties) == 0 {
			return nil
		}

		links := make([]model.PropertySubscription, 0, len(req.Properties))
		for _, id := range req.Properties {
			links = append(links, model.PropertySubscription{Endpoint: req.Endpoint, PropertyID: id})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})

	if err != nil {
		h.log.WithError(err).Error("Failed to store subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store subscription"})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := notification.DeleteSubscription(c.Request.Context(), h.db, req.Endpoint); err != nil {
		h.log.WithError(err).Error("Failed to delete subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subscription"})
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam reads a query value without URL-decoding it; push
// endpoints are compared byte for byte.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	var subscription model.PushSubscription
	if err := h.db.WithContext(c.Request.Context()).Preload("Properties").First(&subscription, "endpoint = ?", raw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(c, "subscription")
		} else {
			h.log.WithError(err).Error("Failed to load subscription")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
		}
		return
	}

	propertyIDs := make([]string, len(subscription.Properties))
	for i, p := range subscription.Properties {
		propertyIDs[i] = p.PropertyID
	}

	c.JSON(http.StatusOK, gin.H{"properties": propertyIDs})
}
