package api

import (
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"habitrack-backend/internal/notification"
	"habitrack-backend/internal/store"
	"habitrack-backend/internal/validation"
)

// Stores groups the application stores the handlers act on.
type Stores struct {
	Properties *store.PropertyStore
	Assets     *store.AssetStore
	Users      *store.UserStore
	Auth       *store.AuthStore
}

// AlertDispatcher queues push alerts without blocking the request.
type AlertDispatcher interface {
	Dispatch(alert notification.Alert) bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	stores  Stores
	db      *gorm.DB
	webpush *webpush.Options
	alerts  AlertDispatcher
	log     logrus.FieldLogger
}

// NewHandler creates a new API handler. alerts may be nil when push is
// not configured.
func NewHandler(stores Stores, db *gorm.DB, webpushOptions *webpush.Options, alerts AlertDispatcher, log logrus.FieldLogger) *Handler {
	return &Handler{
		stores:  stores,
		db:      db,
		webpush: webpushOptions,
		alerts:  alerts,
		log:     log.WithField("component", "api"),
	}
}

// bindInput decodes a JSON object body into a loose map for validation.
func bindInput(c *gin.Context) (map[string]any, bool) {
	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return nil, false
	}
	return input, true
}

// validationFailed writes a 422 with a per-field error map and the full issue list.
func validationFailed(c *gin.Context, errs map[string]string, verr *validation.Error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"errors": errs,
		"issues": verr.Issues,
	})
}

func remoteFailed(c *gin.Context, action string) {
	c.JSON(http.StatusBadGateway, gin.H{"error": "failed to " + action + ", please try again"})
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

func (h *Handler) dispatch(alert notification.Alert) {
	if h.alerts == nil {
		return
	}
	h.alerts.Dispatch(alert)
}
