// Package notification delivers asset alerts as web push messages to every
// browser subscribed to the affected property.
package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"habitrack-backend/internal/model"
)

// Alert is one message about a property.
type Alert struct {
	PropertyID string `json:"propertyId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	log     logrus.FieldLogger
}

// NewWorkerPool creates a new worker pool with a queue of queueSize alerts.
func NewWorkerPool(size, queueSize int, db *gorm.DB, webpushOptions *webpush.Options, log logrus.FieldLogger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, queueSize),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log.WithField("component", "notification"),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.WithField("worker", id)
	log.Debug("Worker started")
	for {
		select {
		case alert := <-wp.jobs:
			log.WithField("property_id", alert.PropertyID).Debug("Processing alert")
			wp.sendAlert(ctx, alert)
		case <-ctx.Done():
			log.Debug("Worker shutting down")
			return
		}
	}
}

// Dispatch queues alert without blocking. It reports false when the queue
// is full and the alert was dropped.
func (wp *WorkerPool) Dispatch(alert Alert) bool {
	select {
	case wp.jobs <- alert:
		return true
	default:
		wp.log.WithField("property_id", alert.PropertyID).Warn("Alert queue full; dropping alert")
		return false
	}
}

func (wp *WorkerPool) sendAlert(ctx context.Context, alert Alert) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN property_subscriptions ps ON ps.endpoint = push_subscriptions.endpoint").
		Where("ps.property_id = ?", alert.PropertyID).
		Find(&subscriptions).Error
	if err != nil {
		wp.log.WithError(err).WithField("property_id", alert.PropertyID).Error("Error fetching subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		wp.log.WithError(err).Error("Error encoding alert")
		return
	}

	wp.log.WithField("property_id", alert.PropertyID).Infof("Sending %d notifications", len(subscriptions))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.WithError(err).WithField("endpoint", sub.Endpoint).Error("Error sending notification")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.log.WithField("endpoint", sub.Endpoint).Info("Subscription expired; deleting")
		if err := DeleteSubscription(ctx, wp.db, sub.Endpoint); err != nil {
			wp.log.WithError(err).WithField("endpoint", sub.Endpoint).Error("Failed to delete expired subscription")
		}
	}
}

// DeleteSubscription removes a subscription and the properties it watches.
func DeleteSubscription(ctx context.Context, db *gorm.DB, endpoint string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.PropertySubscription{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error
	})
}
