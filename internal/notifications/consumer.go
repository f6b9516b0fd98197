package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	"github.com/shopmandi/shopmandi-backend/pkg/logger"
	"github.com/shopmandi/shopmandi-backend/pkg/outbox"
	"github.com/shopmandi/shopmandi-backend/pkg/outbox/payloads"
)

const orderEventsConsumer = "order-events"

// idempotencyTTL bounds how long processed event ids are remembered. Pub/Sub
// redelivery windows are far shorter than this.
const idempotencyTTL = 7 * 24 * time.Hour

type notificationCreator interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(consumer, eventID string) string
}

// Consumer turns published line item transitions into fulfillment feed
// entries for the owning seller. Order placement notifications are written
// synchronously inside the checkout transaction; this worker only covers the
// later lifecycle.
type Consumer struct {
	repo         notificationCreator
	subscription *pubsub.Subscriber
	idempotency  idempotencyStore
	logg         *logger.Logger
}

// NewConsumer builds an order event consumer.
func NewConsumer(repo notificationCreator, subscription *pubsub.Subscriber, store idempotencyStore, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  store,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventLineItemStateChanged) {
		c.logg.Info(logCtx, "skipping event outside line item lifecycle")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	if _, err := uuid.Parse(envelope.EventID); err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	key := c.idempotency.IdempotencyKey(orderEventsConsumer, envelope.EventID)
	claimed, err := c.idempotency.SetNX(ctx, key, "1", idempotencyTTL)
	if err != nil {
		c.logg.Error(logCtx, "idempotency claim failed", err)
		return processResult{nack: true}
	}
	if !claimed {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.LineItemStateChangedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Del(ctx, key)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"order_id":     payload.OrderID.String(),
		"line_item_id": payload.LineItemID.String(),
		"status":       payload.Status,
	})

	if err := c.handleLineItemChange(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Del(ctx, key)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handleLineItemChange(ctx context.Context, payload payloads.LineItemStateChangedEvent, logCtx context.Context) error {
	notificationType, ok := notificationTypeForStatus(payload.Status)
	if !ok {
		c.logg.Info(logCtx, "status has no feed entry")
		return nil
	}
	if payload.SellerID == uuid.Nil {
		return fmt.Errorf("seller id missing")
	}

	notification := &models.Notification{
		SellerID:     payload.SellerID,
		OrderID:      payload.OrderID,
		Type:         notificationType,
		Message:      lineItemMessage(payload),
		ProductNames: []string{payload.ProductName},
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "fulfillment feed entry recorded")
	return nil
}

func notificationTypeForStatus(status enums.LineItemStatus) (enums.NotificationType, bool) {
	switch status {
	case enums.LineItemStatusConfirmed:
		return enums.NotificationTypeOrderConfirmed, true
	case enums.LineItemStatusShipped:
		return enums.NotificationTypeOrderShipped, true
	case enums.LineItemStatusCancelled:
		return enums.NotificationTypeOrderCancelled, true
	default:
		return "", false
	}
}

func lineItemMessage(payload payloads.LineItemStateChangedEvent) string {
	name := payload.ProductName
	if name == "" {
		name = "an item"
	}
	switch payload.Status {
	case enums.LineItemStatusConfirmed:
		return fmt.Sprintf("%s (x%d) confirmed for fulfillment", name, payload.Qty)
	case enums.LineItemStatusShipped:
		return fmt.Sprintf("%s (x%d) shipped", name, payload.Qty)
	case enums.LineItemStatusCancelled:
		return fmt.Sprintf("%s (x%d) cancelled", name, payload.Qty)
	default:
		return fmt.Sprintf("%s updated to %s", name, payload.Status)
	}
}
