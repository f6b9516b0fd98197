package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/config"
	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	"github.com/shopmandi/shopmandi-backend/pkg/logger"
	"github.com/shopmandi/shopmandi-backend/pkg/outbox/registry"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    map[uuid.UUID]string
}

func newFakeRepo(events ...models.OutboxEvent) *fakeRepo {
	return &fakeRepo{events: events, failed: map[uuid.UUID]string{}}
}

func (r *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if len(r.events) > limit {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	r.failed[id] = err.Error()
	return nil
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	return "msg-1", r.err
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	return fakeResult{err: p.err}
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()

	eventRegistry, err := registry.NewEventRegistry(config.PubSubConfig{OrdersTopic: "order-events"})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard}),
		Repository: repo,
		Registry:   eventRegistry,
		PublisherFactory: func(topic string) publisher {
			if topic != "order-events" {
				t.Fatalf("unexpected topic %s", topic)
			}
			return pub
		},
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func orderCreatedRow(t *testing.T, eventID string) models.OutboxEvent {
	t.Helper()

	envelope := map[string]any{
		"version":    1,
		"eventId":    eventID,
		"occurredAt": time.Now().UTC().Format(time.RFC3339Nano),
		"data": map[string]any{
			"order_id":    uuid.NewString(),
			"buyer_id":    uuid.NewString(),
			"seller_ids":  []string{uuid.NewString()},
			"item_count":  2,
			"total_price": "250.00",
		},
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	row := orderCreatedRow(t, "evt-1")
	repo := newFakeRepo(row)
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report work")
	}

	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if got := msg.Attributes["event_type"]; got != "order_created" {
		t.Fatalf("expected order_created attribute, got %q", got)
	}
	if got := msg.Attributes["event_id"]; got != "evt-1" {
		t.Fatalf("expected envelope event id, got %q", got)
	}
	if msg.Attributes["aggregate_id"] != row.AggregateID.String() {
		t.Fatal("expected aggregate id attribute")
	}

	if len(repo.published) != 1 || repo.published[0] != row.ID {
		t.Fatalf("expected row marked published, got %v", repo.published)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no failures, got %v", repo.failed)
	}
}

func TestProcessBatchMarksFailureOnPublishError(t *testing.T) {
	row := orderCreatedRow(t, "evt-2")
	repo := newFakeRepo(row)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(t, repo, pub)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}

	if len(repo.published) != 0 {
		t.Fatal("failed publish must not be marked published")
	}
	if repo.failed[row.ID] == "" {
		t.Fatal("expected failure recorded for row")
	}
}

func TestProcessBatchSkipsUnresolvableRow(t *testing.T) {
	row := orderCreatedRow(t, "evt-3")
	row.AggregateType = enums.AggregateLineItem
	repo := newFakeRepo(row)
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}

	if len(pub.messages) != 0 {
		t.Fatal("unresolvable row must not publish")
	}
	if repo.failed[row.ID] == "" {
		t.Fatal("expected unresolvable row marked failed")
	}
}

func TestProcessBatchNoRows(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}
