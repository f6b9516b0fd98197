package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/config"
	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/logger"
	"github.com/shopmandi/shopmandi-backend/pkg/metrics"
	"github.com/shopmandi/shopmandi-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type outboxRepository interface {
	FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type pinger interface {
	Ping(context.Context) error
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publisherFactory func(topic string) publisher

type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

// ServiceParams configures the dispatcher. PublisherFactory exists for test
// injection and defaults to topic publishers from the pubsub client.
type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               pinger
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	Metrics          *metrics.OutboxMetrics
	PublisherFactory publisherFactory
}

// Service drains unpublished outbox rows to Pub/Sub in order of insertion.
type Service struct {
	cfg              *config.Config
	logg             *logger.Logger
	db               pinger
	pubsub           pubSubClient
	repo             outboxRepository
	registry         registryResolver
	metrics          *metrics.OutboxMetrics
	publisherFactory publisherFactory
	batchSize        int
	maxAttempts      int
	pollInterval     time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("event registry is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		if params.PubSub == nil {
			return nil, errors.New("pubsub client is required")
		}
		factory = func(topic string) publisher {
			inner := params.PubSub.Publisher(topic)
			if inner == nil {
				return nil
			}
			return gcpPublisher{inner: inner}
		}
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:              params.Config,
		logg:             params.Logger,
		db:               params.DB,
		pubsub:           params.PubSub,
		repo:             params.Repository,
		registry:         params.Registry,
		metrics:          params.Metrics,
		publisherFactory: factory,
		batchSize:        batch,
		maxAttempts:      maxAttempts,
		pollInterval:     time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
	}
	if s.pubsub != nil {
		if err := s.pubsub.Ping(ctx); err != nil {
			return fmt.Errorf("pubsub ping failed: %w", err)
		}
	}
	return nil
}

// Run polls for unpublished rows until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, interval)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval
		if processed {
			continue
		}
		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch reports whether it found any rows to work on.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	events, err := s.repo.FetchUnpublished(s.batchSize, s.maxAttempts)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		if err := s.dispatch(ctx, event); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Service) dispatch(ctx context.Context, event models.OutboxEvent) error {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		logCtx := s.eventContext(ctx, event, "")
		s.logg.Error(logCtx, "outbox event unresolvable", err)
		s.metrics.IncFailure(string(event.EventType))
		return s.repo.MarkFailed(event.ID, err)
	}

	topic := resolved.Descriptor.Topic
	logCtx := s.eventContext(ctx, event, topic)

	pub := s.publisherFactory(topic)
	if pub == nil {
		err := fmt.Errorf("no publisher for topic %s", topic)
		s.logg.Error(logCtx, "outbox publisher missing", err)
		s.metrics.IncFailure(string(event.EventType))
		return s.repo.MarkFailed(event.ID, err)
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"event_id":       resolved.Envelope.EventID,
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	start := time.Now()
	_, err = pub.Publish(publishCtx, msg).Get(publishCtx)
	s.metrics.ObserveDuration(string(event.EventType), time.Since(start))
	if err != nil {
		s.logg.Error(logCtx, "outbox publish failed", err)
		s.metrics.IncFailure(string(event.EventType))
		return s.repo.MarkFailed(event.ID, err)
	}

	s.metrics.IncSuccess(string(event.EventType))
	s.logg.Info(logCtx, "outbox event published")
	return s.repo.MarkPublished(event.ID)
}

func (s *Service) eventContext(ctx context.Context, event models.OutboxEvent, topic string) context.Context {
	fields := map[string]any{
		"outbox_id":    event.ID.String(),
		"event_type":   string(event.EventType),
		"aggregate_id": event.AggregateID.String(),
	}
	if topic != "" {
		fields["topic"] = topic
	}
	return s.logg.WithFields(ctx, fields)
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base time.Duration) time.Duration {
	next := current * 2
	if next < base {
		next = base
	}
	if next > maxBackoff {
		next = maxBackoff
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
