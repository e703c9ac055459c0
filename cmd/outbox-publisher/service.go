package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/fulfillment-engine/pkg/config"
	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
	"github.com/angelmondragon/fulfillment-engine/pkg/metrics"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox/registry"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultBatchSize      = 50
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisherFactory func(topic string) publisher

// publisher is the slice of *pubsub.Publisher the relay needs. Resume
// unblocks an ordering key after a failed publish.
type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	Resume(orderingKey string)
	Stop()
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	DLQRepository    dlqRepository
	Metrics          *metrics.OutboxMetrics
}

// Service relays committed outbox rows to Pub/Sub. Rows that share an
// aggregate are delivered in creation order: once one fails, the rest of
// that aggregate's rows wait for the next batch.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	pubsub       pubSubClient
	registry     registryResolver
	dlq          dlqRepository
	newPublisher publisherFactory
	publishers   map[string]publisher
	metrics      *metrics.OutboxMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			return wrapGCPPublisher(params.PubSub.Publisher(topic))
		}
	}

	outboxCfg := params.Config.Outbox
	batch := outboxCfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxAttempts := outboxCfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		pubsub:       params.PubSub,
		registry:     params.Registry,
		dlq:          params.DLQRepository,
		newPublisher: factory,
		publishers:   make(map[string]publisher),
		metrics:      params.Metrics,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: outboxCfg.PollInterval(),
	}, nil
}

// batchResult counts what happened to the rows of one batch.
type batchResult struct {
	published    int
	retried      int
	deadLettered int
	deferred     int
}

func (b batchResult) empty() bool {
	return b.published+b.retried+b.deadLettered+b.deferred == 0
}

// drained reports whether the batch made progress worth polling again immediately.
func (b batchResult) drained() bool {
	return b.published+b.deadLettered > 0
}

func (s *Service) Run(ctx context.Context) error {
	defer s.stopPublishers()

	for name, ping := range map[string]func(context.Context) error{
		"database": s.db.Ping,
		"pubsub":   s.pubsub.Ping,
	} {
		if err := ping(ctx); err != nil {
			s.logg.Error(ctx, name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}

	backoff := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		result, err := s.processBatch(ctx)
		wait := s.pollInterval
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			wait = backoff
		case result.drained():
			backoff = s.pollInterval
			continue
		default:
			backoff = s.pollInterval
		}

		if err := sleep(ctx, withJitter(wait)); err != nil {
			return err
		}
	}
}

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

// classify decides what a publish error means for a row that has already
// been attempted attemptCount times.
func classify(err error, attemptCount, maxAttempts int) (outcome, enums.OutboxDLQErrorReason) {
	if err == nil {
		return outcomePublished, ""
	}
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return outcomeDeadLetter, enums.OutboxDLQReasonNonRetryable
	}
	if attemptCount+1 >= maxAttempts {
		return outcomeDeadLetter, enums.OutboxDLQReasonMaxAttempts
	}
	return outcomeRetry, ""
}

func (s *Service) processBatch(ctx context.Context) (batchResult, error) {
	var result batchResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		result = batchResult{}
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}

		blocked := make(map[uuid.UUID]struct{})
		for _, event := range events {
			eventCtx := s.logg.WithFields(ctx, eventFields(event))
			if _, held := blocked[event.AggregateID]; held {
				result.deferred++
				s.metrics.IncDeferred(string(event.EventType))
				s.logg.Debug(eventCtx, "outbox event deferred behind a failed event of the same aggregate")
				continue
			}

			resolved, err := s.registry.Resolve(event)
			if err == nil {
				eventCtx = s.logg.WithField(eventCtx, "topic", resolved.Descriptor.Topic)
				err = s.publish(ctx, event, resolved)
			}

			kind, reason := classify(err, event.AttemptCount, s.maxAttempts)
			switch kind {
			case outcomePublished:
				if markErr := s.repo.MarkPublishedTx(tx, event.ID); markErr != nil {
					return fmt.Errorf("mark published %s: %w", event.ID, markErr)
				}
				result.published++
				s.metrics.IncPublished(string(event.EventType))
				s.logg.Info(eventCtx, "outbox event published")
			case outcomeRetry:
				if markErr := s.repo.MarkFailedTx(tx, event.ID, err); markErr != nil {
					return fmt.Errorf("mark failure %s: %w", event.ID, markErr)
				}
				blocked[event.AggregateID] = struct{}{}
				result.retried++
				s.metrics.IncFailure(string(event.EventType))
				s.logg.Warn(s.logg.WithField(eventCtx, "error", err.Error()), "outbox publish failed")
			case outcomeDeadLetter:
				if reason == enums.OutboxDLQReasonMaxAttempts {
					err = fmt.Errorf("max publish attempts reached: %w", err)
				}
				if dlqErr := s.deadLetter(eventCtx, tx, event, reason, err); dlqErr != nil {
					return dlqErr
				}
				result.deadLettered++
			}
		}
		return nil
	})
	if err != nil {
		return batchResult{}, err
	}
	return result, nil
}

func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"error_reason": reason,
		"error":        cause.Error(),
	})
	s.logg.Warn(ctx, "outbox event will not be retried")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	s.metrics.IncDeadLettered(string(event.EventType), string(reason))
	return nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFor(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := buildMessage(event, resolved)
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	res := pub.Publish(publishCtx, msg)
	if res == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	if _, err := res.Get(publishCtx); err != nil {
		pub.Resume(msg.OrderingKey)
		return err
	}
	return nil
}

func (s *Service) publisherFor(topic string) publisher {
	if pub, ok := s.publishers[topic]; ok {
		return pub
	}
	pub := s.newPublisher(topic)
	if pub != nil {
		s.publishers[topic] = pub
	}
	return pub
}

func (s *Service) stopPublishers() {
	for topic, pub := range s.publishers {
		pub.Stop()
		delete(s.publishers, topic)
	}
}

// buildMessage keys every message by its aggregate so subscribers see a
// sub-order's transitions in the order they were committed.
func buildMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	occurredAt := resolved.Envelope.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = event.CreatedAt
	}
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"occurred_at":    occurredAt.UTC().Format(time.RFC3339Nano),
		"schema_version": strconv.Itoa(resolved.Envelope.Version),
	}
	if actor := resolved.Envelope.Actor; actor != nil && actor.Role != "" {
		attrs["actor_role"] = actor.Role
	}
	return &gcppubsub.Message{
		Data:        event.Payload,
		OrderingKey: event.OrderingKey(),
		Attributes:  attrs,
	}
}

func eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	if next := current * 2; next < max {
		return next
	}
	return max
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func wrapGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}

func (p *gcpPublisher) Resume(orderingKey string) {
	if orderingKey != "" {
		p.Publisher.ResumePublish(orderingKey)
	}
}
