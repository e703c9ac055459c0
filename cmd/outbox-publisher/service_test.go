package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/fulfillment-engine/pkg/config"
	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
	"github.com/angelmondragon/fulfillment-engine/pkg/metrics"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox/payloads"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox/registry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

func TestProcessBatchDefersEventsBehindFailedAggregate(t *testing.T) {
	subOrder := uuid.New()
	other := uuid.New()
	first := statusEvent(t, subOrder, "first")
	second := statusEvent(t, subOrder, "second")
	unrelated := statusEvent(t, other, "unrelated")
	repo := &fakeRepo{events: []models.OutboxEvent{first, second, unrelated}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	service := newTestService(t, repo, pub, &fakeRegistry{resolved: ordersResolved()}, &fakeDLQRepo{}, nil)

	result, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if result.retried != 1 || result.deferred != 1 || result.published != 1 {
		t.Fatalf("unexpected batch result %+v", result)
	}
	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("expected first event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != unrelated.ID {
		t.Fatalf("expected only the unrelated aggregate published, got %v", repo.published)
	}
	if pub.calls != 2 {
		t.Fatalf("deferred event must not reach pubsub, got %d publishes", pub.calls)
	}
	if len(pub.resumed) != 1 || pub.resumed[0] != first.OrderingKey() {
		t.Fatalf("expected ordering key resumed after failure, got %v", pub.resumed)
	}
}

func TestProcessBatchContinuesAcrossAggregates(t *testing.T) {
	one := statusEvent(t, uuid.New(), "event-one")
	two := statusEvent(t, uuid.New(), "event-two")
	repo := &fakeRepo{events: []models.OutboxEvent{one, two}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	service := newTestService(t, repo, pub, &fakeRegistry{resolved: ordersResolved()}, &fakeDLQRepo{}, nil)

	result, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if result.empty() || !result.drained() {
		t.Fatalf("expected batch to make progress, got %+v", result)
	}
	if len(repo.failed) != 1 || repo.failed[0] != one.ID {
		t.Fatalf("failed row recorded wrong ID: %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != two.ID {
		t.Fatalf("published row recorded wrong ID: %v", repo.published)
	}
}

func TestPublishRoutesStockEventsWithOrderingKey(t *testing.T) {
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	stockID := uuid.New()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventStockRestored,
		AggregateType: enums.AggregateStock,
		AggregateID:   stockID,
		Payload:       mustEnvelopePayload(t, "restored"),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType: enums.EventStockRestored,
			Topic:     "fulfillment-stock-events",
		},
		Envelope: outbox.PayloadEnvelope{
			Version: 1,
			Actor:   &outbox.ActorRef{ActorID: uuid.New(), Role: "store"},
		},
		Payload: &payloads.StockRestoredEvent{},
	}
	service := newTestService(t, repo, pub, &fakeRegistry{resolved: resolved}, &fakeDLQRepo{}, nil)
	reg := prometheus.NewRegistry()
	service.metrics = metrics.NewOutboxMetrics(reg)
	var topics []string
	service.newPublisher = func(topic string) publisher {
		topics = append(topics, topic)
		return pub
	}

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(topics) != 1 || topics[0] != "fulfillment-stock-events" {
		t.Fatalf("unexpected topics %v", topics)
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected published row recorded once, got %v", repo.published)
	}
	msg := pub.last
	if msg == nil {
		t.Fatal("expected a published message")
	}
	if msg.OrderingKey != "stock:"+stockID.String() {
		t.Fatalf("expected ordering key for stock %s, got %q", stockID, msg.OrderingKey)
	}
	if msg.Attributes["event_type"] != "stock_restored" || msg.Attributes["actor_role"] != "store" || msg.Attributes["schema_version"] != "1" {
		t.Fatalf("unexpected attributes %+v", msg.Attributes)
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if len(mfs) != 1 || mfs[0].GetName() != "outbox_events_published_total" {
		t.Fatalf("expected only the published counter to be exported, got %d families", len(mfs))
	}
}

func TestPublishersAreCachedPerTopicAndStopped(t *testing.T) {
	pub := &fakePublisher{}
	repo := &fakeRepo{events: []models.OutboxEvent{
		statusEvent(t, uuid.New(), "a"),
		statusEvent(t, uuid.New(), "b"),
	}}
	service := newTestService(t, repo, pub, &fakeRegistry{resolved: ordersResolved()}, &fakeDLQRepo{}, nil)
	created := 0
	service.newPublisher = func(string) publisher {
		created++
		return pub
	}
	pub.results = []publishResult{fakePublishResult{}, fakePublishResult{}}

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected one publisher per topic, got %d", created)
	}
	service.stopPublishers()
	if !pub.stopped {
		t.Fatal("expected publisher stopped")
	}
	if len(service.publishers) != 0 {
		t.Fatalf("expected publisher cache cleared")
	}
}

func TestProcessBatchDeadLettersUnroutableTopic(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t, "unroutable"),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{Topic: "missing-topic"},
		Payload:    &payloads.OrderPlacedEvent{},
	}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, nil, &fakeRegistry{resolved: resolved}, dlqRepo, nil)
	service.newPublisher = func(string) publisher { return nil }

	result, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if result.deadLettered != 1 {
		t.Fatalf("expected one dead-lettered row, got %+v", result)
	}
	if dlqRepo.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected error reason: %s", dlqRepo.entries[0].ErrorReason)
	}
	if len(repo.published) != 0 {
		t.Fatalf("unroutable event must not be marked published")
	}
}

func TestNewServiceRequiresDLQRepository(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:         &fakeDB{},
		PubSub:     &fakePubSubClient{},
		Repository: &fakeRepo{},
		Registry:   &fakeRegistry{},
	})
	if err == nil {
		t.Fatal("expected missing dlq repository error")
	}
}

func TestProcessBatchWritesDLQOnNonRetryable(t *testing.T) {
	event := statusEvent(t, uuid.New(), "nonretryable")
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, &fakePublisher{}, reg, dlqRepo, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	entry := dlqRepo.entries[0]
	if entry.EventID != event.ID {
		t.Fatalf("dlq event_id mismatch: %s", entry.EventID)
	}
	if !bytes.Equal(entry.Payload, event.Payload) {
		t.Fatalf("dlq payload mismatch")
	}
	if entry.ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
}

func TestProcessBatchWritesDLQOnMaxAttempts(t *testing.T) {
	event := statusEvent(t, uuid.New(), "max-attempts")
	event.AttemptCount = 1
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, pub, &fakeRegistry{resolved: ordersResolved()}, dlqRepo, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	if dlqRepo.entries[0].ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected error reason: %s", dlqRepo.entries[0].ErrorReason)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected row marked terminal, got %v", repo.terminal)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		attempts int
		want     outcome
		reason   enums.OutboxDLQErrorReason
	}{
		{name: "success", want: outcomePublished},
		{name: "transient", err: errors.New("unavailable"), attempts: 0, want: outcomeRetry},
		{name: "last attempt", err: errors.New("unavailable"), attempts: 4, want: outcomeDeadLetter, reason: enums.OutboxDLQReasonMaxAttempts},
		{name: "non retryable", err: fmt.Errorf("wrapped: %w", registry.NewNonRetryableError(errors.New("bad"))), want: outcomeDeadLetter, reason: enums.OutboxDLQReasonNonRetryable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, reason := classify(tc.err, tc.attempts, 5)
			if got != tc.want || reason != tc.reason {
				t.Fatalf("classify = (%d, %q), want (%d, %q)", got, reason, tc.want, tc.reason)
			}
		})
	}
}

func TestNextBackoffCaps(t *testing.T) {
	if got := nextBackoff(0, time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("expected doubled base, got %s", got)
	}
	if got := nextBackoff(8*time.Second, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected cap, got %s", got)
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, reg registryResolver, dlq dlqRepository, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	service, err := NewService(ServiceParams{
		Config:           &config.Config{Outbox: outboxCfg},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		Registry:         reg,
		PublisherFactory: func(string) publisher { return pub },
		DLQRepository:    dlq,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func ordersResolved() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType: enums.EventOrderStatusChanged,
			Topic:     "fulfillment-order-events",
		},
		Envelope: outbox.PayloadEnvelope{Version: 1, OccurredAt: time.Now()},
		Payload:  &payloads.OrderStatusChangedEvent{},
	}
}

func statusEvent(tb testing.TB, subOrderID uuid.UUID, eventID string) models.OutboxEvent {
	tb.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateSubOrder,
		AggregateID:   subOrderID,
		Payload:       mustEnvelopePayload(tb, eventID),
	}
}

func mustEnvelopePayload(tb testing.TB, eventID string) json.RawMessage {
	tb.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	})
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error { return nil }

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error { return nil }

func (f *fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results []publishResult
	last    *gcppubsub.Message
	calls   int
	resumed []string
	stopped bool
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.calls++
	f.last = msg
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

func (f *fakePublisher) Resume(key string) { f.resumed = append(f.resumed, key) }

func (f *fakePublisher) Stop() { f.stopped = true }

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.resolved == nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Envelope.EventID = event.ID.String()
	return &resolved, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
