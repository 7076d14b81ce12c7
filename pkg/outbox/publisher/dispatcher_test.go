package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/config"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/metrics"
	"github.com/Abhijit5011/Electromart/pkg/outbox"
	"github.com/Abhijit5011/Electromart/pkg/outbox/payloads"
	"github.com/Abhijit5011/Electromart/pkg/outbox/registry"
)

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			orderPlacedRow(t, "event-one"),
			orderPlacedRow(t, "event-two"),
		},
	}
	pub := &fakePublisher{
		results: []Result{
			fakeResult{err: errors.New("transient")},
			fakeResult{},
		},
	}
	dlq := &fakeDLQRepo{}
	d := newTestDispatcher(t, repo, pub, &fakeRegistry{resolved: orderPlacedResolved()}, dlq, nil)

	processed, err := d.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != repo.events[0].ID {
		t.Fatalf("expected first row marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("expected second row published, got %v", repo.published)
	}
	if len(dlq.entries) != 0 {
		t.Fatalf("transient failures must not dead-letter")
	}
	if len(pub.messages) != 2 {
		t.Fatalf("expected two publish calls, got %d", len(pub.messages))
	}
	msg := pub.messages[1]
	if msg.OrderingKey != repo.events[1].AggregateID.String() {
		t.Fatalf("ordering key should be aggregate id")
	}
	if msg.Attributes["event_type"] != string(enums.EventOrderPlaced) {
		t.Fatalf("unexpected event_type attribute %q", msg.Attributes["event_type"])
	}
	if !bytes.Equal(msg.Data, repo.events[1].Payload) {
		t.Fatalf("message data should be the stored payload")
	}
}

func TestProcessBatchEmptyReportsIdle(t *testing.T) {
	repo := &fakeRepo{}
	d := newTestDispatcher(t, repo, &fakePublisher{}, &fakeRegistry{resolved: orderPlacedResolved()}, &fakeDLQRepo{}, nil)

	processed, err := d.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed {
		t.Fatalf("empty batch should not report processed")
	}
}

func TestUnresolvableEventGoesToDLQ(t *testing.T) {
	row := orderPlacedRow(t, "bad")
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{}
	dlq := &fakeDLQRepo{}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("unsupported event type"))}
	d := newTestDispatcher(t, repo, pub, reg, dlq, nil)

	if _, err := d.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.messages) != 0 {
		t.Fatalf("unresolvable events must not be published")
	}
	if len(dlq.entries) != 1 {
		t.Fatalf("expected one dlq entry, got %d", len(dlq.entries))
	}
	if dlq.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected reason %s", dlq.entries[0].ErrorReason)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != row.ID {
		t.Fatalf("row should be marked terminal")
	}
}

func TestNonRetryablePublishErrorGoesToDLQ(t *testing.T) {
	row := orderPlacedRow(t, "perm")
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{results: []Result{fakeResult{err: registry.NewNonRetryableError(errors.New("invalid message"))}}}
	dlq := &fakeDLQRepo{}
	reg := prometheus.NewRegistry()
	m := metrics.NewOutboxMetrics(reg)
	d := newTestDispatcher(t, repo, pub, &fakeRegistry{resolved: orderPlacedResolved()}, dlq, m)

	if _, err := d.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dlq.entries) != 1 {
		t.Fatalf("expected dlq entry")
	}
	if len(repo.failed) != 0 {
		t.Fatalf("non-retryable errors should not mark a retry")
	}
	got := testutil.ToFloat64(m.DeadLetteredCounter().WithLabelValues(string(enums.EventOrderPlaced), string(enums.OutboxDLQReasonNonRetryable)))
	if got != 1 {
		t.Fatalf("expected dead-letter counter 1, got %v", got)
	}
}

func TestMaxAttemptsGoesToDLQ(t *testing.T) {
	row := orderPlacedRow(t, "tired")
	row.AttemptCount = 2
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{results: []Result{fakeResult{err: errors.New("unavailable")}}}
	dlq := &fakeDLQRepo{}
	d := newTestDispatcher(t, repo, pub, &fakeRegistry{resolved: orderPlacedResolved()}, dlq, nil)
	d.maxAttempts = 3

	if _, err := d.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("expected max_attempts dlq entry, got %+v", dlq.entries)
	}
	if dlq.entries[0].EventID != row.ID {
		t.Fatalf("dlq entry should reference the outbox row")
	}
}

func TestMissingPublisherIsNonRetryable(t *testing.T) {
	row := orderPlacedRow(t, "nowhere")
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	dlq := &fakeDLQRepo{}
	d := newTestDispatcher(t, repo, nil, &fakeRegistry{resolved: orderPlacedResolved()}, dlq, nil)

	if _, err := d.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dlq.entries) != 1 {
		t.Fatalf("expected dlq entry when no publisher is configured")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d := newTestDispatcher(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{resolved: orderPlacedResolved()}, &fakeDLQRepo{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Params{}); err == nil {
		t.Fatalf("expected error for empty params")
	}
}

func newTestDispatcher(t *testing.T, repo *fakeRepo, pub *fakePublisher, reg registryResolver, dlq *fakeDLQRepo, m *metrics.OutboxMetrics) *Dispatcher {
	t.Helper()
	factory := func(string) Publisher {
		if pub == nil {
			return nil
		}
		return pub
	}
	d, err := New(Params{
		Outbox:           config.OutboxConfig{BatchSize: 10, PollIntervalMS: 5, MaxAttempts: 10},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard}),
		DB:               fakeDB{},
		PubSub:           fakePubSubClient{},
		Repository:       repo,
		Registry:         reg,
		DLQRepository:    dlq,
		PublisherFactory: factory,
		Metrics:          m,
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func orderPlacedRow(t *testing.T, eventID string) models.OutboxEvent {
	t.Helper()
	data, err := json.Marshal(payloads.OrderPlacedEvent{OrderID: uuid.New(), UserID: uuid.New(), ItemCount: 1})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: eventID, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       env,
		CreatedAt:     time.Now().UTC(),
	}
}

func orderPlacedResolved() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			Topic:         "orders-topic",
		},
		Envelope: outbox.PayloadEnvelope{EventID: uuid.NewString(), OccurredAt: time.Now()},
		Payload:  &payloads.OrderPlacedEvent{},
	}
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (r *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return r.events, nil
}

func (r *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	r.failed = append(r.failed, id)
	return nil
}

func (r *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	r.terminal = append(r.terminal, id)
	return nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (r *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	r.entries = append(r.entries, entry)
	return nil
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (r *fakeRegistry) Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.resolved, nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (fakePubSubClient) Ping(context.Context) error            { return nil }
func (fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results  []Result
	messages []*gcppubsub.Message
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) Result {
	p.messages = append(p.messages, msg)
	if len(p.results) == 0 {
		return fakeResult{}
	}
	next := p.results[0]
	p.results = p.results[1:]
	return next
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "msg-id", nil
}
