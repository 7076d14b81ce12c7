// Package publisher drains the outbox table into Pub/Sub.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	goretry "github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/config"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/metrics"
	"github.com/Abhijit5011/Electromart/pkg/outbox"
	"github.com/Abhijit5011/Electromart/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

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

// Factory returns the publisher for a topic, or nil when none is configured.
type Factory func(topic string) Publisher

// Publisher is the slice of the Pub/Sub publisher the dispatcher uses.
type Publisher interface {
	Publish(context.Context, *gcppubsub.Message) Result
}

// Result resolves the server-assigned message id.
type Result interface {
	Get(context.Context) (string, error)
}

type Params struct {
	Outbox           config.OutboxConfig
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	DLQRepository    dlqRepository
	PublisherFactory Factory
	Metrics          *metrics.OutboxMetrics
}

// Dispatcher polls unpublished rows, publishes them and records the outcome in the same transaction.
type Dispatcher struct {
	logg             *logger.Logger
	db               dbClient
	repo             outboxRepository
	pubsub           pubSubClient
	registry         registryResolver
	dlq              dlqRepository
	publisherFactory Factory
	metrics          *metrics.OutboxMetrics
	batchSize        int
	maxAttempts      int
	pollInterval     time.Duration
}

func New(params Params) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("event registry is required")
	}
	if params.DLQRepository == nil {
		return nil, errors.New("dlq repository is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) Publisher {
			p := params.PubSub.Publisher(topic)
			if p == nil {
				return nil
			}
			return &gcpPublisher{Publisher: p}
		}
	}

	batch := params.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Dispatcher{
		logg:             params.Logger,
		db:               params.DB,
		repo:             params.Repository,
		pubsub:           params.PubSub,
		registry:         params.Registry,
		dlq:              params.DLQRepository,
		publisherFactory: factory,
		metrics:          params.Metrics,
		batchSize:        batch,
		maxAttempts:      maxAttempts,
		pollInterval:     time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (d *Dispatcher) ensureReadiness(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{
		"database": d.db.Ping,
		"pubsub":   d.pubsub.Ping,
	} {
		if err := ping(ctx); err != nil {
			d.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	return nil
}

func (d *Dispatcher) errorBackoff() goretry.Backoff {
	b := goretry.NewExponential(d.pollInterval)
	b = goretry.WithCappedDuration(maxBackoff, b)
	return goretry.WithJitter(jitterWindow, b)
}

// Run loops until ctx is cancelled. Batch errors back off exponentially; idle polls wait one interval plus jitter.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.ensureReadiness(ctx); err != nil {
		return err
	}

	idle := goretry.WithJitter(jitterWindow, goretry.NewConstant(d.pollInterval))
	backoff := d.errorBackoff()

	for {
		if err := ctx.Err(); err != nil {
			d.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		processed, err := d.ProcessBatch(ctx)
		if err != nil {
			d.logg.Error(ctx, "outbox publisher batch error", err)
			delay, _ := backoff.Next()
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}
		backoff = d.errorBackoff()

		if processed {
			continue
		}
		delay, _ := idle.Next()
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// ProcessBatch publishes one batch. It reports whether any rows were claimed.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (bool, error) {
	processed := false
	err := d.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := d.repo.FetchUnpublishedForPublish(tx, d.batchSize, d.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		processed = true
		for _, event := range events {
			if err := d.dispatchOne(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

func (d *Dispatcher) dispatchOne(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	resolved, err := d.registry.Resolve(event)
	if err != nil {
		return d.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, nil)
	}

	fields := d.eventFields(event, resolved.Envelope, resolved.Descriptor.Topic)
	pubErr := d.publish(ctx, event, resolved)
	if pubErr == nil {
		if err := d.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		d.metrics.IncPublished(string(event.EventType))
		d.logg.Info(d.logg.WithFields(ctx, fields), "outbox event published")
		return nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(pubErr, &nonRetry) {
		return d.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, pubErr, fields)
	}

	nextAttempt := event.AttemptCount + 1
	fields["attempt_count"] = nextAttempt
	if nextAttempt >= d.maxAttempts {
		terminalErr := fmt.Errorf("max publish attempts reached: %w", pubErr)
		return d.deadLetter(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts, terminalErr, fields)
	}

	d.metrics.IncFailed(string(event.EventType))
	logCtx := d.logg.WithField(d.logg.WithFields(ctx, fields), "error", pubErr.Error())
	d.logg.Warn(logCtx, "outbox publish failed")
	if err := d.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return nil
}

func (d *Dispatcher) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) error {
	if fields == nil {
		fields = d.eventFields(event, outbox.PayloadEnvelope{}, "")
	}
	fields["error_reason"] = reason
	logCtx := d.logg.WithField(d.logg.WithFields(ctx, fields), "error", cause.Error())
	d.logg.Warn(logCtx, "outbox event will not be retried")

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
	if err := d.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := d.repo.MarkTerminalTx(tx, event.ID, cause, d.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	d.metrics.IncDeadLettered(string(event.EventType), string(reason))
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := d.publisherFactory(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
		OrderingKey: event.AggregateID.String(),
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

func (d *Dispatcher) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
	}
	if topic != "" {
		fields["topic"] = topic
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

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) Result {
	return p.Publisher.Publish(ctx, msg)
}
