package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/dbtest"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
)

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	orderID := uuid.New()
	actor := &ActorRef{UserID: uuid.New(), Role: "user"}

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actor,
			Data:          map[string]string{"order_id": orderID.String()},
		})
	})
	require.NoError(t, err)

	rows, err := repo.ListByAggregate(nil, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOrderPlaced, rows[0].EventType)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actor.UserID, envelope.Actor.UserID)
	assert.JSONEq(t, `{"order_id":"`+orderID.String()+`"}`, string(envelope.Data))
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	orderID := uuid.New()

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          struct{}{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := repo.ListByAggregate(nil, orderID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEmitValidatesInput(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder})
	assert.Error(t, err)

	err = svc.Emit(context.Background(), conn, DomainEvent{EventType: "nope", AggregateType: enums.AggregateOrder})
	assert.Error(t, err)
}

func TestFetchMarkAndDeadLetter(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	dlq := NewDLQRepository(conn)

	first := models.OutboxEvent{EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventOrderCancelled, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("unavailable")))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "unavailable", *rows[0].LastError)

	pendingID := rows[0].ID
	msg := "gave up"
	require.NoError(t, dlq.InsertTx(conn, models.OutboxDLQ{
		EventID:       rows[0].ID,
		EventType:     rows[0].EventType,
		AggregateType: rows[0].AggregateType,
		AggregateID:   rows[0].AggregateID,
		Payload:       rows[0].Payload,
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
	}))
	require.NoError(t, repo.MarkTerminalTx(conn, rows[0].ID, errors.New("gave up"), 3))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)

	entry, err := dlq.FindByEventID(context.Background(), pendingID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, entry.ErrorReason)
}
