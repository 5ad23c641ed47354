package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pawkart/backend/internal/events"
)

type stubStore struct {
	lastTopic     string
	lastAggregate string
	lastPayload   []byte
	err           error
}

func (s *stubStore) InsertEvent(_ context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	if s.err != nil {
		return events.Event{}, s.err
	}
	s.lastTopic = topic
	s.lastAggregate = aggregateID
	s.lastPayload = payload
	return events.Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}, nil
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsAndFansOut(t *testing.T) {
	store := &stubStore{}
	first := &captureNotifier{}
	second := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{first, second}}

	orderID := uuid.NewString()
	event, err := bus.Emit(context.Background(), events.TopicOrderCreated, orderID, map[string]any{"orderId": orderID})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderCreated, store.lastTopic)
	require.Equal(t, orderID, store.lastAggregate)
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	require.Equal(t, event.ID, first.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, orderID, decoded["orderId"])
}

func TestEmitNotifierFailureDoesNotDropEvent(t *testing.T) {
	store := &stubStore{}
	failing := &captureNotifier{err: errors.New("smtp down")}
	ok := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{failing, ok}}

	event, err := bus.Emit(context.Background(), events.TopicOrderConfirmed, "ord-1", nil)
	require.Error(t, err)
	require.NotEmpty(t, event.ID)
	require.Len(t, ok.events, 1)
	require.JSONEq(t, `{}`, string(store.lastPayload))
}

func TestEmitValidatesInput(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), "", "ord-1", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, " ", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "ord-1", []byte("not json"))
	require.Error(t, err)
}

func TestEmitRawPayloadPassthrough(t *testing.T) {
	store := &stubStore{}
	bus := events.Bus{Store: store}

	_, err := bus.Emit(context.Background(), events.TopicCouponRedeemed, "ord-2", json.RawMessage(`{"code":"WELCOME10"}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"code":"WELCOME10"}`, string(store.lastPayload))
}
