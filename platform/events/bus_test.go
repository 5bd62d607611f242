package events

import (
	"context"
	"errors"
	"testing"

	"lead_automation_backend/platform/logger"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishSyncRunsHandlersInOrderAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	errBoom := errors.New("boom")
	var calls []string

	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls = append(calls, "first")
		return errBoom
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected joined error to contain handler error, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected call order %v", calls)
	}
}

func TestPublishSyncRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		panic("handler bug")
	}))

	if err := bus.PublishSync(context.Background(), pingEvent{}); err == nil {
		t.Fatal("expected panic to surface as an error")
	}
}

func TestPublishSyncWithoutHandlers(t *testing.T) {
	bus := NewInMemoryBus(nil)
	if err := bus.PublishSync(context.Background(), pingEvent{}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
