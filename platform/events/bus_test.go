package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadgate_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "something.happened" }

func TestPublishRecoversFromPanickingHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	done := make(chan struct{})

	bus.Subscribe("something.happened", HandlerFunc(func(context.Context, Event) error {
		panic("boom")
	}))
	bus.Subscribe("something.happened", HandlerFunc(func(context.Context, Event) error {
		close(done)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler registered after the panicking one never ran")
	}
}

func TestPublishSyncStopsOnFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	wantErr := errors.New("handler broke")
	secondRan := false

	bus.Subscribe("something.happened", HandlerFunc(func(context.Context, Event) error {
		return wantErr
	}))
	bus.Subscribe("something.happened", HandlerFunc(func(context.Context, Event) error {
		secondRan = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, wantErr) {
		t.Fatalf("PublishSync error = %v, want %v", err, wantErr)
	}
	if secondRan {
		t.Error("later handler ran after an earlier handler failed")
	}
}
