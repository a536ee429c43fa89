package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/pkg/channels/gochannel"
	"github.com/flowgraph/flowgraph/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishReachesHandler(t *testing.T) {
	bus := newTestBus(t)
	received := make(chan *events.RunStarted, 1)

	err := bus.Handle(events.RunStartedEvent, func(_ context.Context, event any) error {
		started, ok := event.(*events.RunStarted)
		require.True(t, ok)
		received <- started

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(t.Context()))

	err = bus.Publish(t.Context(), "wf-1", events.RunStarted{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.RunStartedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: "wf-1",
			RunID:      "run_1",
		},
		VersionNumber: 1,
		TotalActions:  2,
	})
	require.NoError(t, err)

	select {
	case started := <-received:
		assert.Equal(t, "run_1", started.RunID)
		assert.Equal(t, "wf-1", started.WorkflowID)
		assert.Equal(t, 2, started.TotalActions)
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached handler")
	}
}

func TestWatermillEventBus_UnhandledEventTypeIsDropped(t *testing.T) {
	bus := newTestBus(t)
	require.NoError(t, bus.Subscribe(t.Context()))

	err := bus.Publish(t.Context(), "wf-1", events.RunCancelled{
		BaseEvent: events.BaseEvent{RunID: "run_1", Type: events.RunCancelledEvent},
	})
	assert.NoError(t, err)
}

func TestWatermillEventBus_GenerateIDIsUnique(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
