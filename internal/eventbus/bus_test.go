package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	id1, ch1 := bus.Subscribe(4)
	id2, ch2 := bus.Subscribe(4)
	defer bus.Unsubscribe(id1)
	defer bus.Unsubscribe(id2)

	bus.PublishNew(TypeTaskCreated, "task1", "", map[string]string{"project_id": "p1"})

	for _, ch := range []<-chan *Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, TypeTaskCreated, ev.Type)
			assert.Equal(t, "task1", ev.ResourceID)
			assert.Equal(t, "p1", ev.Metadata["project_id"])
			assert.NotEmpty(t, ev.ID)
			assert.False(t, ev.CreatedAt.IsZero())
		case <-time.After(time.Second):
			t.Fatal("expected event on subscriber channel")
		}
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed after unsubscribe")

	// Publishing after unsubscribe must not panic.
	bus.PublishNew(TypeTaskStatusChanged, "task1", "", nil)
}

func TestBusDropsOnFullBuffer(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	bus.PublishNew(TypeTaskCreated, "task1", "", nil)
	bus.PublishNew(TypeTaskCreated, "task2", "", nil)

	ev := <-ch
	assert.Equal(t, "task1", ev.ResourceID)
	select {
	case ev := <-ch:
		t.Fatalf("expected second event to be dropped, got %v", ev.ResourceID)
	default:
	}
}
