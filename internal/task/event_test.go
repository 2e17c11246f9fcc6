package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelforge/labelforge/internal/eventbus"
)

func TestDeriveCategory(t *testing.T) {
	assert.Equal(t, EventCategoryVetoed, deriveCategory(StatusCompleted, StatusVetoed))
	assert.Equal(t, EventCategoryStatusChanged, deriveCategory(StatusInProgress, StatusCompleted))
	assert.Equal(t, EventCategoryStatusChanged, deriveCategory(StatusReadyForAnnotation, StatusInProgress))
	assert.Equal(t, EventCategoryStatusChanged, deriveCategory(StatusCompleted, StatusArchived))
}

func TestRecorderRecord(t *testing.T) {
	ctx := context.Background()
	repo := &memEventRepo{}
	bus := eventbus.New()
	_, ch := bus.Subscribe(4)

	recorder := NewRecorder(repo, bus)
	tk := &Task{ID: "task1", ProjectID: "proj1"}

	ev, err := recorder.Record(ctx, tk, StatusInProgress, StatusCompleted, "ann1", "", "stage-ann", "stage-rev")
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "task1", ev.TaskID)
	assert.Equal(t, EventCategoryStatusChanged, ev.Category)
	assert.Equal(t, StatusInProgress, ev.FromStatus)
	assert.Equal(t, StatusCompleted, ev.ToStatus)
	assert.False(t, ev.CreatedAt.IsZero())

	stored, err := repo.ListByTask(ctx, "task1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, ev.ID, stored[0].ID)

	select {
	case busEv := <-ch:
		assert.Equal(t, eventbus.TypeTaskStatusChanged, busEv.Type)
		assert.Equal(t, "task1", busEv.ResourceID)
		assert.Equal(t, "proj1", busEv.Metadata["project_id"])
	default:
		t.Fatal("expected a bus event")
	}
}

func TestRecorderVetoUsesVetoBusType(t *testing.T) {
	ctx := context.Background()
	repo := &memEventRepo{}
	bus := eventbus.New()
	_, ch := bus.Subscribe(4)

	recorder := NewRecorder(repo, bus)
	tk := &Task{ID: "task1", ProjectID: "proj1"}

	ev, err := recorder.Record(ctx, tk, StatusCompleted, StatusVetoed, "mgr1", "redo", "stage-fin", "stage-ann")
	require.NoError(t, err)
	assert.Equal(t, EventCategoryVetoed, ev.Category)

	select {
	case busEv := <-ch:
		assert.Equal(t, eventbus.TypeTaskVetoed, busEv.Type)
		assert.Equal(t, "redo", busEv.Payload)
	default:
		t.Fatal("expected a bus event")
	}
}
