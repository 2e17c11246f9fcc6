package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelforge/labelforge/internal/task"
	"github.com/labelforge/labelforge/pkg/cerr"
	"github.com/labelforge/labelforge/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(store)
}

func TestYAMLRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	tk := &task.Task{
		ID:         "task1",
		ProjectID:  "proj1",
		WorkflowID: "wf1",
		StageID:    "stage1",
		AssetID:    "asset1",
		Status:     task.StatusNotStarted,
		CreatedAt:  time.Now().Truncate(time.Second),
		UpdatedAt:  time.Now().Truncate(time.Second),
	}
	require.NoError(t, repo.Create(ctx, tk))

	err := repo.Create(ctx, tk)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	got, err := repo.Get(ctx, "task1")
	require.NoError(t, err)
	assert.Equal(t, tk.ID, got.ID)
	assert.Equal(t, tk.Status, got.Status)
	assert.Nil(t, got.CompletedAt)

	_, err = repo.Get(ctx, "ghost")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	got.Status = task.StatusInProgress
	got.LastWorkedOnByUserID = "ann1"
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.Get(ctx, "task1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, got.Status)
	assert.Equal(t, "ann1", got.LastWorkedOnByUserID)

	err = repo.Update(ctx, &task.Task{ID: "ghost"})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryTimestampsSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now().Truncate(time.Second)
	tk := &task.Task{
		ID:          "task1",
		Status:      task.StatusCompleted,
		CompletedAt: &now,
	}
	require.NoError(t, repo.Create(ctx, tk))

	got, err := repo.Get(ctx, "task1")
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(now))
	assert.Nil(t, got.SuspendedAt)
	assert.Equal(t, task.StatusCompleted, got.DerivedStatus())
}

func TestYAMLRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now()
	seed := []*task.Task{
		{ID: "t1", ProjectID: "p1", WorkflowID: "w1", StageID: "s1", Status: task.StatusNotStarted},
		{ID: "t2", ProjectID: "p1", WorkflowID: "w1", StageID: "s2", Status: task.StatusInProgress},
		{ID: "t3", ProjectID: "p2", WorkflowID: "w2", StageID: "s1", Status: task.StatusInProgress},
		{ID: "t4", ProjectID: "p1", WorkflowID: "w1", StageID: "s1", Status: task.StatusCompleted, SuspendedAt: &now},
	}
	for _, tk := range seed {
		require.NoError(t, repo.Create(ctx, tk))
	}

	all, err := repo.List(ctx, "", "", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byProject, err := repo.List(ctx, "p1", "", "", "")
	require.NoError(t, err)
	assert.Len(t, byProject, 3)

	byStage, err := repo.List(ctx, "p1", "w1", "s1", "")
	require.NoError(t, err)
	assert.Len(t, byStage, 2)

	// Status filtering matches the effective status, not the stored field.
	suspended, err := repo.List(ctx, "", "", "", task.StatusSuspended)
	require.NoError(t, err)
	require.Len(t, suspended, 1)
	assert.Equal(t, "t4", suspended[0].ID)

	completed, err := repo.List(ctx, "", "", "", task.StatusCompleted)
	require.NoError(t, err)
	assert.Empty(t, completed)
}

func TestYAMLEventRepositoryAppendAndList(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	repo := NewYAMLEventRepository(store)

	evs := []*task.Event{
		{ID: "01A", TaskID: "task1", Category: task.EventCategoryStatusChanged, FromStatus: task.StatusNotStarted, ToStatus: task.StatusInProgress},
		{ID: "01B", TaskID: "task1", Category: task.EventCategoryStatusChanged, FromStatus: task.StatusInProgress, ToStatus: task.StatusCompleted},
		{ID: "01C", TaskID: "task2", Category: task.EventCategoryVetoed, FromStatus: task.StatusCompleted, ToStatus: task.StatusVetoed},
	}
	for _, ev := range evs {
		require.NoError(t, repo.Append(ctx, ev))
	}

	got, err := repo.ListByTask(ctx, "task1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Lexicographic id order is creation order.
	assert.Equal(t, "01A", got[0].ID)
	assert.Equal(t, "01B", got[1].ID)

	other, err := repo.ListByTask(ctx, "task2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, task.EventCategoryVetoed, other[0].Category)

	empty, err := repo.ListByTask(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
