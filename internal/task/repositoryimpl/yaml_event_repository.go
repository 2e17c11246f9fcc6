package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/labelforge/labelforge/internal/task"
	"github.com/labelforge/labelforge/pkg/cerr"
	"github.com/labelforge/labelforge/pkg/storage"
)

const eventsPrefix = "task_events"

// YAMLEventRepository stores audit records one file per event under the
// task's directory. Events are only ever appended; there is no update or
// delete path.
type YAMLEventRepository struct {
	storage storage.Storage
}

func NewYAMLEventRepository(s storage.Storage) *YAMLEventRepository {
	return &YAMLEventRepository{storage: s}
}

func eventPath(taskID, eventID string) string {
	return fmt.Sprintf("%s/%s/%s.yaml", eventsPrefix, taskID, eventID)
}

func (r *YAMLEventRepository) Append(ctx context.Context, ev *task.Event) error {
	data, err := yaml.Marshal(ev)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task event: %w", err))
	}
	if err := r.storage.Write(ctx, eventPath(ev.TaskID, ev.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task event", err)
	}
	return nil
}

func (r *YAMLEventRepository) ListByTask(ctx context.Context, taskID string) ([]*task.Event, error) {
	paths, err := r.storage.List(ctx, fmt.Sprintf("%s/%s", eventsPrefix, taskID))
	if err != nil {
		return nil, cerr.WrapStorageReadError("task events", err)
	}
	// ULID event ids sort lexicographically in creation order.
	sort.Strings(paths)

	var all []*task.Event
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var ev task.Event
		if err := yaml.Unmarshal(data, &ev); err != nil {
			continue
		}
		all = append(all, &ev)
	}
	return all, nil
}
