package task

import "context"

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, projectID, workflowID, stageID string, status Status) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
}

// EventRepository is the append-only audit store.
type EventRepository interface {
	Append(ctx context.Context, ev *Event) error
	ListByTask(ctx context.Context, taskID string) ([]*Event, error)
}
