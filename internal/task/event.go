package task

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/labelforge/labelforge/internal/eventbus"
)

// EventCategory is the coarse classification of an audit record. Most
// transitions collapse into the generic status-changed category; the few
// per-outcome categories that used to exist added no discriminative value.
type EventCategory string

const (
	EventCategoryStatusChanged EventCategory = "TASK_STATUS_CHANGED"
	EventCategoryVetoed        EventCategory = "TASK_VETOED"
)

// Event is an immutable audit record of one task status change. Events are
// append-only; they are never updated or deleted.
type Event struct {
	ID           string        `yaml:"id"`
	TaskID       string        `yaml:"task_id"`
	Category     EventCategory `yaml:"category"`
	Detail       string        `yaml:"detail,omitempty"`
	ActingUserID string        `yaml:"acting_user_id"`
	FromStatus   Status        `yaml:"from_status"`
	ToStatus     Status        `yaml:"to_status"`
	FromStageID  string        `yaml:"from_stage_id,omitempty"`
	ToStageID    string        `yaml:"to_stage_id,omitempty"`
	CreatedAt    time.Time     `yaml:"created_at"`
}

// deriveCategory maps a (from, to) pair to its category. Unrecognized pairs
// still produce a record with the generic category rather than failing the
// transition.
func deriveCategory(from, to Status) EventCategory {
	_ = from
	if to == StatusVetoed {
		return EventCategoryVetoed
	}
	return EventCategoryStatusChanged
}

// Recorder appends audit records for status changes and fans them out on the
// in-process bus.
type Recorder struct {
	events EventRepository
	bus    *eventbus.Bus
}

func NewRecorder(events EventRepository, bus *eventbus.Bus) *Recorder {
	return &Recorder{events: events, bus: bus}
}

// Record builds and appends the audit record for one transition. The
// timestamp is assigned at construction time, independent of persistence
// latency.
func (r *Recorder) Record(ctx context.Context, t *Task, from, to Status, actingUserID, detail, fromStageID, toStageID string) (*Event, error) {
	ev := &Event{
		ID:           ulid.Make().String(),
		TaskID:       t.ID,
		Category:     deriveCategory(from, to),
		Detail:       detail,
		ActingUserID: actingUserID,
		FromStatus:   from,
		ToStatus:     to,
		FromStageID:  fromStageID,
		ToStageID:    toStageID,
		CreatedAt:    time.Now(),
	}
	if err := r.events.Append(ctx, ev); err != nil {
		return nil, err
	}
	busType := eventbus.TypeTaskStatusChanged
	if ev.Category == EventCategoryVetoed {
		busType = eventbus.TypeTaskVetoed
	}
	r.bus.PublishNew(busType, t.ID, detail, map[string]string{
		"project_id":  t.ProjectID,
		"from_status": from.String(),
		"to_status":   to.String(),
	})
	return ev, nil
}
