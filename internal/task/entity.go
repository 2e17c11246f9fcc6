package task

import "time"

// Task is one annotation work item bound to exactly one asset and one
// workflow stage at a time.
//
// The reason timestamps {SuspendedAt, DeferredAt, ChangesRequiredAt,
// VetoedAt} are mutually exclusive: applyStatus clears the whole group
// before setting the one implied by the new status. ArchivedAt may coexist
// with CompletedAt, since archiving preserves completion history.
type Task struct {
	ID                   string     `yaml:"id"`
	ProjectID            string     `yaml:"project_id"`
	WorkflowID           string     `yaml:"workflow_id"`
	StageID              string     `yaml:"stage_id"`
	AssetID              string     `yaml:"asset_id"`
	Priority             int32      `yaml:"priority"`
	DueDate              *time.Time `yaml:"due_date,omitempty"`
	AssigneeID           string     `yaml:"assignee_id,omitempty"`
	LastWorkedOnByUserID string     `yaml:"last_worked_on_by_user_id,omitempty"`
	WorkingTimeSeconds   int64      `yaml:"working_time_seconds"`
	Status               Status     `yaml:"status"`

	CompletedAt       *time.Time `yaml:"completed_at,omitempty"`
	SuspendedAt       *time.Time `yaml:"suspended_at,omitempty"`
	DeferredAt        *time.Time `yaml:"deferred_at,omitempty"`
	ArchivedAt        *time.Time `yaml:"archived_at,omitempty"`
	VetoedAt          *time.Time `yaml:"vetoed_at,omitempty"`
	ChangesRequiredAt *time.Time `yaml:"changes_required_at,omitempty"`

	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// DerivedStatus is the task's effective status: the timestamps win over the
// stored status field where one of them is set. VetoedAt and
// ChangesRequiredAt are reason markers, not states; a returned task is
// immediately workable again, so they do not override the stored status.
func (t *Task) DerivedStatus() Status {
	switch {
	case t.ArchivedAt != nil:
		return StatusArchived
	case t.SuspendedAt != nil:
		return StatusSuspended
	case t.DeferredAt != nil:
		return StatusDeferred
	case t.CompletedAt != nil:
		return StatusCompleted
	default:
		return t.Status
	}
}

// transitionEffect describes what a transition into a target status does to
// the task record. One generic apply routine consumes these descriptors so
// the timestamp mutual exclusion lives in exactly one place.
type transitionEffect struct {
	// setTimestamp points to the timestamp field the target status implies.
	setTimestamp func(t *Task, now time.Time)
	// keepCompleted preserves CompletedAt through the transition.
	keepCompleted bool
	// setLastWorked updates LastWorkedOnByUserID to the acting user.
	setLastWorked bool
	// clearLastWorked drops LastWorkedOnByUserID.
	clearLastWorked bool
	// moveEligible marks transitions that trigger the asset mover.
	moveEligible bool
}

var transitionEffects = map[Status]transitionEffect{
	StatusInProgress: {
		setLastWorked: true,
	},
	StatusCompleted: {
		setTimestamp:  func(t *Task, now time.Time) { t.CompletedAt = &now },
		keepCompleted: true,
		setLastWorked: true,
		moveEligible:  true,
	},
	StatusSuspended: {
		setTimestamp:    func(t *Task, now time.Time) { t.SuspendedAt = &now },
		clearLastWorked: true,
	},
	StatusDeferred: {
		setTimestamp: func(t *Task, now time.Time) { t.DeferredAt = &now },
	},
	StatusArchived: {
		setTimestamp:  func(t *Task, now time.Time) { t.ArchivedAt = &now },
		keepCompleted: true,
	},
	StatusVetoed: {
		setTimestamp: func(t *Task, now time.Time) { t.VetoedAt = &now },
		moveEligible: true,
	},
	StatusChangesRequired: {
		setTimestamp: func(t *Task, now time.Time) { t.ChangesRequiredAt = &now },
	},
}

// applyStatus mutates the task into the target status: sets the status
// field, sets exactly the timestamps the target implies and clears every
// other mutually-exclusive one.
func applyStatus(t *Task, target Status, actingUserID string, now time.Time) {
	effect := transitionEffects[target]

	t.SuspendedAt = nil
	t.DeferredAt = nil
	t.VetoedAt = nil
	t.ChangesRequiredAt = nil
	if !effect.keepCompleted {
		t.CompletedAt = nil
	}

	if effect.setTimestamp != nil {
		effect.setTimestamp(t, now)
	}
	if effect.setLastWorked {
		t.LastWorkedOnByUserID = actingUserID
	}
	if effect.clearLastWorked {
		t.LastWorkedOnByUserID = ""
	}

	t.Status = target
	t.UpdatedAt = now
}
