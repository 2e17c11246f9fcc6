package task

import (
	"fmt"

	"github.com/labelforge/labelforge/internal/user"
	"github.com/labelforge/labelforge/internal/workflow"
	"github.com/labelforge/labelforge/pkg/cerr"
)

// Status represents the lifecycle state of an annotation task.
type Status string

const (
	// StatusNotStarted indicates a task is created but no work exists yet.
	StatusNotStarted Status = "NOT_STARTED"

	// StatusReadyForAnnotation indicates a task awaits an annotator.
	StatusReadyForAnnotation Status = "READY_FOR_ANNOTATION"

	// StatusReadyForReview indicates a task awaits a reviewer.
	StatusReadyForReview Status = "READY_FOR_REVIEW"

	// StatusReadyForCompletion indicates a task awaits final sign-off.
	StatusReadyForCompletion Status = "READY_FOR_COMPLETION"

	// StatusInProgress indicates someone is actively working the task.
	StatusInProgress Status = "IN_PROGRESS"

	// StatusSuspended indicates work has been halted by the worker.
	StatusSuspended Status = "SUSPENDED"

	// StatusDeferred indicates the task has been pushed back in the queue.
	StatusDeferred Status = "DEFERRED"

	// StatusCompleted indicates the task's stage work is done.
	StatusCompleted Status = "COMPLETED"

	// StatusArchived indicates the task is terminal and no longer actionable.
	StatusArchived Status = "ARCHIVED"

	// StatusChangesRequired indicates a reviewer sent the task back for rework
	// within its stage.
	StatusChangesRequired Status = "CHANGES_REQUIRED"

	// StatusVetoed indicates a manager returned the task to the annotation
	// stage for rework, asset included.
	StatusVetoed Status = "VETOED"

	// StatusUnspecified is used when a status value is unknown.
	StatusUnspecified Status = "UNSPECIFIED"
)

func (s Status) String() string { return string(s) }

// ParseStatus converts a string to a Status. Unknown values map to
// StatusUnspecified, never to a guessed state.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusNotStarted, StatusReadyForAnnotation, StatusReadyForReview,
		StatusReadyForCompletion, StatusInProgress, StatusSuspended,
		StatusDeferred, StatusCompleted, StatusArchived,
		StatusChangesRequired, StatusVetoed:
		return Status(s)
	default:
		return StatusUnspecified
	}
}

// known reports whether s is one of the enumerated statuses.
func (s Status) known() bool {
	return ParseStatus(string(s)) != StatusUnspecified
}

// ReadyStatusForStage returns the automatic "awaiting work" status for a
// stage type.
func ReadyStatusForStage(t workflow.StageType) Status {
	switch t {
	case workflow.StageTypeRevision:
		return StatusReadyForReview
	case workflow.StageTypeCompletion:
		return StatusReadyForCompletion
	default:
		return StatusReadyForAnnotation
	}
}

// allowedSources is the authoritative transition table: for each manually
// requestable target status, the set of statuses it may be reached from.
// Every pair not listed here is denied.
var allowedSources = map[Status][]Status{
	StatusInProgress: {
		StatusReadyForAnnotation,
		StatusReadyForReview,
		StatusReadyForCompletion,
		StatusSuspended,
		StatusNotStarted,
	},
	StatusCompleted: {
		StatusInProgress,
	},
	StatusSuspended: {
		StatusInProgress,
		StatusReadyForAnnotation,
		StatusReadyForReview,
		StatusReadyForCompletion,
	},
	StatusDeferred: {
		StatusInProgress,
		StatusReadyForAnnotation,
		StatusReadyForReview,
		StatusReadyForCompletion,
		StatusNotStarted,
	},
	StatusArchived: {
		StatusCompleted,
	},
}

// isValidTransition checks the transition table. Targets absent from the
// table (the automatic READY_FOR_* and NOT_STARTED statuses, and the
// VETOED/CHANGES_REQUIRED statuses owned by their dedicated operations)
// are never valid manual targets.
func (s Status) isValidTransition(target Status) bool {
	sources, ok := allowedSources[target]
	if !ok {
		return false
	}
	for _, src := range sources {
		if src == s {
			return true
		}
	}
	return false
}

// ValidateTransition decides whether a manual status change is allowed.
// It is pure: no I/O, no mutation. The acting user's role is consulted only
// for manager-gated targets; everything else is decided by the table.
func ValidateTransition(from, to Status, stageType workflow.StageType, role user.Role) error {
	if !from.known() || !to.known() {
		return cerr.NewError(cerr.InvalidArgument,
			fmt.Sprintf("unknown task status in transition from %s to %s", from, to), nil)
	}
	if !from.isValidTransition(to) {
		return cerr.NewError(cerr.FailedPrecondition,
			fmt.Sprintf("invalid task status transition from %s to %s", from, to), nil)
	}
	// Signing off a completion-stage task is a manager decision.
	if to == StatusCompleted && stageType == workflow.StageTypeCompletion && !role.IsManager() {
		return cerr.NewError(cerr.PermissionDenied,
			"completing a completion-stage task requires a manager role", nil)
	}
	return nil
}
