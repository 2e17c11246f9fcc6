package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelforge/labelforge/internal/user"
	"github.com/labelforge/labelforge/internal/workflow"
	"github.com/labelforge/labelforge/pkg/cerr"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
	}{
		{"NOT_STARTED", StatusNotStarted},
		{"READY_FOR_ANNOTATION", StatusReadyForAnnotation},
		{"READY_FOR_REVIEW", StatusReadyForReview},
		{"READY_FOR_COMPLETION", StatusReadyForCompletion},
		{"IN_PROGRESS", StatusInProgress},
		{"SUSPENDED", StatusSuspended},
		{"DEFERRED", StatusDeferred},
		{"COMPLETED", StatusCompleted},
		{"ARCHIVED", StatusArchived},
		{"CHANGES_REQUIRED", StatusChangesRequired},
		{"VETOED", StatusVetoed},
		{"", StatusUnspecified},
		{"in_progress", StatusUnspecified},
		{"DONE", StatusUnspecified},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStatus(tt.input))
		})
	}
}

func TestIsValidTransition(t *testing.T) {
	all := []Status{
		StatusNotStarted,
		StatusReadyForAnnotation,
		StatusReadyForReview,
		StatusReadyForCompletion,
		StatusInProgress,
		StatusSuspended,
		StatusDeferred,
		StatusCompleted,
		StatusArchived,
		StatusChangesRequired,
		StatusVetoed,
	}

	allowed := map[Status][]Status{
		StatusInProgress: {
			StatusNotStarted,
			StatusReadyForAnnotation,
			StatusReadyForReview,
			StatusReadyForCompletion,
			StatusSuspended,
		},
		StatusCompleted: {StatusInProgress},
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
		StatusArchived: {StatusCompleted},
	}
	isAllowed := func(from, to Status) bool {
		for _, src := range allowed[to] {
			if src == from {
				return true
			}
		}
		return false
	}

	// Every (from, to) pair not in the table must be denied, including
	// self-transitions and transitions into the automatic statuses.
	for _, from := range all {
		for _, to := range all {
			got := from.isValidTransition(to)
			assert.Equal(t, isAllowed(from, to), got, "transition %s -> %s", from, to)
		}
	}
}

func TestAutomaticStatusesAreNeverManualTargets(t *testing.T) {
	all := []Status{
		StatusNotStarted,
		StatusReadyForAnnotation,
		StatusReadyForReview,
		StatusReadyForCompletion,
		StatusInProgress,
		StatusSuspended,
		StatusDeferred,
		StatusCompleted,
		StatusArchived,
		StatusChangesRequired,
		StatusVetoed,
	}
	for _, target := range []Status{
		StatusNotStarted,
		StatusReadyForAnnotation,
		StatusReadyForReview,
		StatusReadyForCompletion,
		StatusVetoed,
		StatusChangesRequired,
	} {
		for _, from := range all {
			assert.False(t, from.isValidTransition(target), "transition %s -> %s must be denied", from, target)
		}
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name      string
		from      Status
		to        Status
		stageType workflow.StageType
		role      user.Role
		wantCode  cerr.Code
	}{
		{
			name:      "annotator starts ready work",
			from:      StatusReadyForAnnotation,
			to:        StatusInProgress,
			stageType: workflow.StageTypeAnnotation,
			role:      user.RoleAnnotator,
			wantCode:  cerr.OK,
		},
		{
			name:      "annotator completes annotation stage",
			from:      StatusInProgress,
			to:        StatusCompleted,
			stageType: workflow.StageTypeAnnotation,
			role:      user.RoleAnnotator,
			wantCode:  cerr.OK,
		},
		{
			name:      "annotator cannot complete completion stage",
			from:      StatusInProgress,
			to:        StatusCompleted,
			stageType: workflow.StageTypeCompletion,
			role:      user.RoleAnnotator,
			wantCode:  cerr.PermissionDenied,
		},
		{
			name:      "manager completes completion stage",
			from:      StatusInProgress,
			to:        StatusCompleted,
			stageType: workflow.StageTypeCompletion,
			role:      user.RoleManager,
			wantCode:  cerr.OK,
		},
		{
			name:      "admin counts as manager",
			from:      StatusInProgress,
			to:        StatusCompleted,
			stageType: workflow.StageTypeCompletion,
			role:      user.RoleAdmin,
			wantCode:  cerr.OK,
		},
		{
			name:      "suspended resumes",
			from:      StatusSuspended,
			to:        StatusInProgress,
			stageType: workflow.StageTypeAnnotation,
			role:      user.RoleAnnotator,
			wantCode:  cerr.OK,
		},
		{
			name:      "deferred cannot resume directly",
			from:      StatusDeferred,
			to:        StatusInProgress,
			stageType: workflow.StageTypeAnnotation,
			role:      user.RoleAnnotator,
			wantCode:  cerr.FailedPrecondition,
		},
		{
			name:      "completed archives",
			from:      StatusCompleted,
			to:        StatusArchived,
			stageType: workflow.StageTypeAnnotation,
			role:      user.RoleAnnotator,
			wantCode:  cerr.OK,
		},
		{
			name:      "archived is terminal",
			from:      StatusArchived,
			to:        StatusInProgress,
			stageType: workflow.StageTypeAnnotation,
			role:      user.RoleManager,
			wantCode:  cerr.FailedPrecondition,
		},
		{
			name:      "cannot skip to completed from ready",
			from:      StatusReadyForReview,
			to:        StatusCompleted,
			stageType: workflow.StageTypeRevision,
			role:      user.RoleManager,
			wantCode:  cerr.FailedPrecondition,
		},
		{
			name:      "unknown target status",
			from:      StatusInProgress,
			to:        Status("DONE"),
			stageType: workflow.StageTypeAnnotation,
			role:      user.RoleAnnotator,
			wantCode:  cerr.InvalidArgument,
		},
		{
			name:      "unknown source status",
			from:      Status(""),
			to:        StatusInProgress,
			stageType: workflow.StageTypeAnnotation,
			role:      user.RoleAnnotator,
			wantCode:  cerr.InvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to, tt.stageType, tt.role)
			if tt.wantCode == cerr.OK {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, cerr.IsCode(err, tt.wantCode), "expected code %s, got %v", tt.wantCode, err)
		})
	}
}

func TestReadyStatusForStage(t *testing.T) {
	assert.Equal(t, StatusReadyForAnnotation, ReadyStatusForStage(workflow.StageTypeAnnotation))
	assert.Equal(t, StatusReadyForReview, ReadyStatusForStage(workflow.StageTypeRevision))
	assert.Equal(t, StatusReadyForCompletion, ReadyStatusForStage(workflow.StageTypeCompletion))
}
