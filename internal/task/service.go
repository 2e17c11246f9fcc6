package task

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/labelforge/labelforge/internal/asset"
	"github.com/labelforge/labelforge/internal/eventbus"
	"github.com/labelforge/labelforge/internal/user"
	"github.com/labelforge/labelforge/internal/workflow"
	"github.com/labelforge/labelforge/pkg/cerr"
)

// Service is the task lifecycle engine. It orchestrates validation, the
// timestamp bookkeeping, asset relocation and audit recording for every
// status change. Within one call the order is fixed: validation precedes
// mutation, mutation precedes asset movement, movement precedes recording
// and the final write, because later steps depend on state decided earlier.
type Service struct {
	tasks     Repository
	assets    asset.Repository
	users     user.Repository
	workflows workflow.Repository
	mover     *Mover
	recorder  *Recorder
	bus       *eventbus.Bus
}

func NewService(
	tasks Repository,
	assets asset.Repository,
	users user.Repository,
	workflows workflow.Repository,
	mover *Mover,
	recorder *Recorder,
	bus *eventbus.Bus,
) *Service {
	return &Service{
		tasks:     tasks,
		assets:    assets,
		users:     users,
		workflows: workflows,
		mover:     mover,
		recorder:  recorder,
		bus:       bus,
	}
}

type CreateParams struct {
	ProjectID  string
	WorkflowID string
	AssetID    string
	Priority   int32
	DueDate    *time.Time
	AssigneeID string
}

// Create generates a work item for the workflow's initial stage. Tasks are
// born NOT_STARTED; readiness statuses are assigned automatically as work
// flows through the stages.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Task, error) {
	wf, err := s.workflows.Get(ctx, params.WorkflowID)
	if err != nil {
		return nil, err
	}
	initial := wf.InitialStage()
	if initial == nil {
		return nil, cerr.NewError(cerr.FailedPrecondition, "workflow has no initial stage", nil)
	}
	if _, err := s.assets.Get(ctx, params.AssetID); err != nil {
		return nil, err
	}

	now := time.Now()
	t := &Task{
		ID:         ulid.Make().String(),
		ProjectID:  params.ProjectID,
		WorkflowID: params.WorkflowID,
		StageID:    initial.ID,
		AssetID:    params.AssetID,
		Priority:   params.Priority,
		DueDate:    params.DueDate,
		AssigneeID: params.AssigneeID,
		Status:     StatusNotStarted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	s.bus.PublishNew(eventbus.TypeTaskCreated, t.ID, "", map[string]string{
		"project_id":  t.ProjectID,
		"workflow_id": t.WorkflowID,
		"stage_id":    t.StageID,
	})
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	return s.tasks.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, projectID, workflowID, stageID string, status Status) ([]*Task, error) {
	return s.tasks.List(ctx, projectID, workflowID, stageID, status)
}

func (s *Service) Events(ctx context.Context, taskID string) ([]*Event, error) {
	return s.recorder.events.ListByTask(ctx, taskID)
}

// ChangeStatus performs one validated status transition. A missing task is
// reported as (nil, nil): there is nothing to change. A task already at the
// target status is returned unchanged with no validation, no event and no
// write, so repeated "complete" calls are harmless.
func (s *Service) ChangeStatus(ctx context.Context, taskID string, target Status, actingUserID string, moveAsset bool) (*Task, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, nil
		}
		return nil, err
	}

	from := t.DerivedStatus()
	if from == target {
		return t, nil
	}

	wf, err := s.workflows.Get(ctx, t.WorkflowID)
	if err != nil {
		return nil, err
	}
	stage := wf.StageByID(t.StageID)
	if stage == nil {
		return nil, cerr.NewError(cerr.Internal, "server error",
			fmt.Errorf("task %s references unknown stage %s", t.ID, t.StageID))
	}

	if err := ValidateTransition(from, target, stage.Type, s.roleOf(ctx, actingUserID)); err != nil {
		return nil, err
	}

	now := time.Now()
	applyStatus(t, target, actingUserID, now)

	var detail, toStageID string
	if moveAsset && transitionEffects[target].moveEligible {
		res, err := s.mover.MoveForward(ctx, t)
		if err != nil {
			return nil, err
		}
		switch {
		case res.ShouldArchiveTask:
			// The asset cannot be relocated, so the task must not stay
			// actionable in a stage whose input it no longer satisfies.
			t.ArchivedAt = &now
			detail = res.ErrorMessage
		case res.TargetStageID != "":
			toStageID = res.TargetStageID
			if err := s.generateNextStageWork(ctx, t, wf, res, now); err != nil {
				return nil, err
			}
		}
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	if _, err := s.recorder.Record(ctx, t, from, target, actingUserID, detail, stage.ID, toStageID); err != nil {
		return nil, err
	}
	return t, nil
}

// Veto returns a completed task to the annotation stage for rework, asset
// included. This is a distinct operation rather than a generic status write
// because it carries its own bookkeeping and reason capture.
func (s *Service) Veto(ctx context.Context, taskID, actingUserID, reason string) (*Task, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, nil
		}
		return nil, err
	}

	from := t.DerivedStatus()
	if from != StatusCompleted {
		return nil, cerr.NewError(cerr.FailedPrecondition,
			fmt.Sprintf("only completed tasks can be vetoed, task is %s", from), nil)
	}
	if !s.roleOf(ctx, actingUserID).IsManager() {
		return nil, cerr.NewError(cerr.PermissionDenied, "vetoing a task requires a manager role", nil)
	}

	fromStageID := t.StageID

	now := time.Now()
	applyStatus(t, StatusVetoed, actingUserID, now)

	res, err := s.mover.MoveBackOnVeto(ctx, t)
	if err != nil {
		return nil, err
	}
	detail := reason
	if res.ShouldArchiveTask {
		t.ArchivedAt = &now
		if res.ErrorMessage != "" {
			detail = res.ErrorMessage
		}
	} else {
		// The same task re-enters the annotation stage. VetoedAt stays set
		// as the reason marker until the next transition clears it.
		t.StageID = res.TargetStageID
		t.Status = StatusReadyForAnnotation
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	if _, err := s.recorder.Record(ctx, t, from, StatusVetoed, actingUserID, detail, fromStageID, res.TargetStageID); err != nil {
		return nil, err
	}
	return t, nil
}

// RequestChanges sends a reviewed task back into its own stage's queue with
// the changes-required marker set. No asset movement happens: the work stays
// where it is.
func (s *Service) RequestChanges(ctx context.Context, taskID, actingUserID, reason string) (*Task, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, nil
		}
		return nil, err
	}

	from := t.DerivedStatus()
	if from != StatusCompleted && from != StatusInProgress {
		return nil, cerr.NewError(cerr.FailedPrecondition,
			fmt.Sprintf("changes can only be requested on completed or in-progress tasks, task is %s", from), nil)
	}
	if !s.roleOf(ctx, actingUserID).IsManager() {
		return nil, cerr.NewError(cerr.PermissionDenied, "requesting changes requires a manager role", nil)
	}

	wf, err := s.workflows.Get(ctx, t.WorkflowID)
	if err != nil {
		return nil, err
	}
	stage := wf.StageByID(t.StageID)
	if stage == nil {
		return nil, cerr.NewError(cerr.Internal, "server error",
			fmt.Errorf("task %s references unknown stage %s", t.ID, t.StageID))
	}

	now := time.Now()
	applyStatus(t, StatusChangesRequired, actingUserID, now)
	t.Status = ReadyStatusForStage(stage.Type)

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	if _, err := s.recorder.Record(ctx, t, from, StatusChangesRequired, actingUserID, reason, stage.ID, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// LogTime adds client-reported working seconds to the task's accumulator.
func (s *Service) LogTime(ctx context.Context, taskID string, seconds int64, actingUserID string) (*Task, error) {
	if seconds <= 0 {
		return nil, cerr.NewError(cerr.InvalidArgument, "seconds must be positive", nil)
	}
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, nil
		}
		return nil, err
	}
	t.WorkingTimeSeconds += seconds
	t.LastWorkedOnByUserID = actingUserID
	t.UpdatedAt = time.Now()
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// roleOf resolves the acting user's role, defaulting to the least privileged
// role when the user record is missing.
func (s *Service) roleOf(ctx context.Context, userID string) user.Role {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return user.RoleAnnotator
	}
	return u.Role
}

// generateNextStageWork creates the follow-up task in the stage the asset
// just moved into. Safe to call again after a crashed run: an existing task
// for the same asset and stage short-circuits.
func (s *Service) generateNextStageWork(ctx context.Context, t *Task, wf *workflow.Workflow, res MovementResult, now time.Time) error {
	existing, err := s.tasks.List(ctx, t.ProjectID, t.WorkflowID, res.TargetStageID, "")
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.AssetID == t.AssetID {
			return nil
		}
	}
	next := wf.StageByID(res.TargetStageID)
	if next == nil {
		return cerr.NewError(cerr.Internal, "server error",
			fmt.Errorf("movement result references unknown stage %s", res.TargetStageID))
	}
	nt := &Task{
		ID:         ulid.Make().String(),
		ProjectID:  t.ProjectID,
		WorkflowID: t.WorkflowID,
		StageID:    next.ID,
		AssetID:    t.AssetID,
		Priority:   t.Priority,
		DueDate:    t.DueDate,
		Status:     ReadyStatusForStage(next.Type),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.tasks.Create(ctx, nt); err != nil {
		if cerr.IsCode(err, cerr.AlreadyExists) {
			return nil
		}
		return err
	}
	s.bus.PublishNew(eventbus.TypeTaskCreated, nt.ID, "", map[string]string{
		"project_id":  nt.ProjectID,
		"workflow_id": nt.WorkflowID,
		"stage_id":    nt.StageID,
	})
	return nil
}
