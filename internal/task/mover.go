package task

import (
	"context"
	"fmt"
	"time"

	"github.com/labelforge/labelforge/internal/asset"
	"github.com/labelforge/labelforge/internal/datasource"
	"github.com/labelforge/labelforge/internal/workflow"
	"github.com/labelforge/labelforge/pkg/cerr"
	"github.com/labelforge/labelforge/pkg/objectstore"
)

// MovementResult is the structured outcome of an asset relocation. Expected
// "nothing to do" and "needs archiving" cases are reported here instead of
// as errors, because the engine must still decide what happens to the task.
type MovementResult struct {
	AssetMoved         bool
	ShouldArchiveTask  bool
	TargetDatasourceID string
	TargetStageID      string
	ErrorMessage       string
}

// Mover relocates a task's asset between storage locations as the task
// advances or is vetoed. All of its operations are idempotent: the asset's
// datasource pointer is the single source of truth for "already migrated",
// and bucket existence checks are only a copy optimization.
type Mover struct {
	assets      asset.Repository
	datasources datasource.Repository
	workflows   workflow.Repository
	objects     objectstore.ObjectStore
	timeout     time.Duration
}

func NewMover(
	assets asset.Repository,
	datasources datasource.Repository,
	workflows workflow.Repository,
	objects objectstore.ObjectStore,
	timeout time.Duration,
) *Mover {
	return &Mover{
		assets:      assets,
		datasources: datasources,
		workflows:   workflows,
		objects:     objects,
		timeout:     timeout,
	}
}

// MoveForward relocates the task's asset to the next stage's storage
// location. On the terminal stage it is a no-op success. Unrecoverable
// conditions (missing asset, missing source object) degrade into
// ShouldArchiveTask rather than a silent drop.
func (m *Mover) MoveForward(ctx context.Context, t *Task) (MovementResult, error) {
	wf, err := m.workflows.Get(ctx, t.WorkflowID)
	if err != nil {
		return MovementResult{}, err
	}
	stage := wf.StageByID(t.StageID)
	if stage == nil {
		return MovementResult{}, cerr.NewError(cerr.Internal, "server error",
			fmt.Errorf("task %s references unknown stage %s", t.ID, t.StageID))
	}
	next := wf.NextStage(t.StageID)
	if stage.IsFinal || next == nil {
		// Terminal stage: nothing to move, nowhere to move it.
		return MovementResult{}, nil
	}
	return m.relocate(ctx, t, next)
}

// MoveBackOnVeto relocates the task's asset back to the workflow's initial
// (annotation) stage storage location. Used exclusively by the explicit
// return-for-rework operation.
func (m *Mover) MoveBackOnVeto(ctx context.Context, t *Task) (MovementResult, error) {
	wf, err := m.workflows.Get(ctx, t.WorkflowID)
	if err != nil {
		return MovementResult{}, err
	}
	initial := wf.InitialStage()
	if initial == nil {
		return MovementResult{}, cerr.NewError(cerr.Internal, "server error",
			fmt.Errorf("workflow %s has no initial stage", wf.ID))
	}
	return m.relocate(ctx, t, initial)
}

// relocate moves the task's asset into the input location of the target
// stage, tolerating partial prior runs.
func (m *Mover) relocate(ctx context.Context, t *Task, target *workflow.Stage) (MovementResult, error) {
	a, err := m.assets.Get(ctx, t.AssetID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return MovementResult{
				ShouldArchiveTask: true,
				ErrorMessage:      "Asset not found for task",
			}, nil
		}
		return MovementResult{}, err
	}

	if a.DatasourceID == target.InputDatasourceID {
		// Pointer already at the target location: a prior run finished the
		// move. Nothing to update, no file I/O.
		return MovementResult{
			TargetDatasourceID: target.InputDatasourceID,
			TargetStageID:      target.ID,
		}, nil
	}

	srcDS, err := m.datasources.Get(ctx, a.DatasourceID)
	if err != nil {
		return MovementResult{}, err
	}
	tgtDS, err := m.datasources.Get(ctx, target.InputDatasourceID)
	if err != nil {
		return MovementResult{}, err
	}

	// Object store calls are the only slow part; bound them so a hung store
	// cannot block the task transition indefinitely.
	ioCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	srcBucket, tgtBucket := srcDS.Bucket(), tgtDS.Bucket()
	srcExists, err := m.objects.FileExists(ioCtx, srcBucket, a.ExternalID)
	if err != nil {
		return MovementResult{}, err
	}
	if !srcExists {
		// The source is inconsistent with the task record. Retrying without
		// intervention would not change the outcome.
		return MovementResult{
			ShouldArchiveTask: true,
			ErrorMessage:      "Failed to transfer asset to next workflow stage",
		}, nil
	}

	tgtExists, err := m.objects.FileExists(ioCtx, tgtBucket, a.ExternalID)
	if err != nil {
		return MovementResult{}, err
	}
	if !tgtExists {
		if err := m.copyObject(ioCtx, srcBucket, tgtBucket, a.ExternalID); err != nil {
			return MovementResult{}, err
		}
	}
	// Target already holding the object means a prior partial run copied it
	// but crashed before the pointer update: just finish the pointer update.

	a.DatasourceID = target.InputDatasourceID
	a.UpdatedAt = time.Now()
	if err := m.assets.Update(ctx, a); err != nil {
		return MovementResult{}, err
	}

	return MovementResult{
		AssetMoved:         true,
		TargetDatasourceID: target.InputDatasourceID,
		TargetStageID:      target.ID,
	}, nil
}

func (m *Mover) copyObject(ctx context.Context, srcBucket, tgtBucket, key string) error {
	body, err := m.objects.Download(ctx, srcBucket, key)
	if err != nil {
		return err
	}
	defer body.Close()
	if _, err := m.objects.Upload(ctx, body, tgtBucket, key); err != nil {
		return err
	}
	return nil
}
