package workflow

import "time"

// StageType classifies a workflow stage. The stage graph is fixed: up to
// three stage types, linearly connected in this order.
type StageType string

const (
	StageTypeAnnotation StageType = "ANNOTATION"
	StageTypeRevision   StageType = "REVISION"
	StageTypeCompletion StageType = "COMPLETION"
)

// Stage is one step of a workflow. InputDatasourceID names the storage
// location holding the stage's assets; TargetDatasourceID is where assets go
// when a task of this stage completes (empty on the final stage).
type Stage struct {
	ID                 string    `yaml:"id" json:"id"`
	Type               StageType `yaml:"type" json:"type"`
	Order              int32     `yaml:"order" json:"order"`
	InputDatasourceID  string    `yaml:"input_datasource_id" json:"input_datasource_id"`
	TargetDatasourceID string    `yaml:"target_datasource_id,omitempty" json:"target_datasource_id,omitempty"`
	IsInitial          bool      `yaml:"is_initial" json:"is_initial"`
	IsFinal            bool      `yaml:"is_final" json:"is_final"`
}

type Workflow struct {
	ID          string    `yaml:"id" json:"id"`
	ProjectID   string    `yaml:"project_id" json:"project_id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Stages      []Stage   `yaml:"stages" json:"stages"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}

// StageByID returns the stage with the given id, or nil.
func (w *Workflow) StageByID(id string) *Stage {
	for i := range w.Stages {
		if w.Stages[i].ID == id {
			return &w.Stages[i]
		}
	}
	return nil
}

// InitialStage returns the workflow's first stage (the annotation stage), or nil.
func (w *Workflow) InitialStage() *Stage {
	for i := range w.Stages {
		if w.Stages[i].IsInitial {
			return &w.Stages[i]
		}
	}
	return nil
}

// NextStage returns the stage following the given one in order, or nil when
// the given stage is the last.
func (w *Workflow) NextStage(stageID string) *Stage {
	current := w.StageByID(stageID)
	if current == nil {
		return nil
	}
	var next *Stage
	for i := range w.Stages {
		s := &w.Stages[i]
		if s.Order <= current.Order {
			continue
		}
		if next == nil || s.Order < next.Order {
			next = s
		}
	}
	return next
}
