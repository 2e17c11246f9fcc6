package task

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/labelforge/labelforge/pkg/cerr"
)

// Server exposes the task lifecycle over JSON. The transport maps external
// status strings to the enumerated statuses and surfaces domain errors as
// HTTP error codes via the cerr middleware.
type Server struct {
	service *Service
}

func NewServer(service *Service) *Server {
	return &Server{service: service}
}

func (s *Server) Register(r chi.Router) {
	r.Get("/tasks", s.handleList)
	r.Post("/tasks", s.handleCreate)
	r.Get("/tasks/{id}", s.handleGet)
	r.Post("/tasks/{id}/status", s.handleChangeStatus)
	r.Post("/tasks/{id}/veto", s.handleVeto)
	r.Post("/tasks/{id}/request-changes", s.handleRequestChanges)
	r.Post("/tasks/{id}/time", s.handleLogTime)
	r.Get("/tasks/{id}/events", s.handleEvents)
}

type taskJSON struct {
	ID                   string     `json:"id"`
	ProjectID            string     `json:"project_id"`
	WorkflowID           string     `json:"workflow_id"`
	StageID              string     `json:"stage_id"`
	AssetID              string     `json:"asset_id"`
	Priority             int32      `json:"priority"`
	DueDate              *time.Time `json:"due_date,omitempty"`
	AssigneeID           string     `json:"assignee_id,omitempty"`
	LastWorkedOnByUserID string     `json:"last_worked_on_by_user_id,omitempty"`
	WorkingTimeSeconds   int64      `json:"working_time_seconds"`
	Status               Status     `json:"status"`
	DerivedStatus        Status     `json:"derived_status"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	SuspendedAt          *time.Time `json:"suspended_at,omitempty"`
	DeferredAt           *time.Time `json:"deferred_at,omitempty"`
	ArchivedAt           *time.Time `json:"archived_at,omitempty"`
	VetoedAt             *time.Time `json:"vetoed_at,omitempty"`
	ChangesRequiredAt    *time.Time `json:"changes_required_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func toJSON(t *Task) *taskJSON {
	return &taskJSON{
		ID:                   t.ID,
		ProjectID:            t.ProjectID,
		WorkflowID:           t.WorkflowID,
		StageID:              t.StageID,
		AssetID:              t.AssetID,
		Priority:             t.Priority,
		DueDate:              t.DueDate,
		AssigneeID:           t.AssigneeID,
		LastWorkedOnByUserID: t.LastWorkedOnByUserID,
		WorkingTimeSeconds:   t.WorkingTimeSeconds,
		Status:               t.Status,
		DerivedStatus:        t.DerivedStatus(),
		CompletedAt:          t.CompletedAt,
		SuspendedAt:          t.SuspendedAt,
		DeferredAt:           t.DeferredAt,
		ArchivedAt:           t.ArchivedAt,
		VetoedAt:             t.VetoedAt,
		ChangesRequiredAt:    t.ChangesRequiredAt,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

type eventJSON struct {
	ID           string        `json:"id"`
	TaskID       string        `json:"task_id"`
	Category     EventCategory `json:"category"`
	Detail       string        `json:"detail,omitempty"`
	ActingUserID string        `json:"acting_user_id"`
	FromStatus   Status        `json:"from_status"`
	ToStatus     Status        `json:"to_status"`
	FromStageID  string        `json:"from_stage_id,omitempty"`
	ToStageID    string        `json:"to_stage_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

func actingUser(r *http.Request) (string, error) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		return "", cerr.NewError(cerr.Unauthenticated, "missing X-User-ID header", nil)
	}
	return id, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	status := Status("")
	if raw := q.Get("status"); raw != "" {
		status = ParseStatus(raw)
		if status == StatusUnspecified {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "unknown status filter", nil)
			return
		}
	}
	tasks, err := s.service.List(ctx, q.Get("project_id"), q.Get("workflow_id"), q.Get("stage_id"), status)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	out := make([]*taskJSON, len(tasks))
	for i, t := range tasks {
		out[i] = toJSON(t)
	}
	cerr.SetJSONResponse(ctx, map[string]any{"tasks": out})
}

type createRequest struct {
	ProjectID  string     `json:"project_id"`
	WorkflowID string     `json:"workflow_id"`
	AssetID    string     `json:"asset_id"`
	Priority   int32      `json:"priority"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	AssigneeID string     `json:"assignee_id,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.ProjectID == "" || req.WorkflowID == "" || req.AssetID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "project_id, workflow_id and asset_id are required", nil)
		return
	}
	t, err := s.service.Create(ctx, CreateParams{
		ProjectID:  req.ProjectID,
		WorkflowID: req.WorkflowID,
		AssetID:    req.AssetID,
		Priority:   req.Priority,
		DueDate:    req.DueDate,
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toJSON(t)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toJSON(t)})
}

type changeStatusRequest struct {
	Status    string `json:"status"`
	MoveAsset *bool  `json:"move_asset,omitempty"`
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := actingUser(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	moveAsset := true
	if req.MoveAsset != nil {
		moveAsset = *req.MoveAsset
	}
	t, err := s.service.ChangeStatus(ctx, chi.URLParam(r, "id"), ParseStatus(req.Status), userID, moveAsset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if t == nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toJSON(t)})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleVeto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := actingUser(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.service.Veto(ctx, chi.URLParam(r, "id"), userID, req.Reason)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if t == nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toJSON(t)})
}

func (s *Server) handleRequestChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := actingUser(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.service.RequestChanges(ctx, chi.URLParam(r, "id"), userID, req.Reason)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if t == nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toJSON(t)})
}

type logTimeRequest struct {
	Seconds int64 `json:"seconds"`
}

func (s *Server) handleLogTime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := actingUser(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var req logTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.service.LogTime(ctx, chi.URLParam(r, "id"), req.Seconds, userID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if t == nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toJSON(t)})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := s.service.Events(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	out := make([]*eventJSON, len(events))
	for i, ev := range events {
		out[i] = &eventJSON{
			ID:           ev.ID,
			TaskID:       ev.TaskID,
			Category:     ev.Category,
			Detail:       ev.Detail,
			ActingUserID: ev.ActingUserID,
			FromStatus:   ev.FromStatus,
			ToStatus:     ev.ToStatus,
			FromStageID:  ev.FromStageID,
			ToStageID:    ev.ToStageID,
			CreatedAt:    ev.CreatedAt,
		}
	}
	cerr.SetJSONResponse(ctx, map[string]any{"events": out})
}
