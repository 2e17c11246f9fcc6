package workflow

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/labelforge/labelforge/pkg/cerr"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) Register(r chi.Router) {
	r.Get("/workflows", s.handleList)
	r.Post("/workflows", s.handleCreate)
	r.Get("/workflows/{id}", s.handleGet)
}

type stageRequest struct {
	Type               StageType `json:"type"`
	InputDatasourceID  string    `json:"input_datasource_id"`
	TargetDatasourceID string    `json:"target_datasource_id,omitempty"`
}

type createRequest struct {
	ProjectID   string         `json:"project_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Stages      []stageRequest `json:"stages"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.ProjectID == "" || req.Name == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "project_id and name are required", nil)
		return
	}
	if len(req.Stages) == 0 || len(req.Stages) > 3 {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "a workflow has between one and three stages", nil)
		return
	}
	if req.Stages[0].Type != StageTypeAnnotation {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "the first stage must be an annotation stage", nil)
		return
	}

	now := time.Now()
	stages := make([]Stage, len(req.Stages))
	for i, sr := range req.Stages {
		stages[i] = Stage{
			ID:                 ulid.Make().String(),
			Type:               sr.Type,
			Order:              int32(i + 1),
			InputDatasourceID:  sr.InputDatasourceID,
			TargetDatasourceID: sr.TargetDatasourceID,
			IsInitial:          i == 0,
			IsFinal:            i == len(req.Stages)-1,
		}
	}
	w2 := &Workflow{
		ID:          ulid.Make().String(),
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Stages:      stages,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, w2); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"workflow": w2})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wf, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"workflow": wf})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workflows, err := s.repo.List(ctx, r.URL.Query().Get("project_id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"workflows": workflows})
}
