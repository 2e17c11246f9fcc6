package datasource

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/labelforge/labelforge/pkg/cerr"
	"github.com/labelforge/labelforge/pkg/objectstore"
)

// Server exposes storage locations over JSON. Creating a datasource also
// provisions its backing bucket so the mover never runs against a location
// that does not exist.
type Server struct {
	repo    Repository
	objects objectstore.ObjectStore
}

func NewServer(repo Repository, objects objectstore.ObjectStore) *Server {
	return &Server{repo: repo, objects: objects}
}

func (s *Server) Register(r chi.Router) {
	r.Get("/datasources", s.handleList)
	r.Post("/datasources", s.handleCreate)
	r.Get("/datasources/{id}", s.handleGet)
}

type createRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
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
	now := time.Now()
	d := &Datasource{
		ID:        ulid.Make().String(),
		ProjectID: req.ProjectID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	exists, err := s.objects.BucketExists(ctx, d.Bucket())
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}
	if !exists {
		if err := s.objects.CreateBucket(ctx, d.Bucket()); err != nil {
			cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
			return
		}
	}

	if err := s.repo.Create(ctx, d); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"datasource": d})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"datasource": d})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasources, err := s.repo.List(ctx, r.URL.Query().Get("project_id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"datasources": datasources})
}
