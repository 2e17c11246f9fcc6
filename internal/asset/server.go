package asset

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/labelforge/labelforge/internal/datasource"
	"github.com/labelforge/labelforge/pkg/cerr"
	"github.com/labelforge/labelforge/pkg/objectstore"
)

// Server exposes asset registration and upload. The asset record tracks
// where the binary currently lives; the upload endpoint streams the binary
// into the datasource's bucket under the asset's external id.
type Server struct {
	repo        Repository
	datasources datasource.Repository
	objects     objectstore.ObjectStore
}

func NewServer(repo Repository, datasources datasource.Repository, objects objectstore.ObjectStore) *Server {
	return &Server{repo: repo, datasources: datasources, objects: objects}
}

func (s *Server) Register(r chi.Router) {
	r.Get("/assets", s.handleList)
	r.Post("/assets", s.handleCreate)
	r.Get("/assets/{id}", s.handleGet)
	r.Post("/assets/{id}/upload", s.handleUpload)
}

type createRequest struct {
	ExternalID   string `json:"external_id"`
	ProjectID    string `json:"project_id"`
	DatasourceID string `json:"datasource_id"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.ExternalID == "" || req.ProjectID == "" || req.DatasourceID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "external_id, project_id and datasource_id are required", nil)
		return
	}
	if _, err := s.datasources.Get(ctx, req.DatasourceID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	now := time.Now()
	a := &Asset{
		ID:           ulid.Make().String(),
		ExternalID:   req.ExternalID,
		ProjectID:    req.ProjectID,
		DatasourceID: req.DatasourceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"asset": a})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"asset": a})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	assets, err := s.repo.List(ctx, q.Get("project_id"), q.Get("datasource_id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"assets": assets})
}

// handleUpload stores the raw request body as the asset's binary in its
// current datasource bucket.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	ds, err := s.datasources.Get(ctx, a.DatasourceID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if _, err := s.objects.Upload(ctx, r.Body, ds.Bucket(), a.ExternalID); err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}
	a.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"asset": a})
}
