package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/labelforge/labelforge/internal/asset"
	"github.com/labelforge/labelforge/internal/config"
	"github.com/labelforge/labelforge/internal/datasource"
	"github.com/labelforge/labelforge/internal/eventbus"
	"github.com/labelforge/labelforge/internal/project"
	"github.com/labelforge/labelforge/internal/task"
	"github.com/labelforge/labelforge/internal/user"
	"github.com/labelforge/labelforge/internal/workflow"
	"github.com/labelforge/labelforge/pkg/cerr"
	"github.com/labelforge/labelforge/pkg/clog"
)

type Server struct {
	server           *http.Server
	env              *config.Env
	projectServer    *project.Server
	userServer       *user.Server
	workflowServer   *workflow.Server
	datasourceServer *datasource.Server
	assetServer      *asset.Server
	taskServer       *task.Server
	bus              *eventbus.Bus
}

func NewServer(
	env *config.Env,
	projectServer *project.Server,
	userServer *user.Server,
	workflowServer *workflow.Server,
	datasourceServer *datasource.Server,
	assetServer *asset.Server,
	taskServer *task.Server,
	bus *eventbus.Bus,
) *Server {
	return &Server{
		env:              env,
		projectServer:    projectServer,
		userServer:       userServer,
		workflowServer:   workflowServer,
		datasourceServer: datasourceServer,
		assetServer:      assetServer,
		taskServer:       taskServer,
		bus:              bus,
	}
}

// ListenAndServe starts the HTTP server. The provided context is the base
// context for all incoming requests, so cancelling it (e.g. on shutdown
// signal) also cancels long-lived event streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		s.projectServer.Register(r)
		s.userServer.Register(r)
		s.workflowServer.Register(r)
		s.datasourceServer.Register(r)
		s.assetServer.Register(r)
		s.taskServer.Register(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.HandleFunc("/events", s.handleEventStream)
	mux.Handle("/api/", r)

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(mux),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleEventStream streams bus events to the client as server-sent events.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(id)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
