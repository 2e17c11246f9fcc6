package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labelforge/labelforge/internal/asset"
	assetrepo "github.com/labelforge/labelforge/internal/asset/repositoryimpl"
	"github.com/labelforge/labelforge/internal/config"
	"github.com/labelforge/labelforge/internal/datasource"
	datasourcerepo "github.com/labelforge/labelforge/internal/datasource/repositoryimpl"
	"github.com/labelforge/labelforge/internal/eventbus"
	"github.com/labelforge/labelforge/internal/project"
	projectrepo "github.com/labelforge/labelforge/internal/project/repositoryimpl"
	"github.com/labelforge/labelforge/internal/task"
	taskrepo "github.com/labelforge/labelforge/internal/task/repositoryimpl"
	"github.com/labelforge/labelforge/internal/user"
	userrepo "github.com/labelforge/labelforge/internal/user/repositoryimpl"
	"github.com/labelforge/labelforge/internal/workflow"
	workflowrepo "github.com/labelforge/labelforge/internal/workflow/repositoryimpl"
	"github.com/labelforge/labelforge/pkg/clog"
	"github.com/labelforge/labelforge/pkg/objectstore"
	"github.com/labelforge/labelforge/pkg/storage"

	server "github.com/labelforge/labelforge/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup record storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocal(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup asset object store
	var objects objectstore.ObjectStore
	switch env.ObjectStoreEnv.Type {
	case "s3":
		objects, err = objectstore.NewS3Store(context.Background(), env.ObjectStoreEnv.Region)
		if err != nil {
			slog.Error("failed to create S3 object store", "error", err)
			os.Exit(1)
		}
	default:
		objects, err = objectstore.NewLocalStore(env.ObjectStoreEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local object store", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	projectRepo := projectrepo.NewYAMLRepository(store)
	workflowRepo := workflowrepo.NewYAMLRepository(store)
	datasourceRepo := datasourcerepo.NewYAMLRepository(store)
	assetRepo := assetrepo.NewYAMLRepository(store)
	userRepo := userrepo.NewYAMLRepository(store)
	taskRepo := taskrepo.NewYAMLRepository(store)
	taskEventRepo := taskrepo.NewYAMLEventRepository(store)

	// Setup task lifecycle engine
	mover := task.NewMover(assetRepo, datasourceRepo, workflowRepo, objects, env.ObjectStoreEnv.MoveTimeout)
	recorder := task.NewRecorder(taskEventRepo, bus)
	taskService := task.NewService(taskRepo, assetRepo, userRepo, workflowRepo, mover, recorder, bus)

	// Setup servers
	projectServer := project.NewServer(projectRepo)
	userServer := user.NewServer(userRepo)
	workflowServer := workflow.NewServer(workflowRepo)
	datasourceServer := datasource.NewServer(datasourceRepo, objects)
	assetServer := asset.NewServer(assetRepo, datasourceRepo, objects)
	taskServer := task.NewServer(taskService)

	srv := server.NewServer(env, projectServer, userServer, workflowServer, datasourceServer, assetServer, taskServer, bus)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	busLogger := eventbus.NewLogger(bus)
	go func() {
		if err := busLogger.Start(ctx); err != nil {
			slog.Error("event logger stopped", "error", err)
		}
	}()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after stream contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
