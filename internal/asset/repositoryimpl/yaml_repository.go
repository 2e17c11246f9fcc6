package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/labelforge/labelforge/internal/asset"
	"github.com/labelforge/labelforge/pkg/cerr"
	"github.com/labelforge/labelforge/pkg/storage"
)

const assetsPrefix = "assets"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", assetsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, a *asset.Asset) error {
	exists, err := r.storage.Exists(ctx, path(a.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("asset", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "asset already exists", nil)
	}
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal asset: %w", err))
	}
	if err := r.storage.Write(ctx, path(a.ID), data); err != nil {
		return cerr.WrapStorageWriteError("asset", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*asset.Asset, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("asset", err)
	}
	var a asset.Asset
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal asset: %w", err))
	}
	return &a, nil
}

func (r *YAMLRepository) List(ctx context.Context, projectID, datasourceID string) ([]*asset.Asset, error) {
	paths, err := r.storage.List(ctx, assetsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("assets", err)
	}
	sort.Strings(paths)

	var all []*asset.Asset
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var a asset.Asset
		if err := yaml.Unmarshal(data, &a); err != nil {
			continue
		}
		if projectID != "" && a.ProjectID != projectID {
			continue
		}
		if datasourceID != "" && a.DatasourceID != datasourceID {
			continue
		}
		all = append(all, &a)
	}
	return all, nil
}

func (r *YAMLRepository) Update(ctx context.Context, a *asset.Asset) error {
	exists, err := r.storage.Exists(ctx, path(a.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("asset", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "asset not found", nil)
	}
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal asset: %w", err))
	}
	if err := r.storage.Write(ctx, path(a.ID), data); err != nil {
		return cerr.WrapStorageWriteError("asset", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("asset", err)
	}
	return nil
}
