package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/labelforge/labelforge/internal/datasource"
	"github.com/labelforge/labelforge/pkg/cerr"
	"github.com/labelforge/labelforge/pkg/storage"
)

const datasourcesPrefix = "datasources"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", datasourcesPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, d *datasource.Datasource) error {
	exists, err := r.storage.Exists(ctx, path(d.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("datasource", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "datasource already exists", nil)
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal datasource: %w", err))
	}
	if err := r.storage.Write(ctx, path(d.ID), data); err != nil {
		return cerr.WrapStorageWriteError("datasource", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*datasource.Datasource, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("datasource", err)
	}
	var d datasource.Datasource
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal datasource: %w", err))
	}
	return &d, nil
}

func (r *YAMLRepository) List(ctx context.Context, projectID string) ([]*datasource.Datasource, error) {
	paths, err := r.storage.List(ctx, datasourcesPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("datasources", err)
	}
	sort.Strings(paths)

	var all []*datasource.Datasource
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var d datasource.Datasource
		if err := yaml.Unmarshal(data, &d); err != nil {
			continue
		}
		if projectID != "" && d.ProjectID != projectID {
			continue
		}
		all = append(all, &d)
	}
	return all, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("datasource", err)
	}
	return nil
}
