package task

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/labelforge/labelforge/internal/asset"
	"github.com/labelforge/labelforge/internal/datasource"
	"github.com/labelforge/labelforge/internal/user"
	"github.com/labelforge/labelforge/internal/workflow"
	"github.com/labelforge/labelforge/pkg/cerr"
)

// In-memory test doubles. They mirror the YAML repository semantics (cerr
// codes for missing and duplicate records) without touching the filesystem.

type memTaskRepo struct {
	tasks map[string]*Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: map[string]*Task{}}
}

func (r *memTaskRepo) Create(_ context.Context, t *Task) error {
	if _, ok := r.tasks[t.ID]; ok {
		return cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
	}
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *memTaskRepo) Get(_ context.Context, id string) (*Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	cp := *t
	return &cp, nil
}

func (r *memTaskRepo) List(_ context.Context, projectID, workflowID, stageID string, status Status) ([]*Task, error) {
	var out []*Task
	for _, t := range r.tasks {
		if projectID != "" && t.ProjectID != projectID {
			continue
		}
		if workflowID != "" && t.WorkflowID != workflowID {
			continue
		}
		if stageID != "" && t.StageID != stageID {
			continue
		}
		if status != "" && t.DerivedStatus() != status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTaskRepo) Update(_ context.Context, t *Task) error {
	if _, ok := r.tasks[t.ID]; !ok {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

type memEventRepo struct {
	events []*Event
}

func (r *memEventRepo) Append(_ context.Context, ev *Event) error {
	cp := *ev
	r.events = append(r.events, &cp)
	return nil
}

func (r *memEventRepo) ListByTask(_ context.Context, taskID string) ([]*Event, error) {
	var out []*Event
	for _, ev := range r.events {
		if ev.TaskID == taskID {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memAssetRepo struct {
	assets map[string]*asset.Asset
}

func newMemAssetRepo() *memAssetRepo {
	return &memAssetRepo{assets: map[string]*asset.Asset{}}
}

func (r *memAssetRepo) Create(_ context.Context, a *asset.Asset) error {
	cp := *a
	r.assets[a.ID] = &cp
	return nil
}

func (r *memAssetRepo) Get(_ context.Context, id string) (*asset.Asset, error) {
	a, ok := r.assets[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "asset not found", nil)
	}
	cp := *a
	return &cp, nil
}

func (r *memAssetRepo) List(_ context.Context, projectID, datasourceID string) ([]*asset.Asset, error) {
	var out []*asset.Asset
	for _, a := range r.assets {
		if projectID != "" && a.ProjectID != projectID {
			continue
		}
		if datasourceID != "" && a.DatasourceID != datasourceID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memAssetRepo) Update(_ context.Context, a *asset.Asset) error {
	if _, ok := r.assets[a.ID]; !ok {
		return cerr.NewError(cerr.NotFound, "asset not found", nil)
	}
	cp := *a
	r.assets[a.ID] = &cp
	return nil
}

func (r *memAssetRepo) Delete(_ context.Context, id string) error {
	delete(r.assets, id)
	return nil
}

type memDatasourceRepo struct {
	datasources map[string]*datasource.Datasource
}

func newMemDatasourceRepo() *memDatasourceRepo {
	return &memDatasourceRepo{datasources: map[string]*datasource.Datasource{}}
}

func (r *memDatasourceRepo) Create(_ context.Context, d *datasource.Datasource) error {
	cp := *d
	r.datasources[d.ID] = &cp
	return nil
}

func (r *memDatasourceRepo) Get(_ context.Context, id string) (*datasource.Datasource, error) {
	d, ok := r.datasources[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "datasource not found", nil)
	}
	cp := *d
	return &cp, nil
}

func (r *memDatasourceRepo) List(_ context.Context, projectID string) ([]*datasource.Datasource, error) {
	var out []*datasource.Datasource
	for _, d := range r.datasources {
		if projectID != "" && d.ProjectID != projectID {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memDatasourceRepo) Delete(_ context.Context, id string) error {
	delete(r.datasources, id)
	return nil
}

type memWorkflowRepo struct {
	workflows map[string]*workflow.Workflow
}

func newMemWorkflowRepo() *memWorkflowRepo {
	return &memWorkflowRepo{workflows: map[string]*workflow.Workflow{}}
}

func (r *memWorkflowRepo) Create(_ context.Context, w *workflow.Workflow) error {
	cp := *w
	r.workflows[w.ID] = &cp
	return nil
}

func (r *memWorkflowRepo) Get(_ context.Context, id string) (*workflow.Workflow, error) {
	w, ok := r.workflows[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "workflow not found", nil)
	}
	cp := *w
	return &cp, nil
}

func (r *memWorkflowRepo) List(_ context.Context, projectID string) ([]*workflow.Workflow, error) {
	var out []*workflow.Workflow
	for _, w := range r.workflows {
		if projectID != "" && w.ProjectID != projectID {
			continue
		}
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memWorkflowRepo) Update(_ context.Context, w *workflow.Workflow) error {
	cp := *w
	r.workflows[w.ID] = &cp
	return nil
}

func (r *memWorkflowRepo) Delete(_ context.Context, id string) error {
	delete(r.workflows, id)
	return nil
}

type memUserRepo struct {
	users map[string]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*user.User{}}
}

func (r *memUserRepo) Create(_ context.Context, u *user.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) Get(_ context.Context, id string) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) List(_ context.Context) ([]*user.User, error) {
	var out []*user.User
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, u *user.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

// memObjectStore keys objects by bucket/key. Download and upload counts let
// tests assert how much file I/O a move actually performed.
type memObjectStore struct {
	objects   map[string][]byte
	downloads int
	uploads   int
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}}
}

func (s *memObjectStore) put(bucket, key string, data []byte) {
	s.objects[bucket+"/"+key] = data
}

func (s *memObjectStore) has(bucket, key string) bool {
	_, ok := s.objects[bucket+"/"+key]
	return ok
}

func (s *memObjectStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	for k := range s.objects {
		if len(k) > len(bucket) && k[:len(bucket)+1] == bucket+"/" {
			return true, nil
		}
	}
	return false, nil
}

func (s *memObjectStore) CreateBucket(_ context.Context, bucket string) error {
	return nil
}

func (s *memObjectStore) FileExists(_ context.Context, bucket, key string) (bool, error) {
	return s.has(bucket, key), nil
}

func (s *memObjectStore) Download(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "object not found", nil)
	}
	s.downloads++
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memObjectStore) Upload(_ context.Context, body io.Reader, bucket, key string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.uploads++
	s.put(bucket, key, data)
	return key, nil
}
