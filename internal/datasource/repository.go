package datasource

import "context"

type Repository interface {
	Create(ctx context.Context, d *Datasource) error
	Get(ctx context.Context, id string) (*Datasource, error)
	List(ctx context.Context, projectID string) ([]*Datasource, error)
	Delete(ctx context.Context, id string) error
}
