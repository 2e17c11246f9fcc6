package asset

import "time"

// Asset is the file being annotated. ExternalID is the object key in the
// object store; DatasourceID names the storage location that currently owns
// the object. Ownership transfers as tasks advance; it is never duplicated.
type Asset struct {
	ID           string    `yaml:"id" json:"id"`
	ExternalID   string    `yaml:"external_id" json:"external_id"`
	ProjectID    string    `yaml:"project_id" json:"project_id"`
	DatasourceID string    `yaml:"datasource_id" json:"datasource_id"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at" json:"updated_at"`
}
