package datasource

import (
	"fmt"
	"strings"
	"time"
)

// Datasource is a named storage location holding the assets of one workflow
// stage. Exactly one bucket in the object store backs each datasource.
type Datasource struct {
	ID        string    `yaml:"id" json:"id"`
	ProjectID string    `yaml:"project_id" json:"project_id"`
	Name      string    `yaml:"name" json:"name"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// BucketName derives the object-store bucket for a storage location. The
// mapping is deterministic so the bucket can be re-resolved from the task
// record alone after a crash.
func BucketName(projectID, name string) string {
	return fmt.Sprintf("lf-%s-%s", sanitize(projectID), sanitize(name))
}

// Bucket returns the bucket backing this datasource.
func (d *Datasource) Bucket() string {
	return BucketName(d.ProjectID, d.Name)
}

// sanitize lowers the input and collapses anything outside [a-z0-9-] to a
// dash, matching S3 bucket naming constraints.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
