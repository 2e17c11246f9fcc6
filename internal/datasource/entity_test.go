package datasource

import "testing"

func TestBucketName(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		dsName    string
		expected  string
	}{
		{
			name:      "already valid",
			projectID: "proj1",
			dsName:    "annotation",
			expected:  "lf-proj1-annotation",
		},
		{
			name:      "uppercase is lowered",
			projectID: "Proj1",
			dsName:    "Annotation",
			expected:  "lf-proj1-annotation",
		},
		{
			name:      "invalid characters collapse to dashes",
			projectID: "proj_1",
			dsName:    "raw images",
			expected:  "lf-proj-1-raw-images",
		},
		{
			name:      "leading and trailing dashes trimmed",
			projectID: "-proj-",
			dsName:    "_stage_",
			expected:  "lf-proj-stage",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketName(tt.projectID, tt.dsName); got != tt.expected {
				t.Errorf("BucketName(%q, %q) = %q, want %q", tt.projectID, tt.dsName, got, tt.expected)
			}
		})
	}
}

func TestBucketIsDeterministic(t *testing.T) {
	d := &Datasource{ID: "ds1", ProjectID: "proj1", Name: "review"}
	if d.Bucket() != d.Bucket() {
		t.Error("Bucket() must be deterministic")
	}
	if d.Bucket() != BucketName("proj1", "review") {
		t.Errorf("Bucket() = %q, want %q", d.Bucket(), BucketName("proj1", "review"))
	}
}
