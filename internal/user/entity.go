package user

import "time"

// Role gates manager-only task operations (completing a completion-stage
// task, vetoing, requesting changes).
type Role string

const (
	RoleAnnotator Role = "ANNOTATOR"
	RoleManager   Role = "MANAGER"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleAdmin
}

type User struct {
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	Email     string    `yaml:"email" json:"email"`
	Role      Role      `yaml:"role" json:"role"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}
