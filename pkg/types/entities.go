package types

import "time"

// User is a person who can be granted access. The store is the sole
// owner of this record; the core treats it as a read-only fact.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Team is the top level of the project hierarchy a document belongs to.
type Team struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Plan PlanType `json:"plan"`
}

// Project groups documents under a team.
type Project struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	TeamID     string     `json:"teamId"`
	Visibility Visibility `json:"visibility"`
}

// Document is the resource an authorization decision is ultimately
// about. DeletedAt non-nil unconditionally denies every permission
// (see internal/evaluator) regardless of any policy.
type Document struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	ProjectID          string     `json:"projectId"`
	CreatorID          string     `json:"creatorId"`
	DeletedAt          *time.Time `json:"deletedAt"`
	PublicLinkEnabled  bool       `json:"publicLinkEnabled"`
}

// IsDeleted reports whether the document has been soft-deleted.
func (d *Document) IsDeleted() bool {
	return d != nil && d.DeletedAt != nil
}

// TeamMembership links a user to a team with a role.
type TeamMembership struct {
	UserID string `json:"userId"`
	TeamID string `json:"teamId"`
	Role   Role   `json:"role"`
}

// ProjectMembership links a user to a project with a role.
type ProjectMembership struct {
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
	Role      Role   `json:"role"`
}
