package types

import "time"

// ResourceInfo identifies the resource a ResourcePolicyDocument governs
// and who created it.
type ResourceInfo struct {
	ResourceID string `json:"resourceId"`
	CreatorID  string `json:"creatorId"`
}

// ResourcePolicy is a single rule within a ResourcePolicyDocument.
// An empty or absent Filter matches unconditionally (spec invariant 2).
type ResourcePolicy struct {
	Description string       `json:"description,omitempty"`
	Filter      []Filter     `json:"filter,omitempty"`
	Permissions []Permission `json:"permissions"`
	Effect      Effect       `json:"effect"`
}

// UserPolicy is a single rule within a UserPolicyDocument. It has the
// same shape as ResourcePolicy but lives on the acting user rather than
// the resource.
type UserPolicy struct {
	Description string       `json:"description,omitempty"`
	Filter      []Filter     `json:"filter,omitempty"`
	Permissions []Permission `json:"permissions"`
	Effect      Effect       `json:"effect"`
}

// Timestamps is assigned by the store on every upsert; callers never
// set these fields themselves.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ResourcePolicyDocument is the full unit of policy persisted per
// resource, keyed by Resource.ResourceID.
type ResourcePolicyDocument struct {
	Resource   ResourceInfo     `json:"resource"`
	Policies   []ResourcePolicy `json:"policies"`
	Timestamps `json:"-"`
}

// UserPolicyDocument is the full unit of policy persisted per user,
// keyed by the caller-supplied userId.
type UserPolicyDocument struct {
	Policies   []UserPolicy `json:"policies"`
	Timestamps `json:"-"`
}

// SimplePolicyOptions is the "simple form" the ingest API accepts as an
// alternative to a full ResourcePolicyDocument (spec §4.4).
type SimplePolicyOptions struct {
	ResourceID string `json:"resourceId"`
	Action     string `json:"action"`
	Target     string `json:"target"`
	Effect     Effect `json:"effect,omitempty"`
}
