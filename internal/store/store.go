// Package store defines the narrow capability the evaluator and
// builder layers use to reach durable state (spec §4.4, §6), plus two
// implementations: an in-memory store for tests and embedding, and a
// Postgres-backed store for production.
//
// Every Get* method returns (nil, nil) for "the entity does not
// exist" — a store-level absence is not itself an error, it is a fact
// the caller (internal/authzsvc) turns into a NotFound apperr only
// when the entity was required for the request at hand. A non-nil
// error is a KindStore transport/IO failure, except that
// PostgresStore's Save* methods return KindInternal for a document
// they cannot encode.
package store

import (
	"context"

	"github.com/docaccess/authz-core/pkg/types"
)

// Store is the capability contract the core consumes. Concrete
// backing (relational or otherwise) is opaque to every other package.
type Store interface {
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetTeam(ctx context.Context, id string) (*types.Team, error)
	GetProject(ctx context.Context, id string) (*types.Project, error)
	GetDocument(ctx context.Context, id string) (*types.Document, error)
	GetTeamMembership(ctx context.Context, userID, teamID string) (*types.TeamMembership, error)
	GetProjectMembership(ctx context.Context, userID, projectID string) (*types.ProjectMembership, error)

	// GetResourcePolicy returns the document keyed by resourceID, or
	// (nil, nil) if none has been saved.
	GetResourcePolicy(ctx context.Context, resourceID string) (*types.ResourcePolicyDocument, error)
	// SaveResourcePolicy upserts doc keyed by doc.Resource.ResourceID,
	// fully replacing any prior document under that key. Implementations
	// must perform this atomically (spec §5, §9) — no caller-visible
	// window where a concurrent reader observes a torn document.
	SaveResourcePolicy(ctx context.Context, doc *types.ResourcePolicyDocument) error

	// GetUserPolicy returns the document keyed by userID, or (nil, nil)
	// if none has been saved.
	GetUserPolicy(ctx context.Context, userID string) (*types.UserPolicyDocument, error)
	// SaveUserPolicy upserts doc keyed by userID with the same
	// replace-and-atomicity semantics as SaveResourcePolicy.
	SaveUserPolicy(ctx context.Context, userID string, doc *types.UserPolicyDocument) error
}
