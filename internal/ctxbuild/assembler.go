// Package ctxbuild materializes the nested evaluation context the
// Filter Engine reads, out of the typed entities a Store returns
// (spec §4.1). It is pure and holds no state, safe for concurrent use
// across many requests (spec §5).
package ctxbuild

import "github.com/docaccess/authz-core/pkg/types"

// Inputs collects the entities available for one decision. Fields
// other than User and Document are optional: the caller leaves them
// nil when the store has nothing to report, and Assemble omits the
// corresponding top-level key entirely rather than emitting a
// present-but-empty map.
type Inputs struct {
	User              *types.User
	Document          *types.Document
	Team              *types.Team
	Project           *types.Project
	TeamMembership    *types.TeamMembership
	ProjectMembership *types.ProjectMembership
}

// Assemble builds the evaluation context for one decision.
func Assemble(in Inputs) types.Context {
	ctx := types.Context{}

	if in.User != nil {
		ctx["user"] = map[string]interface{}{
			"id":    in.User.ID,
			"email": in.User.Email,
			"name":  in.User.Name,
		}
	}

	if in.Document != nil {
		var deletedAt interface{}
		if in.Document.DeletedAt != nil {
			deletedAt = *in.Document.DeletedAt
		}
		ctx["document"] = map[string]interface{}{
			"id":                in.Document.ID,
			"title":             in.Document.Title,
			"projectId":         in.Document.ProjectID,
			"creatorId":         in.Document.CreatorID,
			"deletedAt":         deletedAt,
			"publicLinkEnabled": in.Document.PublicLinkEnabled,
		}
	}

	if in.Team != nil {
		ctx["team"] = map[string]interface{}{
			"id":   in.Team.ID,
			"name": in.Team.Name,
			"plan": string(in.Team.Plan),
		}
	}

	if in.Project != nil {
		ctx["project"] = map[string]interface{}{
			"id":         in.Project.ID,
			"name":       in.Project.Name,
			"teamId":     in.Project.TeamID,
			"visibility": string(in.Project.Visibility),
		}
	}

	if in.TeamMembership != nil {
		ctx["teamMembership"] = map[string]interface{}{
			"userId": in.TeamMembership.UserID,
			"teamId": in.TeamMembership.TeamID,
			"role":   string(in.TeamMembership.Role),
		}
	}

	if in.ProjectMembership != nil {
		ctx["projectMembership"] = map[string]interface{}{
			"userId":    in.ProjectMembership.UserID,
			"projectId": in.ProjectMembership.ProjectID,
			"role":      string(in.ProjectMembership.Role),
		}
	}

	return ctx
}
