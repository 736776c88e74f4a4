// Package evaluator implements the policy-precedence algorithm (spec
// §4.3): soft-delete gate, then resource policies before user
// policies, deny-overrides-allow, default-deny. It performs no I/O and
// is pure and re-entrant — safe to call from many workers concurrently
// (spec §5).
package evaluator

import (
	"fmt"

	"github.com/docaccess/authz-core/internal/ctxbuild"
	"github.com/docaccess/authz-core/internal/filter"
	"github.com/docaccess/authz-core/pkg/types"
)

// Inputs collects everything EvaluatePermission needs for one
// decision. The caller is responsible for fetching all of it from the
// store before calling in — the evaluator never fetches on its own.
type Inputs struct {
	User              *types.User
	Document          *types.Document
	Permission        types.Permission
	ResourcePolicy    *types.ResourcePolicyDocument
	UserPolicy        *types.UserPolicyDocument
	Team              *types.Team
	Project           *types.Project
	TeamMembership    *types.TeamMembership
	ProjectMembership *types.ProjectMembership
}

// EvaluatePermission runs the full precedence algorithm and returns a
// decision. It never fails for domain reasons: a malformed or absent
// policy simply fails to match (spec §4.3 Failure semantics).
func EvaluatePermission(in Inputs) types.Decision {
	if in.Document.IsDeleted() {
		return types.Decision{
			Allowed:         false,
			Message:         "Deny: Document is deleted",
			MatchedPolicies: []string{},
		}
	}

	ctx := ctxbuild.Assemble(ctxbuild.Inputs{
		User:              in.User,
		Document:          in.Document,
		Team:              in.Team,
		Project:           in.Project,
		TeamMembership:    in.TeamMembership,
		ProjectMembership: in.ProjectMembership,
	})

	var allowList, denyList []string

	if in.ResourcePolicy != nil {
		collect(in.ResourcePolicy.Policies, "resource", in.Permission, ctx, &allowList, &denyList)
	}
	if in.UserPolicy != nil {
		collectUser(in.UserPolicy.Policies, in.Permission, ctx, &allowList, &denyList)
	}

	if len(denyList) > 0 {
		return types.Decision{Allowed: false, Message: "Deny", MatchedPolicies: denyList}
	}
	if len(allowList) > 0 {
		return types.Decision{Allowed: true, Message: "Allow", MatchedPolicies: allowList}
	}
	return types.Decision{
		Allowed:         false,
		Message:         "Deny: No matching policy found",
		MatchedPolicies: []string{},
	}
}

func collect(policies []types.ResourcePolicy, source string, permission types.Permission, ctx types.Context, allowList, denyList *[]string) {
	for i, p := range policies {
		if !hasPermission(p.Permissions, permission) {
			continue
		}
		if len(p.Filter) > 0 && !filter.EvaluateAll(p.Filter, ctx) {
			continue
		}
		name := policyName(p.Description, source, i)
		if p.Effect == types.EffectDeny {
			*denyList = append(*denyList, name)
		} else {
			*allowList = append(*allowList, name)
		}
	}
}

func collectUser(policies []types.UserPolicy, permission types.Permission, ctx types.Context, allowList, denyList *[]string) {
	for i, p := range policies {
		if !hasPermission(p.Permissions, permission) {
			continue
		}
		if len(p.Filter) > 0 && !filter.EvaluateAll(p.Filter, ctx) {
			continue
		}
		name := policyName(p.Description, "user", i)
		if p.Effect == types.EffectDeny {
			*denyList = append(*denyList, name)
		} else {
			*allowList = append(*allowList, name)
		}
	}
}

func hasPermission(perms []types.Permission, want types.Permission) bool {
	for _, p := range perms {
		if p == want {
			return true
		}
	}
	return false
}

func policyName(description, source string, index int) string {
	if description != "" {
		return description
	}
	return fmt.Sprintf("%s_policy_%d", source, index)
}
