package policydoc

import (
	"fmt"

	"github.com/docaccess/authz-core/pkg/types"
)

// UnknownCreator is the placeholder creator ID used when simple-form
// ingest carries no authenticated caller identity to thread through.
// See DESIGN.md "Open questions", creator_id in simple-form ingest: this
// repo keeps the source's lenient fallback rather than rejecting
// simple-form ingest outright, on the grounds that authentication of
// the caller is explicitly out of this system's scope (spec §1) — the
// simple form is a convenience for callers who already know who they
// are authorizing, not a substitute for an auth layer this code does
// not own.
const UnknownCreator = "unknown"

// Upconvert turns a simple policy options body into a full
// ResourcePolicyDocument with one generated policy (spec §4.4). If
// callerID is empty, the resource's creator is recorded as
// UnknownCreator.
func Upconvert(opts types.SimplePolicyOptions, callerID string) *types.ResourcePolicyDocument {
	creator := callerID
	if creator == "" {
		creator = UnknownCreator
	}

	effect := opts.Effect
	if effect == "" {
		effect = types.EffectAllow
	}

	return &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{
			ResourceID: opts.ResourceID,
			CreatorID:  creator,
		},
		Policies: []types.ResourcePolicy{
			{
				Description: fmt.Sprintf("Grant %s permission to user %s", opts.Action, opts.Target),
				Permissions: []types.Permission{types.Permission(opts.Action)},
				Effect:      effect,
				Filter: []types.Filter{
					{Prop: "user.id", Op: types.OpEq, Value: opts.Target},
				},
			},
		},
	}
}

var allPermissions = []types.Permission{
	types.PermissionView, types.PermissionEdit, types.PermissionDelete, types.PermissionShare,
}

// CreatorPolicy grants the document's creator every permission.
func CreatorPolicy(resourceID, creatorID string) *types.ResourcePolicyDocument {
	return &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: resourceID, CreatorID: creatorID},
		Policies: []types.ResourcePolicy{
			{
				Description: "Creator has full access",
				Permissions: allPermissions,
				Effect:      types.EffectAllow,
				Filter: []types.Filter{
					{Prop: "document.creatorId", Op: types.OpEq, Value: "user.id"},
				},
			},
		},
	}
}

// TeamAdminPolicy grants every permission to team admins.
func TeamAdminPolicy(resourceID, creatorID string) *types.ResourcePolicyDocument {
	return &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: resourceID, CreatorID: creatorID},
		Policies: []types.ResourcePolicy{
			{
				Description: "Team admins have full access",
				Permissions: allPermissions,
				Effect:      types.EffectAllow,
				Filter: []types.Filter{
					{Prop: "teamMembership.role", Op: types.OpEq, Value: string(types.RoleAdmin)},
				},
			},
		},
	}
}

// PublicViewPolicy grants view-only access when the document's public
// link is enabled.
func PublicViewPolicy(resourceID, creatorID string) *types.ResourcePolicyDocument {
	return &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: resourceID, CreatorID: creatorID},
		Policies: []types.ResourcePolicy{
			{
				Description: "Public link grants view access",
				Permissions: []types.Permission{types.PermissionView},
				Effect:      types.EffectAllow,
				Filter: []types.Filter{
					{Prop: "document.publicLinkEnabled", Op: types.OpEq, Value: true},
				},
			},
		},
	}
}

// Merge concatenates existing's policies with newDoc's, with newDoc's
// policies appended last. It never deduplicates — an auditor may
// legitimately want duplicate entries (spec §4.4) — so callers decide
// whether to Merge or simply overwrite via Store.SaveResourcePolicy.
// If existing is nil, newDoc is returned unchanged.
func Merge(existing, newDoc *types.ResourcePolicyDocument) *types.ResourcePolicyDocument {
	if existing == nil {
		return newDoc
	}
	merged := &types.ResourcePolicyDocument{
		Resource: existing.Resource,
		Policies: make([]types.ResourcePolicy, 0, len(existing.Policies)+len(newDoc.Policies)),
	}
	merged.Policies = append(merged.Policies, existing.Policies...)
	merged.Policies = append(merged.Policies, newDoc.Policies...)
	return merged
}
