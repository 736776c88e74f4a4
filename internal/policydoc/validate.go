// Package policydoc implements the policy-document schema, the
// simple-form-to-full-document upconversion, the canned bootstrap
// policy constructors, and document merge (spec §4.4).
package policydoc

import (
	"github.com/docaccess/authz-core/internal/apperr"
	"github.com/docaccess/authz-core/internal/urn"
	"github.com/docaccess/authz-core/pkg/types"
)

// ValidateResourcePolicyDocument enforces spec invariants 2–4: the
// resource URN must parse, and every policy must declare at least one
// permission, a valid effect, and (if present) well-formed filters.
func ValidateResourcePolicyDocument(doc *types.ResourcePolicyDocument) error {
	if doc == nil {
		return apperr.Validation("resource policy document is required")
	}
	if _, err := urn.Parse(doc.Resource.ResourceID); err != nil {
		return apperr.Validation("resource.resourceId: %v", err)
	}
	for i, p := range doc.Policies {
		if err := validatePermissionsAndEffect(p.Permissions, p.Effect); err != nil {
			return apperr.Validation("policies[%d]: %v", i, err)
		}
		if err := validateFilters(p.Filter); err != nil {
			return apperr.Validation("policies[%d]: %v", i, err)
		}
	}
	return nil
}

// ValidateUserPolicyDocument enforces the same per-policy rules as
// ValidateResourcePolicyDocument, minus the URN check (a user policy
// document carries no resource).
func ValidateUserPolicyDocument(doc *types.UserPolicyDocument) error {
	if doc == nil {
		return apperr.Validation("user policy document is required")
	}
	for i, p := range doc.Policies {
		if err := validatePermissionsAndEffect(p.Permissions, p.Effect); err != nil {
			return apperr.Validation("policies[%d]: %v", i, err)
		}
		if err := validateFilters(p.Filter); err != nil {
			return apperr.Validation("policies[%d]: %v", i, err)
		}
	}
	return nil
}

func validatePermissionsAndEffect(perms []types.Permission, effect types.Effect) error {
	if len(perms) == 0 {
		return apperr.Validation("permissions must be non-empty")
	}
	for _, p := range perms {
		if !p.Valid() {
			return apperr.Validation("unknown permission %q", p)
		}
	}
	if !effect.Valid() {
		return apperr.Validation("unknown effect %q", effect)
	}
	return nil
}

func validateFilters(filters []types.Filter) error {
	for i, f := range filters {
		if f.Prop == "" {
			return apperr.Validation("filter[%d]: prop is required", i)
		}
		if !f.Op.Valid() {
			return apperr.Validation("filter[%d]: unknown operator %q", i, f.Op)
		}
	}
	return nil
}
