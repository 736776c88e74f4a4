// Package authzsvc orchestrates one permission check or policy write:
// parse the resource URN, pull every entity the evaluator needs from
// the Store, and turn store-absence of a required entity into a
// NotFound apperr. It is the one place store lookups, the evaluator,
// metrics, and audit logging are wired together; everything below it
// stays pure and I/O-free (spec §6).
package authzsvc

import (
	"context"
	"time"

	"github.com/docaccess/authz-core/internal/apperr"
	"github.com/docaccess/authz-core/internal/audit"
	"github.com/docaccess/authz-core/internal/evaluator"
	"github.com/docaccess/authz-core/internal/metrics"
	"github.com/docaccess/authz-core/internal/policydoc"
	"github.com/docaccess/authz-core/internal/store"
	"github.com/docaccess/authz-core/internal/urn"
	"github.com/docaccess/authz-core/pkg/types"
)

// Service is the entry point the transport layer (internal/api) calls.
type Service struct {
	store   store.Store
	lock    store.ResourceLock
	metrics *metrics.Metrics
	audit   audit.Logger
	lockTTL time.Duration
}

func New(st store.Store, lock store.ResourceLock, m *metrics.Metrics, auditLogger audit.Logger, lockTTL time.Duration) *Service {
	if auditLogger == nil {
		auditLogger = audit.NoopLogger{}
	}
	return &Service{store: st, lock: lock, metrics: m, audit: auditLogger, lockTTL: lockTTL}
}

// CheckResult is the Decision API response (spec §6): the decision
// itself plus how long the evaluation took.
type CheckResult struct {
	types.Decision
	EvaluationTimeMs float64
}

// Check runs the Decision API for one (resourceId, userId, action).
func (s *Service) Check(ctx context.Context, resourceID, userID string, permission types.Permission) (CheckResult, error) {
	start := time.Now()

	if !permission.Valid() {
		return CheckResult{}, apperr.Validation("unrecognized permission %q", permission)
	}
	resourceURN, err := urn.Parse(resourceID)
	if err != nil {
		return CheckResult{}, apperr.Validation("%v", err)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		s.recordStoreError("get_user")
		return CheckResult{}, err
	}
	if user == nil {
		return CheckResult{}, apperr.NotFound("user", "user %s does not exist", userID)
	}

	doc, err := s.store.GetDocument(ctx, resourceURN.DocID)
	if err != nil {
		s.recordStoreError("get_document")
		return CheckResult{}, err
	}
	if doc == nil {
		return CheckResult{}, apperr.NotFound("document", "document %s does not exist", resourceURN.DocID)
	}

	resourcePolicy, err := s.store.GetResourcePolicy(ctx, resourceID)
	if err != nil {
		s.recordStoreError("get_resource_policy")
		return CheckResult{}, err
	}
	if resourcePolicy == nil {
		return CheckResult{}, apperr.NotFound("resource_policy", "no policy document for resource %s", resourceID)
	}

	userPolicy, err := s.store.GetUserPolicy(ctx, userID)
	if err != nil {
		s.recordStoreError("get_user_policy")
		return CheckResult{}, err
	}

	team, project, teamMembership, projectMembership, err := s.optionalHierarchy(ctx, userID, doc.ProjectID)
	if err != nil {
		return CheckResult{}, err
	}

	decision := evaluator.EvaluatePermission(evaluator.Inputs{
		User:              user,
		Document:          doc,
		Permission:        permission,
		ResourcePolicy:    resourcePolicy,
		UserPolicy:        userPolicy,
		Team:              team,
		Project:           project,
		TeamMembership:    teamMembership,
		ProjectMembership: projectMembership,
	})

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordDecision(string(decisionEffect(decision.Allowed)), elapsed)
	}
	s.audit.LogDecision(audit.DecisionEvent{
		Timestamp:       start,
		UserID:          userID,
		ResourceID:      resourceID,
		Permission:      string(permission),
		Allowed:         decision.Allowed,
		Message:         decision.Message,
		MatchedPolicies: decision.MatchedPolicies,
		DurationMicros:  elapsed.Microseconds(),
	})

	return CheckResult{Decision: decision, EvaluationTimeMs: float64(elapsed.Microseconds()) / 1000.0}, nil
}

// optionalHierarchy fetches the team/project context an evaluator
// filter might reference. Unlike user/document/resource-policy, these
// are genuinely optional (spec §4.1) — their absence is not an error.
func (s *Service) optionalHierarchy(ctx context.Context, userID, projectID string) (*types.Team, *types.Project, *types.TeamMembership, *types.ProjectMembership, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		s.recordStoreError("get_project")
		return nil, nil, nil, nil, err
	}

	var team *types.Team
	var teamMembership *types.TeamMembership
	if project != nil {
		team, err = s.store.GetTeam(ctx, project.TeamID)
		if err != nil {
			s.recordStoreError("get_team")
			return nil, nil, nil, nil, err
		}
		teamMembership, err = s.store.GetTeamMembership(ctx, userID, project.TeamID)
		if err != nil {
			s.recordStoreError("get_team_membership")
			return nil, nil, nil, nil, err
		}
	}

	projectMembership, err := s.store.GetProjectMembership(ctx, userID, projectID)
	if err != nil {
		s.recordStoreError("get_project_membership")
		return nil, nil, nil, nil, err
	}

	return team, project, teamMembership, projectMembership, nil
}

// PutResourcePolicy replaces (spec §9, "replace" resolution of the
// merge-vs-replace open question) the document for resourceID.
func (s *Service) PutResourcePolicy(ctx context.Context, doc *types.ResourcePolicyDocument) error {
	if err := policydoc.ValidateResourcePolicyDocument(doc); err != nil {
		return err
	}
	if err := s.store.SaveResourcePolicy(ctx, doc); err != nil {
		s.recordStoreError("save_resource_policy")
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordPolicySave("resource")
	}
	return nil
}

// MergeResourcePolicy reads the current document, appends newDoc's
// policies (policydoc.Merge), and writes the result back — guarded by
// a distributed lock so two concurrent callers against different
// authzd processes can't interleave a read and a write (spec §9).
func (s *Service) MergeResourcePolicy(ctx context.Context, newDoc *types.ResourcePolicyDocument) error {
	if err := policydoc.ValidateResourcePolicyDocument(newDoc); err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		existing, err := s.store.GetResourcePolicy(ctx, newDoc.Resource.ResourceID)
		if err != nil {
			s.recordStoreError("get_resource_policy")
			return err
		}
		merged := policydoc.Merge(existing, newDoc)
		if err := s.store.SaveResourcePolicy(ctx, merged); err != nil {
			s.recordStoreError("save_resource_policy")
			return err
		}
		if s.metrics != nil {
			s.metrics.RecordPolicySave("resource")
		}
		return nil
	}

	if s.lock == nil {
		return run(ctx)
	}
	return store.WithResourceLock(ctx, s.lock, store.LockKeyForResource(newDoc.Resource.ResourceID), s.lockTTL, run)
}

// GetResourcePolicy returns the stored document for resourceID, or
// (nil, nil) if none exists — the transport layer decides what a
// missing document means for its own response (spec §4.4).
func (s *Service) GetResourcePolicy(ctx context.Context, resourceID string) (*types.ResourcePolicyDocument, error) {
	doc, err := s.store.GetResourcePolicy(ctx, resourceID)
	if err != nil {
		s.recordStoreError("get_resource_policy")
		return nil, err
	}
	return doc, nil
}

// PutUserPolicy replaces the document for userID.
func (s *Service) PutUserPolicy(ctx context.Context, userID string, doc *types.UserPolicyDocument) error {
	if err := policydoc.ValidateUserPolicyDocument(doc); err != nil {
		return err
	}
	if err := s.store.SaveUserPolicy(ctx, userID, doc); err != nil {
		s.recordStoreError("save_user_policy")
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordPolicySave("user")
	}
	return nil
}

func (s *Service) recordStoreError(op string) {
	if s.metrics != nil {
		s.metrics.RecordStoreError(op)
	}
}

func decisionEffect(allowed bool) types.Effect {
	if allowed {
		return types.EffectAllow
	}
	return types.EffectDeny
}
