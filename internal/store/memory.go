package store

import (
	"context"
	"sync"
	"time"

	"github.com/docaccess/authz-core/pkg/types"
)

// MemoryStore is an in-memory Store, grounded in the same
// map-plus-RWMutex shape the teacher uses for its in-memory policy
// index. It is the reference implementation exercised by the
// service, API and store test suites, and doubles as an embeddable
// store for single-process deployments.
type MemoryStore struct {
	mu                 sync.RWMutex
	users              map[string]*types.User
	teams              map[string]*types.Team
	projects           map[string]*types.Project
	documents          map[string]*types.Document
	teamMemberships    map[string]*types.TeamMembership    // key: userID + "/" + teamID
	projectMemberships map[string]*types.ProjectMembership // key: userID + "/" + projectID
	resourcePolicies   map[string]*types.ResourcePolicyDocument
	userPolicies       map[string]*types.UserPolicyDocument
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:              make(map[string]*types.User),
		teams:              make(map[string]*types.Team),
		projects:           make(map[string]*types.Project),
		documents:          make(map[string]*types.Document),
		teamMemberships:    make(map[string]*types.TeamMembership),
		projectMemberships: make(map[string]*types.ProjectMembership),
		resourcePolicies:   make(map[string]*types.ResourcePolicyDocument),
		userPolicies:       make(map[string]*types.UserPolicyDocument),
	}
}

func membershipKey(a, b string) string { return a + "/" + b }

// Seeding helpers (test/bootstrap use only — not part of the Store
// capability contract, which is read/upsert-only for entities).

func (s *MemoryStore) PutUser(u *types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) PutTeam(t *types.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t
}

func (s *MemoryStore) PutProject(p *types.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
}

func (s *MemoryStore) PutDocument(d *types.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[d.ID] = d
}

func (s *MemoryStore) PutTeamMembership(m *types.TeamMembership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamMemberships[membershipKey(m.UserID, m.TeamID)] = m
}

func (s *MemoryStore) PutProjectMembership(m *types.ProjectMembership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectMemberships[membershipKey(m.UserID, m.ProjectID)] = m
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id], nil
}

func (s *MemoryStore) GetTeam(_ context.Context, id string) (*types.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teams[id], nil
}

func (s *MemoryStore) GetProject(_ context.Context, id string) (*types.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[id], nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents[id], nil
}

func (s *MemoryStore) GetTeamMembership(_ context.Context, userID, teamID string) (*types.TeamMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teamMemberships[membershipKey(userID, teamID)], nil
}

func (s *MemoryStore) GetProjectMembership(_ context.Context, userID, projectID string) (*types.ProjectMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectMemberships[membershipKey(userID, projectID)], nil
}

func (s *MemoryStore) GetResourcePolicy(_ context.Context, resourceID string) (*types.ResourcePolicyDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resourcePolicies[resourceID], nil
}

// SaveResourcePolicy upserts under the write lock, so a concurrent
// reader never observes a torn document (spec §5).
func (s *MemoryStore) SaveResourcePolicy(_ context.Context, doc *types.ResourcePolicyDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.resourcePolicies[doc.Resource.ResourceID]; ok {
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	stored := *doc
	s.resourcePolicies[doc.Resource.ResourceID] = &stored
	return nil
}

func (s *MemoryStore) GetUserPolicy(_ context.Context, userID string) (*types.UserPolicyDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userPolicies[userID], nil
}

func (s *MemoryStore) SaveUserPolicy(_ context.Context, userID string, doc *types.UserPolicyDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.userPolicies[userID]; ok {
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	stored := *doc
	s.userPolicies[userID] = &stored
	return nil
}
