package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/docaccess/authz-core/internal/apperr"
	"github.com/docaccess/authz-core/pkg/types"
)

// PostgresStore is the production Store backing, grounded in the
// teacher's lib/pq + database/sql usage (internal/db). Entities are
// read-only reference tables owned by the wider application; policy
// documents are stored as JSONB and upserted with a single
// INSERT ... ON CONFLICT statement, which is the atomic primitive
// spec §9 requires in place of a racy check-then-write.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-open *sql.DB. Running migrations
// is the caller's responsibility (see internal/store/migrations).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	var u types.User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, name FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name)
	return singleRow(&u, err)
}

func (s *PostgresStore) GetTeam(ctx context.Context, id string) (*types.Team, error) {
	var t types.Team
	err := s.db.QueryRowContext(ctx, `SELECT id, name, plan FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Plan)
	return singleRow(&t, err)
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*types.Project, error) {
	var p types.Project
	err := s.db.QueryRowContext(ctx, `SELECT id, name, team_id, visibility FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.TeamID, &p.Visibility)
	return singleRow(&p, err)
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	var d types.Document
	var deletedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, project_id, creator_id, deleted_at, public_link_enabled FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.Title, &d.ProjectID, &d.CreatorID, &deletedAt, &d.PublicLinkEnabled)
	if err != nil {
		return singleRow(&d, err)
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		d.DeletedAt = &t
	}
	return &d, nil
}

func (s *PostgresStore) GetTeamMembership(ctx context.Context, userID, teamID string) (*types.TeamMembership, error) {
	var m types.TeamMembership
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, team_id, role FROM team_memberships WHERE user_id = $1 AND team_id = $2`, userID, teamID).
		Scan(&m.UserID, &m.TeamID, &m.Role)
	return singleRow(&m, err)
}

func (s *PostgresStore) GetProjectMembership(ctx context.Context, userID, projectID string) (*types.ProjectMembership, error) {
	var m types.ProjectMembership
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, project_id, role FROM project_memberships WHERE user_id = $1 AND project_id = $2`, userID, projectID).
		Scan(&m.UserID, &m.ProjectID, &m.Role)
	return singleRow(&m, err)
}

func (s *PostgresStore) GetResourcePolicy(ctx context.Context, resourceID string) (*types.ResourcePolicyDocument, error) {
	var raw []byte
	var createdAt, updatedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT document, created_at, updated_at FROM resource_policies WHERE resource_id = $1`, resourceID).
		Scan(&raw, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(err, "get resource policy %s", resourceID)
	}

	var doc types.ResourcePolicyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.Store(err, "decode resource policy %s", resourceID)
	}
	doc.CreatedAt, doc.UpdatedAt = createdAt, updatedAt
	return &doc, nil
}

func (s *PostgresStore) SaveResourcePolicy(ctx context.Context, doc *types.ResourcePolicyDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return apperr.Internal("encode resource policy: %v", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resource_policies (resource_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (resource_id)
		DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`, doc.Resource.ResourceID, raw, now)
	if err != nil {
		return apperr.Store(err, "save resource policy %s", doc.Resource.ResourceID)
	}
	return nil
}

func (s *PostgresStore) GetUserPolicy(ctx context.Context, userID string) (*types.UserPolicyDocument, error) {
	var raw []byte
	var createdAt, updatedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT document, created_at, updated_at FROM user_policies WHERE user_id = $1`, userID).
		Scan(&raw, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(err, "get user policy %s", userID)
	}

	var doc types.UserPolicyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.Store(err, "decode user policy %s", userID)
	}
	doc.CreatedAt, doc.UpdatedAt = createdAt, updatedAt
	return &doc, nil
}

func (s *PostgresStore) SaveUserPolicy(ctx context.Context, userID string, doc *types.UserPolicyDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return apperr.Internal("encode user policy: %v", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_policies (user_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`, userID, raw, now)
	if err != nil {
		return apperr.Store(err, "save user policy %s", userID)
	}
	return nil
}

// singleRow normalizes sql.ErrNoRows into the store's (nil, nil)
// "absent" contract and everything else into a KindStore apperr.
func singleRow[T any](v *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(err, "query row")
	}
	return v, nil
}
