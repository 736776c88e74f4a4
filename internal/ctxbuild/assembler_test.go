package ctxbuild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docaccess/authz-core/pkg/types"
)

func TestAssemble_OmitsAbsentEntitiesEntirely(t *testing.T) {
	ctx := Assemble(Inputs{
		User:     &types.User{ID: "user_1"},
		Document: &types.Document{ID: "doc_1"},
	})

	require.Contains(t, ctx, "user")
	require.Contains(t, ctx, "document")
	require.NotContains(t, ctx, "team")
	require.NotContains(t, ctx, "project")
	require.NotContains(t, ctx, "teamMembership")
	require.NotContains(t, ctx, "projectMembership")
}

func TestAssemble_DocumentDeletedAtPresentButNull(t *testing.T) {
	ctx := Assemble(Inputs{
		User:     &types.User{ID: "user_1"},
		Document: &types.Document{ID: "doc_1"},
	})

	doc := ctx["document"].(map[string]interface{})
	require.Contains(t, doc, "deletedAt")
	require.Nil(t, doc["deletedAt"])
}

func TestAssemble_DocumentDeletedAtSetWhenSoftDeleted(t *testing.T) {
	deletedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := Assemble(Inputs{
		User:     &types.User{ID: "user_1"},
		Document: &types.Document{ID: "doc_1", DeletedAt: &deletedAt},
	})

	doc := ctx["document"].(map[string]interface{})
	require.Equal(t, deletedAt, doc["deletedAt"])
}

func TestAssemble_IncludesFullHierarchyWhenPresent(t *testing.T) {
	ctx := Assemble(Inputs{
		User:              &types.User{ID: "user_1"},
		Document:          &types.Document{ID: "doc_1"},
		Team:              &types.Team{ID: "team_1", Plan: types.PlanFree},
		Project:           &types.Project{ID: "proj_1", Visibility: types.VisibilityPrivate},
		TeamMembership:    &types.TeamMembership{UserID: "user_1", TeamID: "team_1", Role: types.RoleAdmin},
		ProjectMembership: &types.ProjectMembership{UserID: "user_1", ProjectID: "proj_1", Role: types.RoleEditor},
	})

	require.Equal(t, "free", ctx["team"].(map[string]interface{})["plan"])
	require.Equal(t, "private", ctx["project"].(map[string]interface{})["visibility"])
	require.Equal(t, "admin", ctx["teamMembership"].(map[string]interface{})["role"])
	require.Equal(t, "editor", ctx["projectMembership"].(map[string]interface{})["role"])
}
