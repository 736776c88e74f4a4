package authzsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docaccess/authz-core/internal/apperr"
	"github.com/docaccess/authz-core/internal/store"
	"github.com/docaccess/authz-core/pkg/types"
)

func seedDoc(t *testing.T, st *store.MemoryStore, resourceID, docID, projectID, creatorID string) {
	t.Helper()
	st.PutDocument(&types.Document{ID: docID, ProjectID: projectID, CreatorID: creatorID})
}

func TestService_Check_AllowsOwner(t *testing.T) {
	st := store.NewMemoryStore()
	st.PutUser(&types.User{ID: "user_1"})
	seedDoc(t, st, "urn:resource:t1:p1:d1", "d1", "p1", "user_1")
	require.NoError(t, st.SaveResourcePolicy(context.Background(), &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: "urn:resource:t1:p1:d1", CreatorID: "user_1"},
		Policies: []types.ResourcePolicy{
			{
				Description: "owner_access",
				Permissions: []types.Permission{types.PermissionView, types.PermissionEdit},
				Effect:      types.EffectAllow,
				Filter:      []types.Filter{{Prop: "document.creatorId", Op: types.OpEq, Value: "user.id"}},
			},
		},
	}))

	svc := New(st, nil, nil, nil, 0)
	result, err := svc.Check(context.Background(), "urn:resource:t1:p1:d1", "user_1", types.PermissionView)
	require.NoError(t, err)
	require.True(t, result.Allowed)
	require.Equal(t, []string{"owner_access"}, result.MatchedPolicies)
}

func TestService_Check_UnknownUserIsNotFound(t *testing.T) {
	st := store.NewMemoryStore()
	seedDoc(t, st, "urn:resource:t1:p1:d1", "d1", "p1", "user_1")
	require.NoError(t, st.SaveResourcePolicy(context.Background(), &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: "urn:resource:t1:p1:d1"},
	}))

	svc := New(st, nil, nil, nil, 0)
	_, err := svc.Check(context.Background(), "urn:resource:t1:p1:d1", "nobody", types.PermissionView)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestService_Check_MalformedURNIsValidationError(t *testing.T) {
	st := store.NewMemoryStore()
	svc := New(st, nil, nil, nil, 0)
	_, err := svc.Check(context.Background(), "not-a-urn", "user_1", types.PermissionView)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestService_Check_NoResourcePolicyIsNotFound(t *testing.T) {
	st := store.NewMemoryStore()
	st.PutUser(&types.User{ID: "user_1"})
	seedDoc(t, st, "urn:resource:t1:p1:d1", "d1", "p1", "user_1")

	svc := New(st, nil, nil, nil, 0)
	_, err := svc.Check(context.Background(), "urn:resource:t1:p1:d1", "user_1", types.PermissionView)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestService_PutResourcePolicy_RejectsInvalidDocument(t *testing.T) {
	st := store.NewMemoryStore()
	svc := New(st, nil, nil, nil, 0)
	err := svc.PutResourcePolicy(context.Background(), &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: "urn:resource:t1:p1:d1"},
		Policies: []types.ResourcePolicy{{Effect: "maybe"}},
	})
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestService_MergeResourcePolicy_AppendsToExisting(t *testing.T) {
	st := store.NewMemoryStore()
	resourceID := "urn:resource:t1:p1:d1"
	require.NoError(t, st.SaveResourcePolicy(context.Background(), &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: resourceID},
		Policies: []types.ResourcePolicy{
			{Description: "first", Permissions: []types.Permission{types.PermissionView}, Effect: types.EffectAllow},
		},
	}))

	svc := New(st, nil, nil, nil, time.Second)
	err := svc.MergeResourcePolicy(context.Background(), &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: resourceID},
		Policies: []types.ResourcePolicy{
			{Description: "second", Permissions: []types.Permission{types.PermissionEdit}, Effect: types.EffectAllow},
		},
	})
	require.NoError(t, err)

	merged, err := st.GetResourcePolicy(context.Background(), resourceID)
	require.NoError(t, err)
	require.Len(t, merged.Policies, 2)
	require.Equal(t, "first", merged.Policies[0].Description)
	require.Equal(t, "second", merged.Policies[1].Description)
}

func TestService_MergeResourcePolicy_UsesLockWhenConfigured(t *testing.T) {
	st := store.NewMemoryStore()
	resourceID := "urn:resource:t1:p1:d1"

	lock := &countingLock{}
	svc := New(st, lock, nil, nil, time.Second)
	err := svc.MergeResourcePolicy(context.Background(), &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: resourceID},
		Policies: []types.ResourcePolicy{
			{Permissions: []types.Permission{types.PermissionView}, Effect: types.EffectAllow},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, lock.acquired)
	require.Equal(t, 1, lock.released)
}

type countingLock struct {
	acquired int
	released int
}

func (l *countingLock) Lock(_ context.Context, _ string, _ time.Duration) (func(context.Context) error, error) {
	l.acquired++
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}
