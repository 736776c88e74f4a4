package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/docaccess/authz-core/internal/authzsvc"
	"github.com/docaccess/authz-core/internal/store"
	"github.com/docaccess/authz-core/pkg/types"
)

func newTestRouter(svc *authzsvc.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc, nil)
	h.RegisterRoutes(r.Group(""))
	return r
}

func TestHandler_Check_Allowed(t *testing.T) {
	st := store.NewMemoryStore()
	st.PutUser(&types.User{ID: "user_1"})
	st.PutDocument(&types.Document{ID: "d1", ProjectID: "p1", CreatorID: "user_1"})
	require.NoError(t, st.SaveResourcePolicy(context.Background(), &types.ResourcePolicyDocument{
		Resource: types.ResourceInfo{ResourceID: "urn:resource:t1:p1:d1", CreatorID: "user_1"},
		Policies: []types.ResourcePolicy{
			{
				Description: "owner_access",
				Permissions: []types.Permission{types.PermissionView},
				Effect:      types.EffectAllow,
				Filter:      []types.Filter{{Prop: "document.creatorId", Op: types.OpEq, Value: "user.id"}},
			},
		},
	}))

	svc := authzsvc.New(st, nil, nil, nil, 0)
	router := newTestRouter(svc)

	body, _ := json.Marshal(CheckRequest{ResourceID: "urn:resource:t1:p1:d1", UserID: "user_1", Action: types.PermissionView})
	req := httptest.NewRequest(http.MethodPost, "/v1/check", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Allowed)
}

func TestHandler_Check_UnknownUserReturnsNotFound(t *testing.T) {
	st := store.NewMemoryStore()
	svc := authzsvc.New(st, nil, nil, nil, 0)
	router := newTestRouter(svc)

	body, _ := json.Marshal(CheckRequest{ResourceID: "urn:resource:t1:p1:d1", UserID: "ghost", Action: types.PermissionView})
	req := httptest.NewRequest(http.MethodPost, "/v1/check", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Check_MissingFieldReturnsBadRequest(t *testing.T) {
	st := store.NewMemoryStore()
	svc := authzsvc.New(st, nil, nil, nil, 0)
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/check", bytes.NewReader([]byte(`{"resourceId":"x"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_PutResourcePolicy_SimpleForm(t *testing.T) {
	st := store.NewMemoryStore()
	svc := authzsvc.New(st, nil, nil, nil, 0)
	router := newTestRouter(svc)

	body := []byte(`{"resourceId":"urn:resource:t1:p1:d1","action":"can_view","target":"user.id","effect":"allow"}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/resource-policies", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := st.GetResourcePolicy(context.Background(), "urn:resource:t1:p1:d1")
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestHandler_GetResourcePolicy_NotFound(t *testing.T) {
	st := store.NewMemoryStore()
	svc := authzsvc.New(st, nil, nil, nil, 0)
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/resource-policies/urn:resource:t1:p1:d1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PutUserPolicy(t *testing.T) {
	st := store.NewMemoryStore()
	svc := authzsvc.New(st, nil, nil, nil, 0)
	router := newTestRouter(svc)

	body := []byte(`{"policies":[{"permissions":["can_view"],"effect":"allow"}]}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/user-policies/user_1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := st.GetUserPolicy(context.Background(), "user_1")
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestHandler_PutUserPolicy_RejectsUnknownFields(t *testing.T) {
	st := store.NewMemoryStore()
	svc := authzsvc.New(st, nil, nil, nil, 0)
	router := newTestRouter(svc)

	body := []byte(`{"policies":[{"permissions":["can_view"],"effect":"allow","filtr":[]}]}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/user-policies/user_1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
