package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordDecision(t *testing.T) {
	m := New("authz_test")

	m.RecordDecision("allow", 5*time.Microsecond)
	m.RecordDecision("allow", 10*time.Microsecond)
	m.RecordDecision("deny", 3*time.Microsecond)

	body := scrape(t, m)
	assert.Contains(t, body, `authz_test_decisions_total{effect="allow"} 2`)
	assert.Contains(t, body, `authz_test_decisions_total{effect="deny"} 1`)
	assert.Contains(t, body, "authz_test_decision_duration_microseconds")
}

func TestMetrics_RecordPolicySave(t *testing.T) {
	m := New("authz_test")

	m.RecordPolicySave("resource")
	m.RecordPolicySave("resource")
	m.RecordPolicySave("user")

	body := scrape(t, m)
	assert.Contains(t, body, `authz_test_policy_saves_total{kind="resource"} 2`)
	assert.Contains(t, body, `authz_test_policy_saves_total{kind="user"} 1`)
}

func TestMetrics_RecordStoreError(t *testing.T) {
	m := New("authz_test")

	m.RecordStoreError("get_resource_policy")
	m.RecordStoreError("get_resource_policy")

	body := scrape(t, m)
	assert.Contains(t, body, `authz_test_store_errors_total{operation="get_resource_policy"} 2`)
}

func TestMetrics_NamespaceIsolation(t *testing.T) {
	m1 := New("authz_prod")
	m2 := New("authz_test")

	m1.RecordDecision("allow", time.Microsecond)
	m2.RecordDecision("deny", time.Microsecond)

	body1 := scrape(t, m1)
	assert.Contains(t, body1, "authz_prod_decisions_total")
	assert.NotContains(t, body1, "authz_test_decisions_total")
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	handler := m.Handler()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}
