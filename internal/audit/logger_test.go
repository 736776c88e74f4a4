package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestZapLogger_WritesJSONLineToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decisions.log")

	logger, err := NewZapLogger(&FileConfig{Path: path, MaxSizeMB: 10, MaxAgeDays: 1, MaxBackups: 1})
	require.NoError(t, err)

	ev := DecisionEvent{
		Timestamp:       time.Now(),
		UserID:          "user_1",
		ResourceID:      "urn:resource:t:p:d",
		Permission:      "can_view",
		Allowed:         true,
		Message:         "Allow: resource policy owner_access",
		MatchedPolicies: []string{"owner_access"},
		DurationMicros:  42,
	}
	logger.LogDecision(ev)
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "user_1", decoded["user_id"])
	require.Equal(t, "urn:resource:t:p:d", decoded["resource_id"])
	require.Equal(t, true, decoded["allowed"])
	require.Equal(t, []interface{}{"owner_access"}, decoded["matched_policies"])
}

func TestNoopLogger_NeverPanics(t *testing.T) {
	var l NoopLogger
	l.LogDecision(DecisionEvent{})
	require.NoError(t, l.Sync())
}
