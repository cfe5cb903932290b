package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicyEmptyPathYieldsDefaults(t *testing.T) {
	policy, err := LoadPolicy("")
	require.NoError(t, err)

	assert.Equal(t, DefaultWarningFraction, policy.WarningFraction)
	assert.Equal(t, DefaultSweepIntervalMinutes, policy.SweepIntervalMinutes)

	claim, ok := policy.ForKind("CLAIM")
	require.True(t, ok)
	assert.Equal(t, 48.0, claim.SLAHours)
	assert.Equal(t, []string{"BUILDING_ADMIN", "ORG_ADMIN"}, claim.ApproverChain)
}

func TestLoadPolicyMissingFileYieldsDefaults(t *testing.T) {
	policy, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), policy)
}

func TestLoadPolicyMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `
warning_fraction: 0.3
request_types:
  CLAIM:
    sla_hours: 12
  FOUND_REPORT:
    sla_hours: 96
    approver_chain: [BUILDING_ADMIN]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 0.3, policy.WarningFraction)
	assert.Equal(t, DefaultSweepIntervalMinutes, policy.SweepIntervalMinutes, "unset value keeps default")

	claim, ok := policy.ForKind("CLAIM")
	require.True(t, ok)
	assert.Equal(t, 12.0, claim.SLAHours, "file overrides SLA hours")
	assert.Equal(t, []string{"BUILDING_ADMIN", "ORG_ADMIN"}, claim.ApproverChain, "omitted chain keeps default")

	extra, ok := policy.ForKind("FOUND_REPORT")
	require.True(t, ok, "new request types merge in")
	assert.Equal(t, 96.0, extra.SLAHours)

	_, ok = policy.ForKind("EVIDENCE")
	assert.True(t, ok, "untouched defaults survive the merge")
}

func TestLoadPolicyRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("request_types: ["), 0o600))

	_, err := LoadPolicy(path)
	assert.Error(t, err)
}

func TestSweepInterval(t *testing.T) {
	policy := DefaultPolicy()
	assert.Equal(t, "15m0s", policy.SweepInterval().String())
}
