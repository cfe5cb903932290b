package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy defaults applied when the YAML file omits a value.
const (
	DefaultWarningFraction      = 0.2
	DefaultSweepIntervalMinutes = 15
)

// RequestPolicy describes how one request kind is routed: its SLA target
// and the ordered chain of approver roles it must pass through.
type RequestPolicy struct {
	SLAHours      float64  `yaml:"sla_hours"`
	ApproverChain []string `yaml:"approver_chain"`
}

// RoutingPolicy is the per-deployment routing configuration, keyed by
// request kind (CLAIM, EVIDENCE, TRANSFER, ...).
type RoutingPolicy struct {
	WarningFraction      float64                  `yaml:"warning_fraction"`
	SweepIntervalMinutes int                      `yaml:"sweep_interval_minutes"`
	RequestTypes         map[string]RequestPolicy `yaml:"request_types"`
}

// DefaultPolicy returns the compiled-in routing policy.
func DefaultPolicy() *RoutingPolicy {
	return &RoutingPolicy{
		WarningFraction:      DefaultWarningFraction,
		SweepIntervalMinutes: DefaultSweepIntervalMinutes,
		RequestTypes: map[string]RequestPolicy{
			"CLAIM": {
				SLAHours:      48,
				ApproverChain: []string{"BUILDING_ADMIN", "ORG_ADMIN"},
			},
			"EVIDENCE": {
				SLAHours:      24,
				ApproverChain: []string{"POLICE_LIAISON"},
			},
			"TRANSFER": {
				SLAHours:      72,
				ApproverChain: []string{"BUILDING_ADMIN", "SECURITY_OFFICER"},
			},
		},
	}
}

// LoadPolicy reads the routing policy at path and merges it over the
// compiled-in defaults. An empty path or a missing file yields the
// defaults; a file that exists but fails to parse is an error.
func LoadPolicy(path string) (*RoutingPolicy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return policy, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read routing policy %s: %w", path, err)
	}

	var file RoutingPolicy
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse routing policy %s: %w", path, err)
	}

	if file.WarningFraction > 0 {
		policy.WarningFraction = file.WarningFraction
	}
	if file.SweepIntervalMinutes > 0 {
		policy.SweepIntervalMinutes = file.SweepIntervalMinutes
	}
	for kind, rp := range file.RequestTypes {
		merged := policy.RequestTypes[kind]
		if rp.SLAHours > 0 {
			merged.SLAHours = rp.SLAHours
		}
		if len(rp.ApproverChain) > 0 {
			merged.ApproverChain = rp.ApproverChain
		}
		policy.RequestTypes[kind] = merged
	}

	return policy, nil
}

// ForKind returns the policy entry for a request kind.
func (p *RoutingPolicy) ForKind(kind string) (RequestPolicy, bool) {
	rp, ok := p.RequestTypes[kind]
	return rp, ok
}

// SweepInterval returns the SLA sweep period as a duration.
func (p *RoutingPolicy) SweepInterval() time.Duration {
	return time.Duration(p.SweepIntervalMinutes) * time.Minute
}
