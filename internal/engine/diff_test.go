package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func groupSnippet(policy map[string]any, props map[string]any) map[string]any {
	if props == nil {
		props = map[string]any{
			"AvailabilityZones":       []any{"us-east-1a"},
			"LaunchConfigurationName": "web-launch-config",
			"MinSize":                 "10",
			"MaxSize":                 "20",
		}
	}
	snippet := map[string]any{
		KeyType:       "AWS::AutoScaling::AutoScalingGroup",
		KeyProperties: props,
	}
	if policy != nil {
		snippet[KeyUpdatePolicy] = policy
	}
	return snippet
}

func rollingPolicy(minInService, batchSize, pause string) map[string]any {
	return map[string]any{
		PolicyKeyRollingUpdate: map[string]any{
			"MinInstancesInService": minInService,
			"MaxBatchSize":          batchSize,
			"PauseTime":             pause,
		},
	}
}

func TestDiffIdentical(t *testing.T) {
	a := groupSnippet(rollingPolicy("1", "2", "PT1S"), nil)
	b := groupSnippet(rollingPolicy("1", "2", "PT1S"), nil)

	cls := Diff(a, b)
	assert.Equal(t, NoChange, cls.Kind)
	assert.Empty(t, cls.ChangedKeys)
}

func TestDiffPolicyAdded(t *testing.T) {
	cls := Diff(groupSnippet(nil, nil), groupSnippet(rollingPolicy("1", "2", "PT1S"), nil))
	assert.Equal(t, PolicyOnly, cls.Kind)
	assert.Equal(t, []string{KeyUpdatePolicy}, cls.ChangedKeys)
}

func TestDiffPolicyRemoved(t *testing.T) {
	cls := Diff(groupSnippet(rollingPolicy("1", "2", "PT1S"), nil), groupSnippet(nil, nil))
	assert.Equal(t, PolicyOnly, cls.Kind)
	assert.Equal(t, []string{KeyUpdatePolicy}, cls.ChangedKeys)
}

func TestDiffPolicySubFieldUpdated(t *testing.T) {
	// a change anywhere inside the policy reports only the owning
	// top-level key
	cls := Diff(
		groupSnippet(rollingPolicy("1", "2", "PT1S"), nil),
		groupSnippet(rollingPolicy("2", "4", "PT1M30S"), nil),
	)
	assert.Equal(t, PolicyOnly, cls.Kind)
	assert.Equal(t, []string{KeyUpdatePolicy}, cls.ChangedKeys)
}

func TestDiffPropertiesChanged(t *testing.T) {
	updatedProps := map[string]any{
		"AvailabilityZones":       []any{"us-east-1a"},
		"LaunchConfigurationName": "web-launch-config-v2",
		"MinSize":                 "10",
		"MaxSize":                 "20",
	}

	cls := Diff(
		groupSnippet(rollingPolicy("1", "2", "PT1S"), nil),
		groupSnippet(rollingPolicy("1", "2", "PT1S"), updatedProps),
	)
	assert.Equal(t, PropertiesChanged, cls.Kind)
	assert.Equal(t, []string{KeyProperties}, cls.ChangedKeys)
	assert.True(t, cls.Changed(KeyProperties))
	assert.False(t, cls.Changed(KeyUpdatePolicy))
}

func TestDiffPropertiesAndPolicyChanged(t *testing.T) {
	updatedProps := map[string]any{
		"AvailabilityZones":       []any{"us-east-1a"},
		"LaunchConfigurationName": "web-launch-config-v2",
		"MinSize":                 "12",
		"MaxSize":                 "20",
	}

	cls := Diff(
		groupSnippet(rollingPolicy("1", "2", "PT1S"), nil),
		groupSnippet(rollingPolicy("2", "2", "PT14M"), updatedProps),
	)
	assert.Equal(t, PropertiesChanged, cls.Kind)
	assert.Equal(t, []string{KeyProperties, KeyUpdatePolicy}, cls.ChangedKeys)
}

func TestChangedKeysAddedAndRemoved(t *testing.T) {
	changed := ChangedKeys(
		map[string]any{"a": 1, "b": 2},
		map[string]any{"b": 3, "c": 4},
	)
	assert.Equal(t, []string{"a", "b", "c"}, changed)
}
