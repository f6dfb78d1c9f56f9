package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicyAbsent(t *testing.T) {
	p, err := ParsePolicy(nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestParsePolicyEmptyBodyDefaults(t *testing.T) {
	// an empty rolling-update body is meaningful: rolling updates are
	// enabled with all defaults
	for _, body := range []any{map[string]any{}, nil} {
		p, err := ParsePolicy(map[string]any{PolicyKeyRollingUpdate: body})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 0, p.MinInstancesInService)
		assert.Equal(t, 1, p.MaxBatchSize)
		assert.Equal(t, time.Duration(0), p.PauseTime)
	}
}

func TestParsePolicyUnknownKey(t *testing.T) {
	_, err := ParsePolicy(map[string]any{"foo": map[string]any{}})
	require.Error(t, err)

	var kerr *UnknownPolicyKeyError
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, "foo", kerr.Key)
	assert.Contains(t, err.Error(), "foo")
}

func TestParsePolicyUnknownKeyAlongsideValid(t *testing.T) {
	_, err := ParsePolicy(map[string]any{
		PolicyKeyRollingUpdate: map[string]any{},
		"RollingUpgrade":       map[string]any{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RollingUpgrade")
}

func TestParsePolicyBodyNotAMapping(t *testing.T) {
	// a scalar or list body is rejected outright rather than read as an
	// empty policy
	for _, body := range []any{"foo", 3, []any{"MaxBatchSize"}} {
		_, err := ParsePolicy(map[string]any{PolicyKeyRollingUpdate: body})
		require.Error(t, err, "body %v", body)

		var verr *InvalidPolicyValueError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, PolicyKeyRollingUpdate, verr.Field)
		assert.Contains(t, err.Error(), "must be a mapping")
	}
}

func TestParsePolicyFullBody(t *testing.T) {
	p, err := ParsePolicy(map[string]any{
		PolicyKeyRollingUpdate: map[string]any{
			"MinInstancesInService": "1",
			"MaxBatchSize":          "2",
			"PauseTime":             "PT1S",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.MinInstancesInService)
	assert.Equal(t, 2, p.MaxBatchSize)
	assert.Equal(t, time.Second, p.PauseTime)
}

func TestParsePolicyNumericForms(t *testing.T) {
	// templates quote their numbers as often as not
	for _, v := range []any{3, int64(3), float64(3), "3"} {
		p, err := ParsePolicy(map[string]any{
			PolicyKeyRollingUpdate: map[string]any{"MaxBatchSize": v},
		})
		require.NoError(t, err, "value %v", v)
		assert.Equal(t, 3, p.MaxBatchSize)
	}
}

func TestParsePolicyInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"negative min in service", map[string]any{"MinInstancesInService": -1}},
		{"zero batch size", map[string]any{"MaxBatchSize": 0}},
		{"negative batch size", map[string]any{"MaxBatchSize": -2}},
		{"non-numeric", map[string]any{"MaxBatchSize": "many"}},
		{"fractional", map[string]any{"MaxBatchSize": 1.5}},
		{"unsupported field", map[string]any{"MaxHealthyPercentage": 90}},
		{"pause time not a string", map[string]any{"PauseTime": 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy(map[string]any{PolicyKeyRollingUpdate: tt.body})
			require.Error(t, err)
			var verr *InvalidPolicyValueError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestParsePolicyBadPauseTime(t *testing.T) {
	_, err := ParsePolicy(map[string]any{
		PolicyKeyRollingUpdate: map[string]any{"PauseTime": "P1YT1H"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only ISO 8601 duration format")
}

func TestPolicySnippetRoundTrip(t *testing.T) {
	p := &RollingUpdatePolicy{MinInstancesInService: 2, MaxBatchSize: 4, PauseTime: 90 * time.Second}

	back, err := ParsePolicy(p.Snippet())
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestPolicySnippetDefaults(t *testing.T) {
	p := &RollingUpdatePolicy{MaxBatchSize: 1}
	body := p.Snippet()[PolicyKeyRollingUpdate].(map[string]any)
	assert.Equal(t, "PT0S", body["PauseTime"])
}
