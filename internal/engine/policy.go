package engine

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Policy mapping keys
const (
	PolicyKeyRollingUpdate = "AutoScalingRollingUpdate"

	fieldMinInstancesInService = "MinInstancesInService"
	fieldMaxBatchSize          = "MaxBatchSize"
	fieldPauseTime             = "PauseTime"
)

// RollingUpdatePolicy is the validated, defaulted form of a group's
// update policy
type RollingUpdatePolicy struct {
	MinInstancesInService int
	MaxBatchSize          int
	PauseTime             time.Duration
}

// UnknownPolicyKeyError reports an unrecognized key in the policy mapping
type UnknownPolicyKeyError struct {
	Key string
}

func (e *UnknownPolicyKeyError) Error() string {
	return fmt.Sprintf("unknown policy key %q: the only supported key is %q",
		e.Key, PolicyKeyRollingUpdate)
}

// InvalidPolicyValueError reports an out-of-range or malformed policy field
type InvalidPolicyValueError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidPolicyValueError) Error() string {
	return fmt.Sprintf("invalid value for policy field %s: %v (%s)",
		e.Field, e.Value, e.Reason)
}

// ParsePolicy validates and normalizes a raw update-policy mapping as it
// appears in a resource definition. A nil mapping means no policy is
// attached and returns a nil policy. An empty rolling-update body is
// meaningful: it enables rolling updates with all defaults.
func ParsePolicy(raw map[string]any) (*RollingUpdatePolicy, error) {
	if raw == nil {
		return nil, nil
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k != PolicyKeyRollingUpdate {
			return nil, &UnknownPolicyKeyError{Key: k}
		}
	}

	p := &RollingUpdatePolicy{
		MinInstancesInService: 0,
		MaxBatchSize:          1,
		PauseTime:             0,
	}

	rawBody := raw[PolicyKeyRollingUpdate]
	body, ok := rawBody.(map[string]any)
	if !ok && rawBody != nil {
		return nil, &InvalidPolicyValueError{
			Field:  PolicyKeyRollingUpdate,
			Value:  rawBody,
			Reason: "must be a mapping",
		}
	}
	if len(body) == 0 {
		return p, nil
	}

	fields := make([]string, 0, len(body))
	for f := range body {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		v := body[f]
		switch f {
		case fieldMinInstancesInService:
			n, err := policyInt(f, v)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, &InvalidPolicyValueError{Field: f, Value: v, Reason: "must not be negative"}
			}
			p.MinInstancesInService = n

		case fieldMaxBatchSize:
			n, err := policyInt(f, v)
			if err != nil {
				return nil, err
			}
			if n < 1 {
				return nil, &InvalidPolicyValueError{Field: f, Value: v, Reason: "must be a positive integer"}
			}
			p.MaxBatchSize = n

		case fieldPauseTime:
			s, ok := v.(string)
			if !ok {
				return nil, &InvalidPolicyValueError{Field: f, Value: v, Reason: "must be an ISO 8601 duration string"}
			}
			d, err := ParseDuration(s)
			if err != nil {
				return nil, err
			}
			p.PauseTime = d

		default:
			return nil, &InvalidPolicyValueError{Field: f, Value: v, Reason: "unsupported field"}
		}
	}

	return p, nil
}

// Snippet renders the policy back into its persisted mapping form
func (p *RollingUpdatePolicy) Snippet() map[string]any {
	return map[string]any{
		PolicyKeyRollingUpdate: map[string]any{
			fieldMinInstancesInService: p.MinInstancesInService,
			fieldMaxBatchSize:          p.MaxBatchSize,
			fieldPauseTime:             FormatDuration(p.PauseTime),
		},
	}
}

// policyInt coerces a template scalar into an integer. Template formats
// quote their numbers as often as not, so strings are accepted.
func policyInt(field string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, &InvalidPolicyValueError{Field: field, Value: v, Reason: "must be an integer"}
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, &InvalidPolicyValueError{Field: field, Value: v, Reason: "must be an integer"}
		}
		return i, nil
	default:
		return 0, &InvalidPolicyValueError{Field: field, Value: v, Reason: "must be an integer"}
	}
}
