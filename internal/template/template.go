package template

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Resource type identifiers handled by the engine
const (
	TypeAutoScalingGroup = "AWS::AutoScaling::AutoScalingGroup"
	TypeLaunchConfig     = "AWS::AutoScaling::LaunchConfiguration"
	TypeLoadBalancer     = "AWS::ElasticLoadBalancing::LoadBalancer"
)

// Resource definition keys
const (
	keyType         = "Type"
	keyProperties   = "Properties"
	keyUpdatePolicy = "UpdatePolicy"
)

// Parameter is a template input with an optional default
type Parameter struct {
	Type    string
	Default any
}

// Resource is one resource definition, kept in raw mapping form until
// it is resolved into a snippet
type Resource struct {
	Type         string
	Properties   map[string]any
	UpdatePolicy map[string]any
	DependsOn    []string
}

// Template is a parsed stack template. JSON templates parse fine: JSON
// is a subset of YAML.
type Template struct {
	FormatVersion string
	Description   string
	Parameters    map[string]Parameter
	Resources     map[string]Resource

	// Raw is the source document the template was parsed from
	Raw []byte
}

// Parse reads a template document in YAML or JSON form
func Parse(data []byte) (*Template, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	t := &Template{
		Parameters: make(map[string]Parameter),
		Resources:  make(map[string]Resource),
		Raw:        data,
	}
	if v, ok := raw["AWSTemplateFormatVersion"].(string); ok {
		t.FormatVersion = v
	}
	if v, ok := raw["Description"].(string); ok {
		t.Description = v
	}

	if params, ok := raw["Parameters"].(map[string]any); ok {
		for name, pv := range params {
			body, _ := pv.(map[string]any)
			p := Parameter{}
			if s, ok := body["Type"].(string); ok {
				p.Type = s
			}
			p.Default = body["Default"]
			t.Parameters[name] = p
		}
	}

	resources, ok := raw["Resources"].(map[string]any)
	if !ok || len(resources) == 0 {
		return nil, fmt.Errorf("template has no resources")
	}
	for name, rv := range resources {
		body, ok := rv.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("resource %q is not a mapping", name)
		}
		r := Resource{}
		r.Type, _ = body[keyType].(string)
		if r.Type == "" {
			return nil, fmt.Errorf("resource %q has no type", name)
		}
		r.Properties, _ = body[keyProperties].(map[string]any)
		if up, present := body[keyUpdatePolicy]; present && up != nil {
			m, ok := up.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("resource %q UpdatePolicy is not a mapping", name)
			}
			r.UpdatePolicy = m
		}
		if deps, ok := body["DependsOn"].([]any); ok {
			for _, d := range deps {
				if s, ok := d.(string); ok {
					r.DependsOn = append(r.DependsOn, s)
				}
			}
		}
		t.Resources[name] = r
	}

	return t, nil
}

// ResourcesOfType returns the logical names of resources with the given
// type
func (t *Template) ResourcesOfType(typ string) []string {
	var names []string
	for name, r := range t.Resources {
		if r.Type == typ {
			names = append(names, name)
		}
	}
	return names
}

// Resolver renders resource definitions with intrinsic references
// evaluated. Physical names are content-addressed: a resource whose
// definition changed gets a new physical name, which is how a launch
// configuration edit surfaces as a property change on the groups that
// reference it.
type Resolver struct {
	Stack      string
	Template   *Template
	Parameters map[string]any // supplied values, overriding defaults
}

// PhysicalName returns the deterministic physical name for a logical
// resource
func (r *Resolver) PhysicalName(logical string) (string, error) {
	res, ok := r.Template.Resources[logical]
	if !ok {
		return "", fmt.Errorf("no such resource %q", logical)
	}
	return fmt.Sprintf("%s-%s-%s", r.Stack, logical, defHash(res)), nil
}

// Snippet renders the fully-resolved definition of one resource: the
// mapping handed to the template differ
func (r *Resolver) Snippet(logical string) (map[string]any, error) {
	res, ok := r.Template.Resources[logical]
	if !ok {
		return nil, fmt.Errorf("no such resource %q", logical)
	}

	snippet := map[string]any{keyType: res.Type}
	props, err := r.resolve(res.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s properties: %w", logical, err)
	}
	if props != nil {
		snippet[keyProperties] = props
	}
	if res.UpdatePolicy != nil {
		policy, err := r.resolve(res.UpdatePolicy)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s update policy: %w", logical, err)
		}
		snippet[keyUpdatePolicy] = policy
	}
	return snippet, nil
}

// ResolvedProperties renders just the Properties of a resource
func (r *Resolver) ResolvedProperties(logical string) (map[string]any, error) {
	snippet, err := r.Snippet(logical)
	if err != nil {
		return nil, err
	}
	props, _ := snippet[keyProperties].(map[string]any)
	return props, nil
}

// resolve walks a value and evaluates Ref intrinsics. A Ref names
// either a parameter or another resource; anything else is an error.
func (r *Resolver) resolve(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if target, ok := val["Ref"].(string); ok {
				return r.resolveRef(target)
			}
		}
		out := make(map[string]any, len(val))
		for k, inner := range val {
			resolved, err := r.resolve(inner)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil

	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			resolved, err := r.resolve(inner)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return v, nil
	}
}

func (r *Resolver) resolveRef(target string) (any, error) {
	if v, ok := r.Parameters[target]; ok {
		return v, nil
	}
	if p, ok := r.Template.Parameters[target]; ok {
		if p.Default != nil {
			return p.Default, nil
		}
		return nil, fmt.Errorf("parameter %q has no value", target)
	}
	if _, ok := r.Template.Resources[target]; ok {
		return r.PhysicalName(target)
	}
	return nil, fmt.Errorf("unresolvable reference %q", target)
}

// defHash gives a short content hash of a resource definition
func defHash(r Resource) string {
	data, err := json.Marshal(map[string]any{
		keyType:       r.Type,
		keyProperties: r.Properties,
	})
	if err != nil {
		data = []byte(r.Type)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:4])
}
