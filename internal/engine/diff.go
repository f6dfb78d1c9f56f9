package engine

import (
	"reflect"
	"sort"
)

// Top-level keys of a resource definition snippet
const (
	KeyType         = "Type"
	KeyProperties   = "Properties"
	KeyUpdatePolicy = "UpdatePolicy"
)

// ChangeKind classifies what a definition change requires of the group
type ChangeKind int

const (
	// NoChange means the rendered definitions are structurally equal
	NoChange ChangeKind = iota
	// PolicyOnly means only the update-policy metadata changed; no
	// member churn is required
	PolicyOnly
	// PropertiesChanged means at least one non-policy top-level key
	// changed and instance churn may be required
	PropertiesChanged
)

func (k ChangeKind) String() string {
	switch k {
	case NoChange:
		return "NoChange"
	case PolicyOnly:
		return "PolicyOnly"
	case PropertiesChanged:
		return "PropertiesChanged"
	default:
		return "Unknown"
	}
}

// Classification is the result of diffing two rendered definitions of
// the same resource. It is produced fresh per update attempt and never
// persisted.
type Classification struct {
	Kind        ChangeKind
	ChangedKeys []string // sorted
}

// Changed reports whether a particular top-level key differs
func (c Classification) Changed(key string) bool {
	for _, k := range c.ChangedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Diff compares two fully-resolved definition snippets of one resource
// and classifies the change. Granularity is deliberately coarse: a
// change anywhere inside a compound value reports only its owning
// top-level key, so a sub-field edit is handled exactly like replacing
// the whole property. Downstream batch-vs-resize classification relies
// on this.
func Diff(current, updated map[string]any) Classification {
	changed := ChangedKeys(current, updated)
	switch {
	case len(changed) == 0:
		return Classification{Kind: NoChange}
	case len(changed) == 1 && changed[0] == KeyUpdatePolicy:
		return Classification{Kind: PolicyOnly, ChangedKeys: changed}
	default:
		return Classification{Kind: PropertiesChanged, ChangedKeys: changed}
	}
}

// ChangedKeys returns the sorted set of top-level keys whose values
// differ by structural equality, including keys present on only one
// side.
func ChangedKeys(current, updated map[string]any) []string {
	seen := make(map[string]bool, len(current)+len(updated))
	var changed []string

	for k, cv := range current {
		seen[k] = true
		uv, ok := updated[k]
		if !ok || !reflect.DeepEqual(cv, uv) {
			changed = append(changed, k)
		}
	}
	for k := range updated {
		if !seen[k] {
			changed = append(changed, k)
		}
	}

	sort.Strings(changed)
	return changed
}
