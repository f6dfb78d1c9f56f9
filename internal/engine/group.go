package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/vietdv277/stratus/pkg/provider"
)

// MemberState is the lifecycle state of a group member
type MemberState string

const (
	MemberPending  MemberState = "Pending"
	MemberActive   MemberState = "Active"
	MemberResizing MemberState = "Resizing"
	MemberDeleting MemberState = "Deleting"
	MemberDeleted  MemberState = "Deleted"
)

// Member is one underlying compute instance of a group
type Member struct {
	Identity    string      `yaml:"identity"`
	Fingerprint string      `yaml:"fingerprint"` // hash of the launch configuration used to create it
	Address     string      `yaml:"address,omitempty"`
	Port        int         `yaml:"port,omitempty"`
	State       MemberState `yaml:"state"`
	CreatedAt   time.Time   `yaml:"created_at"`
}

// Group is the engine's view of an autoscaling group. Members are in
// insertion order, oldest first; only the executor creates or destroys
// them. The outer orchestration engine serializes updates per stack, so
// a single update owns the member list for its whole duration.
type Group struct {
	Name         string               `yaml:"name"`
	Capacity     int                  `yaml:"capacity"`
	MinSize      int                  `yaml:"min_size"`
	MaxSize      int                  `yaml:"max_size"`
	ListenerPort int                  `yaml:"listener_port,omitempty"`
	LoadBalancer string               `yaml:"load_balancer,omitempty"`
	Policy       *RollingUpdatePolicy `yaml:"-"`
	PolicyRaw    map[string]any       `yaml:"update_policy,omitempty"`
	Members      []Member             `yaml:"members,omitempty"`
}

// EffectiveCapacity is the member count the group must reconcile to
// during an update: the desired capacity clamped to [MinSize, MaxSize]
func (g *Group) EffectiveCapacity() int {
	c := g.Capacity
	if g.MinSize > 0 && c < g.MinSize {
		c = g.MinSize
	}
	if g.MaxSize > 0 && c > g.MaxSize {
		c = g.MaxSize
	}
	return c
}

// LiveMembers returns members that are not deleted or being deleted,
// in insertion order
func (g *Group) LiveMembers() []Member {
	var live []Member
	for _, m := range g.Members {
		if m.State == MemberDeleted || m.State == MemberDeleting {
			continue
		}
		live = append(live, m)
	}
	return live
}

// TargetMembers renders the current live membership in the form the
// load balancer reload expects
func (g *Group) TargetMembers() []provider.TargetMember {
	var targets []provider.TargetMember
	for _, m := range g.LiveMembers() {
		port := m.Port
		if port == 0 {
			port = g.ListenerPort
		}
		targets = append(targets, provider.TargetMember{
			Identity: m.Identity,
			Address:  m.Address,
			Port:     port,
		})
	}
	return targets
}

// SetPolicy records a validated policy (or nil to remove it) on the
// group, keeping the persisted mapping form in sync
func (g *Group) SetPolicy(p *RollingUpdatePolicy) {
	g.Policy = p
	if p == nil {
		g.PolicyRaw = nil
		return
	}
	g.PolicyRaw = p.Snippet()
}

// LaunchFingerprint hashes a launch configuration (rendered snippet or
// launch spec) so members can be matched against the configuration they
// were created from
func LaunchFingerprint(launch any) string {
	// json.Marshal sorts map keys, giving a canonical encoding
	data, err := json.Marshal(launch)
	if err != nil {
		data = []byte{}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
