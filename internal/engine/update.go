package engine

import (
	"context"

	"github.com/vietdv277/stratus/pkg/provider"
)

// Launch configuration property names
const (
	PropImageID        = "ImageId"
	PropInstanceType   = "InstanceType"
	PropKeyName        = "KeyName"
	PropSecurityGroups = "SecurityGroups"
	PropUserData       = "UserData"
)

// Group property names
const (
	PropMinSize         = "MinSize"
	PropMaxSize         = "MaxSize"
	PropDesiredCapacity = "DesiredCapacity"
)

// UpdateInput carries the fully-resolved definition snippets for one
// update attempt: the group resource itself plus the launch
// configuration properties it references, old and new. Intrinsic
// functions are already evaluated by the resolver.
type UpdateInput struct {
	Current       map[string]any
	Updated       map[string]any
	CurrentLaunch map[string]any
	UpdatedLaunch map[string]any

	// Tags are stamped on every member this update launches
	Tags map[string]string
}

// Result reports what an update attempt decided and, when churn was
// required, the plan it ran
type Result struct {
	Classification Classification
	Plan           *BatchPlan
}

// Updater runs the full rolling-update flow for one group: validate the
// new policy, classify the definition change, plan the batches, check
// feasibility against the stack timeout, and execute. Every
// resource-update path goes through the classification before deciding
// whether instance churn is required.
type Updater struct {
	Executor *Executor
	Timeout  provider.TimeoutSource
}

// Apply processes a definition change for the group. Validation and
// feasibility errors surface before any mutating call; execution errors
// surface with the failing member and leave partial progress in place
// as the next update's baseline.
//
// The updated policy governs this update and is recorded on the group
// record as soon as it validates, so even a feasibility-failed update
// leaves the new policy visible for inspection.
func (u *Updater) Apply(ctx context.Context, group *Group, in UpdateInput) (*Result, error) {
	rawPolicy, _ := in.Updated[KeyUpdatePolicy].(map[string]any)
	policy, err := ParsePolicy(rawPolicy)
	if err != nil {
		return nil, err
	}

	cls := Diff(in.Current, in.Updated)
	res := &Result{Classification: cls}

	switch cls.Kind {
	case NoChange:
		return res, nil

	case PolicyOnly:
		// membership is unchanged: persist the policy metadata and
		// refresh collaborators with exactly one reload
		group.SetPolicy(policy)
		if err := u.Executor.RefreshCollaborators(ctx, group); err != nil {
			return res, err
		}
		return res, nil
	}

	group.SetPolicy(policy)
	plan, _, capacity := buildPlan(group, policy, in)
	if plan == nil {
		// group-level change only (capacity, zones): grow or shrink the
		// membership to the new target, then collaborators observe the
		// updated record
		if err := u.reconcileCapacity(ctx, group, in, capacity); err != nil {
			return res, err
		}
		return res, nil
	}
	res.Plan = plan

	if err := CheckTimeout(*plan, u.Timeout.RemainingTimeout()); err != nil {
		return res, err
	}

	launch := LaunchSpecFromSnippet(group.Name, in.UpdatedLaunch)
	if len(in.Tags) > 0 {
		launch.Tags = in.Tags
	}
	if err := u.Executor.Execute(ctx, group, *plan, launch); err != nil {
		return res, err
	}

	// retire any surplus beyond the target, oldest first, and let the
	// load balancer observe the final membership
	if err := u.trimSurplus(ctx, group, capacity); err != nil {
		return res, err
	}

	return res, nil
}

// reconcileCapacity grows or shrinks the membership to the target when
// the launch configuration itself did not change. Collaborators observe
// the result exactly once either way.
func (u *Updater) reconcileCapacity(ctx context.Context, group *Group, in UpdateInput, capacity int) error {
	live := group.LiveMembers()
	if len(live) > capacity {
		// trim refreshes collaborators itself
		return u.trimSurplus(ctx, group, capacity)
	}

	if grow := capacity - len(live); grow > 0 {
		launch := LaunchSpecFromSnippet(group.Name, in.UpdatedLaunch)
		if len(in.Tags) > 0 {
			launch.Tags = in.Tags
		}
		if err := u.Executor.grow(ctx, group, launch, grow); err != nil {
			return err
		}
	}

	return u.Executor.RefreshCollaborators(ctx, group)
}

// Preview computes what Apply would decide for the given input without
// touching members, collaborators, or the caller's group record
func (u *Updater) Preview(group *Group, in UpdateInput) (*Result, error) {
	rawPolicy, _ := in.Updated[KeyUpdatePolicy].(map[string]any)
	policy, err := ParsePolicy(rawPolicy)
	if err != nil {
		return nil, err
	}

	cls := Diff(in.Current, in.Updated)
	res := &Result{Classification: cls}
	if cls.Kind != PropertiesChanged {
		return res, nil
	}

	shadow := *group
	shadow.Members = append([]Member(nil), group.Members...)
	shadow.SetPolicy(policy)

	plan, _, _ := buildPlan(&shadow, policy, in)
	if plan == nil {
		return res, nil
	}
	res.Plan = plan

	if err := CheckTimeout(*plan, u.Timeout.RemainingTimeout()); err != nil {
		return res, err
	}
	return res, nil
}

// buildPlan folds the updated definition's sizing into the group record
// and computes the batch plan. A nil plan means the launch
// configuration did not change and membership stays as it is; rolling
// and capacity report the reconciliation target and the final capacity.
func buildPlan(group *Group, policy *RollingUpdatePolicy, in UpdateInput) (*BatchPlan, int, int) {
	applyCapacity(group, in.Updated)
	capacity := group.EffectiveCapacity()

	// without a rolling-update policy the whole group turns over in a
	// single batch with no pauses
	effective := policy
	if effective == nil {
		effective = &RollingUpdatePolicy{MaxBatchSize: capacity}
		if effective.MaxBatchSize < 1 {
			effective.MaxBatchSize = 1
		}
	}

	launchChanged := ChangedKeys(in.CurrentLaunch, in.UpdatedLaunch)
	if len(launchChanged) == 0 {
		return nil, capacity, capacity
	}

	// InstanceType alone is mutable in place; any other launch property
	// forces full replacement
	inPlace := len(launchChanged) == 1 && launchChanged[0] == PropInstanceType

	// a replacement pass may need temporary capacity beyond the target
	// to keep MinInstancesInService members up while batches turn over
	rolling := capacity
	if !inPlace {
		rolling = rollingCapacity(effective, capacity)
	}

	plan := PlanRollingUpdate(group, effective, rolling, inPlace)
	return &plan, rolling, capacity
}

// rollingCapacity is the member count a replacement pass reconciles to:
// the update target plus whatever headroom the in-service floor demands
func rollingCapacity(policy *RollingUpdatePolicy, capacity int) int {
	batch := policy.MaxBatchSize
	if batch > capacity {
		batch = capacity
	}
	if batch < 1 {
		batch = 1
	}
	minSvc := policy.MinInstancesInService
	if minSvc > capacity {
		minSvc = capacity
	}

	base := capacity - batch
	if base < minSvc {
		base = minSvc
	}
	return base + batch
}

// trimSurplus destroys members beyond the target capacity, oldest
// first, and refreshes collaborators once
func (u *Updater) trimSurplus(ctx context.Context, group *Group, capacity int) error {
	live := group.LiveMembers()
	surplus := len(live) - capacity
	if surplus <= 0 {
		return nil
	}

	for _, m := range live[:surplus] {
		if err := u.Executor.Instances.Destroy(ctx, m.Identity); err != nil {
			return &BatchError{Batch: -1, Member: m.Identity, Op: "trim surplus", Err: err}
		}
		group.removeMember(m.Identity)
	}

	return u.Executor.RefreshCollaborators(ctx, group)
}

// LaunchSpecFromSnippet converts resolved launch configuration
// properties into the spec handed to the instance provider
func LaunchSpecFromSnippet(name string, props map[string]any) provider.LaunchSpec {
	spec := provider.LaunchSpec{Name: name}
	if s, ok := props[PropImageID].(string); ok {
		spec.ImageID = s
	}
	if s, ok := props[PropInstanceType].(string); ok {
		spec.InstanceType = s
	}
	if s, ok := props[PropKeyName].(string); ok {
		spec.KeyName = s
	}
	if s, ok := props[PropUserData].(string); ok {
		spec.UserData = s
	}
	if groups, ok := props[PropSecurityGroups].([]any); ok {
		for _, g := range groups {
			if s, ok := g.(string); ok {
				spec.SecurityGroups = append(spec.SecurityGroups, s)
			}
		}
	}
	return spec
}

// applyCapacity folds the updated definition's sizing properties into
// the group record
func applyCapacity(group *Group, snippet map[string]any) {
	props, ok := snippet[KeyProperties].(map[string]any)
	if !ok {
		return
	}
	if n, ok := snippetInt(props[PropMinSize]); ok {
		group.MinSize = n
	}
	if n, ok := snippetInt(props[PropMaxSize]); ok {
		group.MaxSize = n
	}
	if n, ok := snippetInt(props[PropDesiredCapacity]); ok {
		group.Capacity = n
	} else if group.Capacity < group.MinSize {
		group.Capacity = group.MinSize
	}
}

// snippetInt reads a template scalar that may be quoted
func snippetInt(v any) (int, bool) {
	n, err := policyInt("", v)
	if err != nil {
		return 0, false
	}
	return n, true
}
