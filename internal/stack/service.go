package stack

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/vietdv277/stratus/internal/engine"
	"github.com/vietdv277/stratus/internal/state"
	"github.com/vietdv277/stratus/internal/template"
	"github.com/vietdv277/stratus/pkg/provider"
	"github.com/vietdv277/stratus/pkg/types"
)

// Service walks a stack's autoscaling groups through creation and
// rolling updates. The caller serializes operations per stack; the
// service assumes it is the only writer for the duration of a call.
type Service struct {
	Instances provider.InstanceProvider
	LB        provider.LoadBalancerProvider
	Store     state.Store
}

// Create provisions every autoscaling group in the stack's template:
// all members are created and awaited, then the load balancer observes
// the initial membership once per group.
func (svc *Service) Create(ctx context.Context, st *Stack) error {
	st.begin(types.StackCreateInProgress)
	resolver := st.Resolver(st.Template)

	for _, logical := range sortedGroups(st.Template) {
		group, err := svc.createGroup(ctx, st, resolver, logical)
		if err != nil {
			st.fail(types.StackCreateFailed, err.Error())
			svc.saveStack(ctx, st)
			return err
		}
		if err := svc.Store.SaveGroup(ctx, st.Name, group); err != nil {
			st.fail(types.StackCreateFailed, err.Error())
			svc.saveStack(ctx, st)
			return err
		}
	}

	if err := svc.Store.SaveTemplate(ctx, st.Name, st.Template.Raw); err != nil {
		st.fail(types.StackCreateFailed, err.Error())
		svc.saveStack(ctx, st)
		return err
	}

	st.complete(types.StackCreateComplete)
	return svc.saveStack(ctx, st)
}

// Update applies a new template to the stack. Each group's definition
// change is classified before anything else happens; validation and
// feasibility errors abort before any instance mutation, and the first
// execution failure is fatal with partial progress preserved.
func (svc *Service) Update(ctx context.Context, st *Stack, updated *template.Template) error {
	st.begin(types.StackUpdateInProgress)

	current := st.Resolver(st.Template)
	next := st.Resolver(updated)

	for _, logical := range sortedGroups(updated) {
		group, err := svc.Store.LoadGroup(ctx, st.Name, logical)
		if err != nil {
			if errors.Is(err, provider.ErrNotFound) {
				err = fmt.Errorf("group %q has no record; create the stack first", logical)
			}
			st.fail(types.StackUpdateFailed, err.Error())
			svc.saveStack(ctx, st)
			return err
		}

		in, err := svc.updateInput(current, next, st.Template, updated, logical)
		if err != nil {
			st.fail(types.StackUpdateFailed, err.Error())
			svc.saveStack(ctx, st)
			return err
		}

		updater := &engine.Updater{
			Executor: &engine.Executor{Instances: svc.Instances, LB: svc.LB},
			Timeout:  st,
		}
		_, applyErr := updater.Apply(ctx, group, in)

		// the record always reflects actual progress, failed or not:
		// it is the next update's baseline
		if err := svc.Store.SaveGroup(ctx, st.Name, group); err != nil {
			st.fail(types.StackUpdateFailed, err.Error())
			svc.saveStack(ctx, st)
			return err
		}
		if applyErr != nil {
			st.fail(types.StackUpdateFailed, applyErr.Error())
			svc.saveStack(ctx, st)
			return applyErr
		}
	}

	if err := svc.Store.SaveTemplate(ctx, st.Name, updated.Raw); err != nil {
		st.fail(types.StackUpdateFailed, err.Error())
		svc.saveStack(ctx, st)
		return err
	}

	st.Template = updated
	st.complete(types.StackUpdateComplete)
	return svc.saveStack(ctx, st)
}

// GroupPlan is the projected effect of an update on one group
type GroupPlan struct {
	Group  string
	Result *engine.Result
	Err    error
}

// Plan previews what Update would do with the new template, without
// touching any instance or record. Infeasible groups are reported in
// place rather than aborting the preview.
func (svc *Service) Plan(ctx context.Context, st *Stack, updated *template.Template) ([]GroupPlan, error) {
	current := st.Resolver(st.Template)
	next := st.Resolver(updated)

	var plans []GroupPlan
	for _, logical := range sortedGroups(updated) {
		group, err := svc.Store.LoadGroup(ctx, st.Name, logical)
		if err != nil {
			if errors.Is(err, provider.ErrNotFound) {
				err = fmt.Errorf("group %q has no record; create the stack first", logical)
			}
			return nil, err
		}

		in, err := svc.updateInput(current, next, st.Template, updated, logical)
		if err != nil {
			return nil, err
		}

		updater := &engine.Updater{
			Executor: &engine.Executor{Instances: svc.Instances, LB: svc.LB},
			Timeout:  st,
		}
		res, previewErr := updater.Preview(group, in)
		plans = append(plans, GroupPlan{Group: logical, Result: res, Err: previewErr})
	}
	return plans, nil
}

// updateInput assembles the resolved old and new snippets for one group
func (svc *Service) updateInput(current, next *template.Resolver, currentTpl, updatedTpl *template.Template, logical string) (engine.UpdateInput, error) {
	var in engine.UpdateInput
	var err error

	if in.Current, err = current.Snippet(logical); err != nil {
		return in, err
	}
	if in.Updated, err = next.Snippet(logical); err != nil {
		return in, err
	}

	if lc := launchConfigRef(currentTpl, logical); lc != "" {
		if in.CurrentLaunch, err = current.ResolvedProperties(lc); err != nil {
			return in, err
		}
	}
	if lc := launchConfigRef(updatedTpl, logical); lc != "" {
		if in.UpdatedLaunch, err = next.ResolvedProperties(lc); err != nil {
			return in, err
		}
	}

	in.Tags = memberTags(current.Stack, logical)

	return in, nil
}

// memberTags identify which stack and group an instance belongs to
func memberTags(stack, group string) map[string]string {
	return map[string]string{
		provider.TagStack: stack,
		provider.TagGroup: group,
	}
}

// createGroup builds the initial group record and brings its members up
func (svc *Service) createGroup(ctx context.Context, st *Stack, resolver *template.Resolver, logical string) (*engine.Group, error) {
	snippet, err := resolver.Snippet(logical)
	if err != nil {
		return nil, err
	}
	props, _ := snippet[engine.KeyProperties].(map[string]any)

	rawPolicy, _ := snippet[engine.KeyUpdatePolicy].(map[string]any)
	policy, err := engine.ParsePolicy(rawPolicy)
	if err != nil {
		return nil, err
	}

	group := &engine.Group{Name: logical}
	group.SetPolicy(policy)
	group.MinSize = propInt(props, "MinSize")
	group.MaxSize = propInt(props, "MaxSize")
	group.Capacity = propInt(props, "DesiredCapacity")
	if group.Capacity == 0 {
		group.Capacity = group.MinSize
	}
	group.LoadBalancer, group.ListenerPort = attachedLoadBalancer(resolver, props)

	var launch provider.LaunchSpec
	fp := ""
	if lc := launchConfigRef(st.Template, logical); lc != "" {
		launchProps, err := resolver.ResolvedProperties(lc)
		if err != nil {
			return nil, err
		}
		launch = engine.LaunchSpecFromSnippet(group.Name, launchProps)
		launch.Tags = memberTags(st.Name, logical)
		fp = engine.LaunchFingerprint(launch)
	}

	for i := 0; i < group.EffectiveCapacity(); i++ {
		id, err := svc.Instances.Create(ctx, launch)
		if err != nil {
			return nil, fmt.Errorf("failed to create member of group %q: %w", logical, err)
		}
		group.Members = append(group.Members, engine.Member{
			Identity:    id,
			Fingerprint: fp,
			State:       engine.MemberPending,
			CreatedAt:   time.Now(),
		})
	}
	for i := range group.Members {
		m := &group.Members[i]
		if err := svc.Instances.AwaitActive(ctx, m.Identity); err != nil {
			return nil, fmt.Errorf("member %s failed to become active: %w", m.Identity, err)
		}
		inst, err := svc.Instances.Describe(ctx, m.Identity)
		if err != nil {
			return nil, err
		}
		m.State = engine.MemberActive
		m.Address = inst.PrivateIP
	}

	if svc.LB != nil && group.LoadBalancer != "" {
		if err := svc.LB.Reload(ctx, group.LoadBalancer, group.TargetMembers()); err != nil {
			return nil, fmt.Errorf("failed to reload load balancer for group %q: %w", logical, err)
		}
	}

	return group, nil
}

func (svc *Service) saveStack(ctx context.Context, st *Stack) error {
	return svc.Store.SaveStack(ctx, st.Record())
}

// sortedGroups returns the stack's autoscaling group logical names in
// deterministic order
func sortedGroups(tpl *template.Template) []string {
	names := tpl.ResourcesOfType(template.TypeAutoScalingGroup)
	sort.Strings(names)
	return names
}

// launchConfigRef extracts the logical name of the launch configuration
// a group references, before resolution
func launchConfigRef(tpl *template.Template, group string) string {
	res, ok := tpl.Resources[group]
	if !ok || res.Properties == nil {
		return ""
	}
	ref, ok := res.Properties["LaunchConfigurationName"].(map[string]any)
	if !ok {
		return ""
	}
	target, _ := ref["Ref"].(string)
	return target
}

// attachedLoadBalancer resolves the group's load balancer name and
// listener port, if it has one
func attachedLoadBalancer(resolver *template.Resolver, props map[string]any) (string, int) {
	names, ok := props["LoadBalancerNames"].([]any)
	if !ok || len(names) == 0 {
		return "", 0
	}
	name, _ := names[0].(string)
	if name == "" {
		return "", 0
	}

	// find the LB resource's first listener port
	for logical, res := range resolver.Template.Resources {
		if res.Type != template.TypeLoadBalancer {
			continue
		}
		physical, err := resolver.PhysicalName(logical)
		if err != nil || physical != name {
			continue
		}
		listeners, ok := res.Properties["Listeners"].([]any)
		if !ok || len(listeners) == 0 {
			return name, 0
		}
		l, _ := listeners[0].(map[string]any)
		return name, propInt(l, "InstancePort")
	}
	return name, 0
}

// propInt reads a numeric property that may be quoted
func propInt(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
