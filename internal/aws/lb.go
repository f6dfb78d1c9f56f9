package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/vietdv277/stratus/pkg/provider"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// Targets keeps a load balancer's registered targets consistent with
// group membership. It implements the engine's load balancer surface.
type Targets struct {
	client *elbv2.Client
}

// Targets returns the membership reconciliation surface of the client
func (c *Client) Targets() *Targets {
	return &Targets{client: c.ELBv2}
}

// Reload reconciles every target group of the named load balancer to
// exactly the given membership: missing members are registered, stale
// targets are deregistered. It is idempotent.
func (t *Targets) Reload(ctx context.Context, name string, members []provider.TargetMember) error {
	lbs, err := t.client.DescribeLoadBalancers(ctx, &elbv2.DescribeLoadBalancersInput{
		Names: []string{name},
	})
	if err != nil {
		return fmt.Errorf("failed to describe load balancer %q: %w", name, err)
	}
	if len(lbs.LoadBalancers) == 0 {
		return fmt.Errorf("load balancer %q: %w", name, provider.ErrNotFound)
	}
	lbARN := deref(lbs.LoadBalancers[0].LoadBalancerArn)

	tgs, err := t.client.DescribeTargetGroups(ctx, &elbv2.DescribeTargetGroupsInput{
		LoadBalancerArn: aws.String(lbARN),
	})
	if err != nil {
		return fmt.Errorf("failed to list target groups of %q: %w", name, err)
	}

	for _, tg := range tgs.TargetGroups {
		if err := t.reconcile(ctx, tg, members); err != nil {
			return err
		}
	}

	return nil
}

// reconcile brings one target group to the wanted membership
func (t *Targets) reconcile(ctx context.Context, tg elbv2types.TargetGroup, members []provider.TargetMember) error {
	tgARN := deref(tg.TargetGroupArn)

	health, err := t.client.DescribeTargetHealth(ctx, &elbv2.DescribeTargetHealthInput{
		TargetGroupArn: aws.String(tgARN),
	})
	if err != nil {
		return fmt.Errorf("failed to read targets of %s: %w", deref(tg.TargetGroupName), err)
	}

	registered := make(map[string]elbv2types.TargetDescription)
	for _, thd := range health.TargetHealthDescriptions {
		if thd.Target != nil {
			registered[deref(thd.Target.Id)] = *thd.Target
		}
	}

	wanted := make(map[string]elbv2types.TargetDescription)
	for _, m := range members {
		id := m.Identity
		if tg.TargetType == elbv2types.TargetTypeEnumIp {
			id = m.Address
		}
		desc := elbv2types.TargetDescription{Id: aws.String(id)}
		if m.Port > 0 {
			desc.Port = aws.Int32(int32(m.Port))
		}
		wanted[id] = desc
	}

	var add, remove []elbv2types.TargetDescription
	for id, desc := range wanted {
		if _, ok := registered[id]; !ok {
			add = append(add, desc)
		}
	}
	for id, desc := range registered {
		if _, ok := wanted[id]; !ok {
			remove = append(remove, desc)
		}
	}

	if len(add) > 0 {
		if _, err := t.client.RegisterTargets(ctx, &elbv2.RegisterTargetsInput{
			TargetGroupArn: aws.String(tgARN),
			Targets:        add,
		}); err != nil {
			return fmt.Errorf("failed to register targets with %s: %w", deref(tg.TargetGroupName), err)
		}
	}

	if len(remove) > 0 {
		if _, err := t.client.DeregisterTargets(ctx, &elbv2.DeregisterTargetsInput{
			TargetGroupArn: aws.String(tgARN),
			Targets:        remove,
		}); err != nil {
			return fmt.Errorf("failed to deregister targets from %s: %w", deref(tg.TargetGroupName), err)
		}
	}

	return nil
}

// ListLoadBalancers returns all load balancers (ALB/NLB)
func (c *Client) ListLoadBalancers() ([]pkgtypes.LoadBalancer, error) {
	output, err := c.ELBv2.DescribeLoadBalancers(c.ctx, &elbv2.DescribeLoadBalancersInput{})
	if err != nil {
		return nil, err
	}

	var lbs []pkgtypes.LoadBalancer
	for _, lb := range output.LoadBalancers {
		lbs = append(lbs, toLoadBalancer(lb))
	}

	return lbs, nil
}

// DescribeLoadBalancer returns detailed information about a specific load balancer
func (c *Client) DescribeLoadBalancer(name string) (*pkgtypes.LoadBalancer, error) {
	output, err := c.ELBv2.DescribeLoadBalancers(c.ctx, &elbv2.DescribeLoadBalancersInput{
		Names: []string{name},
	})
	if err != nil {
		return nil, err
	}

	if len(output.LoadBalancers) == 0 {
		return nil, nil
	}

	lb := toLoadBalancer(output.LoadBalancers[0])
	return &lb, nil
}

// ListTargetGroups returns all target groups, optionally filtered by load balancer ARN
func (c *Client) ListTargetGroups(lbARN string) ([]pkgtypes.TargetGroup, error) {
	input := &elbv2.DescribeTargetGroupsInput{}
	if lbARN != "" {
		input.LoadBalancerArn = &lbARN
	}

	output, err := c.ELBv2.DescribeTargetGroups(c.ctx, input)
	if err != nil {
		return nil, err
	}

	var tgs []pkgtypes.TargetGroup
	for _, tg := range output.TargetGroups {
		tgs = append(tgs, toTargetGroup(tg, lbARN))
	}

	return tgs, nil
}

// ListTargets returns all targets in a target group with their health status
func (c *Client) ListTargets(tgARN string) ([]pkgtypes.Target, error) {
	output, err := c.ELBv2.DescribeTargetHealth(c.ctx, &elbv2.DescribeTargetHealthInput{
		TargetGroupArn: &tgARN,
	})
	if err != nil {
		return nil, err
	}

	var targets []pkgtypes.Target
	for _, thd := range output.TargetHealthDescriptions {
		targets = append(targets, toTarget(thd))
	}

	return targets, nil
}

// toLoadBalancer converts an ELBv2 LoadBalancer to our LoadBalancer type
func toLoadBalancer(lb elbv2types.LoadBalancer) pkgtypes.LoadBalancer {
	result := pkgtypes.LoadBalancer{
		Name:    deref(lb.LoadBalancerName),
		ARN:     deref(lb.LoadBalancerArn),
		DNSName: deref(lb.DNSName),
		Type:    string(lb.Type),
		Scheme:  string(lb.Scheme),
		VPCID:   deref(lb.VpcId),
	}

	if lb.State != nil {
		result.State = string(lb.State.Code)
	}

	if lb.CreatedTime != nil {
		result.CreatedAt = *lb.CreatedTime
	}

	for _, az := range lb.AvailabilityZones {
		if az.ZoneName != nil {
			result.AZs = append(result.AZs, *az.ZoneName)
		}
	}

	return result
}

// toTargetGroup converts an ELBv2 TargetGroup to our TargetGroup type
func toTargetGroup(tg elbv2types.TargetGroup, lbARN string) pkgtypes.TargetGroup {
	result := pkgtypes.TargetGroup{
		Name:     deref(tg.TargetGroupName),
		ARN:      deref(tg.TargetGroupArn),
		Protocol: string(tg.Protocol),
		Port:     int(deref32(tg.Port)),
		VPCID:    deref(tg.VpcId),
		Type:     string(tg.TargetType),
		LBARN:    lbARN,
	}

	// If LB ARN not provided, try to get from LoadBalancerArns
	if result.LBARN == "" && len(tg.LoadBalancerArns) > 0 {
		result.LBARN = tg.LoadBalancerArns[0]
	}

	return result
}

// toTarget converts an ELBv2 TargetHealthDescription to our Target type
func toTarget(thd elbv2types.TargetHealthDescription) pkgtypes.Target {
	target := pkgtypes.Target{}

	if thd.Target != nil {
		target.ID = deref(thd.Target.Id)
		if thd.Target.Port != nil {
			target.Port = int(*thd.Target.Port)
		}
		target.AZ = deref(thd.Target.AvailabilityZone)
	}

	if thd.TargetHealth != nil {
		target.Health = string(thd.TargetHealth.State)
	}

	return target
}
