package aws

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/vietdv277/stratus/pkg/provider"
	"github.com/vietdv277/stratus/pkg/types"
)

const statePollInterval = 5 * time.Second

// Instances implements the member lifecycle on EC2. A sizing change is
// expressed as stop, modify instance type, start; the member reports
// VerifyResize once it is running again and stays there until the
// resize is confirmed.
type Instances struct {
	client *ec2.Client

	mu       sync.Mutex
	resizing map[string]string // instance id -> pending target type
}

// Instances returns the member lifecycle surface of the client
func (c *Client) Instances() *Instances {
	if c.instances == nil {
		c.instances = &Instances{
			client:   c.EC2,
			resizing: make(map[string]string),
		}
	}
	return c.instances
}

// Create launches one instance from the spec and returns its ID. The
// instance is usually still pending when this returns.
func (i *Instances) Create(ctx context.Context, spec provider.LaunchSpec) (string, error) {
	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(spec.ImageID),
		InstanceType: ec2types.InstanceType(spec.InstanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
	}

	if spec.KeyName != "" {
		input.KeyName = aws.String(spec.KeyName)
	}
	if spec.SubnetID != "" {
		input.SubnetId = aws.String(spec.SubnetID)
	}
	if spec.UserData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(spec.UserData)))
	}

	// security groups may be given by ID or by name
	for _, sg := range spec.SecurityGroups {
		if strings.HasPrefix(sg, "sg-") {
			input.SecurityGroupIds = append(input.SecurityGroupIds, sg)
		} else {
			input.SecurityGroups = append(input.SecurityGroups, sg)
		}
	}

	tags := []ec2types.Tag{
		{Key: aws.String("Name"), Value: aws.String(spec.Name)},
	}
	for k, v := range spec.Tags {
		tags = append(tags, ec2types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	input.TagSpecifications = []ec2types.TagSpecification{
		{
			ResourceType: ec2types.ResourceTypeInstance,
			Tags:         tags,
		},
	}

	output, err := i.client.RunInstances(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to launch instance: %w", err)
	}
	if len(output.Instances) == 0 {
		return "", fmt.Errorf("launch of %q returned no instances", spec.Name)
	}

	return deref(output.Instances[0].InstanceId), nil
}

// AwaitActive blocks until the instance is running
func (i *Instances) AwaitActive(ctx context.Context, id string) error {
	return i.awaitState(ctx, id, ec2types.InstanceStateNameRunning)
}

// Destroy terminates an instance
func (i *Instances) Destroy(ctx context.Context, id string) error {
	_, err := i.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		return fmt.Errorf("failed to terminate instance %s: %w", id, err)
	}

	i.mu.Lock()
	delete(i.resizing, id)
	i.mu.Unlock()

	return nil
}

// Resize stops the instance, changes its type, and starts it again.
// The member stays in VerifyResize until ConfirmResize.
func (i *Instances) Resize(ctx context.Context, id, targetType string) error {
	i.mu.Lock()
	i.resizing[id] = targetType
	i.mu.Unlock()

	if _, err := i.client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{id},
	}); err != nil {
		return fmt.Errorf("failed to stop instance %s for resize: %w", id, err)
	}

	if err := i.awaitState(ctx, id, ec2types.InstanceStateNameStopped); err != nil {
		return err
	}

	if _, err := i.client.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
		InstanceId: aws.String(id),
		InstanceType: &ec2types.AttributeValue{
			Value: aws.String(targetType),
		},
	}); err != nil {
		return fmt.Errorf("failed to change type of instance %s: %w", id, err)
	}

	if _, err := i.client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{id},
	}); err != nil {
		return fmt.Errorf("failed to start instance %s after resize: %w", id, err)
	}

	return nil
}

// ConfirmResize finalizes a resize left in VerifyResize
func (i *Instances) ConfirmResize(ctx context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.resizing[id]; !ok {
		return fmt.Errorf("instance %s has no resize to confirm", id)
	}
	delete(i.resizing, id)
	return nil
}

// GetStatus reports the member status for an instance
func (i *Instances) GetStatus(ctx context.Context, id string) (string, error) {
	inst, err := i.describe(ctx, id)
	if err != nil {
		return "", err
	}

	i.mu.Lock()
	_, midResize := i.resizing[id]
	i.mu.Unlock()

	switch inst.State.Name {
	case ec2types.InstanceStateNamePending:
		return provider.StatusPending, nil
	case ec2types.InstanceStateNameRunning:
		if midResize {
			return provider.StatusVerifyResize, nil
		}
		return provider.StatusActive, nil
	case ec2types.InstanceStateNameStopping, ec2types.InstanceStateNameStopped:
		if midResize {
			return provider.StatusResizing, nil
		}
		return provider.StatusError, nil
	case ec2types.InstanceStateNameShuttingDown:
		return provider.StatusDeleting, nil
	case ec2types.InstanceStateNameTerminated:
		return provider.StatusDeleted, nil
	default:
		return provider.StatusError, nil
	}
}

// Describe returns instance details
func (i *Instances) Describe(ctx context.Context, id string) (*types.Instance, error) {
	raw, err := i.describe(ctx, id)
	if err != nil {
		return nil, err
	}
	inst := toInstance(*raw)
	return &inst, nil
}

func (i *Instances) describe(ctx context.Context, id string) (*ec2types.Instance, error) {
	output, err := i.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instance %s: %w", id, err)
	}

	for _, reservation := range output.Reservations {
		for _, inst := range reservation.Instances {
			if deref(inst.InstanceId) == id {
				return &inst, nil
			}
		}
	}

	return nil, fmt.Errorf("instance %s: %w", id, provider.ErrNotFound)
}

// awaitState polls until the instance reaches the wanted state or the
// context is cancelled
func (i *Instances) awaitState(ctx context.Context, id string, want ec2types.InstanceStateName) error {
	ticker := time.NewTicker(statePollInterval)
	defer ticker.Stop()

	for {
		inst, err := i.describe(ctx, id)
		if err != nil {
			return err
		}
		name := inst.State.Name

		if name == want {
			return nil
		}
		if name == ec2types.InstanceStateNameTerminated && want != ec2types.InstanceStateNameTerminated {
			return fmt.Errorf("instance %s terminated while waiting for %s", id, want)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// toInstance converts an EC2 Instance to our Instance type
func toInstance(i ec2types.Instance) types.Instance {
	inst := types.Instance{
		ID:    deref(i.InstanceId),
		State: string(i.State.Name),
		Type:  string(i.InstanceType),
	}

	if i.PrivateIpAddress != nil {
		inst.PrivateIP = *i.PrivateIpAddress
	}

	if i.PublicIpAddress != nil {
		inst.PublicIP = *i.PublicIpAddress
	}

	if i.Placement != nil && i.Placement.AvailabilityZone != nil {
		inst.AZ = *i.Placement.AvailabilityZone
	}

	if i.LaunchTime != nil {
		inst.LaunchTime = *i.LaunchTime
	}

	// Extract tags
	for _, tag := range i.Tags {
		key := deref(tag.Key)
		value := deref(tag.Value)

		switch key {
		case "Name":
			inst.Name = value
		case provider.TagGroup:
			inst.Group = value
		}
	}

	return inst
}
