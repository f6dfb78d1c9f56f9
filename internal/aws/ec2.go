package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/vietdv277/stratus/pkg/provider"
	"github.com/vietdv277/stratus/pkg/types"
)

// ListInstanceInput contains parameters for listing EC2 instances
type ListInstanceInput struct {
	NamePattern string
	StackName   string
	GroupName   string
	InstanceIDs []string
	States      []string
}

// ListInstances returns instances matching the input, filtered server
// side by tag where possible
func (c *Client) ListInstances(input *ListInstanceInput) ([]types.Instance, error) {
	if input == nil {
		input = &ListInstanceInput{}
	}

	// Default to running instances
	states := input.States
	if len(states) == 0 {
		states = []string{"running"}
	}

	// Build filters
	filters := []ec2types.Filter{
		{
			Name:   aws.String("instance-state-name"),
			Values: states,
		},
	}

	if input.NamePattern != "" {
		filters = append(filters, ec2types.Filter{
			Name:   aws.String("tag:Name"),
			Values: []string{"*" + input.NamePattern + "*"},
		})
	}

	if input.StackName != "" {
		filters = append(filters, ec2types.Filter{
			Name:   aws.String("tag:" + provider.TagStack),
			Values: []string{input.StackName},
		})
	}

	if input.GroupName != "" {
		filters = append(filters, ec2types.Filter{
			Name:   aws.String("tag:" + provider.TagGroup),
			Values: []string{input.GroupName},
		})
	}

	// Build AWS API
	describeInput := &ec2.DescribeInstancesInput{
		Filters: filters,
	}

	if len(input.InstanceIDs) > 0 {
		describeInput.InstanceIds = input.InstanceIDs
	}

	// Call AWS API
	output, err := c.EC2.DescribeInstances(c.ctx, describeInput)
	if err != nil {
		return nil, err
	}

	// Convert to internal Instance type
	var instances []types.Instance
	for _, reservation := range output.Reservations {
		for _, inst := range reservation.Instances {
			instances = append(instances, toInstance(inst))
		}
	}

	return instances, nil
}
