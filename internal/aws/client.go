package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Client wraps AWS SDK clients
type Client struct {
	EC2   *ec2.Client
	ASG   *autoscaling.Client
	ELBv2 *elbv2.Client
	SSM   *ssm.Client

	ctx     context.Context
	profile string
	region  string

	instances *Instances
}

// ClientOption allows customizing the AWS Client
type ClientOption func(*Client)

// WithProfile sets the AWS profile for the client
func WithProfile(profile string) ClientOption {
	return func(c *Client) {
		c.profile = profile
	}
}

// WithRegion sets the AWS region for the client
func WithRegion(region string) ClientOption {
	return func(c *Client) {
		c.region = region
	}
}

// NewClient creates a new AWS Client with the given options
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	c := &Client{
		ctx: ctx,
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	cfg, err := loadConfig(ctx, c.profile, c.region)
	if err != nil {
		return nil, err
	}

	c.EC2 = ec2.NewFromConfig(cfg)
	c.ASG = autoscaling.NewFromConfig(cfg)
	c.ELBv2 = elbv2.NewFromConfig(cfg)
	c.SSM = ssm.NewFromConfig(cfg)

	return c, nil
}

// Context returns the client's context
func (c *Client) Context() context.Context {
	return c.ctx
}

// loadConfig builds the shared AWS config for the given profile and
// region, falling back to the default credential chain
func loadConfig(ctx context.Context, profile, region string) (awssdk.Config, error) {
	var configOpts []func(*config.LoadOptions) error

	if profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(profile))
	}

	if region != "" {
		configOpts = append(configOpts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return cfg, nil
}

// deref safely dereferences a string pointer
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// deref32 safely dereferences an int32 pointer
func deref32(i *int32) int32 {
	if i == nil {
		return 0
	}
	return *i
}
