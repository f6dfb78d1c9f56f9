package state

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"gopkg.in/yaml.v3"

	"github.com/vietdv277/stratus/internal/engine"
	"github.com/vietdv277/stratus/pkg/provider"
	"github.com/vietdv277/stratus/pkg/types"
)

// DefaultSSMPrefix is the parameter hierarchy root for stored records
const DefaultSSMPrefix = "/strat"

// ssmAPI is the slice of the SSM client the store needs
type ssmAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// SSMStore keeps records as YAML documents in SSM Parameter Store,
// under <prefix>/<stack>/stack and <prefix>/<stack>/groups/<name>
type SSMStore struct {
	client ssmAPI
	prefix string
}

// NewSSMStore creates a Parameter Store backed state store
func NewSSMStore(client *ssm.Client, prefix string) *SSMStore {
	if prefix == "" {
		prefix = DefaultSSMPrefix
	}
	return &SSMStore{client: client, prefix: prefix}
}

func (s *SSMStore) stackParam(stack string) string {
	return fmt.Sprintf("%s/%s/stack", s.prefix, stack)
}

func (s *SSMStore) groupParam(stack, name string) string {
	return fmt.Sprintf("%s/%s/groups/%s", s.prefix, stack, name)
}

// SaveStack writes the stack record
func (s *SSMStore) SaveStack(ctx context.Context, st *types.Stack) error {
	return s.put(ctx, s.stackParam(st.Name), st)
}

// LoadStack reads a stack record
func (s *SSMStore) LoadStack(ctx context.Context, name string) (*types.Stack, error) {
	var st types.Stack
	if err := s.get(ctx, s.stackParam(name), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveGroup writes a group record
func (s *SSMStore) SaveGroup(ctx context.Context, stack string, g *engine.Group) error {
	return s.put(ctx, s.groupParam(stack, g.Name), g)
}

// LoadGroup reads a group record and restores its validated policy
func (s *SSMStore) LoadGroup(ctx context.Context, stack, name string) (*engine.Group, error) {
	var g engine.Group
	if err := s.get(ctx, s.groupParam(stack, name), &g); err != nil {
		return nil, err
	}
	if err := restorePolicy(&g); err != nil {
		return nil, fmt.Errorf("failed to restore policy for group %q: %w", name, err)
	}
	return &g, nil
}

// SaveTemplate writes the stack's current template document
func (s *SSMStore) SaveTemplate(ctx context.Context, stack string, data []byte) error {
	name := fmt.Sprintf("%s/%s/template", s.prefix, stack)
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(string(data)),
		Type:      ssmtypes.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to put parameter %s: %w", name, err)
	}
	return nil
}

// LoadTemplate reads the stack's current template document
func (s *SSMStore) LoadTemplate(ctx context.Context, stack string) ([]byte, error) {
	name := fmt.Sprintf("%s/%s/template", s.prefix, stack)
	output, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return nil, provider.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	return []byte(aws.ToString(output.Parameter.Value)), nil
}

// ListGroups returns all group records of a stack, sorted by name
func (s *SSMStore) ListGroups(ctx context.Context, stack string) ([]*engine.Group, error) {
	path := fmt.Sprintf("%s/%s/groups/", s.prefix, stack)

	var groups []*engine.Group
	var nextToken *string
	for {
		output, err := s.client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:      aws.String(path),
			Recursive: aws.Bool(false),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list group parameters: %w", err)
		}

		for _, p := range output.Parameters {
			var g engine.Group
			if err := yaml.Unmarshal([]byte(aws.ToString(p.Value)), &g); err != nil {
				return nil, fmt.Errorf("failed to parse group parameter %s: %w", aws.ToString(p.Name), err)
			}
			if err := restorePolicy(&g); err != nil {
				return nil, fmt.Errorf("failed to restore policy for group %q: %w", g.Name, err)
			}
			groups = append(groups, &g)
		}

		if output.NextToken == nil {
			break
		}
		nextToken = output.NextToken
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (s *SSMStore) put(ctx context.Context, name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(string(data)),
		Type:      ssmtypes.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to put parameter %s: %w", name, err)
	}
	return nil
}

func (s *SSMStore) get(ctx context.Context, name string, v any) error {
	output, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return provider.ErrNotFound
		}
		return fmt.Errorf("failed to get parameter %s: %w", name, err)
	}

	if err := yaml.Unmarshal([]byte(aws.ToString(output.Parameter.Value)), v); err != nil {
		return fmt.Errorf("failed to parse parameter %s: %w", name, err)
	}
	return nil
}
