package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/stratus/internal/engine"
)

const groupTemplate = `
{
  "AWSTemplateFormatVersion" : "2010-09-09",
  "Description" : "Template to create autoscaling group.",
  "Parameters" : {},
  "Resources" : {
    "WebServerGroup" : {
      "UpdatePolicy" : {
        "AutoScalingRollingUpdate" : {
          "MinInstancesInService" : "1",
          "MaxBatchSize" : "2",
          "PauseTime" : "PT1S"
        }
      },
      "Type" : "AWS::AutoScaling::AutoScalingGroup",
      "Properties" : {
        "AvailabilityZones" : ["nova"],
        "LaunchConfigurationName" : { "Ref" : "LaunchConfig" },
        "MinSize" : "10",
        "MaxSize" : "20",
        "LoadBalancerNames" : [ { "Ref" : "ElasticLoadBalancer" } ]
      }
    },
    "ElasticLoadBalancer" : {
        "Type" : "AWS::ElasticLoadBalancing::LoadBalancer",
        "Properties" : {
            "AvailabilityZones" : ["nova"],
            "Listeners" : [ {
                "LoadBalancerPort" : "80",
                "InstancePort" : "80",
                "Protocol" : "HTTP"
            }]
        }
    },
    "LaunchConfig" : {
      "Type" : "AWS::AutoScaling::LaunchConfiguration",
      "Properties": {
        "ImageId"           : "F20-x86_64-cfntools",
        "InstanceType"      : "m1.medium",
        "KeyName"           : "test",
        "SecurityGroups"    : [ "sg-1" ],
        "UserData"          : "jsconfig data"
      }
    }
  }
}
`

const groupTemplateYAML = `
AWSTemplateFormatVersion: "2010-09-09"
Description: Template to create autoscaling group.
Parameters:
  ImageParam:
    Type: String
    Default: F20-x86_64-cfntools
Resources:
  WebServerGroup:
    Type: AWS::AutoScaling::AutoScalingGroup
    Properties:
      AvailabilityZones: ["nova"]
      LaunchConfigurationName: {Ref: LaunchConfig}
      MinSize: "10"
      MaxSize: "20"
  LaunchConfig:
    Type: AWS::AutoScaling::LaunchConfiguration
    Properties:
      ImageId: {Ref: ImageParam}
      InstanceType: m1.medium
`

func TestParseJSONTemplate(t *testing.T) {
	tpl, err := Parse([]byte(groupTemplate))
	require.NoError(t, err)

	assert.Equal(t, "2010-09-09", tpl.FormatVersion)
	assert.Len(t, tpl.Resources, 3)

	grp := tpl.Resources["WebServerGroup"]
	assert.Equal(t, TypeAutoScalingGroup, grp.Type)
	assert.Equal(t, "10", grp.Properties["MinSize"])
	require.NotNil(t, grp.UpdatePolicy)
	assert.Contains(t, grp.UpdatePolicy, "AutoScalingRollingUpdate")

	assert.Equal(t, []string{"WebServerGroup"}, tpl.ResourcesOfType(TypeAutoScalingGroup))
	assert.Equal(t, []string{"LaunchConfig"}, tpl.ResourcesOfType(TypeLaunchConfig))
}

func TestParseYAMLTemplate(t *testing.T) {
	tpl, err := Parse([]byte(groupTemplateYAML))
	require.NoError(t, err)
	assert.Len(t, tpl.Resources, 2)
	assert.Equal(t, "F20-x86_64-cfntools", tpl.Parameters["ImageParam"].Default)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"Resources": {}}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"Resources": {"X": {"Properties": {}}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no type")

	_, err = Parse([]byte(`{{{`))
	assert.Error(t, err)
}

func TestParseUpdatePolicyNotAMapping(t *testing.T) {
	// a scalar UpdatePolicy is a template error, not an absent policy
	_, err := Parse([]byte(`{"Resources": {"X": {"Type": "AWS::AutoScaling::AutoScalingGroup", "UpdatePolicy": "foo"}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UpdatePolicy")
	assert.Contains(t, err.Error(), "not a mapping")
}

func TestSnippetResolvesRefs(t *testing.T) {
	tpl, err := Parse([]byte(groupTemplate))
	require.NoError(t, err)

	r := &Resolver{Stack: "teststack", Template: tpl}
	snippet, err := r.Snippet("WebServerGroup")
	require.NoError(t, err)

	props := snippet["Properties"].(map[string]any)
	lcName, ok := props["LaunchConfigurationName"].(string)
	require.True(t, ok, "Ref should resolve to a physical name")
	assert.Contains(t, lcName, "teststack-LaunchConfig-")

	lbs := props["LoadBalancerNames"].([]any)
	require.Len(t, lbs, 1)
	assert.Contains(t, lbs[0].(string), "teststack-ElasticLoadBalancer-")

	// policy rides along unresolved-as-data
	policy := snippet["UpdatePolicy"].(map[string]any)
	body := policy["AutoScalingRollingUpdate"].(map[string]any)
	assert.Equal(t, "PT1S", body["PauseTime"])
}

func TestSnippetParameterRef(t *testing.T) {
	tpl, err := Parse([]byte(groupTemplateYAML))
	require.NoError(t, err)

	r := &Resolver{Stack: "s", Template: tpl}
	props, err := r.ResolvedProperties("LaunchConfig")
	require.NoError(t, err)
	assert.Equal(t, "F20-x86_64-cfntools", props["ImageId"])

	// supplied parameters override defaults
	r = &Resolver{Stack: "s", Template: tpl, Parameters: map[string]any{"ImageParam": "F17-x86_64-cfntools"}}
	props, err = r.ResolvedProperties("LaunchConfig")
	require.NoError(t, err)
	assert.Equal(t, "F17-x86_64-cfntools", props["ImageId"])
}

func TestSnippetUnresolvableRef(t *testing.T) {
	tpl, err := Parse([]byte(`{"Resources": {"X": {"Type": "T", "Properties": {"Y": {"Ref": "Missing"}}}}}`))
	require.NoError(t, err)

	r := &Resolver{Stack: "s", Template: tpl}
	_, err = r.Snippet("X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestPhysicalNameTracksDefinition(t *testing.T) {
	// an edited launch configuration gets a new physical name, so the
	// groups referencing it see a property change
	current, err := Parse([]byte(groupTemplate))
	require.NoError(t, err)
	updated, err := Parse([]byte(groupTemplate))
	require.NoError(t, err)

	lc := updated.Resources["LaunchConfig"]
	lc.Properties["ImageId"] = "F17-x86_64-cfntools"
	updated.Resources["LaunchConfig"] = lc

	cr := &Resolver{Stack: "s", Template: current}
	ur := &Resolver{Stack: "s", Template: updated}

	currentName, err := cr.PhysicalName("LaunchConfig")
	require.NoError(t, err)
	updatedName, err := ur.PhysicalName("LaunchConfig")
	require.NoError(t, err)
	assert.NotEqual(t, currentName, updatedName)

	// a resource whose definition did not change keeps its name
	currentLB, err := cr.PhysicalName("ElasticLoadBalancer")
	require.NoError(t, err)
	updatedLB, err := ur.PhysicalName("ElasticLoadBalancer")
	require.NoError(t, err)
	assert.Equal(t, currentLB, updatedLB)
}

func TestSnippetDiffIntegration(t *testing.T) {
	// identical templates produce identical snippets; a policy edit
	// produces a policy-only classification
	current, err := Parse([]byte(groupTemplate))
	require.NoError(t, err)
	same, err := Parse([]byte(groupTemplate))
	require.NoError(t, err)

	cs, err := (&Resolver{Stack: "s", Template: current}).Snippet("WebServerGroup")
	require.NoError(t, err)
	ss, err := (&Resolver{Stack: "s", Template: same}).Snippet("WebServerGroup")
	require.NoError(t, err)
	assert.Equal(t, engine.NoChange, engine.Diff(cs, ss).Kind)

	updated, err := Parse([]byte(groupTemplate))
	require.NoError(t, err)
	grp := updated.Resources["WebServerGroup"]
	grp.UpdatePolicy = map[string]any{
		"AutoScalingRollingUpdate": map[string]any{
			"MinInstancesInService": "2",
			"MaxBatchSize":          "4",
			"PauseTime":             "PT1M30S",
		},
	}
	updated.Resources["WebServerGroup"] = grp

	us, err := (&Resolver{Stack: "s", Template: updated}).Snippet("WebServerGroup")
	require.NoError(t, err)
	assert.Equal(t, engine.PolicyOnly, engine.Diff(cs, us).Kind)
}
