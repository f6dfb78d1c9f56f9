package engine

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTimeout time.Duration

func (f fixedTimeout) RemainingTimeout() time.Duration {
	return time.Duration(f)
}

func launchSnippet() map[string]any {
	return map[string]any{
		"ImageId":        "F20-x86_64-cfntools",
		"InstanceType":   "m1.medium",
		"KeyName":        "test",
		"SecurityGroups": []any{"sg-1"},
		"UserData":       "jsconfig data",
	}
}

func sizedSnippet(size int, policy map[string]any) map[string]any {
	return groupSnippet(policy, map[string]any{
		"AvailabilityZones":       []any{"us-east-1a"},
		"LaunchConfigurationName": "web-launch-config",
		"MinSize":                 strconv.Itoa(size),
		"MaxSize":                 strconv.Itoa(size * 2),
		"DesiredCapacity":         strconv.Itoa(size),
	})
}

func newTestUpdater(f *fakeCloud, remaining time.Duration) *Updater {
	return &Updater{
		Executor: newTestExecutor(f),
		Timeout:  fixedTimeout(remaining),
	}
}

func TestApplyNoChange(t *testing.T) {
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)

	snippet := sizedSnippet(4, rollingPolicy("1", "2", "PT1S"))
	res, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       snippet,
		Updated:       sizedSnippet(4, rollingPolicy("1", "2", "PT1S")),
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: launchSnippet(),
	})
	require.NoError(t, err)
	assert.Equal(t, NoChange, res.Classification.Kind)
	assert.Zero(t, f.reloads)
	assert.Zero(t, f.creates)
}

func TestApplyPolicyOnlyAdded(t *testing.T) {
	// adding a policy touches no members: one reload, nothing else
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)

	res, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(4, nil),
		Updated:       sizedSnippet(4, rollingPolicy("1", "2", "PT1S")),
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: launchSnippet(),
	})
	require.NoError(t, err)
	assert.Equal(t, PolicyOnly, res.Classification.Kind)
	assert.Equal(t, 1, f.reloads)
	assert.Zero(t, f.creates)
	assert.Zero(t, f.destroys)

	require.NotNil(t, g.Policy)
	assert.Equal(t, 2, g.Policy.MaxBatchSize)
	assert.Equal(t, time.Second, g.Policy.PauseTime)
	assert.NotNil(t, g.PolicyRaw)
}

func TestApplyPolicyOnlyRemoved(t *testing.T) {
	// reverting to no policy is still a policy-only update
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)
	g.SetPolicy(&RollingUpdatePolicy{MaxBatchSize: 2, PauseTime: time.Second})

	res, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(4, rollingPolicy("1", "2", "PT1S")),
		Updated:       sizedSnippet(4, nil),
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: launchSnippet(),
	})
	require.NoError(t, err)
	assert.Equal(t, PolicyOnly, res.Classification.Kind)
	assert.Equal(t, 1, f.reloads)
	assert.Zero(t, f.creates)
	assert.Nil(t, g.Policy)
	assert.Nil(t, g.PolicyRaw)
}

func TestApplyValidationErrorBeforeAnything(t *testing.T) {
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)

	_, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(4, nil),
		Updated:       sizedSnippet(4, map[string]any{"foo": map[string]any{}}),
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: launchSnippet(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foo")
	assert.Zero(t, f.reloads)
	assert.Zero(t, f.creates)
}

func TestApplyTimeoutExceededBeforeMutation(t *testing.T) {
	// 12 members, batch size 2: 6 batches, 5 pauses of 14 minutes is
	// 4200s against a 3600s budget; rejected before any instance call
	f := newFakeCloud()
	u := newTestUpdater(f, 3600*time.Second)
	g := lbGroup(12)

	updated := sizedSnippet(12, rollingPolicy("10", "2", "PT14M"))
	updated[KeyProperties].(map[string]any)["LaunchConfigurationName"] = "web-launch-config-v2"
	updatedLaunch := launchSnippet()
	updatedLaunch["ImageId"] = "F17-x86_64-cfntools"

	res, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(12, rollingPolicy("1", "2", "PT1S")),
		Updated:       updated,
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: updatedLaunch,
	})
	require.Error(t, err)
	assert.Equal(t, "The current UpdatePolicy will result in stack update timeout.", err.Error())

	var terr *TimeoutExceededError
	require.ErrorAs(t, err, &terr)

	assert.Zero(t, f.creates)
	assert.Zero(t, f.destroys)
	assert.Zero(t, f.reloads)

	// the group record still reflects the updated policy
	require.NotNil(t, g.Policy)
	assert.Equal(t, 14*time.Minute, g.Policy.PauseTime)

	require.NotNil(t, res.Plan)
	assert.Len(t, res.Plan.Batches, 6)
}

func TestApplyMinInServiceHeadroomTimesOut(t *testing.T) {
	// 10 members with an in-service floor of 10: two extra slots are
	// carried during the pass, so the plan is 6 batches of 2 and the
	// 5 pauses of 14 minutes blow the hour budget
	f := newFakeCloud()
	u := newTestUpdater(f, 3600*time.Second)
	g := lbGroup(10)

	updated := sizedSnippet(10, rollingPolicy("10", "2", "PT14M"))
	updated[KeyProperties].(map[string]any)["LaunchConfigurationName"] = "web-launch-config-v2"
	updatedLaunch := launchSnippet()
	updatedLaunch["ImageId"] = "F17-x86_64-cfntools"

	res, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(10, nil),
		Updated:       updated,
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: updatedLaunch,
	})
	require.Error(t, err)

	var terr *TimeoutExceededError
	require.ErrorAs(t, err, &terr)

	require.NotNil(t, res.Plan)
	assert.Len(t, res.Plan.Batches, 6)
	assert.Zero(t, f.creates)
	assert.Zero(t, f.destroys)
}

func TestApplyMinInServiceHeadroomTrimsSurplus(t *testing.T) {
	// the temporary slots carried for the in-service floor are retired
	// after the pass and the group lands back on its target capacity
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(10)

	updated := sizedSnippet(10, rollingPolicy("10", "2", "PT0S"))
	updated[KeyProperties].(map[string]any)["LaunchConfigurationName"] = "web-launch-config-v2"
	updatedLaunch := launchSnippet()
	updatedLaunch["ImageId"] = "F17-x86_64-cfntools"

	_, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(10, nil),
		Updated:       updated,
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: updatedLaunch,
	})
	require.NoError(t, err)

	assert.Equal(t, 12, f.creates)
	assert.Equal(t, 12, f.destroys) // 10 replaced plus 2 surplus
	assert.Equal(t, 7, f.reloads)   // one per batch plus the trim
	assert.Len(t, g.LiveMembers(), 10)
}

func TestPreviewLeavesGroupUntouched(t *testing.T) {
	f := newFakeCloud()
	u := newTestUpdater(f, 3600*time.Second)
	g := lbGroup(12)

	updated := sizedSnippet(12, rollingPolicy("10", "2", "PT14M"))
	updated[KeyProperties].(map[string]any)["LaunchConfigurationName"] = "web-launch-config-v2"
	updatedLaunch := launchSnippet()
	updatedLaunch["ImageId"] = "F17-x86_64-cfntools"

	res, err := u.Preview(g, UpdateInput{
		Current:       sizedSnippet(12, rollingPolicy("1", "2", "PT1S")),
		Updated:       updated,
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: updatedLaunch,
	})
	require.Error(t, err)

	var terr *TimeoutExceededError
	require.ErrorAs(t, err, &terr)
	require.NotNil(t, res.Plan)
	assert.Len(t, res.Plan.Batches, 6)

	// nothing ran and the record is untouched
	assert.Zero(t, f.creates)
	assert.Zero(t, f.reloads)
	assert.Nil(t, g.Policy)
	assert.Len(t, g.Members, 12)
}

func TestApplyUnchangedGroupSnippetIsNoop(t *testing.T) {
	// the classification is total: if the group's own rendered
	// definition did not change, nothing happens, whatever else moved
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)

	res, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(4, rollingPolicy("1", "2", "PT0S")),
		Updated:       sizedSnippet(4, rollingPolicy("1", "2", "PT0S")),
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: launchSnippet(),
	})
	require.NoError(t, err)
	assert.Equal(t, NoChange, res.Classification.Kind)
	assert.Zero(t, f.creates)
	assert.Zero(t, f.reloads)
}

func TestApplyLaunchConfigChangeReplaces(t *testing.T) {
	// a new launch configuration shows up as a Properties change on the
	// group (the reference is a new physical name) plus changed launch
	// properties
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)

	updated := sizedSnippet(4, rollingPolicy("1", "2", "PT0S"))
	updated[KeyProperties].(map[string]any)["LaunchConfigurationName"] = "web-launch-config-v2"
	updatedLaunch := launchSnippet()
	updatedLaunch["ImageId"] = "F17-x86_64-cfntools"

	res, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(4, rollingPolicy("1", "2", "PT0S")),
		Updated:       updated,
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: updatedLaunch,
	})
	require.NoError(t, err)
	assert.Equal(t, PropertiesChanged, res.Classification.Kind)

	assert.Equal(t, 4, f.creates)
	assert.Equal(t, 4, f.destroys)
	assert.Equal(t, 2, f.reloads)
	assert.Zero(t, f.resizes)
}

func TestApplyInstanceTypeChangeResizesInPlace(t *testing.T) {
	// sizing is mutable: the members are adjusted, not replaced
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)

	updated := sizedSnippet(4, rollingPolicy("1", "2", "PT0S"))
	updated[KeyProperties].(map[string]any)["LaunchConfigurationName"] = "web-launch-config-v2"
	updatedLaunch := launchSnippet()
	updatedLaunch["InstanceType"] = "m1.large"

	res, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(4, rollingPolicy("1", "2", "PT0S")),
		Updated:       updated,
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: updatedLaunch,
	})
	require.NoError(t, err)
	assert.Equal(t, PropertiesChanged, res.Classification.Kind)

	assert.Equal(t, 4, f.resizes)
	assert.Equal(t, 4, f.confirms)
	assert.Zero(t, f.creates)
	assert.Zero(t, f.destroys)
	assert.Equal(t, 2, f.reloads)
}

func TestApplyCapacityOnlyChange(t *testing.T) {
	// no launch change: membership stays, collaborators observe the
	// updated record once
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)

	updated := sizedSnippet(4, rollingPolicy("1", "2", "PT0S"))
	updated[KeyProperties].(map[string]any)["MaxSize"] = "16"

	_, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(4, rollingPolicy("1", "2", "PT0S")),
		Updated:       updated,
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: launchSnippet(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.reloads)
	assert.Zero(t, f.creates)
	assert.Equal(t, 16, g.MaxSize)
}

func TestApplyCapacityGrowthAddsMembers(t *testing.T) {
	// capacity raised with an unchanged launch configuration: the delta
	// is created outright and the load balancer observes the result once
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)

	_, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(4, rollingPolicy("1", "2", "PT0S")),
		Updated:       sizedSnippet(8, rollingPolicy("1", "2", "PT0S")),
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: launchSnippet(),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, f.creates)
	assert.Zero(t, f.destroys)
	assert.Equal(t, 1, f.reloads)
	assert.Len(t, g.LiveMembers(), 8)
	for _, m := range g.LiveMembers() {
		assert.Equal(t, MemberActive, m.State)
	}
}

func TestApplyCapacityShrinkRetiresSurplus(t *testing.T) {
	// capacity lowered with an unchanged launch configuration: the
	// oldest surplus members are destroyed, nothing is created
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(8)

	_, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(8, rollingPolicy("1", "2", "PT0S")),
		Updated:       sizedSnippet(4, rollingPolicy("1", "2", "PT0S")),
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: launchSnippet(),
	})
	require.NoError(t, err)

	assert.Zero(t, f.creates)
	assert.Equal(t, 4, f.destroys)
	assert.Equal(t, 1, f.reloads)
	assert.Len(t, g.LiveMembers(), 4)
}

func TestApplyShrinkWithLaunchChangeRetiresEveryOriginal(t *testing.T) {
	// capacity lowered while the launch configuration changes: the pass
	// still visits all eight originals, and the group lands on four
	// members all carrying the new configuration
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(8)

	updated := sizedSnippet(4, rollingPolicy("1", "2", "PT0S"))
	updated[KeyProperties].(map[string]any)["LaunchConfigurationName"] = "web-launch-config-v2"
	updatedLaunch := launchSnippet()
	updatedLaunch["ImageId"] = "F17-x86_64-cfntools"

	_, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(8, rollingPolicy("1", "2", "PT0S")),
		Updated:       updated,
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: updatedLaunch,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, f.creates)
	assert.Equal(t, 8, f.destroys)

	fp := LaunchFingerprint(LaunchSpecFromSnippet(g.Name, updatedLaunch))
	live := g.LiveMembers()
	require.Len(t, live, 4)
	for _, m := range live {
		assert.Equal(t, fp, m.Fingerprint)
	}
}

func TestApplyWithoutPolicyReplacesWholeGroup(t *testing.T) {
	// no rolling-update policy: the group turns over in a single batch
	f := newFakeCloud()
	u := newTestUpdater(f, time.Hour)
	g := lbGroup(4)

	updated := sizedSnippet(4, nil)
	updated[KeyProperties].(map[string]any)["LaunchConfigurationName"] = "web-launch-config-v2"
	updatedLaunch := launchSnippet()
	updatedLaunch["ImageId"] = "F17-x86_64-cfntools"

	res, err := u.Apply(context.Background(), g, UpdateInput{
		Current:       sizedSnippet(4, nil),
		Updated:       updated,
		CurrentLaunch: launchSnippet(),
		UpdatedLaunch: updatedLaunch,
	})
	require.NoError(t, err)

	require.NotNil(t, res.Plan)
	assert.Len(t, res.Plan.Batches, 1)
	assert.Equal(t, 4, f.creates)
	assert.Equal(t, 4, f.destroys)
	assert.Equal(t, 1, f.reloads)
}
