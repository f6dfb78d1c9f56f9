package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroup(size int) *Group {
	g := &Group{Name: "web-group", Capacity: size, MinSize: size, MaxSize: size * 2}
	for i := 0; i < size; i++ {
		g.Members = append(g.Members, Member{
			Identity:  fmt.Sprintf("i-%04d", i),
			State:     MemberActive,
			CreatedAt: time.Unix(int64(1700000000+i), 0),
		})
	}
	return g
}

func TestPlanBatchCount(t *testing.T) {
	tests := []struct {
		capacity  int
		batchSize int
		batches   int
		lastBatch int // members in the final batch
	}{
		{12, 2, 6, 2},
		{20, 2, 10, 2},
		{10, 3, 4, 1}, // remainder batch
		{5, 1, 5, 1},
		{1, 1, 1, 1},
		{3, 10, 1, 3}, // batch size capped at capacity
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("cap%d_batch%d", tt.capacity, tt.batchSize), func(t *testing.T) {
			g := testGroup(tt.capacity)
			policy := &RollingUpdatePolicy{MaxBatchSize: tt.batchSize, PauseTime: time.Second}

			plan := PlanRollingUpdate(g, policy, tt.capacity, false)
			require.Len(t, plan.Batches, tt.batches)

			last := plan.Batches[len(plan.Batches)-1]
			assert.Equal(t, tt.lastBatch, last.CreateCount)

			creates, deletes := plan.Counts()
			assert.Equal(t, tt.capacity, creates)
			assert.Equal(t, tt.capacity, deletes)
		})
	}
}

func TestPlanPauses(t *testing.T) {
	// 10 batches, 9 inter-batch pauses; never a pause after the final batch
	g := testGroup(20)
	policy := &RollingUpdatePolicy{MaxBatchSize: 2, MinInstancesInService: 1, PauseTime: time.Second}

	plan := PlanRollingUpdate(g, policy, 20, false)
	require.Len(t, plan.Batches, 10)

	for i, b := range plan.Batches[:9] {
		assert.Equal(t, time.Second, b.PauseAfter, "batch %d", i)
	}
	assert.Equal(t, time.Duration(0), plan.Batches[9].PauseAfter)
	assert.Equal(t, 9*time.Second, plan.PauseTotal())
	assert.Equal(t, 1, plan.MinInService)
}

func TestPlanOldestFirst(t *testing.T) {
	// a full pass replaces every original member exactly once, in
	// ascending creation order
	g := testGroup(6)
	policy := &RollingUpdatePolicy{MaxBatchSize: 2}

	plan := PlanRollingUpdate(g, policy, 6, false)
	require.Len(t, plan.Batches, 3)

	var order []string
	for _, b := range plan.Batches {
		order = append(order, b.Members...)
	}
	assert.Equal(t, []string{"i-0000", "i-0001", "i-0002", "i-0003", "i-0004", "i-0005"}, order)
}

func TestPlanInPlace(t *testing.T) {
	g := testGroup(5)
	policy := &RollingUpdatePolicy{MaxBatchSize: 2, PauseTime: time.Minute}

	plan := PlanRollingUpdate(g, policy, 5, true)
	require.Len(t, plan.Batches, 3)

	total := 0
	for _, b := range plan.Batches {
		assert.True(t, b.InPlace)
		assert.Zero(t, b.CreateCount)
		assert.Zero(t, b.DeleteCount)
		total += len(b.Members)
	}
	assert.Equal(t, 5, total)
}

func TestPlanScaleUpShortPool(t *testing.T) {
	// more capacity than existing members: the excess is pure creation
	g := testGroup(3)
	policy := &RollingUpdatePolicy{MaxBatchSize: 2}

	plan := PlanRollingUpdate(g, policy, 5, false)
	creates, deletes := plan.Counts()
	assert.Equal(t, 5, creates)
	assert.Equal(t, 3, deletes)
}

func TestPlanZeroCapacity(t *testing.T) {
	g := testGroup(0)
	policy := &RollingUpdatePolicy{MaxBatchSize: 2}

	plan := PlanRollingUpdate(g, policy, 0, false)
	assert.Empty(t, plan.Batches)
}

func TestPlanSkipsDeletedMembers(t *testing.T) {
	g := testGroup(4)
	g.Members[1].State = MemberDeleted

	plan := PlanRollingUpdate(g, &RollingUpdatePolicy{MaxBatchSize: 4}, 4, false)
	require.Len(t, plan.Batches, 1)
	assert.Equal(t, []string{"i-0000", "i-0002", "i-0003"}, plan.Batches[0].Members)
}
