package engine

import "time"

// Batch is one unit of a rolling update: a set of members created and
// destroyed (or adjusted in place) together, followed by an optional
// pause
type Batch struct {
	CreateCount int
	DeleteCount int
	Members     []string // identities processed this batch, oldest first
	InPlace     bool     // adjust the listed members instead of replacing them
	PauseAfter  time.Duration
}

// BatchPlan is the ordered batch sequence for one update attempt. It is
// computed fresh per attempt and discarded after execution or abort.
type BatchPlan struct {
	Batches      []Batch
	MinInService int
}

// PauseTotal is the summed inter-batch pause overhead of the plan. The
// final batch never pauses, so this is (batch count - 1) * pause time
// for a uniform pause.
func (p BatchPlan) PauseTotal() time.Duration {
	var total time.Duration
	for _, b := range p.Batches {
		total += b.PauseAfter
	}
	return total
}

// Counts returns the total creates and deletes the plan will issue
func (p BatchPlan) Counts() (creates, deletes int) {
	for _, b := range p.Batches {
		creates += b.CreateCount
		deletes += b.DeleteCount
	}
	return
}

// PlanRollingUpdate computes the batch sequence that reconciles the
// group to effectiveCapacity members under the given policy. The pass
// covers every current live member even when the target is smaller than
// the membership, so a shrinking update still retires every original.
//
// Batch size is the policy's MaxBatchSize capped at the capacity, with a
// floor of one. Members are selected oldest first among those not yet
// processed, so a full pass touches every original member exactly once;
// the final batch takes the remainder. Replacement batches create their
// replacements before the originals are destroyed, which is how the
// MinInstancesInService floor is honored during execution.
//
// When inPlace is set the batches designate existing members for an
// in-place adjustment and no creates are planned.
func PlanRollingUpdate(group *Group, policy *RollingUpdatePolicy, effectiveCapacity int, inPlace bool) BatchPlan {
	plan := BatchPlan{MinInService: policy.MinInstancesInService}

	// oldest-first pool of members still to be processed
	pool := group.LiveMembers()

	slots := effectiveCapacity
	if len(pool) > slots {
		slots = len(pool)
	}
	if slots <= 0 {
		return plan
	}

	batchSize := policy.MaxBatchSize
	if batchSize > effectiveCapacity && effectiveCapacity > 0 {
		batchSize = effectiveCapacity
	}
	if batchSize < 1 {
		batchSize = 1
	}
	batchCount := (slots + batchSize - 1) / batchSize

	remaining := effectiveCapacity
	for i := 0; i < batchCount; i++ {
		n := batchSize
		if n > remaining {
			n = remaining
		}
		remaining -= n

		take := batchSize
		if take > len(pool) {
			take = len(pool)
		}
		ids := make([]string, 0, take)
		for _, m := range pool[:take] {
			ids = append(ids, m.Identity)
		}
		pool = pool[take:]

		b := Batch{
			Members:    ids,
			PauseAfter: policy.PauseTime,
		}
		if inPlace {
			b.InPlace = true
		} else {
			b.CreateCount = n
			b.DeleteCount = take
		}
		plan.Batches = append(plan.Batches, b)
	}

	// no pause after the final batch
	plan.Batches[len(plan.Batches)-1].PauseAfter = 0

	return plan
}
