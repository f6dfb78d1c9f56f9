package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vietdv277/stratus/pkg/provider"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultResizePolls  = 30
)

// BatchError reports the first unrecoverable failure of an update. The
// update is not retried and partial progress is not rolled back: the
// group is left reflecting exactly the batches completed so far.
type BatchError struct {
	Batch  int
	Member string
	Op     string
	Err    error
}

func (e *BatchError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("batch %d: %s %s: %v", e.Batch, e.Op, e.Member, e.Err)
	}
	return fmt.Sprintf("batch %d: %s: %v", e.Batch, e.Op, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Executor drives a batch plan against a group, one batch at a time.
// Batches never overlap; that sequencing is what bounds availability
// loss to one batch. The caller holds the single-writer lease for the
// group, so the member list is mutated without further locking.
type Executor struct {
	Instances provider.InstanceProvider
	LB        provider.LoadBalancerProvider // nil when the group has no load balancer

	// PollInterval is the wait between status polls during an in-place
	// adjustment; ResizePolls bounds how many polls a member may stay
	// in an intermediate state before the batch fails.
	PollInterval time.Duration
	ResizePolls  int
}

// Execute runs the plan to completion or to its first failure. Within a
// replacement batch, replacements are created and awaited before any
// original is destroyed, keeping instances in service at or above the
// policy floor. After every batch the load balancer, if any, is
// reloaded exactly once with the group's current membership, strictly
// before the next batch begins.
func (e *Executor) Execute(ctx context.Context, group *Group, plan BatchPlan, launch provider.LaunchSpec) error {
	fp := LaunchFingerprint(launch)

	for i, batch := range plan.Batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if batch.InPlace {
			err = e.adjustBatch(ctx, group, i, batch, launch, fp)
		} else {
			err = e.replaceBatch(ctx, group, i, batch, launch, fp)
		}
		if err != nil {
			return err
		}

		if err := e.reload(ctx, group); err != nil {
			return &BatchError{Batch: i, Op: "reload load balancer", Err: err}
		}

		// suspension point: an external stack timeout cancels here
		if batch.PauseAfter > 0 {
			if err := sleep(ctx, batch.PauseAfter); err != nil {
				return err
			}
		}
	}

	return nil
}

// RefreshCollaborators performs the policy-only path: membership is
// unchanged, so no batches run, but the load balancer still observes
// the current membership exactly once.
func (e *Executor) RefreshCollaborators(ctx context.Context, group *Group) error {
	return e.reload(ctx, group)
}

// grow creates count members from the launch spec and waits for each to
// become active. Used for capacity reconciliation outside a batch plan;
// the caller reloads the load balancer afterwards.
func (e *Executor) grow(ctx context.Context, group *Group, launch provider.LaunchSpec, count int) error {
	fp := LaunchFingerprint(launch)

	created := make([]string, 0, count)
	for j := 0; j < count; j++ {
		id, err := e.Instances.Create(ctx, launch)
		if err != nil {
			return &BatchError{Batch: -1, Op: "create instance", Err: err}
		}
		group.Members = append(group.Members, Member{
			Identity:    id,
			Fingerprint: fp,
			State:       MemberPending,
			CreatedAt:   time.Now(),
		})
		created = append(created, id)
	}

	for _, id := range created {
		if err := e.Instances.AwaitActive(ctx, id); err != nil {
			return &BatchError{Batch: -1, Member: id, Op: "wait for active", Err: err}
		}
		if err := e.activate(ctx, group, id); err != nil {
			return &BatchError{Batch: -1, Member: id, Op: "describe", Err: err}
		}
	}

	return nil
}

// replaceBatch creates the batch's replacement members, waits for each
// to become active, then destroys the retired originals. A create
// failure aborts the whole update; remaining batches never run.
func (e *Executor) replaceBatch(ctx context.Context, group *Group, idx int, batch Batch, launch provider.LaunchSpec, fp string) error {
	created := make([]string, 0, batch.CreateCount)
	for j := 0; j < batch.CreateCount; j++ {
		id, err := e.Instances.Create(ctx, launch)
		if err != nil {
			return &BatchError{Batch: idx, Op: "create instance", Err: err}
		}
		group.Members = append(group.Members, Member{
			Identity:    id,
			Fingerprint: fp,
			State:       MemberPending,
			CreatedAt:   time.Now(),
		})
		created = append(created, id)
	}

	for _, id := range created {
		if err := e.Instances.AwaitActive(ctx, id); err != nil {
			return &BatchError{Batch: idx, Member: id, Op: "wait for active", Err: err}
		}
		if err := e.activate(ctx, group, id); err != nil {
			return &BatchError{Batch: idx, Member: id, Op: "describe", Err: err}
		}
	}

	for _, id := range batch.Members {
		if m := group.member(id); m != nil {
			m.State = MemberDeleting
		}
		if err := e.Instances.Destroy(ctx, id); err != nil {
			return &BatchError{Batch: idx, Member: id, Op: "destroy instance", Err: err}
		}
		group.removeMember(id)
	}

	return nil
}

// adjustBatch resizes the designated members in place. Each member is
// polled until it reports the resize ready for confirmation; a member
// stuck in an intermediate state beyond the poll budget fails the
// batch. A failed adjustment is fatal to the update; there is no
// fallback to full replacement.
func (e *Executor) adjustBatch(ctx context.Context, group *Group, idx int, batch Batch, launch provider.LaunchSpec, fp string) error {
	for _, id := range batch.Members {
		m := group.member(id)
		if m == nil {
			return &BatchError{Batch: idx, Member: id, Op: "resize", Err: provider.ErrNotFound}
		}

		if err := e.Instances.Resize(ctx, id, launch.InstanceType); err != nil {
			return &BatchError{Batch: idx, Member: id, Op: "resize", Err: err}
		}
		m.State = MemberResizing

		if err := e.awaitVerifyResize(ctx, id); err != nil {
			return &BatchError{Batch: idx, Member: id, Op: "wait for resize", Err: err}
		}

		if err := e.Instances.ConfirmResize(ctx, id); err != nil {
			return &BatchError{Batch: idx, Member: id, Op: "confirm resize", Err: err}
		}
		m.State = MemberActive
		m.Fingerprint = fp
	}

	return nil
}

// awaitVerifyResize polls a resizing member until it is ready for
// confirmation, within the executor's poll budget
func (e *Executor) awaitVerifyResize(ctx context.Context, id string) error {
	interval := e.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	budget := e.ResizePolls
	if budget <= 0 {
		budget = defaultResizePolls
	}

	for i := 0; i < budget; i++ {
		status, err := e.Instances.GetStatus(ctx, id)
		if err != nil {
			return err
		}
		switch status {
		case provider.StatusVerifyResize:
			return nil
		case provider.StatusResizing, provider.StatusActive:
			// still in flight; Active means the provider has not
			// started reporting the resize yet
		default:
			return fmt.Errorf("unexpected status %q while resizing", status)
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}

	return fmt.Errorf("instance stuck resizing after %d polls", budget)
}

// activate marks a member active and records its address from the
// provider
func (e *Executor) activate(ctx context.Context, group *Group, id string) error {
	m := group.member(id)
	if m == nil {
		return provider.ErrNotFound
	}
	inst, err := e.Instances.Describe(ctx, id)
	if err != nil {
		return err
	}
	m.State = MemberActive
	m.Address = inst.PrivateIP
	return nil
}

// reload pushes the group's current membership to its load balancer.
// Called exactly once per batch boundary.
func (e *Executor) reload(ctx context.Context, group *Group) error {
	if e.LB == nil || group.LoadBalancer == "" {
		return nil
	}
	return e.LB.Reload(ctx, group.LoadBalancer, group.TargetMembers())
}

// member returns a pointer into the member list, or nil
func (g *Group) member(id string) *Member {
	for i := range g.Members {
		if g.Members[i].Identity == id {
			return &g.Members[i]
		}
	}
	return nil
}

// removeMember drops a member from the list, preserving order
func (g *Group) removeMember(id string) {
	for i := range g.Members {
		if g.Members[i].Identity == id {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return
		}
	}
}

// sleep waits for d or until the context is cancelled
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
