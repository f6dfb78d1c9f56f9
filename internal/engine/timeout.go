package engine

import "time"

// timeoutMessage is surfaced verbatim as the stack failure reason so
// operators can tell a policy-induced timeout from a provisioning one
const timeoutMessage = "The current UpdatePolicy will result in stack update timeout."

// TimeoutExceededError means the plan's pause overhead alone exceeds
// the remaining stack timeout, so the update is rejected before any
// instance mutation is issued
type TimeoutExceededError struct {
	Estimated time.Duration
	Remaining time.Duration
}

func (e *TimeoutExceededError) Error() string {
	return timeoutMessage
}

// CheckTimeout verifies a plan is feasible within the remaining stack
// timeout. The estimate is deliberately a lower bound: it counts only
// the inter-batch pauses and excludes per-instance provisioning
// latency, so a failure here means the update is certain to time out.
func CheckTimeout(plan BatchPlan, remaining time.Duration) error {
	estimated := plan.PauseTotal()
	if estimated > remaining {
		return &TimeoutExceededError{Estimated: estimated, Remaining: remaining}
	}
	return nil
}
