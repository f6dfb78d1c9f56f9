package types

import "time"

// Stack status values
const (
	StackCreateInProgress = "CREATE_IN_PROGRESS"
	StackCreateComplete   = "CREATE_COMPLETE"
	StackCreateFailed     = "CREATE_FAILED"
	StackUpdateInProgress = "UPDATE_IN_PROGRESS"
	StackUpdateComplete   = "UPDATE_COMPLETE"
	StackUpdateFailed     = "UPDATE_FAILED"
)

// Stack represents an orchestrated resource stack
type Stack struct {
	Name         string
	Status       string
	StatusReason string
	Timeout      time.Duration // total operation budget
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
