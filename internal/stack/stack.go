package stack

import (
	"time"

	"github.com/vietdv277/stratus/internal/template"
	"github.com/vietdv277/stratus/pkg/types"
)

// DefaultTimeout is the stack operation budget when none is configured
const DefaultTimeout = time.Hour

// Stack is a live stack: its current template plus operation state.
// It implements provider.TimeoutSource for the update engine.
type Stack struct {
	Name       string
	Template   *template.Template
	Parameters map[string]any
	Timeout    time.Duration

	Status       string
	StatusReason string

	deadline time.Time
}

// New creates a stack around a parsed template
func New(name string, tpl *template.Template, timeout time.Duration) *Stack {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Stack{
		Name:     name,
		Template: tpl,
		Timeout:  timeout,
	}
}

// begin marks the start of an operation and arms the deadline
func (s *Stack) begin(status string) {
	s.Status = status
	s.StatusReason = ""
	s.deadline = time.Now().Add(s.Timeout)
}

func (s *Stack) complete(status string) {
	s.Status = status
}

func (s *Stack) fail(status, reason string) {
	s.Status = status
	s.StatusReason = reason
}

// RemainingTimeout returns the time left in the current operation's
// budget
func (s *Stack) RemainingTimeout() time.Duration {
	if s.deadline.IsZero() {
		return s.Timeout
	}
	remaining := time.Until(s.deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Record renders the stack's persisted form
func (s *Stack) Record() *types.Stack {
	return &types.Stack{
		Name:         s.Name,
		Status:       s.Status,
		StatusReason: s.StatusReason,
		Timeout:      s.Timeout,
		UpdatedAt:    time.Now().UTC(),
	}
}

// Resolver returns the intrinsic-function resolver for a template in
// this stack's context
func (s *Stack) Resolver(tpl *template.Template) *template.Resolver {
	return &template.Resolver{
		Stack:      s.Name,
		Template:   tpl,
		Parameters: s.Parameters,
	}
}
