package provider

import (
	"context"
	"errors"
	"time"

	"github.com/vietdv277/stratus/pkg/types"
)

// Common errors
var (
	ErrNotSupported     = errors.New("operation not supported by this provider")
	ErrNotFound         = errors.New("resource not found")
	ErrNotConfigured    = errors.New("provider not configured")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")
)

// Instance status strings reported by GetStatus
const (
	StatusPending      = "Pending"
	StatusActive       = "Active"
	StatusResizing     = "Resizing"
	StatusVerifyResize = "VerifyResize"
	StatusDeleting     = "Deleting"
	StatusDeleted      = "Deleted"
	StatusError        = "Error"
)

// Tag keys stamped on every member a stack launches
const (
	TagStack = "stratus:stack"
	TagGroup = "stratus:group"
)

// LaunchSpec describes the configuration used to launch a group member
type LaunchSpec struct {
	Name           string // name prefix for launched instances
	ImageID        string // machine image
	InstanceType   string // sizing/flavor
	KeyName        string // SSH key pair
	SecurityGroups []string
	UserData       string
	SubnetID       string
	Tags           map[string]string
}

// InstanceProvider defines the lifecycle operations the update engine needs
// for a single group member. All blocking calls honor the passed context.
type InstanceProvider interface {
	// Create launches a new instance and returns its identity handle.
	// The instance is not necessarily active when Create returns.
	Create(ctx context.Context, spec LaunchSpec) (string, error)

	// AwaitActive blocks until the instance reaches the active state
	// or the context is cancelled
	AwaitActive(ctx context.Context, id string) error

	// Destroy terminates an instance
	Destroy(ctx context.Context, id string) error

	// Resize changes the instance to the target sizing descriptor.
	// The instance transitions through Resizing to VerifyResize.
	Resize(ctx context.Context, id string, targetType string) error

	// ConfirmResize finalizes a resize left in VerifyResize
	ConfirmResize(ctx context.Context, id string) error

	// GetStatus returns the current status string for an instance
	GetStatus(ctx context.Context, id string) (string, error)

	// Describe returns instance details (address, state, type)
	Describe(ctx context.Context, id string) (*types.Instance, error)
}

// TargetMember is one entry in a load balancer membership reload
type TargetMember struct {
	Identity string
	Address  string
	Port     int
}

// LoadBalancerProvider keeps an external load balancer consistent with
// group membership. Reload is idempotent and always receives the full
// current membership.
type LoadBalancerProvider interface {
	Reload(ctx context.Context, name string, members []TargetMember) error
}

// TimeoutSource exposes the remaining time budget of the surrounding
// stack operation at the moment an update begins
type TimeoutSource interface {
	RemainingTimeout() time.Duration
}
