package types

import "time"

// LoadBalancer represents a load balancer attached to a group
type LoadBalancer struct {
	Name      string
	ARN       string
	DNSName   string
	Type      string // application, network, gateway
	Scheme    string // internet-facing, internal
	State     string
	VPCID     string
	AZs       []string
	CreatedAt time.Time
}

// TargetGroup represents a registration pool behind a load balancer
type TargetGroup struct {
	Name     string
	ARN      string
	Protocol string
	Port     int
	VPCID    string
	Type     string // instance, ip, lambda
	LBARN    string // associated load balancer ARN
}

// Target represents a registered target in a target group
type Target struct {
	ID     string // instance ID or IP
	Port   int
	AZ     string
	Health string // healthy, unhealthy, draining, unused, initial
}
