package types

import "time"

// Instance represents a compute instance backing a group member
type Instance struct {
	ID         string
	Name       string
	PrivateIP  string
	PublicIP   string
	State      string
	Type       string
	AZ         string
	Group      string
	LaunchTime time.Time
}
