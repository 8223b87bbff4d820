package entity

import "time"

// CrawlerInstance identifies one of the egress-IP-bound crawler processes.
// The closed set is fixed at three members but the type allows extension;
// cardinality is never assumed to be exactly 3 by consumers.
type CrawlerInstance string

const (
	Main CrawlerInstance = "main"
	Sub1 CrawlerInstance = "sub1"
	Sub2 CrawlerInstance = "sub2"
)

// DefaultInstances is the configured instance set used when no override is
// supplied. Order here is not significant; rotation order is computed
// separately per day.
var DefaultInstances = []CrawlerInstance{Main, Sub1, Sub2}

// InstanceStatus is a node in the registry's heartbeat FSM (see
// InstanceRecord and the registry package).
type InstanceStatus string

const (
	StatusRegistered InstanceStatus = "registered"
	StatusActive     InstanceStatus = "active"
	StatusDegraded   InstanceStatus = "degraded"
	StatusOffline    InstanceStatus = "offline"
)

// InstanceRecord is the registry's bookkeeping for one crawler instance.
type InstanceRecord struct {
	InstanceID      CrawlerInstance
	Status          InstanceStatus
	LastHeartbeatAt time.Time
	EgressIP        string
	Metadata        map[string]string
}
