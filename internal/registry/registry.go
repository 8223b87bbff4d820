// Package registry tracks crawler instance liveness (C7): a single-writer
// in-memory map driving the heartbeat FSM from spec §4.7
// (registered -> active -> degraded -> offline), read by the coordinator
// API (C8) to answer GET /api/instances and to decide which hourly slots
// need reassignment.
package registry

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"newsingest/internal/entity"
	"newsingest/internal/observability/metrics"
)

// StaleAfter is the default heartbeat staleness threshold (T_stale, spec
// §4.7): no heartbeat for this long demotes Active -> Degraded.
const StaleAfter = 90 * time.Second

// DeadAfter is 2*StaleAfter (T_dead, spec §4.7): no heartbeat for this
// long demotes Degraded -> Offline.
const DeadAfter = 2 * StaleAfter

var (
	// ErrUnknownInstance is returned by Heartbeat/Deregister for an
	// instance_id never registered (or already deregistered).
	ErrUnknownInstance = fmt.Errorf("registry: unknown instance")
	// ErrBadToken is returned by Heartbeat when the supplied token does
	// not match the one issued at Register.
	ErrBadToken = fmt.Errorf("registry: token mismatch")
)

// record is the registry's internal bookkeeping for one instance,
// wrapping the public entity.InstanceRecord with the issued token.
type record struct {
	entity.InstanceRecord
	token string
}

// Registry is a single-writer, many-reader instance directory, clock
// injected for deterministic tests.
type Registry struct {
	mu    sync.RWMutex
	byID  map[entity.CrawlerInstance]*record
	clock func() time.Time
}

// New creates an empty Registry using the real wall clock.
func New() *Registry {
	return &Registry{
		byID:  make(map[entity.CrawlerInstance]*record),
		clock: time.Now,
	}
}

// NewWithClock creates a Registry driven by clock, for tests that need to
// simulate heartbeat staleness without sleeping.
func NewWithClock(clock func() time.Time) *Registry {
	r := New()
	r.clock = clock
	return r
}

// Register adds instanceID in StatusRegistered and issues a fresh opaque
// token. Re-registering an already-known instance reissues a new token
// and resets its state to StatusRegistered, per spec §4.7's "(none) --
// register --> Registered" transition applying from any prior state.
func (r *Registry) Register(instanceID entity.CrawlerInstance, egressIP string, meta map[string]string) (token string, err error) {
	token, err = newToken()
	if err != nil {
		return "", fmt.Errorf("registry: generate token: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[instanceID] = &record{
		InstanceRecord: entity.InstanceRecord{
			InstanceID:      instanceID,
			Status:          entity.StatusRegistered,
			LastHeartbeatAt: r.clock(),
			EgressIP:        egressIP,
			Metadata:        meta,
		},
		token: token,
	}
	r.recordCountsLocked()
	return token, nil
}

// Heartbeat advances instanceID's FSM per spec §4.7: the first heartbeat
// after registration moves Registered -> Active; any heartbeat while
// Degraded or Offline revives the instance to Active, since receiving a
// heartbeat at all contradicts staleness. It returns the now-current
// record.
func (r *Registry) Heartbeat(instanceID entity.CrawlerInstance, token string) (entity.InstanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[instanceID]
	if !ok {
		return entity.InstanceRecord{}, ErrUnknownInstance
	}
	if rec.token != token {
		return entity.InstanceRecord{}, ErrBadToken
	}

	rec.LastHeartbeatAt = r.clock()
	rec.Status = entity.StatusActive
	r.recordCountsLocked()
	return rec.InstanceRecord, nil
}

// Deregister removes instanceID immediately, regardless of its current
// state, per spec §4.7's "any state + explicit deregister -> removed".
func (r *Registry) Deregister(instanceID entity.CrawlerInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[instanceID]; !ok {
		return ErrUnknownInstance
	}
	delete(r.byID, instanceID)
	r.recordCountsLocked()
	return nil
}

// Get returns a snapshot of instanceID's current record, with staleness
// applied as of now.
func (r *Registry) Get(instanceID entity.CrawlerInstance) (entity.InstanceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[instanceID]
	if !ok {
		return entity.InstanceRecord{}, false
	}
	return withStaleness(rec.InstanceRecord, r.clock()), true
}

// List returns a snapshot of every registered instance, staleness
// applied, ordered by instance id for stable output.
func (r *Registry) List() []entity.InstanceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock()
	out := make([]entity.InstanceRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, withStaleness(rec.InstanceRecord, now))
	}
	sortByInstanceID(out)
	return out
}

// Sweep recomputes every instance's status against the current clock,
// demoting stale Active instances to Degraded and stale Degraded
// instances to Offline. It does not remove Offline instances; only an
// explicit Deregister does that. Callers (internal/coordinator) run this
// periodically so GET /api/instances reflects staleness even between
// heartbeats.
func (r *Registry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	for _, rec := range r.byID {
		rec.InstanceRecord = withStaleness(rec.InstanceRecord, now)
	}
	r.recordCountsLocked()
}

// withStaleness returns rec with Status demoted per elapsed time since
// LastHeartbeatAt, leaving StatusRegistered instances (which have never
// heartbeated) alone until their first heartbeat arrives.
func withStaleness(rec entity.InstanceRecord, now time.Time) entity.InstanceRecord {
	if rec.Status == entity.StatusRegistered {
		return rec
	}
	elapsed := now.Sub(rec.LastHeartbeatAt)
	switch {
	case elapsed >= DeadAfter:
		rec.Status = entity.StatusOffline
	case elapsed >= StaleAfter:
		if rec.Status == entity.StatusActive {
			rec.Status = entity.StatusDegraded
		}
	}
	return rec
}

func (r *Registry) recordCountsLocked() {
	now := r.clock()
	counts := map[string]int{
		string(entity.StatusRegistered): 0,
		string(entity.StatusActive):     0,
		string(entity.StatusDegraded):   0,
		string(entity.StatusOffline):    0,
	}
	for _, rec := range r.byID {
		counts[string(withStaleness(rec.InstanceRecord, now).Status)]++
	}
	metrics.SetInstanceCounts(counts)
}

func sortByInstanceID(recs []entity.InstanceRecord) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j].InstanceID < recs[j-1].InstanceID; j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
