// Package coordclient implements the worker-side coordinator client
// (C9): register-then-heartbeat against internal/coordinator, falling
// back to autonomous local schedule regeneration when the coordinator is
// unreachable, per spec §4.9.
package coordclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"newsingest/internal/entity"
	"newsingest/internal/observability/logging"
	"newsingest/internal/resilience/circuitbreaker"
	"newsingest/internal/scheduler"
)

// Config configures a Client.
type Config struct {
	CoordinatorURL    string
	InstanceID        entity.CrawlerInstance
	EgressIP          string
	AuthToken         string // optional, mirrors internal/coordinator's bearer check
	HeartbeatInterval time.Duration
	FallbackGrace     time.Duration // spec §4.9: unreachable >= this enters autonomous mode
	Instances         []entity.CrawlerInstance
}

// Client maintains (coordinator_url, instance_id, token, current_slot,
// last_contact_at) per spec §4.9, refreshed by a background heartbeat
// loop started with Run.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger

	mu           sync.RWMutex
	token        string
	currentSlot  entity.HourlySlot
	lastContact  time.Time
	autonomous   bool
}

// New creates a Client for cfg.
func New(cfg Config) *Client {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.FallbackGrace <= 0 {
		cfg.FallbackGrace = 90 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: circuitbreaker.New(circuitbreaker.CoordinatorRPCConfig()),
		logger:  logging.NewLogger().With("component", "coordclient", "instance_id", cfg.InstanceID),
	}
}

// Register performs the initial registration call, storing the issued
// token for subsequent heartbeats.
func (c *Client) Register(ctx context.Context) error {
	reqBody, err := json.Marshal(map[string]any{
		"instance_id": c.cfg.InstanceID,
		"egress_ip":   c.cfg.EgressIP,
	})
	if err != nil {
		return fmt.Errorf("coordclient: marshal register request: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.postJSON(ctx, "/api/instances/register", reqBody, &resp); err != nil {
		return fmt.Errorf("coordclient: register: %w", err)
	}

	c.mu.Lock()
	c.token = resp.Token
	c.lastContact = time.Now()
	c.mu.Unlock()
	return nil
}

// Run starts the heartbeat loop at cfg.HeartbeatInterval until ctx is
// cancelled. It is meant to run in its own goroutine.
func (c *Client) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.heartbeatOnce(ctx)
		}
	}
}

func (c *Client) heartbeatOnce(ctx context.Context) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	reqBody, err := json.Marshal(map[string]any{
		"instance_id": c.cfg.InstanceID,
		"token":       token,
	})
	if err != nil {
		c.logger.Error("marshal heartbeat request", "error", err)
		return
	}

	var resp struct {
		Slot entity.HourlySlot `json:"slot"`
	}
	err = c.postJSON(ctx, "/api/instances/heartbeat", reqBody, &resp)
	if err != nil {
		c.handleUnreachable(err)
		return
	}

	c.mu.Lock()
	wasAutonomous := c.autonomous
	c.currentSlot = resp.Slot
	c.lastContact = time.Now()
	c.autonomous = false
	c.mu.Unlock()

	if wasAutonomous {
		c.logger.Info("coordinator reachable again, exiting autonomous mode")
	}
}

func (c *Client) handleUnreachable(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastContact)
	if elapsed < c.cfg.FallbackGrace {
		c.logger.Warn("heartbeat failed, within fallback grace", "error", err, "elapsed", elapsed)
		return
	}
	if !c.autonomous {
		c.logger.Warn("coordinator unreachable beyond fallback grace, entering autonomous mode", "error", err, "elapsed", elapsed)
	}
	c.autonomous = true
	c.currentSlot = c.regenerateLocalSlot()
}

// regenerateLocalSlot rebuilds today's schedule locally via
// internal/scheduler.Generate (the same deterministic algorithm the
// coordinator runs) and returns the slot for the current wall-clock
// hour, per spec §4.9: "continue from the slot matching wall-clock hour".
func (c *Client) regenerateLocalSlot() entity.HourlySlot {
	now := time.Now()
	sched := scheduler.Generate(now.Format("2006-01-02"), c.cfg.Instances)
	slot, ok := sched.SlotFor(now.Hour(), c.cfg.InstanceID)
	if !ok {
		return entity.HourlySlot{}
	}
	return slot
}

// CurrentSlot returns the caller's most recently known slot and whether
// the client is currently operating in autonomous (coordinator
// unreachable) mode.
func (c *Client) CurrentSlot() (slot entity.HourlySlot, autonomous bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentSlot, c.autonomous
}

// Deregister explicitly removes this instance from the coordinator's
// registry, best-effort (errors are logged, never fatal, since the
// process is shutting down regardless).
func (c *Client) Deregister(ctx context.Context) {
	url := fmt.Sprintf("%s/api/instances/%s/deregister", c.cfg.CoordinatorURL, c.cfg.InstanceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return
	}
	c.setAuthHeader(req)
	if resp, err := c.http.Do(req); err != nil {
		c.logger.Warn("deregister failed", "error", err)
	} else {
		resp.Body.Close()
	}
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		url := c.cfg.CoordinatorURL + path
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		c.setAuthHeader(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("coordclient: %s returned %d: %s", path, resp.StatusCode, raw)
		}
		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}
}
