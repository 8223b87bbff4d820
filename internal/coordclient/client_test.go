package coordclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsingest/internal/entity"
)

func TestRegister_StoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer srv.Close()

	c := New(Config{CoordinatorURL: srv.URL, InstanceID: entity.Main, Instances: entity.DefaultInstances})
	if err := c.Register(context.Background()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.token != "tok-123" {
		t.Errorf("expected token to be stored, got %q", c.token)
	}
}

func TestHeartbeatOnce_UpdatesCurrentSlot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"slot": entity.HourlySlot{Hour: 5, Instance: entity.Main, Categories: []entity.NewsCategory{entity.Politics}},
		})
	}))
	defer srv.Close()

	c := New(Config{CoordinatorURL: srv.URL, InstanceID: entity.Main, Instances: entity.DefaultInstances})
	c.heartbeatOnce(context.Background())

	slot, autonomous := c.CurrentSlot()
	if autonomous {
		t.Error("expected not autonomous after a successful heartbeat")
	}
	if slot.Hour != 5 || len(slot.Categories) != 1 || slot.Categories[0] != entity.Politics {
		t.Errorf("unexpected slot: %+v", slot)
	}
}

func TestHandleUnreachable_EntersAutonomousModeBeyondGrace(t *testing.T) {
	c := New(Config{
		CoordinatorURL: "http://127.0.0.1:1",
		InstanceID:     entity.Main,
		Instances:      entity.DefaultInstances,
		FallbackGrace:  10 * time.Millisecond,
	})
	c.lastContact = time.Now().Add(-time.Second)

	c.handleUnreachable(context.DeadlineExceeded)

	_, autonomous := c.CurrentSlot()
	if !autonomous {
		t.Error("expected autonomous mode once fallback grace has elapsed")
	}
}

func TestHandleUnreachable_StaysWithinGrace(t *testing.T) {
	c := New(Config{
		CoordinatorURL: "http://127.0.0.1:1",
		InstanceID:     entity.Main,
		Instances:      entity.DefaultInstances,
		FallbackGrace:  time.Hour,
	})
	c.lastContact = time.Now()

	c.handleUnreachable(context.DeadlineExceeded)

	_, autonomous := c.CurrentSlot()
	if autonomous {
		t.Error("expected to stay out of autonomous mode within the fallback grace window")
	}
}

func TestRegenerateLocalSlot_MatchesSchedulerOutput(t *testing.T) {
	c := New(Config{InstanceID: entity.Main, Instances: entity.DefaultInstances})
	slot := c.regenerateLocalSlot()
	if len(slot.Categories) == 0 {
		t.Error("expected a non-empty slot from local regeneration")
	}
}
