package scheduler

import (
	"context"
	"testing"
	"time"

	"newsingest/internal/entity"
)

func TestTrigger_EnsureGeneratedIsIdempotent(t *testing.T) {
	tr := NewTrigger(entity.DefaultInstances, time.UTC)

	first, generated := tr.EnsureGenerated("2026-08-01")
	if !generated {
		t.Fatal("expected first call to generate")
	}
	second, generated := tr.EnsureGenerated("2026-08-01")
	if generated {
		t.Error("expected second call to hit the cache, not regenerate")
	}
	if first.RotationOrder[0] != second.RotationOrder[0] {
		t.Error("expected cached schedule to match the originally generated one")
	}
}

func TestTrigger_GetReturnsOnlyCachedDates(t *testing.T) {
	tr := NewTrigger(entity.DefaultInstances, time.UTC)

	if _, ok := tr.Get("2026-08-01"); ok {
		t.Error("expected Get to report absent before any generation")
	}
	tr.EnsureGenerated("2026-08-01")
	if _, ok := tr.Get("2026-08-01"); !ok {
		t.Error("expected Get to find the schedule after EnsureGenerated")
	}
}

func TestTrigger_CacheEvictsOldestBeyondLimit(t *testing.T) {
	tr := NewTrigger(entity.DefaultInstances, time.UTC)

	dates := []string{
		"2026-08-01", "2026-08-02", "2026-08-03", "2026-08-04",
		"2026-08-05", "2026-08-06", "2026-08-07", "2026-08-08",
	}
	for _, d := range dates {
		tr.EnsureGenerated(d)
	}
	if _, ok := tr.Get(dates[0]); ok {
		t.Error("expected the oldest date to have been evicted once the cache exceeded its limit")
	}
	if _, ok := tr.Get(dates[len(dates)-1]); !ok {
		t.Error("expected the most recently generated date to still be cached")
	}
}

func TestTrigger_GetOrGenerateGeneratesOnMiss(t *testing.T) {
	tr := NewTrigger(entity.DefaultInstances, time.UTC)
	sched := tr.GetOrGenerate(context.Background(), "2026-08-01")
	if sched.Date != "2026-08-01" {
		t.Errorf("expected schedule for the requested date, got %q", sched.Date)
	}
}
