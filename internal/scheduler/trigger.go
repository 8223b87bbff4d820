package scheduler

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newsingest/internal/entity"
	"newsingest/internal/observability/logging"
	"newsingest/internal/observability/metrics"
)

// scheduleCacheLimit is the LRU depth for cached DailySchedules, spec
// §4.10: "stores in schedule cache (LRU <= 7 days)".
const scheduleCacheLimit = 7

// DailyAt is the default local fire time for the trigger, spec §4.10:
// 23:00 in the Asia/Seoul timezone.
const DailyAt = "0 23 * * *"

// scheduleCache is an LRU of the last scheduleCacheLimit generated
// DailySchedules, keyed by date. There is no third-party LRU in the
// example pack (the Redis client covers a different cache tier), so this
// is a small stdlib container/list + map implementation, the idiomatic
// Go shape for an in-process bounded cache.
type scheduleCache struct {
	mu    sync.Mutex
	limit int
	order *list.List // front = most recently used
	items map[string]*list.Element
}

type cacheEntry struct {
	date string
	sched entity.DailySchedule
}

func newScheduleCache(limit int) *scheduleCache {
	return &scheduleCache{
		limit: limit,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *scheduleCache) get(date string) (entity.DailySchedule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[date]
	if !ok {
		return entity.DailySchedule{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).sched, true
}

func (c *scheduleCache) put(date string, sched entity.DailySchedule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[date]; ok {
		el.Value.(*cacheEntry).sched = sched
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{date: date, sched: sched})
	c.items[date] = el
	if c.order.Len() > c.limit {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).date)
		}
	}
}

// Trigger fires Generate on a fixed wall-clock schedule (default daily at
// 23:00 Asia/Seoul) and caches the result, per spec §4.10 (C10). It is
// also used directly (without cron) by internal/coordinator to serve
// on-demand schedule lookups and by internal/coordclient's autonomous
// fallback mode.
type Trigger struct {
	instances []entity.CrawlerInstance
	location  *time.Location
	cache     *scheduleCache
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewTrigger builds a Trigger for instances. loc defaults to Asia/Seoul
// if nil or unresolvable.
func NewTrigger(instances []entity.CrawlerInstance, loc *time.Location) *Trigger {
	if loc == nil {
		seoul, err := time.LoadLocation("Asia/Seoul")
		if err != nil {
			seoul = time.UTC
		}
		loc = seoul
	}
	return &Trigger{
		instances: instances,
		location:  loc,
		cache:     newScheduleCache(scheduleCacheLimit),
		cron:      cron.New(cron.WithLocation(loc)),
		logger:    logging.NewLogger().With("component", "scheduler"),
	}
}

// Start registers the daily cron job and begins its scheduler loop. It
// does not block; call Stop during shutdown.
func (t *Trigger) Start() error {
	_, err := t.cron.AddFunc(DailyAt, t.fireForTomorrow)
	if err != nil {
		return fmt.Errorf("scheduler: register trigger: %w", err)
	}
	t.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting for any in-flight job to finish.
func (t *Trigger) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
}

func (t *Trigger) fireForTomorrow() {
	tomorrow := time.Now().In(t.location).AddDate(0, 0, 1)
	date := tomorrow.Format("2006-01-02")
	sched, generated := t.ensureGenerated(date, "daily")
	t.logger.Info("daily trigger fired",
		"date", date, "generated", generated, "rotation_order", sched.RotationOrder)
}

// EnsureGenerated returns the cached schedule for date, generating and
// caching it first if absent. It is idempotent: calling it twice for the
// same date only generates once, per spec §4.10.
func (t *Trigger) EnsureGenerated(date string) (entity.DailySchedule, bool) {
	return t.ensureGenerated(date, "on_demand")
}

func (t *Trigger) ensureGenerated(date, triggerLabel string) (entity.DailySchedule, bool) {
	if sched, ok := t.cache.get(date); ok {
		return sched, false
	}
	sched := Generate(date, t.instances)
	t.cache.put(date, sched)
	metrics.ScheduleGenerationsTotal.WithLabelValues(triggerLabel).Inc()
	return sched, true
}

// Get returns the cached schedule for date without generating one, for
// callers that must distinguish "not yet generated" from "generated".
func (t *Trigger) Get(date string) (entity.DailySchedule, bool) {
	return t.cache.get(date)
}

// GetOrGenerate is EnsureGenerated without the generated flag, the shape
// internal/coordinator's HTTP handlers want.
func (t *Trigger) GetOrGenerate(ctx context.Context, date string) entity.DailySchedule {
	sched, _ := t.EnsureGenerated(date)
	return sched
}
