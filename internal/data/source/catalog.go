package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

// Catalog holds the current Dataset. Reloads swap the snapshot atomically and
// a failed reload keeps the previous one.
type Catalog struct {
	loader Loader
	log    *logger.Logger

	mu       sync.RWMutex
	current  *Dataset
	version  uint64
	onReload []func(version uint64)
	observe  func(ctx context.Context, err error)
}

func NewCatalog(loader Loader, baseLog *logger.Logger) *Catalog {
	return &Catalog{
		loader:  loader,
		log:     baseLog.With("service", "SourceCatalog"),
		current: emptyDataset(),
	}
}

// Current returns the active snapshot and its version. Callers must not mutate it.
func (c *Catalog) Current() (*Dataset, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.version
}

// OnReload registers fn to run after every successful reload.
func (c *Catalog) OnReload(fn func(version uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReload = append(c.onReload, fn)
}

// SetObserver registers fn to run after every reload attempt.
func (c *Catalog) SetObserver(fn func(ctx context.Context, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observe = fn
}

func (c *Catalog) Reload(ctx context.Context) error {
	start := time.Now()
	ds, err := c.loader.Load(ctx)
	c.mu.RLock()
	observe := c.observe
	c.mu.RUnlock()
	if observe != nil {
		observe(ctx, err)
	}
	if err != nil {
		c.log.Error("Source reload failed", "source", c.loader.Describe(), "error", err)
		return fmt.Errorf("reload %s: %w", c.loader.Describe(), err)
	}

	c.mu.Lock()
	c.current = ds
	c.version++
	version := c.version
	hooks := append([]func(uint64){}, c.onReload...)
	c.mu.Unlock()

	c.log.Info("Source reloaded",
		"source", c.loader.Describe(),
		"version", version,
		"items", len(ds.Items),
		"intents", len(ds.Taxonomy.Intents),
		"assignments", len(ds.Assignments),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	for _, fn := range hooks {
		fn(version)
	}
	return nil
}

// StartReloadScheduler reloads on a 5-field cron schedule until ctx is done.
// An empty schedule disables it.
func (c *Catalog) StartReloadScheduler(ctx context.Context, schedule string, loc *time.Location) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid reload schedule %q: %w", schedule, err)
	}
	if loc == nil {
		loc = time.Local
	}
	c.log.Info("Source reload scheduled", "cron", schedule)

	go func() {
		for {
			now := time.Now().In(loc)
			next := sched.Next(now)
			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			_ = c.Reload(ctx)
		}
	}()
	return nil
}
