package scheduler

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jonwraymond/rxops/disposable"
)

// PoolConfig configures a goroutine pool scheduler.
type PoolConfig struct {
	// MaxConcurrent is the maximum number of actions running at once.
	// Default: runtime.GOMAXPROCS(0)
	MaxConcurrent int
}

// Pool runs each action on its own goroutine, with at most MaxConcurrent
// actions executing at the same time. Actions waiting for a slot can be
// cancelled by disposing their handle.
type Pool struct {
	config PoolConfig
	sem    *semaphore.Weighted
}

// NewPool creates a new pool scheduler.
func NewPool(config PoolConfig) *Pool {
	// Apply defaults
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = runtime.GOMAXPROCS(0)
	}

	return &Pool{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Now returns the wall clock time.
func (p *Pool) Now() time.Time {
	return time.Now()
}

// Schedule starts action on a new goroutine once a slot is free.
func (p *Pool) Schedule(action func()) disposable.Disposable {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)

		if ctx.Err() != nil {
			return
		}
		action()
	}()

	return disposable.NewFunc(cancel)
}

// ScheduleAfter starts action once delay has elapsed and a slot is free.
func (p *Pool) ScheduleAfter(delay time.Duration, action func()) disposable.Disposable {
	if delay <= 0 {
		return p.Schedule(action)
	}

	group := disposable.NewComposite()
	timer := time.AfterFunc(delay, func() {
		group.Add(p.Schedule(action))
	})
	group.Add(disposable.NewFunc(func() { timer.Stop() }))
	return group
}

// Config returns the pool configuration.
func (p *Pool) Config() PoolConfig {
	return p.config
}
