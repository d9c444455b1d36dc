// Package controls implements the two-thread contract between a
// control surface (pause/step/reset/cancel requests) and the execution
// thread driving a program's tick loop: a mutex-guarded pause flag, a
// one-shot single-step flag, a rate limiter, and a one-way cancellation
// signal.
package controls

import (
	"sync"
	"time"
)

// Controls coordinates one execution thread against control requests
// from another. The zero value is not usable; construct with New.
type Controls struct {
	// Tickrate caps the execution thread to at most this many ticks
	// per second when RateLimitEnabled. 0 disables the cap.
	Tickrate int
	// RateLimitEnabled toggles whether RateLimit ever sleeps.
	RateLimitEnabled bool
	// OnReset runs synchronously inside Reset, after the pause flag is
	// set, typically rebuilding the grid and every leaf's tick state.
	OnReset func()

	mu        sync.Mutex
	cond      *sync.Cond
	paused    bool
	nextFrame bool

	cancelOnce sync.Once
	cancelCh   chan struct{}
}

// New builds a Controls, initially paused, ticking at tickrate per
// second (0 = unbounded) once unpaused.
func New(tickrate int, onReset func()) *Controls {
	c := &Controls{
		Tickrate:         tickrate,
		RateLimitEnabled: true,
		OnReset:          onReset,
		paused:           true,
		cancelCh:         make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// TogglePause flips the pause flag and wakes the execution thread so it
// can re-check its own state.
func (c *Controls) TogglePause() {
	c.mu.Lock()
	c.paused = !c.paused
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Step requests exactly one tick: unpauses the execution thread for a
// single iteration, which re-pauses itself as soon as WaitUnpause
// notices the request.
func (c *Controls) Step() {
	c.mu.Lock()
	c.nextFrame = true
	c.paused = false
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Reset pauses the execution thread and runs OnReset.
func (c *Controls) Reset() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
	c.cond.Broadcast()

	if c.OnReset != nil {
		c.OnReset()
	}
}

// Cancel signals every current and future WaitUnpause call to return
// immediately. Safe to call more than once.
func (c *Controls) Cancel() {
	c.cancelOnce.Do(func() { close(c.cancelCh) })
	c.cond.Broadcast()
}

// Cancelled reports whether Cancel has been called.
func (c *Controls) Cancelled() bool {
	select {
	case <-c.cancelCh:
		return true
	default:
		return false
	}
}

// WaitUnpause blocks the execution thread until it is unpaused or
// cancelled. A pending single step re-pauses the model immediately
// after being consumed, so the following call blocks again.
func (c *Controls) WaitUnpause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.paused && !c.Cancelled() {
		c.cond.Wait()
	}

	if c.nextFrame {
		c.paused = true
		c.nextFrame = false
	}
}

// RateLimit sleeps just long enough that, measured from lastTick, ticks
// land no more often than Tickrate per second. It never sleeps when
// RateLimitEnabled is false, Tickrate is 0, or a single step is
// pending.
func (c *Controls) RateLimit(lastTick time.Time) {
	c.mu.Lock()
	skip := !c.RateLimitEnabled || c.Tickrate == 0 || c.nextFrame
	c.mu.Unlock()
	if skip {
		return
	}

	period := time.Second / time.Duration(c.Tickrate)
	missing := period - time.Since(lastTick)
	if missing > 0 {
		time.Sleep(missing)
	}
}
