// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"time"

	"github.com/takeone-collective/archive/lib/clock"
)

// DefaultAutoAdvancePeriod is the carousel auto-advance cadence.
const DefaultAutoAdvancePeriod = 5 * time.Second

// Scheduler drives the carousel's auto-advance with a single
// repeating timer.
//
// Timer callbacks run on the clock's goroutine and only report the
// generation they were armed with through onTick; the owner forwards
// that to its event loop and calls Accept there. Every other method
// must be called from the owner's event loop. Each Sync or Stop
// bumps the generation, so a tick already in flight from a
// superseded timer is rejected by Accept and at most one timer is
// ever armed.
type Scheduler struct {
	clock  clock.Clock
	period time.Duration
	onTick func(generation uint64)

	timer      *clock.Timer
	generation uint64
}

// NewScheduler returns a stopped scheduler. A non-positive period
// falls back to [DefaultAutoAdvancePeriod].
func NewScheduler(clk clock.Clock, period time.Duration, onTick func(generation uint64)) *Scheduler {
	if period <= 0 {
		period = DefaultAutoAdvancePeriod
	}
	return &Scheduler{clock: clk, period: period, onTick: onTick}
}

// Period returns the tick interval.
func (scheduler *Scheduler) Period() time.Duration {
	return scheduler.period
}

// Sync clears any armed timer, then arms a fresh one iff active.
// Call it after every change to a gating condition.
func (scheduler *Scheduler) Sync(active bool) {
	scheduler.Stop()
	if active {
		scheduler.arm()
	}
}

// Stop clears the armed timer, if any. Safe to call repeatedly.
func (scheduler *Scheduler) Stop() {
	if scheduler.timer != nil {
		scheduler.timer.Stop()
		scheduler.timer = nil
	}
	scheduler.generation++
}

// Accept reports whether a tick carrying generation comes from the
// live timer. When it does, the timer is re-armed for the next
// period before Accept returns.
func (scheduler *Scheduler) Accept(generation uint64) bool {
	if scheduler.timer == nil || generation != scheduler.generation {
		return false
	}
	scheduler.arm()
	return true
}

// Live reports whether a timer is armed.
func (scheduler *Scheduler) Live() bool {
	return scheduler.timer != nil
}

// Generation returns the generation of the armed timer.
func (scheduler *Scheduler) Generation() uint64 {
	return scheduler.generation
}

func (scheduler *Scheduler) arm() {
	generation := scheduler.generation
	onTick := scheduler.onTick
	scheduler.timer = scheduler.clock.AfterFunc(scheduler.period, func() {
		onTick(generation)
	})
}
