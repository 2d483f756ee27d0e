// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the
// archive browser's timers: the carousel auto-advance, the map
// engine's grace delay and style retry backoff, and fly-to animation.
//
// Production code receives Real(). Tests receive Fake(), whose time
// only moves when Advance is called. AfterFunc callbacks on a fake
// clock run synchronously inside Advance, in deadline order, which
// makes "N ticks after N periods" assertions exact.
//
//	fake := clock.Fake(time.Date(2025, 4, 18, 21, 0, 0, 0, time.UTC))
//	scheduler := archive.NewScheduler(fake, 5*time.Second, onTick)
//	scheduler.Sync(true)
//	fake.Advance(15 * time.Second) // onTick runs three times
package clock
