// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"log/slog"
	mbits "math/bits"
	"time"

	"cpuprobe/internal/cpuid"
)

const (
	// DefaultWindow is how long the cycle counter is sampled against the
	// wall clock.
	DefaultWindow = 50 * time.Millisecond
	// DefaultLoopLength is the iteration count of the classical timing loop.
	DefaultLoopLength = 10_000_000
	// defaultRetries bounds how often a degenerate measurement is repeated.
	defaultRetries = 3
)

// loopCycles is the documented cost of one timing loop iteration per
// family. Families without an entry have no known cost.
var loopCycles = map[int]uint64{
	3: 115, // 80386
	4: 47,  // 80486
	5: 43,  // Pentium
}

// Clock is a monotonic tick source with a known tick rate.
type Clock interface {
	Ticks() uint64
	TicksPerSecond() uint64
}

type monotonicClock struct {
	start time.Time
}

func (c monotonicClock) Ticks() uint64 {
	return uint64(time.Since(c.start)) // #nosec G115 -- monotonic, never negative
}

func (monotonicClock) TicksPerSecond() uint64 {
	return uint64(time.Second)
}

// Estimator measures the core clock rate. It spins rather than sleeps so
// the thread cannot be migrated off its pinned processor mid-measurement.
type Estimator struct {
	Clock      Clock
	Cycles     func() uint64  // cycle counter, read when TSC is available
	Loop       func(n uint32) // fixed-cost loop for processors without TSC
	Window     time.Duration
	LoopLength uint32
	Retries    int
}

// NewEstimator returns an Estimator backed by the monotonic clock, RDTSC
// and the BSF timing loop.
func NewEstimator() *Estimator {
	return &Estimator{
		Clock:      monotonicClock{start: time.Now()},
		Cycles:     cpuid.ReadTSC,
		Loop:       cpuid.TimingLoop,
		Window:     DefaultWindow,
		LoopLength: DefaultLoopLength,
		Retries:    defaultRetries,
	}
}

// Estimate returns the clock rate in MHz, or 0 when it cannot be measured.
func (e *Estimator) Estimate(family int, hasTSC bool) int {
	if hasTSC {
		return e.measureCycleCounter()
	}
	return e.measureClassical(family)
}

func (e *Estimator) attempts() int {
	if e.Retries < 1 {
		return 1
	}
	return e.Retries
}

// measureCycleCounter samples the cycle counter at both ends of a
// busy-waited window: MHz = cycles * tickRate / (ticks * 1e6).
func (e *Estimator) measureCycleCounter() int {
	rate := e.Clock.TicksPerSecond()
	window := mulDiv(uint64(max(e.Window, 0)), rate, uint64(time.Second))
	if window == 0 {
		window = 1
	}
	for range e.attempts() {
		startTicks := e.Clock.Ticks()
		startCycles := e.Cycles()
		endTicks := startTicks
		for endTicks-startTicks < window {
			endTicks = e.Clock.Ticks()
		}
		endCycles := e.Cycles()

		elapsed := endTicks - startTicks
		if elapsed == 0 || endCycles < startCycles {
			slog.Debug("degenerate frequency window, retrying", slog.Uint64("ticks", elapsed))
			continue
		}
		return int(mulDiv(endCycles-startCycles, rate, elapsed) / 1_000_000) // #nosec G115
	}
	return 0
}

// measureClassical times the BSF loop: MHz = iterations * cyclesPerIteration
// * tickRate / (ticks * 1e6).
func (e *Estimator) measureClassical(family int) int {
	cost, ok := loopCycles[family]
	if !ok || e.LoopLength == 0 {
		slog.Debug("no timing loop cost for family", slog.Int("family", family))
		return 0
	}
	rate := e.Clock.TicksPerSecond()
	for range e.attempts() {
		start := e.Clock.Ticks()
		e.Loop(e.LoopLength)
		elapsed := e.Clock.Ticks() - start
		if elapsed == 0 {
			continue
		}
		return int(mulDiv(uint64(e.LoopLength)*cost, rate, elapsed) / 1_000_000) // #nosec G115
	}
	return 0
}

// mulDiv returns a*b/c computed with a 128-bit intermediate product,
// saturating when the quotient does not fit.
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := mbits.Mul64(a, b)
	if hi >= c {
		return ^uint64(0)
	}
	quo, _ := mbits.Div64(hi, lo, c)
	return quo
}
