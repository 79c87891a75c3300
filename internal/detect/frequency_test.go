// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stepClock advances by step on every read, at one tick per nanosecond.
type stepClock struct {
	now  uint64
	step uint64
}

func (c *stepClock) Ticks() uint64 {
	c.now += c.step
	return c.now
}

func (c *stepClock) TicksPerSecond() uint64 {
	return uint64(time.Second)
}

// cyclesAt returns a cycle counter running at mhz relative to clock.
func cyclesAt(clock *stepClock, mhz uint64) func() uint64 {
	return func() uint64 { return clock.now * mhz / 1000 }
}

func TestEstimateCycleCounter(t *testing.T) {
	for _, mhz := range []uint64{133, 1800, 3600} {
		clock := &stepClock{step: 1000}
		e := &Estimator{Clock: clock, Cycles: cyclesAt(clock, mhz), Window: time.Millisecond, Retries: 3}
		got := e.Estimate(6, true)
		// the final read overshoots by at most one step
		assert.InDelta(t, float64(mhz), float64(got), float64(mhz)/100+1, "mhz %d", mhz)
	}
}

func TestEstimateCycleCounterIsRepeatable(t *testing.T) {
	run := func() int {
		clock := &stepClock{step: 500}
		e := &Estimator{Clock: clock, Cycles: cyclesAt(clock, 2400), Window: time.Millisecond}
		return e.Estimate(0xF, true)
	}
	assert.Equal(t, run(), run())
}

func TestEstimateCycleCounterDegenerate(t *testing.T) {
	t.Run("counter runs backwards", func(t *testing.T) {
		clock := &stepClock{step: 1000}
		var reads int
		cycles := func() uint64 {
			reads++
			return ^uint64(0) - uint64(reads)
		}
		e := &Estimator{Clock: clock, Cycles: cycles, Window: time.Millisecond, Retries: 3}
		assert.Equal(t, 0, e.Estimate(6, true))
		assert.Equal(t, 6, reads, "two reads for each of three attempts")
	})
	t.Run("recovers on retry", func(t *testing.T) {
		clock := &stepClock{step: 1000}
		var attempt, reads int
		cycles := func() uint64 {
			reads++
			if reads == 2 {
				attempt++
				return 0
			}
			return clock.now
		}
		e := &Estimator{Clock: clock, Cycles: cycles, Window: time.Millisecond, Retries: 3}
		got := e.Estimate(6, true)
		assert.Equal(t, 1, attempt)
		assert.InDelta(t, 1000, got, 11)
	})
}

func TestEstimateClassical(t *testing.T) {
	tests := []struct {
		family  int
		elapsed uint64 // ticks spent in the loop
		want    int
	}{
		{3, 11_500_000_000, 100},
		{4, 4_700_000_000, 100},
		{5, 4_300_000_000, 100},
		{5, 1_075_000_000, 400},
	}
	for _, tt := range tests {
		clock := &stepClock{}
		var iterations uint32
		e := &Estimator{
			Clock:      clock,
			LoopLength: DefaultLoopLength,
			Loop: func(n uint32) {
				iterations = n
				clock.now += tt.elapsed
			},
		}
		assert.Equal(t, tt.want, e.Estimate(tt.family, false), "family %d", tt.family)
		assert.Equal(t, uint32(DefaultLoopLength), iterations)
	}
}

func TestEstimateClassicalUnknownFamily(t *testing.T) {
	for _, family := range []int{0, 2, 6, 0xF} {
		ran := false
		e := &Estimator{
			Clock:      &stepClock{step: 1},
			LoopLength: DefaultLoopLength,
			Loop:       func(uint32) { ran = true },
		}
		assert.Equal(t, 0, e.Estimate(family, false), "family %d", family)
		assert.False(t, ran)
	}
}

func TestEstimateClassicalZeroElapsed(t *testing.T) {
	calls := 0
	e := &Estimator{
		Clock:      &stepClock{},
		LoopLength: DefaultLoopLength,
		Loop:       func(uint32) { calls++ },
		Retries:    3,
	}
	assert.Equal(t, 0, e.Estimate(4, false))
	assert.Equal(t, 3, calls)
}

func TestMulDiv(t *testing.T) {
	assert.Equal(t, uint64(6), mulDiv(2, 6, 2))
	assert.Equal(t, uint64(math.MaxUint64/3*2), mulDiv(math.MaxUint64/3, 4, 2))
	assert.Equal(t, uint64(math.MaxUint64), mulDiv(math.MaxUint64, 2, 1))
}
