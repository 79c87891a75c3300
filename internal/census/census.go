// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package census runs processor detection once on every logical processor
// the process may use, pinning each pass with the OS affinity mask.
package census

import (
	"log/slog"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"cpuprobe/internal/detect"
)

// Processor is the detection record of one logical processor.
type Processor struct {
	CPU           int `json:"cpu" yaml:"cpu"`
	detect.Record `yaml:",inline"`
}

// Census holds one record per bindable processor in index order.
type Census struct {
	Processors []Processor `json:"processors" yaml:"processors"`
	Probed     int         `json:"probed" yaml:"probed"`
	Skipped    int         `json:"skipped" yaml:"skipped"`
}

// Strategy selects how processors are visited.
type Strategy string

const (
	// Sequential rebinds the calling thread to each processor in turn.
	Sequential Strategy = "sequential"
	// Concurrent pins one worker thread per processor and waits for all.
	Concurrent Strategy = "concurrent"
)

var Strategies = []Strategy{Sequential, Concurrent}

func ParseStrategy(s string) (Strategy, error) {
	for _, strategy := range Strategies {
		if string(strategy) == s {
			return strategy, nil
		}
	}
	return "", errors.Errorf("unknown strategy %q, expected one of %v", s, Strategies)
}

// Detector runs a single-processor detection pass.
type Detector interface {
	Detect() detect.Record
}

// Orchestrator runs a census. The zero value is usable: it visits every
// enabled processor sequentially with the OS affinity and native
// detectors.
type Orchestrator struct {
	Strategy Strategy
	Affinity Affinity
	// NewDetector returns the detector used on cpu. Each pass gets its own.
	NewDetector func(cpu int) Detector
	// CPUs restricts the census to these processors when non-nil.
	CPUs *Mask
	// Workers limits concurrently pinned workers; 0 means one per processor.
	Workers int
	// Progress, when set, is told what happens to each processor. It is
	// called from worker goroutines.
	Progress func(cpu int, status string)
}

// Run visits every enabled processor and restores the calling thread's
// affinity before returning. A processor that cannot be bound is skipped.
// If the affinity mask cannot be read the census is empty.
func (o *Orchestrator) Run() Census {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	affinity := o.affinity()
	original, err := affinity.Current()
	if err != nil {
		slog.Error("cannot determine enabled processors", slog.String("error", err.Error()))
		return Census{}
	}
	targets := original
	if o.CPUs != nil {
		targets = original.Intersect(*o.CPUs)
	}
	cpus := targets.CPUs()
	slog.Info("starting census", slog.String("strategy", string(o.strategy())), slog.Int("cpus", len(cpus)), slog.String("mask", original.String()))

	var results []*Processor
	switch o.strategy() {
	case Concurrent:
		results = o.runConcurrent(affinity, original, cpus)
	default:
		results = o.runSequential(affinity, original, cpus)
	}

	c := Census{Processors: make([]Processor, 0, len(results))}
	for _, p := range results {
		if p == nil {
			c.Skipped++
			continue
		}
		c.Processors = append(c.Processors, *p)
	}
	c.Probed = len(c.Processors)
	slog.Info("census complete", slog.Int("probed", c.Probed), slog.Int("skipped", c.Skipped))
	return c
}

func (o *Orchestrator) strategy() Strategy {
	if o.Strategy == "" {
		return Sequential
	}
	return o.Strategy
}

func (o *Orchestrator) affinity() Affinity {
	if o.Affinity == nil {
		return OSAffinity{}
	}
	return o.Affinity
}

func (o *Orchestrator) detector(cpu int) Detector {
	if o.NewDetector == nil {
		return detect.NewDetector()
	}
	return o.NewDetector(cpu)
}

// runSequential rebinds the already locked calling thread. results[i] is
// nil when cpus[i] could not be bound.
func (o *Orchestrator) runSequential(affinity Affinity, original Mask, cpus []int) []*Processor {
	defer restore(affinity, original)
	results := make([]*Processor, len(cpus))
	for i, cpu := range cpus {
		results[i] = o.visit(affinity, cpu)
	}
	return results
}

// runConcurrent gives each processor its own locked worker thread, which
// restores its mask before unlocking.
func (o *Orchestrator) runConcurrent(affinity Affinity, original Mask, cpus []int) []*Processor {
	results := make([]*Processor, len(cpus))
	var g errgroup.Group
	if o.Workers > 0 {
		g.SetLimit(o.Workers)
	}
	for i, cpu := range cpus {
		g.Go(func() (err error) {
			runtime.LockOSThread()
			defer func() {
				if err = affinity.Set(original); err != nil {
					// the thread stays locked and exits with the goroutine
					err = errors.Wrapf(err, "worker for cpu %d", cpu)
					return
				}
				runtime.UnlockOSThread()
			}()
			results[i] = o.visit(affinity, cpu)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("failed to restore affinity", slog.String("error", err.Error()))
	}
	return results
}

// visit binds the calling thread to cpu and detects. The caller restores
// the mask.
func (o *Orchestrator) visit(affinity Affinity, cpu int) *Processor {
	if err := affinity.Bind(cpu); err != nil {
		slog.Warn("cannot bind to processor", slog.Int("cpu", cpu), slog.String("error", err.Error()))
		o.report(cpu, "skipped")
		return nil
	}
	slog.Debug("detecting", slog.Int("cpu", cpu))
	o.report(cpu, "detecting")
	p := &Processor{CPU: cpu, Record: o.detector(cpu).Detect()}
	o.report(cpu, "done")
	return p
}

func (o *Orchestrator) report(cpu int, status string) {
	if o.Progress != nil {
		o.Progress(cpu, status)
	}
}

func restore(affinity Affinity, original Mask) {
	if err := affinity.Set(original); err != nil {
		slog.Error("failed to restore affinity", slog.String("error", err.Error()))
	}
}
