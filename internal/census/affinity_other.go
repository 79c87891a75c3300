// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package census

import (
	"runtime"

	"github.com/pkg/errors"
)

// OSAffinity reports the calling thread as runnable on every processor
// and cannot bind. Every processor is skipped by a census.
type OSAffinity struct{}

func (OSAffinity) Current() (Mask, error) {
	cpus := make([]int, runtime.NumCPU())
	for i := range cpus {
		cpus[i] = i
	}
	return NewMask(cpus...), nil
}

func (OSAffinity) Bind(cpu int) error {
	return errors.Errorf("cannot bind to cpu %d on %s", cpu, runtime.GOOS)
}

func (OSAffinity) Set(Mask) error {
	return nil
}
