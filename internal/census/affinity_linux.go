// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package census

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// OSAffinity uses sched_getaffinity and sched_setaffinity on the calling
// thread (pid 0).
type OSAffinity struct{}

func (OSAffinity) Current() (Mask, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return Mask{}, errors.Wrap(err, "failed to read affinity mask")
	}
	n := set.Count()
	cpus := make([]int, 0, n)
	for cpu := 0; len(cpus) < n; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return NewMask(cpus...), nil
}

func (OSAffinity) Bind(cpu int) error {
	var set unix.CPUSet
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.Wrapf(err, "failed to bind to cpu %d", cpu)
	}
	return nil
}

func (OSAffinity) Set(mask Mask) error {
	var set unix.CPUSet
	for _, cpu := range mask.CPUs() {
		set.Set(cpu)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.Wrapf(err, "failed to set affinity mask %s", mask)
	}
	return nil
}
