// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package census

// Affinity reads and changes the processor affinity of the calling OS
// thread. Callers lock their goroutine to its thread before using it.
type Affinity interface {
	// Current returns the processors the calling thread may run on.
	Current() (Mask, error)
	// Bind restricts the calling thread to a single processor.
	Bind(cpu int) error
	// Set replaces the calling thread's affinity with mask.
	Set(mask Mask) error
}

// CPUCount returns the number of logical processors enabled for the
// calling thread.
func CPUCount(a Affinity) (int, error) {
	mask, err := a.Current()
	if err != nil {
		return 0, err
	}
	return mask.Count(), nil
}
