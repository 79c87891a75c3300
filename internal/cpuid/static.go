// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import "sync"

// Static replays recorded CPUID results instead of executing the
// instruction. A leaf with several recorded results returns them in
// rotation, which mirrors how leaf 2 hands out one descriptor pass per
// call. Unrecorded leaves return zeros.
type Static struct {
	Leaves map[uint32][]Regs

	mu    sync.Mutex
	calls map[uint32]int
}

// NewStatic returns a Static with one recorded result per leaf.
func NewStatic(leaves map[uint32]Regs) *Static {
	s := &Static{Leaves: make(map[uint32][]Regs, len(leaves))}
	for leaf, regs := range leaves {
		s.Leaves[leaf] = []Regs{regs}
	}
	return s
}

func (s *Static) Query(leaf uint32) Regs {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := s.Leaves[leaf]
	if len(results) == 0 {
		return Regs{}
	}
	if s.calls == nil {
		s.calls = make(map[uint32]int)
	}
	n := s.calls[leaf]
	s.calls[leaf] = n + 1
	return results[n%len(results)]
}

// Calls returns how many times leaf has been queried.
func (s *Static) Calls(leaf uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[leaf]
}
