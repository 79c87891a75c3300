// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package census

import (
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"cpuprobe/internal/util"
)

// Mask is a set of logical processor indices.
type Mask struct {
	cpus mapset.Set[int]
}

func NewMask(cpus ...int) Mask {
	return Mask{cpus: mapset.NewThreadUnsafeSet(cpus...)}
}

func (m Mask) set() mapset.Set[int] {
	if m.cpus == nil {
		return mapset.NewThreadUnsafeSet[int]()
	}
	return m.cpus
}

func (m Mask) Has(cpu int) bool {
	return m.set().Contains(cpu)
}

func (m Mask) Count() int {
	return m.set().Cardinality()
}

// CPUs returns the indices in ascending order.
func (m Mask) CPUs() []int {
	cpus := m.set().ToSlice()
	slices.Sort(cpus)
	return cpus
}

func (m Mask) Equal(other Mask) bool {
	return m.set().Equal(other.set())
}

// Intersect keeps the indices present in both masks.
func (m Mask) Intersect(other Mask) Mask {
	return Mask{cpus: m.set().Intersect(other.set())}
}

func (m Mask) Clone() Mask {
	return Mask{cpus: m.set().Clone()}
}

// String lists the indices in ascending order, comma separated.
func (m Mask) String() string {
	return strings.Join(util.IntSliceToStringSlice(m.CPUs()), ",")
}
