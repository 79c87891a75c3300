// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"log/slog"

	"cpuprobe/internal/cpuid"
)

// SizeUnknown marks a cache level whose size could not be determined.
const SizeUnknown = -1

// CacheGeometry holds cache sizes in KB, or SizeUnknown.
type CacheGeometry struct {
	L1KB int `json:"l1KB" yaml:"l1KB"`
	L2KB int `json:"l2KB" yaml:"l2KB"`
	L3KB int `json:"l3KB" yaml:"l3KB"`
}

// UnknownCache returns a geometry with every level unknown.
func UnknownCache() CacheGeometry {
	return CacheGeometry{L1KB: SizeUnknown, L2KB: SizeUnknown, L3KB: SizeUnknown}
}

// Known reports whether at least one level has a size.
func (c CacheGeometry) Known() bool {
	return c.L1KB != SizeUnknown || c.L2KB != SizeUnknown || c.L3KB != SizeUnknown
}

// ResolveCache uses the extended size leaves when they are eligible and
// yield anything, and otherwise interprets the leaf 2 descriptors. The two
// strategies are never mixed.
func ResolveCache(q cpuid.Querier, id Identity) (CacheGeometry, bool) {
	if c, ok := extendedCache(q, id); ok {
		slog.Debug("cache resolved from extended leaves", slog.Int("l1KB", c.L1KB), slog.Int("l2KB", c.L2KB))
		return c, true
	}
	c := descriptorCache(q)
	slog.Debug("cache resolved from descriptors", slog.Int("l1KB", c.L1KB), slog.Int("l2KB", c.L2KB), slog.Int("l3KB", c.L3KB))
	return c, c.Known()
}

// extendedCache reads L1 from 0x80000005 (code + data) and L2 from
// 0x80000006. There is no extended L3 query.
func extendedCache(q cpuid.Querier, id Identity) (CacheGeometry, bool) {
	c := UnknownCache()
	if ExtendedLeafEligible(q, id, cpuid.LeafL1Cache) {
		l1 := q.Query(cpuid.LeafL1Cache)
		c.L1KB = bits(l1.ECX, 24, 8) + bits(l1.EDX, 24, 8)
	}
	if ExtendedLeafEligible(q, id, cpuid.LeafL2Cache) {
		l2 := q.Query(cpuid.LeafL2Cache)
		c.L2KB = bits(l2.ECX, 16, 16)
	}
	return c, c.L1KB != SizeUnknown || c.L2KB != SizeUnknown
}

// descriptorCache queries leaf 2 as many times as its first result byte
// asks for and decodes the collected descriptors.
func descriptorCache(q cpuid.Querier) CacheGeometry {
	if cpuid.MaxBasicLeaf(q) < cpuid.LeafDescriptors {
		return UnknownCache()
	}
	first := q.Query(cpuid.LeafDescriptors)
	passes := [][4]uint32{first.Words()}
	total := bits(first.EAX, 0, 8)
	for len(passes) < total {
		passes = append(passes, q.Query(cpuid.LeafDescriptors).Words())
	}
	return DecodeDescriptors(passes)
}

type cacheSlot int

const (
	slotL1Code cacheSlot = iota
	slotL1Data
	slotL1Trace
	slotL2
	slotL3
	slotCount
)

type cacheDescriptor struct {
	slot cacheSlot
	kb   int
}

// cacheDescriptors maps leaf 2 descriptor bytes to cache contributions.
// TLB descriptors are not listed and are ignored like any unknown byte.
var cacheDescriptors = map[byte]cacheDescriptor{
	0x06: {slotL1Code, 8},
	0x08: {slotL1Code, 16},
	0x0a: {slotL1Data, 8},
	0x0c: {slotL1Data, 16},
	0x10: {slotL1Data, 16}, // IA-64
	0x15: {slotL1Code, 16}, // IA-64
	0x1a: {slotL2, 96},     // IA-64
	0x22: {slotL3, 512},
	0x23: {slotL3, 1024},
	0x25: {slotL3, 2048},
	0x29: {slotL3, 4096},
	0x39: {slotL2, 128},
	0x3c: {slotL2, 256},
	0x40: {slotL2, 0}, // no integrated L2 (P6) or L3 (P4)
	0x41: {slotL2, 128},
	0x42: {slotL2, 256},
	0x43: {slotL2, 512},
	0x44: {slotL2, 1024},
	0x45: {slotL2, 2048},
	0x66: {slotL1Data, 8},
	0x67: {slotL1Data, 16},
	0x68: {slotL1Data, 32},
	0x70: {slotL1Trace, 12},
	0x71: {slotL1Trace, 16},
	0x72: {slotL1Trace, 32},
	0x77: {slotL1Code, 16}, // IA-64
	0x79: {slotL2, 128},
	0x7a: {slotL2, 256},
	0x7b: {slotL2, 512},
	0x7c: {slotL2, 1024},
	0x7e: {slotL2, 256},
	0x81: {slotL2, 128},
	0x82: {slotL2, 256},
	0x83: {slotL2, 512},
	0x84: {slotL2, 1024},
	0x85: {slotL2, 2048},
	0x88: {slotL3, 2048}, // IA-64
	0x89: {slotL3, 4096}, // IA-64
	0x8a: {slotL3, 8192}, // IA-64
	0x8d: {slotL3, 3072}, // IA-64
}

// DecodeDescriptors interprets the register sets returned by successive
// leaf 2 queries. The low byte of EAX is the pass count and a register
// with bit 31 set carries no descriptors. The last match for a level
// wins; L1 is the sum of whichever code, data and trace caches appeared.
func DecodeDescriptors(passes [][4]uint32) CacheGeometry {
	var seen [slotCount]int
	for i := range seen {
		seen[i] = SizeUnknown
	}
	for _, regs := range passes {
		for r, word := range regs {
			if isBitSet(word, 31) {
				continue
			}
			for b := 0; b < 4; b++ {
				if r == 0 && b == 0 {
					continue
				}
				if d, ok := cacheDescriptors[byte(word>>(8*b))]; ok {
					seen[d.slot] = d.kb
				}
			}
		}
	}

	c := CacheGeometry{L1KB: SizeUnknown, L2KB: seen[slotL2], L3KB: seen[slotL3]}
	for _, slot := range []cacheSlot{slotL1Code, slotL1Data, slotL1Trace} {
		if seen[slot] == SizeUnknown {
			continue
		}
		if c.L1KB == SizeUnknown {
			c.L1KB = 0
		}
		c.L1KB += seen[slot]
	}
	return c
}
