// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cpuprobe/internal/cpuid"
)

func TestDecodeDescriptors(t *testing.T) {
	tests := []struct {
		name   string
		passes [][4]uint32
		want   CacheGeometry
	}{
		{
			name:   "code and l2 only",
			passes: [][4]uint32{{0x00_00_06_01, 0x00_00_00_3c, 0, 0}},
			want:   CacheGeometry{L1KB: 8, L2KB: 256, L3KB: SizeUnknown},
		},
		{
			name:   "pentium iii",
			passes: [][4]uint32{{0x03_02_01_01, 0, 0, 0x0c_04_08_43}},
			want:   CacheGeometry{L1KB: 32, L2KB: 512, L3KB: SizeUnknown},
		},
		{
			name:   "pentium 4 with trace cache",
			passes: [][4]uint32{{0x66_5b_50_01, 0, 0, 0x00_7a_70_00}},
			want:   CacheGeometry{L1KB: 20, L2KB: 256, L3KB: SizeUnknown},
		},
		{
			name:   "pass count byte is never a descriptor",
			passes: [][4]uint32{{0x00_00_00_06, 0, 0, 0}},
			want:   UnknownCache(),
		},
		{
			name:   "register with bit 31 set is ignored",
			passes: [][4]uint32{{0x00_00_06_01, 0x80_00_00_3c, 0, 0}},
			want:   CacheGeometry{L1KB: 8, L2KB: SizeUnknown, L3KB: SizeUnknown},
		},
		{
			name:   "no integrated l2",
			passes: [][4]uint32{{0x00_00_40_01, 0, 0, 0}},
			want:   CacheGeometry{L1KB: SizeUnknown, L2KB: 0, L3KB: SizeUnknown},
		},
		{
			name:   "last match wins across passes",
			passes: [][4]uint32{{0x00_00_41_02, 0, 0, 0}, {0x00_00_45_02, 0, 0, 0}},
			want:   CacheGeometry{L1KB: SizeUnknown, L2KB: 2048, L3KB: SizeUnknown},
		},
		{
			name:   "l3",
			passes: [][4]uint32{{0x00_00_29_01, 0x00_00_00_8d, 0, 0}},
			want:   CacheGeometry{L1KB: SizeUnknown, L2KB: SizeUnknown, L3KB: 3072},
		},
		{
			name:   "tlb descriptors ignored",
			passes: [][4]uint32{{0x03_02_01_01, 0, 0, 0}},
			want:   UnknownCache(),
		},
		{
			name:   "no passes",
			passes: nil,
			want:   UnknownCache(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeDescriptors(tt.passes)
			assert.Equal(t, tt.want, got)
			for _, size := range []int{got.L1KB, got.L2KB, got.L3KB} {
				assert.GreaterOrEqual(t, size, SizeUnknown)
			}
		})
	}
}

func TestResolveCacheExtended(t *testing.T) {
	m := athlonXP()
	q := m.querier()
	got, ok := ResolveCache(q, DecodeIdentity(q))
	assert.True(t, ok)
	assert.Equal(t, CacheGeometry{L1KB: 128, L2KB: 256, L3KB: SizeUnknown}, got)
	assert.Zero(t, q.Calls(cpuid.LeafDescriptors))
}

func TestResolveCachePartialExtended(t *testing.T) {
	// only 0x80000005 is reported; L2 stays unknown and descriptors are not consulted
	m := athlonXP()
	m.maxBasic = 2
	m.maxExtended = 0x80000005
	m.extra[cpuid.LeafDescriptors] = cpuid.Regs{EAX: 0x00_00_43_01}
	q := m.querier()
	got, ok := ResolveCache(q, DecodeIdentity(q))
	assert.True(t, ok)
	assert.Equal(t, CacheGeometry{L1KB: 128, L2KB: SizeUnknown, L3KB: SizeUnknown}, got)
	assert.Zero(t, q.Calls(cpuid.LeafDescriptors))
}

func TestResolveCacheDescriptorFallback(t *testing.T) {
	m := machine{
		vendor:      "GenuineIntel",
		maxBasic:    2,
		maxExtended: 0x80000008,
		family:      6,
		model:       8,
		extra: map[uint32]cpuid.Regs{
			cpuid.LeafL1Cache:     {ECX: 0xff << 24},
			cpuid.LeafDescriptors: {EAX: 0x03_02_01_01, EDX: 0x0c_04_08_43},
		},
	}
	q := m.querier()
	got, ok := ResolveCache(q, DecodeIdentity(q))
	assert.True(t, ok)
	assert.Equal(t, CacheGeometry{L1KB: 32, L2KB: 512, L3KB: SizeUnknown}, got)
	assert.Zero(t, q.Calls(cpuid.LeafL1Cache), "family 6 intel is below the extended floor")
	assert.Equal(t, 1, q.Calls(cpuid.LeafDescriptors))
}

func TestResolveCacheHonoursPassCount(t *testing.T) {
	q := machine{vendor: "GenuineIntel", maxBasic: 2, family: 6, model: 8}.querier()
	q.Leaves[cpuid.LeafDescriptors] = []cpuid.Regs{
		{EAX: 0x00_00_06_03},
		{EAX: 0x00_00_0a_03},
		{EAX: 0x00_00_42_03},
	}
	got, ok := ResolveCache(q, DecodeIdentity(q))
	assert.True(t, ok)
	assert.Equal(t, CacheGeometry{L1KB: 16, L2KB: 256, L3KB: SizeUnknown}, got)
	assert.Equal(t, 3, q.Calls(cpuid.LeafDescriptors))
}

func TestResolveCacheUnknown(t *testing.T) {
	tests := []struct {
		name string
		m    machine
	}{
		{"max basic leaf below 2", machine{
			vendor:   "GenuineIntel",
			maxBasic: 1,
			family:   6,
			extra:    map[uint32]cpuid.Regs{cpuid.LeafDescriptors: {EAX: 0x00_00_06_01}},
		}},
		{"no recognised descriptors", machine{vendor: "GenuineIntel", maxBasic: 2, family: 6,
			extra: map[uint32]cpuid.Regs{cpuid.LeafDescriptors: {EAX: 0x00_00_00_01}},
		}},
		{"extended leaves not reported", machine{vendor: "AuthenticAMD", maxBasic: 1, maxExtended: 0x80000004, family: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.m.querier()
			got, ok := ResolveCache(q, DecodeIdentity(q))
			assert.False(t, ok)
			assert.Equal(t, UnknownCache(), got)
			assert.False(t, got.Known())
		})
	}
}
