// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMicroArchitecture(t *testing.T) {
	tests := []struct {
		name     string
		vendor   string
		family   int
		model    int
		stepping int
		want     string
	}{
		{"icelake server", IntelVendor, 6, 106, 6, UarchICX},
		{"skylake server", IntelVendor, 6, 85, 4, UarchSKX},
		{"cascadelake", IntelVendor, 6, 85, 7, UarchCLX},
		{"cooperlake", IntelVendor, 6, 85, 11, UarchCPX},
		{"kabylake", IntelVendor, 6, 158, 9, UarchKBL},
		{"coffeelake", IntelVendor, 6, 158, 12, UarchCFL},
		{"sapphire rapids", IntelVendor, 6, 143, 8, UarchSPR},
		{"diamond rapids", IntelVendor, 19, 1, 0, UarchDMR},
		{"pentium iii", IntelVendor, 6, 8, 3, UarchP6},
		{"pentium m", IntelVendor, 6, 13, 6, UarchPM},
		{"core 2", IntelVendor, 6, 15, 11, UarchCore},
		{"pentium 4", IntelVendor, 15, 2, 9, UarchNetBurst},
		{"pentium", IntelVendor, 5, 4, 3, UarchP5},
		{"genoa", AMDVendor, 25, 17, 1, UarchGenoa},
		{"bergamo", AMDVendor, 25, 160, 2, UarchBergamo},
		{"turin", AMDVendor, 26, 2, 0, UarchTurinZen5},
		{"athlon xp", AMDVendor, 6, 8, 1, UarchK7},
		{"k5", AMDVendor, 5, 1, 0, UarchK5},
		{"k6-2", AMDVendor, 5, 8, 0, UarchK6},
		{"crusoe", "GenuineTMx86", 5, 4, 3, UarchCrusoe},
		{"via c3", "CentaurHauls", 6, 9, 8, UarchC3},
		{"mediagx", "CyrixInstead", 5, 4, 0, UarchMediaGX},
		{"6x86", "CyrixInstead", 5, 2, 0, Uarch6x86},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetMicroArchitecture(tt.vendor, tt.family, tt.model, tt.stepping)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetMicroArchitectureUnknown(t *testing.T) {
	_, err := GetMicroArchitecture(IntelVendor, 99, 999, 0)
	assert.Error(t, err)
	_, err = GetMicroArchitecture("HygonGenuine", 24, 0, 0)
	assert.Error(t, err)
	// stepping outside every meteor lake entry
	_, err = GetMicroArchitecture(IntelVendor, 6, 170, 9)
	assert.Error(t, err)
}

func TestIsIntelCPUFamily(t *testing.T) {
	assert.True(t, IsIntelCPUFamily(6))
	assert.True(t, IsIntelCPUFamily(15))
	assert.False(t, IsIntelCPUFamily(25))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "Original OEM Processor", TypeName(0))
	assert.Equal(t, "Intel OverDrive Processor", TypeName(1))
	assert.Equal(t, "Dual Processor", TypeName(2))
	assert.Equal(t, "Reserved", TypeName(3))
	assert.Equal(t, "Other", TypeName(4))
	assert.Equal(t, "Other", TypeName(-1))
}

func TestBrandName(t *testing.T) {
	tests := []struct {
		brand int
		want  string
	}{
		{0x00, "Not Supported"},
		{0x02, "Intel Pentium III"},
		{0x03, "Intel Pentium III Xeon or Intel Celeron"},
		{0x16, "Intel Pentium M"},
		{0x05, "Engineering Sample 5"},
		{0x20 | 4, "AMD Athlon 64 2600+"},
		{0x40 | 10, "AMD Athlon 64 3200+ mobile"},
		{0x60, "AMD Opteron UP 138"},
		{0x80 | 2, "AMD Opteron DP 242"},
		{0xa0 | 6, "AMD Opteron MP 850"},
		{0xc0, "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BrandName(tt.brand), "brand %#x", tt.brand)
	}
}

func TestDescribe(t *testing.T) {
	names := Describe(AMDVendor, 0, 6, 8, 1, 0)
	assert.Equal(t, Names{MicroArchitecture: UarchK7, Type: "Original OEM Processor", Brand: "Not Supported"}, names)

	genoa := Describe(AMDVendor, 0, 0xA<<4+0xF, 17, 1, 0)
	assert.Equal(t, UarchGenoa, genoa.MicroArchitecture)

	spr := Describe(IntelVendor, 0, 6, 143, 8, 0)
	assert.Equal(t, UarchSPR, spr.MicroArchitecture)

	unknown := Describe("SomeNewVendor", 1, 3, 0, 0, 0x09)
	assert.Empty(t, unknown.MicroArchitecture)
	assert.Equal(t, "Intel Pentium 4", unknown.Brand)
}

func TestPublishedFamily(t *testing.T) {
	tests := []struct {
		packed int
		want   int
	}{
		{packed: 3, want: 3},
		{packed: 6, want: 6},
		{packed: 0xF, want: 15},
		{packed: 0x8F, want: 23},
		{packed: 0xAF, want: 25},
		{packed: 0xBF, want: 26},
		{packed: 0x16, want: 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PublishedFamily(tt.packed), "packed %#x", tt.packed)
	}
}
