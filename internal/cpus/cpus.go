// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package cpus names x86 processors from their decoded identity: the
// microarchitecture, the processor type and the brand index. It never
// queries the processor itself.
package cpus

import (
	"fmt"
	"slices"
	"strings"
)

const IntelVendor = "GenuineIntel"
const AMDVendor = "AuthenticAMD"

var IntelFamilies = []int{6, 15, 19}

// Microarchitecture constants
const (
	// Intel, classic
	UarchI486     = "i486"
	UarchP5       = "P5"
	UarchP6       = "P6"
	UarchPM       = "Pentium M"
	UarchCore     = "Core"
	UarchNetBurst = "NetBurst"
	// Intel Core CPUs
	UarchHSW = "HSW"
	UarchBDW = "BDW"
	UarchSKL = "SKL"
	UarchKBL = "KBL"
	UarchCFL = "CFL"
	UarchRKL = "RKL"
	UarchTGL = "TGL"
	UarchADL = "ADL"
	UarchMTL = "MTL"
	UarchARL = "ARL"
	// Intel Xeon CPUs
	UarchHSX   = "HSX"
	UarchBDX   = "BDX"
	UarchSKX   = "SKX"
	UarchCLX   = "CLX"
	UarchCPX   = "CPX"
	UarchICX   = "ICX"
	UarchSPR   = "SPR"
	UarchEMR   = "EMR"
	UarchSRF   = "SRF"
	UarchGNR   = "GNR"
	UarchGNR_D = "GNR-D" //lint:ignore ST1003 microarchitecture names use underscores to match Intel specifications
	UarchCWF   = "CWF"
	UarchDMR   = "DMR"
	// AMD, classic
	UarchAm486 = "Am486"
	UarchK5    = "K5"
	UarchK6    = "K6"
	UarchK7    = "K7"
	UarchK8    = "K8"
	// AMD CPUs
	UarchNaples     = "Naples"
	UarchRome       = "Rome"
	UarchMilan      = "Milan"
	UarchGenoa      = "Genoa"
	UarchBergamo    = "Bergamo"
	UarchTurinZen5  = "Turin (Zen 5)"
	UarchTurinZen5c = "Turin (Zen 5c)"
	// other vendors
	UarchCrusoe  = "Crusoe"
	UarchMP6     = "mP6"
	UarchWinChip = "WinChip"
	UarchC3      = "C3"
	Uarch6x86    = "6x86"
	UarchMediaGX = "MediaGX"
	UarchNx586   = "Nx586"
)

// identifier matches a processor. Empty model or stepping lists match any
// value.
type identifier struct {
	vendor    string
	family    int
	models    []int
	steppings []int
}

func (id identifier) matches(vendor string, family, model, stepping int) bool {
	if id.vendor != vendor || id.family != family {
		return false
	}
	if len(id.models) > 0 && !slices.Contains(id.models, model) {
		return false
	}
	if len(id.steppings) > 0 && !slices.Contains(id.steppings, stepping) {
		return false
	}
	return true
}

func span(first, last int) []int {
	out := make([]int, 0, last-first+1)
	for i := first; i <= last; i++ {
		out = append(out, i)
	}
	return out
}

// cpuIdentifiers is searched in order; the first match wins.
var cpuIdentifiers = []struct {
	Identifier        identifier
	MicroArchitecture string
}{
	// Intel Core CPUs
	{identifier{IntelVendor, 6, []int{50, 69, 70}, nil}, UarchHSW},                 // Haswell
	{identifier{IntelVendor, 6, []int{61, 71}, nil}, UarchBDW},                     // Broadwell
	{identifier{IntelVendor, 6, []int{78, 94}, nil}, UarchSKL},                     // Skylake
	{identifier{IntelVendor, 6, []int{142, 158}, []int{9}}, UarchKBL},              // Kabylake
	{identifier{IntelVendor, 6, []int{142, 158}, []int{10, 11, 12, 13}}, UarchCFL}, // Coffeelake
	{identifier{IntelVendor, 6, []int{167}, nil}, UarchRKL},                        // Rocket Lake
	{identifier{IntelVendor, 6, []int{140, 141}, nil}, UarchTGL},                   // Tiger Lake
	{identifier{IntelVendor, 6, []int{151, 154}, nil}, UarchADL},                   // Alder Lake
	{identifier{IntelVendor, 6, []int{170}, []int{4}}, UarchMTL},                   // Meteor Lake
	{identifier{IntelVendor, 6, []int{197}, []int{2}}, UarchARL},                   // Arrow Lake
	// Intel Xeon CPUs
	{identifier{IntelVendor, 6, []int{63}, nil}, UarchHSX},        // Haswell
	{identifier{IntelVendor, 6, []int{79, 86}, nil}, UarchBDX},    // Broadwell
	{identifier{IntelVendor, 6, []int{85}, span(0, 4)}, UarchSKX}, // Skylake
	{identifier{IntelVendor, 6, []int{85}, span(5, 7)}, UarchCLX}, // Cascadelake
	{identifier{IntelVendor, 6, []int{85}, []int{11}}, UarchCPX},  // Cooperlake
	{identifier{IntelVendor, 6, []int{106, 108}, nil}, UarchICX},  // Icelake
	{identifier{IntelVendor, 6, []int{143}, nil}, UarchSPR},       // Sapphire Rapids
	{identifier{IntelVendor, 6, []int{207}, nil}, UarchEMR},       // Emerald Rapids
	{identifier{IntelVendor, 6, []int{175}, nil}, UarchSRF},       // Sierra Forest
	{identifier{IntelVendor, 6, []int{173}, nil}, UarchGNR},       // Granite Rapids
	{identifier{IntelVendor, 6, []int{174}, nil}, UarchGNR_D},     // Granite Rapids - D
	{identifier{IntelVendor, 6, []int{221}, nil}, UarchCWF},       // Clearwater Forest
	{identifier{IntelVendor, 19, []int{1}, nil}, UarchDMR},        // Diamond Rapids
	// Intel, classic
	{identifier{IntelVendor, 4, nil, nil}, UarchI486},
	{identifier{IntelVendor, 5, nil, nil}, UarchP5},
	{identifier{IntelVendor, 6, []int{9, 13}, nil}, UarchPM},
	{identifier{IntelVendor, 6, []int{14, 15, 22, 23, 29}, nil}, UarchCore},
	{identifier{IntelVendor, 6, span(0, 11), nil}, UarchP6},
	{identifier{IntelVendor, 15, nil, nil}, UarchNetBurst},
	// AMD CPUs
	{identifier{AMDVendor, 23, []int{1}, nil}, UarchNaples},
	{identifier{AMDVendor, 23, []int{49}, nil}, UarchRome},
	{identifier{AMDVendor, 25, []int{1}, nil}, UarchMilan},
	{identifier{AMDVendor, 25, span(16, 31), nil}, UarchGenoa},
	{identifier{AMDVendor, 25, span(160, 175), nil}, UarchBergamo},
	{identifier{AMDVendor, 26, []int{2}, nil}, UarchTurinZen5},
	{identifier{AMDVendor, 26, []int{17}, nil}, UarchTurinZen5c},
	// AMD, classic
	{identifier{AMDVendor, 4, nil, nil}, UarchAm486},
	{identifier{AMDVendor, 5, span(0, 3), nil}, UarchK5},
	{identifier{AMDVendor, 5, nil, nil}, UarchK6},
	{identifier{AMDVendor, 6, nil, nil}, UarchK7},
	{identifier{AMDVendor, 15, nil, nil}, UarchK8},
	// other vendors
	{identifier{"GenuineTMx86", 5, nil, nil}, UarchCrusoe},
	{identifier{"TransmetaCPU", 5, nil, nil}, UarchCrusoe},
	{identifier{"RiseRiseRise", 5, nil, nil}, UarchMP6},
	{identifier{"CentaurHauls", 5, []int{4, 8}, nil}, UarchWinChip},
	{identifier{"CentaurHauls", 5, []int{9}, nil}, UarchC3},
	{identifier{"CentaurHauls", 6, nil, nil}, UarchC3},
	{identifier{"CyrixInstead", 4, []int{4}, nil}, UarchMediaGX},
	{identifier{"CyrixInstead", 5, []int{4}, nil}, UarchMediaGX},
	{identifier{"CyrixInstead", 5, nil, nil}, Uarch6x86},
	{identifier{"CyrixInstead", 6, nil, nil}, Uarch6x86},
	{identifier{"NexGenDriven", 5, nil, nil}, UarchNx586},
}

// GetMicroArchitecture returns the microarchitecture of the processor with
// the given raw vendor string and decoded family, model and stepping.
func GetMicroArchitecture(vendor string, family, model, stepping int) (string, error) {
	for _, entry := range cpuIdentifiers {
		if entry.Identifier.matches(vendor, family, model, stepping) {
			return entry.MicroArchitecture, nil
		}
	}
	return "", fmt.Errorf("CPU match not found for vendor %s, family %d, model %d, stepping %d", vendor, family, model, stepping)
}

// IsIntelCPUFamily checks if the CPU family corresponds to Intel CPUs.
func IsIntelCPUFamily(family int) bool {
	return slices.Contains(IntelFamilies, family)
}

var typeNames = []string{
	"Original OEM Processor",
	"Intel OverDrive Processor",
	"Dual Processor",
	"Reserved",
}

// TypeName names the two-bit processor type field of leaf 1.
func TypeName(typ int) string {
	if typ < 0 || typ >= len(typeNames) {
		return "Other"
	}
	return typeNames[typ]
}

// intelBrands maps the leaf 1 brand index to the parts that used it. Some
// indices were reused across process generations.
var intelBrands = map[int][]string{
	0x01: {"Intel Celeron"},
	0x02: {"Intel Pentium III"},
	0x03: {"Intel Pentium III Xeon", "Intel Celeron"},
	0x04: {"Intel Pentium III"},
	0x06: {"Mobile Intel Pentium III-M"},
	0x07: {"Mobile Intel Celeron"},
	0x08: {"Intel Pentium 4", "Mobile Intel Celeron 4"},
	0x09: {"Intel Pentium 4"},
	0x0a: {"Intel Celeron 4"},
	0x0b: {"Intel Xeon MP", "Intel Xeon"},
	0x0c: {"Intel Xeon MP"},
	0x0e: {"Intel Xeon", "Mobile Intel Pentium 4-M"},
	0x0f: {"Mobile Intel Celeron 4", "Mobile Intel Pentium 4"},
	0x11: {"Mobile Genuine Intel"},
	0x12: {"Intel Celeron M"},
	0x13: {"Mobile Intel Celeron"},
	0x14: {"Intel Celeron"},
	0x15: {"Mobile Genuine Intel"},
	0x16: {"Intel Pentium M"},
	0x17: {"Mobile Intel Celeron"},
}

// BrandName names the brand index. Indices outside the Intel table are
// decoded as the 8-bit AMD brand ID: the top three bits select the line
// and the low five bits its model number.
func BrandName(brand int) string {
	if brand == 0 {
		return "Not Supported"
	}
	if names, ok := intelBrands[brand]; ok {
		return strings.Join(names, " or ")
	}
	line, n := (brand>>5)&0x7, brand&0x1f
	switch line {
	case 0:
		return fmt.Sprintf("Engineering Sample %d", n)
	case 1:
		return fmt.Sprintf("AMD Athlon 64 %d00+", 22+n)
	case 2:
		return fmt.Sprintf("AMD Athlon 64 %d00+ mobile", 22+n)
	case 3:
		return fmt.Sprintf("AMD Opteron UP 1%d", 38+2*n)
	case 4:
		return fmt.Sprintf("AMD Opteron DP 2%d", 38+2*n)
	case 5:
		return fmt.Sprintf("AMD Opteron MP 8%d", 38+2*n)
	}
	return "Unknown"
}

// Names annotates one processor for display.
type Names struct {
	MicroArchitecture string `json:"microArchitecture,omitempty" yaml:"microArchitecture,omitempty"`
	Type              string `json:"type" yaml:"type"`
	Brand             string `json:"brand" yaml:"brand"`
}

// PublishedFamily converts a signature family packed as
// (extFamily << 4) + baseFamily into the number vendors publish, which
// adds the extended family only when the base family is 0xF.
func PublishedFamily(family int) int {
	base, ext := family&0xF, family>>4
	if base == 0xF {
		return base + ext
	}
	return base
}

// Describe names a processor from its decoded identity fields, with family
// packed as (extFamily << 4) + baseFamily. An unrecognised processor gets
// an empty microarchitecture.
func Describe(vendor string, typ, family, model, stepping, brand int) Names {
	uarch, _ := GetMicroArchitecture(vendor, PublishedFamily(family), model, stepping)
	return Names{
		MicroArchitecture: uarch,
		Type:              TypeName(typ),
		Brand:             BrandName(brand),
	}
}
