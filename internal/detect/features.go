// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/probe"
)

// FeatureSet holds the capability flags reported by leaves 1 and
// 0x80000001. The auxiliary values at the bottom are only defined when
// their guard flag is set and are reachable only through accessors that
// report validity.
type FeatureSet struct {
	// leaf 1, EDX
	FPU     bool `json:"fpu" yaml:"fpu"`         // x87 FPU on chip
	VME     bool `json:"vme" yaml:"vme"`         // virtual-8086 mode enhancement
	DE      bool `json:"de" yaml:"de"`           // debugging extensions
	PSE     bool `json:"pse" yaml:"pse"`         // page size extensions
	TSC     bool `json:"tsc" yaml:"tsc"`         // time stamp counter
	MSR     bool `json:"msr" yaml:"msr"`         // RDMSR and WRMSR
	PAE     bool `json:"pae" yaml:"pae"`         // physical address extensions
	MCE     bool `json:"mce" yaml:"mce"`         // machine check exception
	CX8     bool `json:"cx8" yaml:"cx8"`         // CMPXCHG8B
	APIC    bool `json:"apic" yaml:"apic"`       // APIC on chip
	SEP     bool `json:"sep" yaml:"sep"`         // SYSENTER and SYSEXIT
	MTRR    bool `json:"mtrr" yaml:"mtrr"`       // memory type range registers
	PGE     bool `json:"pge" yaml:"pge"`         // PTE global bit
	MCA     bool `json:"mca" yaml:"mca"`         // machine check architecture
	CMOV    bool `json:"cmov" yaml:"cmov"`       // conditional move
	PAT     bool `json:"pat" yaml:"pat"`         // page attribute table
	PSE36   bool `json:"pse36" yaml:"pse36"`     // 36-bit page size extension
	Serial  bool `json:"serial" yaml:"serial"`   // processor serial number
	CLFSH   bool `json:"clfsh" yaml:"clfsh"`     // CLFLUSH
	DS      bool `json:"ds" yaml:"ds"`           // debug store
	ACPI    bool `json:"acpi" yaml:"acpi"`       // thermal monitor and clock control
	MMX     bool `json:"mmx" yaml:"mmx"`         // MMX technology
	FXSR    bool `json:"fxsr" yaml:"fxsr"`       // FXSAVE/FXRSTOR
	SSE     bool `json:"sse" yaml:"sse"`         // SSE extensions
	SSE2    bool `json:"sse2" yaml:"sse2"`       // SSE2 extensions
	SS      bool `json:"ss" yaml:"ss"`           // self snoop
	HTT     bool `json:"htt" yaml:"htt"`         // hyper-threading technology
	Thermal bool `json:"thermal" yaml:"thermal"` // thermal monitor
	IA64    bool `json:"ia64" yaml:"ia64"`       // IA-64 processor emulating x86
	PBE     bool `json:"pbe" yaml:"pbe"`         // pending break enable

	// SSEFP is set when SSE is reported and ORPS actually executes.
	SSEFP bool `json:"ssefp" yaml:"ssefp"`

	// leaf 1, ECX
	SSE3    bool `json:"sse3" yaml:"sse3"`
	Monitor bool `json:"monitor" yaml:"monitor"` // MONITOR/MWAIT
	DSCPL   bool `json:"dscpl" yaml:"dscpl"`     // CPL qualified debug store
	EST     bool `json:"est" yaml:"est"`         // enhanced SpeedStep
	TM2     bool `json:"tm2" yaml:"tm2"`         // thermal monitor 2
	CNXTID  bool `json:"cnxtid" yaml:"cnxtid"`   // L1 context ID

	// leaf 0x80000001, EDX
	ThreeDNow     bool `json:"3dnow" yaml:"3dnow"`
	ThreeDNowPlus bool `json:"3dnowplus" yaml:"3dnowplus"`
	SSEMMX        bool `json:"ssemmx" yaml:"ssemmx"`
	MMXPlus       bool `json:"mmxplus" yaml:"mmxplus"` // bit position differs between AMD and Cyrix
	SupportsMP    bool `json:"mp" yaml:"mp"`           // separates Athlon MP from Athlon XP

	serialNumber       string // if Serial
	cacheLineBytes     int    // if CLFSH
	apicID             int    // if APIC
	logicalPerPhysical int    // meaningful if HTT, otherwise 1
}

// SerialNumber returns the processor serial number. ok is false when the
// processor does not report one.
func (f FeatureSet) SerialNumber() (serial string, ok bool) {
	if !f.Serial {
		return "", false
	}
	return f.serialNumber, true
}

// CacheLineBytes returns the CLFLUSH line size in bytes. ok is false when
// CLFLUSH is not supported.
func (f FeatureSet) CacheLineBytes() (size int, ok bool) {
	if !f.CLFSH {
		return 0, false
	}
	return f.cacheLineBytes, true
}

// APICID returns the initial local APIC ID. ok is false without an APIC.
func (f FeatureSet) APICID() (id int, ok bool) {
	if !f.APIC {
		return 0, false
	}
	return f.apicID, true
}

// LogicalProcessorsPerPhysical is 1 unless hyper-threading is reported.
func (f FeatureSet) LogicalProcessorsPerPhysical() int {
	if !f.HTT {
		return 1
	}
	return f.logicalPerPhysical
}

type featureBit struct {
	name string
	bit  uint
	flag func(*FeatureSet) *bool
}

var standardEDX = []featureBit{
	{"fpu", 0, func(f *FeatureSet) *bool { return &f.FPU }},
	{"vme", 1, func(f *FeatureSet) *bool { return &f.VME }},
	{"de", 2, func(f *FeatureSet) *bool { return &f.DE }},
	{"pse", 3, func(f *FeatureSet) *bool { return &f.PSE }},
	{"tsc", 4, func(f *FeatureSet) *bool { return &f.TSC }},
	{"msr", 5, func(f *FeatureSet) *bool { return &f.MSR }},
	{"pae", 6, func(f *FeatureSet) *bool { return &f.PAE }},
	{"mce", 7, func(f *FeatureSet) *bool { return &f.MCE }},
	{"cx8", 8, func(f *FeatureSet) *bool { return &f.CX8 }},
	{"apic", 9, func(f *FeatureSet) *bool { return &f.APIC }},
	{"sep", 11, func(f *FeatureSet) *bool { return &f.SEP }},
	{"mtrr", 12, func(f *FeatureSet) *bool { return &f.MTRR }},
	{"pge", 13, func(f *FeatureSet) *bool { return &f.PGE }},
	{"mca", 14, func(f *FeatureSet) *bool { return &f.MCA }},
	{"cmov", 15, func(f *FeatureSet) *bool { return &f.CMOV }},
	{"pat", 16, func(f *FeatureSet) *bool { return &f.PAT }},
	{"pse36", 17, func(f *FeatureSet) *bool { return &f.PSE36 }},
	{"serial", 18, func(f *FeatureSet) *bool { return &f.Serial }},
	{"clfsh", 19, func(f *FeatureSet) *bool { return &f.CLFSH }},
	{"ds", 21, func(f *FeatureSet) *bool { return &f.DS }},
	{"acpi", 22, func(f *FeatureSet) *bool { return &f.ACPI }},
	{"mmx", 23, func(f *FeatureSet) *bool { return &f.MMX }},
	{"fxsr", 24, func(f *FeatureSet) *bool { return &f.FXSR }},
	{"sse", 25, func(f *FeatureSet) *bool { return &f.SSE }},
	{"sse2", 26, func(f *FeatureSet) *bool { return &f.SSE2 }},
	{"ss", 27, func(f *FeatureSet) *bool { return &f.SS }},
	{"htt", 28, func(f *FeatureSet) *bool { return &f.HTT }},
	{"thermal", 29, func(f *FeatureSet) *bool { return &f.Thermal }},
	{"ia64", 30, func(f *FeatureSet) *bool { return &f.IA64 }},
	{"pbe", 31, func(f *FeatureSet) *bool { return &f.PBE }},
}

var standardECX = []featureBit{
	{"sse3", 0, func(f *FeatureSet) *bool { return &f.SSE3 }},
	{"monitor", 3, func(f *FeatureSet) *bool { return &f.Monitor }},
	{"dscpl", 4, func(f *FeatureSet) *bool { return &f.DSCPL }},
	{"est", 7, func(f *FeatureSet) *bool { return &f.EST }},
	{"tm2", 8, func(f *FeatureSet) *bool { return &f.TM2 }},
	{"cnxtid", 10, func(f *FeatureSet) *bool { return &f.CNXTID }},
}

var extendedEDX = []featureBit{
	{"mp", 19, func(f *FeatureSet) *bool { return &f.SupportsMP }},
	{"ssemmx", 22, func(f *FeatureSet) *bool { return &f.SSEMMX }},
	{"3dnowplus", 30, func(f *FeatureSet) *bool { return &f.ThreeDNowPlus }},
	{"3dnow", 31, func(f *FeatureSet) *bool { return &f.ThreeDNow }},
}

// mmxPlusBit is the vendor-specific position of MMX+ in 0x80000001 EDX.
// Other vendors never report MMX+.
var mmxPlusBit = map[Vendor]uint{
	VendorAMD:   22,
	VendorCyrix: 24,
}

// derivedFlags are flags that have no single fixed bit position.
var derivedFlags = []featureBit{
	{"ssefp", 0, func(f *FeatureSet) *bool { return &f.SSEFP }},
	{"mmxplus", 0, func(f *FeatureSet) *bool { return &f.MMXPlus }},
}

// Flags returns the names of all flags that are set.
func (f FeatureSet) Flags() mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, table := range [][]featureBit{standardEDX, standardECX, extendedEDX, derivedFlags} {
		for _, fb := range table {
			if *fb.flag(&f) {
				set.Add(fb.name)
			}
		}
	}
	return set
}

// DecodeFeatures decodes the feature words of leaf 1 and, where eligible,
// leaf 0x80000001. SSE floating point is confirmed with the prober.
func DecodeFeatures(q cpuid.Querier, prober probe.Prober, id Identity) FeatureSet {
	var f FeatureSet
	sig := q.Query(cpuid.LeafSignature)
	applyBits(&f, standardEDX, sig.EDX)
	applyBits(&f, standardECX, sig.ECX)

	if f.SSE {
		f.SSEFP = prober.Supports(probe.ORPS)
	}
	if f.CLFSH {
		// reported in 8-byte units
		f.cacheLineBytes = bits(sig.EBX, 8, 8) * 8
	}
	if f.APIC {
		f.apicID = bits(sig.EBX, 24, 8)
	}
	f.logicalPerPhysical = 1
	if f.HTT {
		f.logicalPerPhysical = bits(sig.EBX, 16, 8)
	}
	if f.Serial {
		f.serialNumber = readSerialNumber(q)
	}

	if ExtendedLeafEligible(q, id, cpuid.LeafExtendedSig) {
		ext := q.Query(cpuid.LeafExtendedSig)
		applyBits(&f, extendedEDX, ext.EDX)
		if bit, ok := mmxPlusBit[id.Vendor]; ok {
			f.MMXPlus = isBitSet(ext.EDX, bit)
		}
	} else {
		slog.Debug("extended features not eligible", slog.String("vendor", id.VendorString), slog.Int("family", id.Family), slog.Int("model", id.Model))
	}
	return f
}

func applyBits(f *FeatureSet, table []featureBit, word uint32) {
	for _, fb := range table {
		*fb.flag(f) = isBitSet(word, fb.bit)
	}
}

// readSerialNumber formats the 96-bit serial number from leaf 3 as six
// groups of four hex digits.
func readSerialNumber(q cpuid.Querier) string {
	regs := q.Query(cpuid.LeafSerial)
	b := appendRegisters(nil, regs.EBX, regs.ECX, regs.EDX)
	return fmt.Sprintf("%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8], b[9], b[10], b[11])
}

type featureSetView struct {
	featureSetFlags `yaml:",inline"`

	SerialNumber                 *string `json:"serialNumber,omitempty" yaml:"serialNumber,omitempty"`
	CacheLineBytes               *int    `json:"cacheLineBytes,omitempty" yaml:"cacheLineBytes,omitempty"`
	APICID                       *int    `json:"apicId,omitempty" yaml:"apicId,omitempty"`
	LogicalProcessorsPerPhysical int     `json:"logicalProcessorsPerPhysical" yaml:"logicalProcessorsPerPhysical"`
}

// featureSetFlags has FeatureSet's fields without its methods.
type featureSetFlags FeatureSet

func (f FeatureSet) view() featureSetView {
	v := featureSetView{
		featureSetFlags:              featureSetFlags(f),
		LogicalProcessorsPerPhysical: f.LogicalProcessorsPerPhysical(),
	}
	if serial, ok := f.SerialNumber(); ok {
		v.SerialNumber = &serial
	}
	if size, ok := f.CacheLineBytes(); ok {
		v.CacheLineBytes = &size
	}
	if id, ok := f.APICID(); ok {
		v.APICID = &id
	}
	return v
}
