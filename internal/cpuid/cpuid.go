// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package cpuid provides raw access to the x86 identification and timing
// instructions used by the detectors: CPUID, RDTSC, ORPS and a fixed-cost
// BSF timing loop.
package cpuid

// Leaf selectors used by the detectors.
const (
	LeafVendor         uint32 = 0x0
	LeafSignature      uint32 = 0x1
	LeafDescriptors    uint32 = 0x2
	LeafSerial         uint32 = 0x3
	LeafExtendedMax    uint32 = 0x80000000
	LeafExtendedSig    uint32 = 0x80000001
	LeafBrand1         uint32 = 0x80000002
	LeafBrand2         uint32 = 0x80000003
	LeafBrand3         uint32 = 0x80000004
	LeafL1Cache        uint32 = 0x80000005
	LeafL2Cache        uint32 = 0x80000006
	LeafPowerMgmt      uint32 = 0x80000007
	ExtendedLeafOffset uint32 = 0x80000000
)

// Regs holds the four result registers of a CPUID query.
type Regs struct {
	EAX, EBX, ECX, EDX uint32
}

// Words returns the registers in EAX, EBX, ECX, EDX order.
func (r Regs) Words() [4]uint32 {
	return [4]uint32{r.EAX, r.EBX, r.ECX, r.EDX}
}

// Querier executes CPUID for a leaf on the current processor.
type Querier interface {
	Query(leaf uint32) Regs
}

// Native queries the processor the calling thread is running on.
type Native struct{}

func (Native) Query(leaf uint32) Regs {
	a, b, c, d := cpuid(leaf, 0)
	return Regs{EAX: a, EBX: b, ECX: c, EDX: d}
}

// MaxBasicLeaf returns the highest standard leaf the processor reports.
func MaxBasicLeaf(q Querier) uint32 {
	return q.Query(LeafVendor).EAX
}

// MaxExtendedLeaf returns the highest extended leaf the processor reports.
// Processors without extended leaves return garbage here, callers must
// combine it with a vendor check.
func MaxExtendedLeaf(q Querier) uint32 {
	return q.Query(LeafExtendedMax).EAX
}

// ReadTSC returns the current time stamp counter.
func ReadTSC() uint64 {
	return rdtsc()
}

// ExecuteCPUID runs CPUID leaf 0 and discards the result.
func ExecuteCPUID() {
	cpuid(0, 0)
}

// ExecuteORPS runs ORPS xmm0, xmm0.
func ExecuteORPS() {
	orps()
}

// ExecuteUD2 runs UD2, the opcode reserved to raise an invalid-opcode
// exception. The calling process receives SIGILL and dies.
func ExecuteUD2() {
	ud2()
}

// TimingLoop runs n iterations of the BSF loop whose per-iteration cycle
// cost is documented for 80386, 80486 and Pentium processors.
func TimingLoop(n uint32) {
	if n == 0 {
		return
	}
	bsfLoop(n)
}
