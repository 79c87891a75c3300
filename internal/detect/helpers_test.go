// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"encoding/binary"

	"cpuprobe/internal/cpuid"
)

func word(s string) uint32 {
	return binary.LittleEndian.Uint32([]byte(s))
}

// vendorRegs builds a leaf 0 result; the vendor string is split across
// EBX, EDX, ECX in that order.
func vendorRegs(maxLeaf uint32, vendor string) cpuid.Regs {
	return cpuid.Regs{EAX: maxLeaf, EBX: word(vendor[0:4]), EDX: word(vendor[4:8]), ECX: word(vendor[8:12])}
}

func signatureEAX(typ, family, extFamily, model, extModel, stepping uint32) uint32 {
	return extFamily<<20 | extModel<<16 | typ<<12 | family<<8 | model<<4 | stepping
}

// brandRegs spreads a brand string over the three name leaves.
func brandRegs(name string) map[uint32]cpuid.Regs {
	buf := make([]byte, 48)
	copy(buf, name)
	out := make(map[uint32]cpuid.Regs, 3)
	for i, leaf := range []uint32{cpuid.LeafBrand1, cpuid.LeafBrand2, cpuid.LeafBrand3} {
		chunk := buf[i*16 : (i+1)*16]
		out[leaf] = cpuid.Regs{
			EAX: binary.LittleEndian.Uint32(chunk[0:4]),
			EBX: binary.LittleEndian.Uint32(chunk[4:8]),
			ECX: binary.LittleEndian.Uint32(chunk[8:12]),
			EDX: binary.LittleEndian.Uint32(chunk[12:16]),
		}
	}
	return out
}

// machine is a synthetic processor description.
type machine struct {
	vendor      string
	maxBasic    uint32
	maxExtended uint32
	family      uint32 // base family
	extFamily   uint32
	model       uint32
	extModel    uint32
	stepping    uint32
	sigEBX      uint32
	sigECX      uint32
	sigEDX      uint32
	extra       map[uint32]cpuid.Regs
}

func (m machine) querier() *cpuid.Static {
	leaves := map[uint32]cpuid.Regs{
		cpuid.LeafVendor: vendorRegs(m.maxBasic, m.vendor),
		cpuid.LeafSignature: {
			EAX: signatureEAX(0, m.family, m.extFamily, m.model, m.extModel, m.stepping),
			EBX: m.sigEBX,
			ECX: m.sigECX,
			EDX: m.sigEDX,
		},
		cpuid.LeafExtendedMax: {EAX: m.maxExtended},
	}
	for leaf, regs := range m.extra {
		leaves[leaf] = regs
	}
	return cpuid.NewStatic(leaves)
}

func (m machine) identity() Identity {
	return DecodeIdentity(m.querier())
}

// athlonXP is an AMD K7 with extended leaves up to power management.
func athlonXP() machine {
	m := machine{
		vendor:      "AuthenticAMD",
		maxBasic:    1,
		maxExtended: 0x80000008,
		family:      6,
		model:       8,
		stepping:    1,
		sigEDX:      1<<0 | 1<<4 | 1<<23 | 1<<25,
		extra: map[uint32]cpuid.Regs{
			cpuid.LeafL1Cache:   {ECX: 64 << 24, EDX: 64 << 24},
			cpuid.LeafL2Cache:   {ECX: 256 << 16},
			cpuid.LeafPowerMgmt: {EDX: 0b000101},
		},
	}
	for leaf, regs := range brandRegs("AMD Athlon(tm) XP 2600+") {
		m.extra[leaf] = regs
	}
	return m
}
