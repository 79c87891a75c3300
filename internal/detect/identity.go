// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"bytes"
	"encoding/binary"
	"log/slog"

	"cpuprobe/internal/cpuid"
)

const extendedNameLength = 48

// Identity describes who made the processor and which part it is.
type Identity struct {
	Vendor       Vendor `json:"vendor" yaml:"vendor"`
	VendorString string `json:"vendorString" yaml:"vendorString"`
	Type         int    `json:"type" yaml:"type"`
	Family       int    `json:"family" yaml:"family"`
	Model        int    `json:"model" yaml:"model"`
	Stepping     int    `json:"stepping" yaml:"stepping"`
	Brand        int    `json:"brand" yaml:"brand"` // 0 if not supported

	// ExtendedName and FirstNonSpace are only valid when HasExtendedName
	// is true.
	HasExtendedName bool   `json:"hasExtendedName" yaml:"hasExtendedName"`
	ExtendedName    string `json:"extendedName,omitempty" yaml:"extendedName,omitempty"`
	FirstNonSpace   int    `json:"firstNonSpace,omitempty" yaml:"firstNonSpace,omitempty"`
}

// Name returns the extended brand string without its leading whitespace,
// or "" when the processor has none.
func (id Identity) Name() string {
	if !id.HasExtendedName {
		return ""
	}
	return id.ExtendedName[id.FirstNonSpace:]
}

// DecodeIdentity reads the vendor string and signature from leaves 0 and 1
// and, where eligible, the extended brand string from 0x80000002-4.
func DecodeIdentity(q cpuid.Querier) Identity {
	leaf0 := q.Query(cpuid.LeafVendor)
	vendor := registersToString(leaf0.EBX, leaf0.EDX, leaf0.ECX)

	sig := q.Query(cpuid.LeafSignature)
	family := bits(sig.EAX, 8, 4)
	extFamily := bits(sig.EAX, 20, 8)
	model := bits(sig.EAX, 4, 4)
	extModel := bits(sig.EAX, 16, 4)
	id := Identity{
		Vendor:       VendorFromString(vendor),
		VendorString: vendor,
		Type:         bits(sig.EAX, 12, 2),
		Family:       extFamily<<4 + family,
		Model:        extModel<<4 + model,
		Stepping:     bits(sig.EAX, 0, 4),
		Brand:        bits(sig.EBX, 0, 8),
	}
	decodeExtendedName(q, &id)
	slog.Debug("decoded identity", slog.String("vendor", id.VendorString), slog.Int("family", id.Family), slog.Int("model", id.Model), slog.Int("stepping", id.Stepping), slog.Bool("extendedName", id.HasExtendedName))
	return id
}

func decodeExtendedName(q cpuid.Querier, id *Identity) {
	if !extendedLeavesEligible(q, *id, cpuid.LeafBrand1, cpuid.LeafBrand2, cpuid.LeafBrand3) {
		return
	}
	buf := make([]byte, 0, extendedNameLength)
	for _, leaf := range []uint32{cpuid.LeafBrand1, cpuid.LeafBrand2, cpuid.LeafBrand3} {
		regs := q.Query(leaf)
		buf = appendRegisters(buf, regs.EAX, regs.EBX, regs.ECX, regs.EDX)
	}
	if end := bytes.IndexByte(buf, 0); end >= 0 {
		buf = buf[:end]
	}
	first := 0
	for first < len(buf) && isSpace(buf[first]) {
		first++
	}
	id.HasExtendedName = true
	id.ExtendedName = string(buf)
	id.FirstNonSpace = first
}

func appendRegisters(buf []byte, words ...uint32) []byte {
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	return buf
}

func registersToString(words ...uint32) string {
	return string(appendRegisters(make([]byte, 0, 4*len(words)), words...))
}

// bits extracts width bits of word starting at bit offset.
func bits(word uint32, offset, width uint) int {
	return int((word >> offset) & (1<<width - 1))
}

func isBitSet(word uint32, bit uint) bool {
	return word&(1<<bit) != 0
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
