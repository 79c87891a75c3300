// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"cpuprobe/internal/cpuid"
)

// extendedFloor is the oldest part of a vendor's line known to implement
// the extended leaves correctly. Older parts may claim support through
// leaf 0x80000000 and still return garbage.
type extendedFloor struct {
	family int         // minimum family
	models map[int]int // family -> minimum model within that family
}

func (f extendedFloor) admits(family, model int) bool {
	if family < f.family {
		return false
	}
	if minModel, ok := f.models[family]; ok && model < minModel {
		return false
	}
	return true
}

// Vendors without an entry are not restricted.
var extendedFloors = map[Vendor]extendedFloor{
	VendorAMD:       {family: 5, models: map[int]int{5: 6}},       // K6
	VendorCyrix:     {family: 5, models: map[int]int{5: 4, 6: 5}}, // GXm, VIA Cyrix III
	VendorIDT:       {family: 5, models: map[int]int{5: 8}},       // C6-2
	VendorTransmeta: {family: 5},                                  // Crusoe
	VendorIntel:     {family: 0xF},                                // Pentium 4
}

// ExtendedLeafEligible reports whether leaf may be queried on the processor
// described by id: the vendor/family/model must be on the allow-list and
// the processor must report leaf as supported.
func ExtendedLeafEligible(q cpuid.Querier, id Identity, leaf uint32) bool {
	if floor, ok := extendedFloors[id.Vendor]; ok && !floor.admits(id.Family, id.Model) {
		return false
	}
	return cpuid.MaxExtendedLeaf(q) >= leaf
}

func extendedLeavesEligible(q cpuid.Querier, id Identity, leaves ...uint32) bool {
	for _, leaf := range leaves {
		if !ExtendedLeafEligible(q, id, leaf) {
			return false
		}
	}
	return true
}
