// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import "cpuprobe/internal/cpuid"

// PowerManagement holds the advanced power management bits of leaf
// 0x80000007 EDX. All flags are false when the leaf is not eligible.
type PowerManagement struct {
	TS  bool `json:"ts" yaml:"ts"`   // temperature sensor
	FID bool `json:"fid" yaml:"fid"` // frequency ID control
	VID bool `json:"vid" yaml:"vid"` // voltage ID control
	TTP bool `json:"ttp" yaml:"ttp"` // thermal trip
	TM  bool `json:"tm" yaml:"tm"`   // thermal monitoring
	STC bool `json:"stc" yaml:"stc"` // software thermal control
}

func DecodePower(q cpuid.Querier, id Identity) PowerManagement {
	if !ExtendedLeafEligible(q, id, cpuid.LeafPowerMgmt) {
		return PowerManagement{}
	}
	edx := q.Query(cpuid.LeafPowerMgmt).EDX
	return PowerManagement{
		TS:  isBitSet(edx, 0),
		FID: isBitSet(edx, 1),
		VID: isBitSet(edx, 2),
		TTP: isBitSet(edx, 3),
		TM:  isBitSet(edx, 4),
		STC: isBitSet(edx, 5),
	}
}
