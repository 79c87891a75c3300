// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cpuprobe/internal/cpuid"
)

func TestDecodePower(t *testing.T) {
	tests := []struct {
		name string
		edx  uint32
		want PowerManagement
	}{
		{"none", 0, PowerManagement{}},
		{"ts", 1 << 0, PowerManagement{TS: true}},
		{"fid", 1 << 1, PowerManagement{FID: true}},
		{"vid", 1 << 2, PowerManagement{VID: true}},
		{"ttp", 1 << 3, PowerManagement{TTP: true}},
		{"tm", 1 << 4, PowerManagement{TM: true}},
		{"stc", 1 << 5, PowerManagement{STC: true}},
		{"all plus reserved", 0xffffffff, PowerManagement{TS: true, FID: true, VID: true, TTP: true, TM: true, STC: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := athlonXP()
			m.extra[cpuid.LeafPowerMgmt] = cpuid.Regs{EDX: tt.edx}
			assert.Equal(t, tt.want, DecodePower(m.querier(), m.identity()))
		})
	}
}

func TestDecodePowerIneligible(t *testing.T) {
	t.Run("leaf not reported", func(t *testing.T) {
		m := athlonXP()
		m.maxExtended = 0x80000006
		q := m.querier()
		assert.Equal(t, PowerManagement{}, DecodePower(q, DecodeIdentity(q)))
		assert.Zero(t, q.Calls(cpuid.LeafPowerMgmt))
	})
	t.Run("below vendor floor", func(t *testing.T) {
		m := athlonXP()
		m.family = 5
		m.model = 5
		q := m.querier()
		assert.Equal(t, PowerManagement{}, DecodePower(q, DecodeIdentity(q)))
		assert.Zero(t, q.Calls(cpuid.LeafPowerMgmt))
	})
}
