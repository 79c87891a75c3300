// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package probe

import "cpuprobe/internal/cpuid"

var executors = map[Instruction]func(){
	CPUID: cpuid.ExecuteCPUID,
	ORPS:  cpuid.ExecuteORPS,
	UD2:   cpuid.ExecuteUD2,
}
