// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build amd64

package cpuid

func cpuid(eaxArg, ecxArg uint32) (eax, ebx, ecx, edx uint32)

func rdtsc() uint64

func orps()

func bsfLoop(n uint32)

func ud2()
