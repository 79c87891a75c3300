// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build !amd64

package cpuid

// On other architectures every instruction behaves like an illegal
// instruction: it panics, ending the process that executed it.

type notX86 struct{}

func (notX86) Error() string { return "cpuid: instruction not available on this architecture" }

func cpuid(eaxArg, ecxArg uint32) (eax, ebx, ecx, edx uint32) {
	panic(notX86{})
}

func rdtsc() uint64 {
	panic(notX86{})
}

func orps() {
	panic(notX86{})
}

func bsfLoop(n uint32) {
	panic(notX86{})
}

func ud2() {
	panic(notX86{})
}
