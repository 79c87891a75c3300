// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package probe determines whether an instruction executes on the current
// processor without taking down the process when it does not.
//
// The Go runtime cannot recover from an invalid-opcode exception: SIGILL
// is fatal to the whole process, which prints the fault and exits with
// status 2 (or dies from the signal with GOTRACEBACK=crash). Native
// therefore executes each instruction in a child process, a fresh copy of
// the running executable started with ExecuteEnv set. The package init
// function notices the variable, executes the named instruction and exits
// 0 before anything else in the child runs. Any other ending of the child
// means the instruction is unsupported; the parent only waits for it.
//
// The child is forked from the calling OS thread and inherits its
// affinity mask, so a caller that pinned its locked thread to a processor
// learns about that processor.
package probe

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
)

// Instruction identifies one of the instructions that can be probed.
type Instruction int

const (
	// CPUID is the basic identification query.
	CPUID Instruction = iota
	// ORPS is a floating-point SIMD instruction (SSE).
	ORPS
	// UD2 always raises an invalid-opcode exception.
	UD2
)

func (i Instruction) String() string {
	switch i {
	case CPUID:
		return "cpuid"
	case ORPS:
		return "orps"
	case UD2:
		return "ud2"
	default:
		return fmt.Sprintf("instruction(%d)", int(i))
	}
}

// Prober reports whether an instruction executes without faulting.
type Prober interface {
	Supports(i Instruction) bool
}

// Func adapts a function to the Prober interface.
type Func func(i Instruction) bool

func (f Func) Supports(i Instruction) bool {
	return f(i)
}

// ExecuteEnv names the instruction a child process executes.
const ExecuteEnv = "CPUPROBE_EXECUTE"

// Exit statuses of a child that was not killed by the instruction.
const (
	exitExecuted           = 0
	exitUnknownInstruction = 3
)

func init() {
	if name, ok := os.LookupEnv(ExecuteEnv); ok {
		os.Exit(execute(name))
	}
}

// execute runs the named instruction in the current process and returns
// the exit status for the parent. It only returns if the instruction did
// not fault.
func execute(name string) int {
	for i, run := range executors {
		if i.String() == name {
			run()
			return exitExecuted
		}
	}
	return exitUnknownInstruction
}

// Native probes the real processor the calling thread runs on.
type Native struct{}

func (Native) Supports(i Instruction) bool {
	if _, ok := executors[i]; !ok {
		return false
	}
	executable, err := os.Executable()
	if err != nil {
		slog.Warn("cannot locate executable to test instruction", slog.String("instruction", i.String()), slog.String("error", err.Error()))
		return false
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var stderr bytes.Buffer
	cmd := exec.Command(executable) // #nosec G204
	cmd.Env = append(os.Environ(), ExecuteEnv+"="+i.String())
	cmd.Stderr = &stderr
	return exitSupported(i, cmd.Run(), stderr.String())
}

// exitSupported interprets how the child running i ended.
func exitSupported(i Instruction, err error, stderr string) bool {
	if err == nil {
		return true
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		slog.Warn("cannot start child to test instruction", slog.String("instruction", i.String()), slog.String("error", err.Error()))
		return false
	}
	attrs := []any{slog.String("instruction", i.String()), slog.Int("exitCode", exitErr.ExitCode())}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		attrs = append(attrs, slog.String("signal", status.Signal().String()))
	}
	if line, _, _ := strings.Cut(stderr, "\n"); line != "" {
		attrs = append(attrs, slog.String("stderr", line))
	}
	slog.Debug("instruction faulted", attrs...)
	return false
}
