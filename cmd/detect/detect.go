// Package detect is a subcommand of the root command. It runs one detection
// pass and writes the record.
package detect

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"cpuprobe/internal/census"
	"cpuprobe/internal/common"
	"cpuprobe/internal/detect"
	"cpuprobe/internal/report"

	"github.com/spf13/cobra"
)

const cmdName = "detect"

var examples = []string{
	fmt.Sprintf("  Detect the current processor:           $ %s %s", common.AppName, cmdName),
	fmt.Sprintf("  Detect processor 3 and write YAML:      $ %s %s --cpu 3 --format yaml", common.AppName, cmdName),
	fmt.Sprintf("  Use a longer frequency window:          $ %s %s --window 200ms", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Detect the processor the command runs on",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagCPU    int
	flagWindow time.Duration
	flagFormat string
	flagOutput string
)

const (
	flagCPUName = "cpu"
)

func init() {
	Cmd.Flags().IntVar(&flagCPU, flagCPUName, -1, "")
	Cmd.Flags().DurationVar(&flagWindow, common.FlagWindowName, detect.DefaultWindow, "")
	Cmd.Flags().StringVar(&flagFormat, common.FlagFormatName, report.FormatJson, "")
	Cmd.Flags().StringVar(&flagOutput, common.FlagOutputName, "", "")

	Cmd.SetUsageFunc(common.UsageFunc(getFlagGroups))
}

func getFlagGroups() []common.FlagGroup {
	return []common.FlagGroup{
		{
			GroupName: "Options",
			Flags: []common.Flag{
				{
					Name: flagCPUName,
					Help: "bind to this processor before detecting, -1 stays on the current one",
				},
				{
					Name: common.FlagWindowName,
					Help: "how long the cycle counter is sampled to estimate the clock rate",
				},
				{
					Name: common.FlagFormatName,
					Help: fmt.Sprintf("choose output format from: %s", strings.Join(report.FormatOptions, ", ")),
				},
				{
					Name: common.FlagOutputName,
					Help: "write the record to this file instead of stdout",
				},
			},
		},
	}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagCPU < -1 {
		return common.FlagValidationError(cmd, fmt.Sprintf("cpu must be -1 or a processor index, got %d", flagCPU))
	}
	if flagWindow <= 0 {
		return common.FlagValidationError(cmd, "window must be greater than 0")
	}
	if !report.ValidFormat(flagFormat) {
		return common.FlagValidationError(cmd, fmt.Sprintf("format options are: %s", strings.Join(report.FormatOptions, ", ")))
	}
	output, err := common.ResolveOutputPath(flagOutput)
	if err != nil {
		return common.FlagValidationError(cmd, err.Error())
	}
	flagOutput = output
	return nil
}

func newDetector() *detect.Detector {
	d := detect.NewDetector()
	d.Estimator.Window = flagWindow
	return d
}

func runCmd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	record, err := detectRecord()
	if err != nil {
		slog.Error(err.Error())
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	out, err := report.Create(flagFormat, report.FromRecord(record), common.PrettyOutput(flagOutput))
	if err != nil {
		slog.Error("failed to render record", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if err := common.WriteOutput(out, flagOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// detectRecord runs on the current processor, or pins to flagCPU through a
// one-processor census so the caller's affinity is restored.
func detectRecord() (detect.Record, error) {
	if flagCPU < 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		return newDetector().Detect(), nil
	}
	only := census.NewMask(flagCPU)
	o := census.Orchestrator{
		Strategy:    census.Sequential,
		Affinity:    census.OSAffinity{},
		NewDetector: func(int) census.Detector { return newDetector() },
		CPUs:        &only,
	}
	c := o.Run()
	if len(c.Processors) == 0 {
		return detect.Record{}, fmt.Errorf("processor %d is not available to this process", flagCPU)
	}
	return c.Processors[0].Record, nil
}
