// Package census is a subcommand of the root command. It runs detection on
// every enabled processor and writes the census.
package census

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"cpuprobe/internal/census"
	"cpuprobe/internal/common"
	"cpuprobe/internal/detect"
	"cpuprobe/internal/progress"
	"cpuprobe/internal/report"
	"cpuprobe/internal/util"

	"github.com/spf13/cobra"
)

const cmdName = "census"

var examples = []string{
	fmt.Sprintf("  Census of all enabled processors:             $ %s %s", common.AppName, cmdName),
	fmt.Sprintf("  One pinned worker per processor, 4 at a time: $ %s %s --strategy concurrent --workers 4", common.AppName, cmdName),
	fmt.Sprintf("  Processors selected by hex mask, as YAML:     $ %s %s --cpus 0xf0 --format yaml", common.AppName, cmdName),
	fmt.Sprintf("  Options from a file:                          $ %s %s --config census.yaml", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Run detection on every enabled processor",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagStrategy string
	flagWindow   time.Duration
	flagCPUs     string
	flagWorkers  int
	flagFormat   string
	flagOutput   string
	flagConfig   string
)

const (
	flagStrategyName = "strategy"
	flagCPUsName     = "cpus"
	flagWorkersName  = "workers"
	flagConfigName   = "config"
)

func init() {
	Cmd.Flags().StringVar(&flagStrategy, flagStrategyName, string(census.Sequential), "")
	Cmd.Flags().DurationVar(&flagWindow, common.FlagWindowName, detect.DefaultWindow, "")
	Cmd.Flags().StringVar(&flagCPUs, flagCPUsName, "", "")
	Cmd.Flags().IntVar(&flagWorkers, flagWorkersName, 0, "")
	Cmd.Flags().StringVar(&flagFormat, common.FlagFormatName, report.FormatJson, "")
	Cmd.Flags().StringVar(&flagOutput, common.FlagOutputName, "", "")
	Cmd.Flags().StringVar(&flagConfig, flagConfigName, "", "")

	Cmd.SetUsageFunc(common.UsageFunc(getFlagGroups))
}

func getFlagGroups() []common.FlagGroup {
	var groups []common.FlagGroup
	strategies := make([]string, 0, len(census.Strategies))
	for _, s := range census.Strategies {
		strategies = append(strategies, string(s))
	}
	groups = append(groups, common.FlagGroup{
		GroupName: "Census Options",
		Flags: []common.Flag{
			{
				Name: flagStrategyName,
				Help: fmt.Sprintf("how processors are visited: %s", strings.Join(strategies, ", ")),
			},
			{
				Name: flagCPUsName,
				Help: "processors to include, as a list (0-3,8) or a hex mask (0xff); all enabled processors when empty",
			},
			{
				Name: flagWorkersName,
				Help: "concurrent strategy only: maximum pinned workers at once, 0 for one per processor",
			},
			{
				Name: common.FlagWindowName,
				Help: "how long the cycle counter is sampled to estimate the clock rate",
			},
			{
				Name: flagConfigName,
				Help: "YAML file with census options, explicit flags take precedence",
			},
		},
	})
	groups = append(groups, common.FlagGroup{
		GroupName: "Output Options",
		Flags: []common.Flag{
			{
				Name: common.FlagFormatName,
				Help: fmt.Sprintf("choose output format from: %s", strings.Join(report.FormatOptions, ", ")),
			},
			{
				Name: common.FlagOutputName,
				Help: "write the census to this file instead of stdout",
			},
		},
	})
	return groups
}

// applyOptions copies file options into every flag not set on the command
// line.
func applyOptions(cmd *cobra.Command, opts census.Options) {
	changed := func(name string) bool {
		return cmd.Flags().Lookup(name).Changed
	}
	if opts.Strategy != "" && !changed(flagStrategyName) {
		flagStrategy = string(opts.Strategy)
	}
	if opts.Window != 0 && !changed(common.FlagWindowName) {
		flagWindow = opts.Window
	}
	if opts.CPUs != "" && !changed(flagCPUsName) {
		flagCPUs = opts.CPUs
	}
	if opts.Workers != 0 && !changed(flagWorkersName) {
		flagWorkers = opts.Workers
	}
	if opts.Format != "" && !changed(common.FlagFormatName) {
		flagFormat = opts.Format
	}
	if opts.Output != "" && !changed(common.FlagOutputName) {
		flagOutput = opts.Output
	}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagConfig != "" {
		path, err := util.AbsPath(flagConfig)
		if err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("failed to expand config path %s: %v", flagConfig, err))
		}
		opts, err := census.LoadOptions(path)
		if err != nil {
			return common.FlagValidationError(cmd, err.Error())
		}
		applyOptions(cmd, opts)
	}
	if _, err := census.ParseStrategy(flagStrategy); err != nil {
		return common.FlagValidationError(cmd, err.Error())
	}
	if flagWindow <= 0 {
		return common.FlagValidationError(cmd, "window must be greater than 0")
	}
	if flagWorkers < 0 {
		return common.FlagValidationError(cmd, "workers must not be negative")
	}
	if flagCPUs != "" {
		if _, err := util.CPUListToIntList(flagCPUs); err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("invalid cpus %q: %v", flagCPUs, err))
		}
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

// newOrchestrator builds the census from the validated flags.
func newOrchestrator(affinity census.Affinity) (*census.Orchestrator, error) {
	strategy, err := census.ParseStrategy(flagStrategy)
	if err != nil {
		return nil, err
	}
	o := &census.Orchestrator{
		Strategy: strategy,
		Affinity: affinity,
		NewDetector: func(int) census.Detector {
			d := detect.NewDetector()
			d.Estimator.Window = flagWindow
			return d
		},
		Workers: flagWorkers,
	}
	if flagCPUs != "" {
		cpus, err := util.CPUListToIntList(flagCPUs)
		if err != nil {
			return nil, err
		}
		mask := census.NewMask(cpus...)
		o.CPUs = &mask
	}
	return o, nil
}

// progressFunc reports census progress on a single spinner line.
func progressFunc(update progress.MultiSpinnerUpdateFunc, label string) func(cpu int, status string) {
	var done atomic.Int32
	return func(cpu int, status string) {
		if status != "detecting" {
			done.Add(1)
		}
		if err := update(label, fmt.Sprintf("cpu %d %s, %d finished", cpu, status, done.Load())); err != nil {
			slog.Debug("failed to update progress", slog.String("label", label), slog.String("error", err.Error()))
		}
	}
}

func runCmd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	affinity := census.OSAffinity{}
	o, err := newOrchestrator(affinity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	enabled, err := census.CPUCount(affinity)
	if err != nil {
		slog.Warn("failed to count enabled processors", slog.String("error", err.Error()))
	}
	slog.Debug("census options", slog.Int("enabled", enabled), slog.Int("workers", o.Workers), slog.String("window", flagWindow.String()), slog.String("cpus", flagCPUs))

	const label = "census"
	spinner := progress.NewMultiSpinner()
	_ = spinner.AddSpinner(label)
	o.Progress = progressFunc(spinner.Status, label)
	spinner.Start()
	result := o.Run()
	spinner.Finish()

	out, err := report.Create(flagFormat, report.FromCensus(result, o.Strategy, enabled), common.PrettyOutput(flagOutput))
	if err != nil {
		slog.Error("failed to render census", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if err := common.WriteOutput(out, flagOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
