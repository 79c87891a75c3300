// Package cmd provides the command line interface for the application.
package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"log/syslog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"cpuprobe/cmd/census"
	"cpuprobe/cmd/detect"
	"cpuprobe/internal/common"

	"github.com/spf13/cobra"
)

var gLogFile *os.File
var gVersion = "9.9.9" // overwritten by ldflags at build time

const (
	// LongAppName is the name of the application
	LongAppName = "CPU Probe"
)

var examples = []string{
	fmt.Sprintf("  Detect the processor this command runs on:         $ %s detect", common.AppName),
	fmt.Sprintf("  Run detection on every enabled processor:          $ %s census", common.AppName),
	fmt.Sprintf("  Pin one worker per processor and write YAML:       $ %s census --strategy concurrent --format yaml --output census.yaml", common.AppName),
	fmt.Sprintf("  Restrict the census to processors 0-3 and 8:       $ %s census --cpus 0-3,8", common.AppName),
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:                common.AppName,
	Short:              common.AppName,
	Long:               fmt.Sprintf(`%s (%s) reports the identity, features, cache geometry, power management capabilities and clock rate of x86 processors.`, LongAppName, common.AppName),
	Example:            strings.Join(examples, "\n"),
	PersistentPreRunE:  initializeApplication, // will only be run if command has a 'Run' function
	PersistentPostRunE: terminateApplication,  // ...
	Version:            gVersion,
}

var (
	flagDebug     bool
	flagSyslog    bool
	flagLogStdOut bool
)

const (
	flagDebugName     = "debug"
	flagSyslogName    = "syslog"
	flagLogStdOutName = "log-stdout"
)

func init() {
	rootCmd.SetUsageTemplate(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command] [flags]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}
`)
	rootCmd.SetHelpCommand(&cobra.Command{}) // block the help command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.AddGroup([]*cobra.Group{{ID: "primary", Title: "Commands:"}}...)
	rootCmd.AddCommand(detect.Cmd)
	rootCmd.AddCommand(census.Cmd)
	// Global (persistent) flags
	rootCmd.PersistentFlags().BoolVar(&flagDebug, flagDebugName, false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagSyslog, flagSyslogName, false, "write logs to syslog instead of a file")
	rootCmd.PersistentFlags().BoolVar(&flagLogStdOut, flagLogStdOutName, false, "write logs to stdout")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.EnableCommandSorting = false
	cobra.EnableCaseInsensitive = true
	err := rootCmd.Execute()
	if err != nil {
		terminateErr := terminateApplication(rootCmd, os.Args)
		if terminateErr != nil {
			slog.Error("Error terminating application", slog.String("error", terminateErr.Error()))
			fmt.Printf("Error: %v\n", terminateErr)
		}
		os.Exit(1)
	}
}

// newLogHandler builds the handler selected by the logging flags. The log
// file, when used, is left open in gLogFile.
func newLogHandler(logOpts *slog.HandlerOptions) (slog.Handler, error) {
	switch {
	case flagSyslog && flagLogStdOut:
		return nil, fmt.Errorf("both syslog handler and stdout output specified, please pick one only")
	case flagSyslog:
		handler, err := NewSyslogHandler(logOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create syslog handler: %v", err)
		}
		return handler, nil
	case flagLogStdOut:
		return slog.NewJSONHandler(os.Stdout, logOpts), nil
	}
	var err error
	gLogFile, err = os.OpenFile(common.AppName+".log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G302
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}
	return slog.NewTextHandler(gLogFile, logOpts), nil
}

func initializeApplication(cmd *cobra.Command, args []string) error {
	timestamp := time.Now().Local().Format("2006-01-02_15-04-05") // app startup time
	// configure logging
	var logOpts slog.HandlerOptions
	if flagDebug {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	} else {
		logOpts.Level = slog.LevelInfo
		logOpts.AddSource = false
	}
	handler, err := newLogHandler(&logOpts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("Starting up", slog.String("app", common.AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
	var logFilePath string
	if gLogFile != nil {
		logFilePath = gLogFile.Name()
	}
	// set app context
	cmd.Parent().SetContext(
		context.WithValue(
			context.Background(),
			common.AppContext{},
			common.AppContext{
				Timestamp:   timestamp,
				LogFilePath: logFilePath,
				Version:     gVersion,
				Debug:       flagDebug},
		),
	)
	return nil
}

// terminateApplication closes the log file
func terminateApplication(cmd *cobra.Command, args []string) error {
	var ctx context.Context
	if cmd.Parent() == nil {
		ctx = cmd.Context()
	} else {
		ctx = cmd.Parent().Context()
	}
	if ctx != nil {
		ctxValue := ctx.Value(common.AppContext{})
		if ctxValue != nil {
			if _, ok := ctxValue.(common.AppContext); ok {
				slog.Info("Shutting down", slog.String("app", common.AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
				if gLogFile != nil {
					err := gLogFile.Close()
					gLogFile = nil
					if err != nil {
						slog.Error("error closing log file", slog.String("error", err.Error()))
						return err
					}
				}
			}
		}
	}
	return nil
}

// SyslogHandler is a slog.Handler that logs to syslog under the
// application name.
type SyslogHandler struct {
	writer     *syslog.Writer
	logLeveler slog.Leveler
	addSource  bool
	attrs      []slog.Attr
}

func NewSyslogHandler(logOpts *slog.HandlerOptions) (*SyslogHandler, error) {
	writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, common.AppName)
	if err != nil {
		return nil, err
	}
	return &SyslogHandler{writer: writer, logLeveler: logOpts.Level, addSource: logOpts.AddSource}, nil
}

// sourcePath shortens an absolute source file to the working directory's
// last element followed by the path relative to it.
func sourcePath(file string) string {
	if !filepath.IsAbs(file) {
		return file
	}
	wd, err := os.Getwd()
	if err != nil {
		return file
	}
	rel, err := filepath.Rel(wd, file)
	if err != nil {
		return file
	}
	return filepath.Join(filepath.Base(wd), rel)
}

// formatRecord renders r as logfmt-style key="value" pairs, handler
// attributes before record attributes.
func (h *SyslogHandler) formatRecord(r slog.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "level=%s", r.Level.String())
	if r.PC != 0 && h.addSource {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fmt.Fprintf(&b, " source=%s:%d", sourcePath(f.File), f.Line)
	}
	fmt.Fprintf(&b, " msg=%q", r.Message)
	write := func(attr slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%q", attr.Key, attr.Value.String())
		return true
	}
	for _, attr := range h.attrs {
		write(attr)
	}
	r.Attrs(write)
	return b.String()
}

func (h *SyslogHandler) Handle(ctx context.Context, r slog.Record) error {
	msg := h.formatRecord(r)
	switch {
	case r.Level >= slog.LevelError:
		return h.writer.Err(msg)
	case r.Level >= slog.LevelWarn:
		return h.writer.Warning(msg)
	case r.Level >= slog.LevelInfo:
		return h.writer.Info(msg)
	default:
		return h.writer.Debug(msg)
	}
}

func (h *SyslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clip(h.attrs), attrs...)
	return &clone
}

func (h *SyslogHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *SyslogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.logLeveler.Level()
}
