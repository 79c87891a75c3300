// Package common defines data structures and functions that are used by multiple
// application commands, e.g., census and detect.
package common

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cpuprobe/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var AppName = filepath.Base(os.Args[0])

// AppContext represents the application context that can be accessed from all commands.
type AppContext struct {
	Timestamp   string // Timestamp is the application start time.
	LogFilePath string // LogFilePath is the log file, empty when logging elsewhere.
	Version     string // Version is the version of the application.
	Debug       bool   // Debug is true when debug logging is enabled.
}

type Flag struct {
	Name string
	Help string
}
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}

const (
	FlagFormatName = "format"
	FlagOutputName = "output"
	FlagWindowName = "window"
)

// UsageFunc prints a command's flags grouped the way groups lists them,
// followed by the persistent flags of its parent.
func UsageFunc(groups func() []FlagGroup) func(cmd *cobra.Command) error {
	return func(cmd *cobra.Command) error {
		cmd.Printf("Usage: %s [flags]\n\n", cmd.CommandPath())
		cmd.Printf("Examples:\n%s\n\n", cmd.Example)
		cmd.Println("Flags:")
		for _, group := range groups() {
			cmd.Printf("  %s:\n", group.GroupName)
			for _, flag := range group.Flags {
				flagDefault := ""
				if cmd.Flags().Lookup(flag.Name).DefValue != "" {
					flagDefault = fmt.Sprintf(" (default: %s)", cmd.Flags().Lookup(flag.Name).DefValue)
				}
				cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
			}
		}
		cmd.Println("\nGlobal Flags:")
		cmd.Parent().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
			flagDefault := ""
			if pf.DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
			}
			cmd.Printf("  --%-20s %s%s\n", pf.Name, pf.Usage, flagDefault)
		})
		return nil
	}
}

// FlagValidationError is used to report an error with a flag
func FlagValidationError(cmd *cobra.Command, msg string) error {
	err := errors.New(msg)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprintf(os.Stderr, "See '%s --help' for usage details.\n", cmd.CommandPath())
	cmd.SilenceUsage = true
	return err
}

// ResolveOutputPath expands '~' and makes path absolute. The directory the
// file goes into must already exist. An empty path, meaning stdout, is
// returned unchanged.
func ResolveOutputPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	abs, err := util.AbsPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand output path %s: %v", path, err)
	}
	exists, err := util.DirectoryExists(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("failed to determine if output directory exists: %v", err)
	}
	if !exists {
		return "", fmt.Errorf("output directory %s does not exist", filepath.Dir(abs))
	}
	return abs, nil
}

// PrettyOutput reports whether output written to path lands on a terminal.
func PrettyOutput(path string) bool {
	return path == "" && term.IsTerminal(int(os.Stdout.Fd()))
}

// WriteOutput writes data to path, or to stdout when path is empty.
func WriteOutput(data []byte, path string) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	err := os.WriteFile(path, data, 0644) // #nosec G306
	if err != nil {
		err = fmt.Errorf("failed to write output file: %v", err)
		slog.Error(err.Error())
		return err
	}
	slog.Info("wrote output", slog.String("path", path))
	return nil
}
