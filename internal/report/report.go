// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package report builds the census document and renders it as json or yaml.
package report

import (
	"fmt"
	"slices"
	"strings"

	"cpuprobe/internal/census"
	"cpuprobe/internal/cpus"
	"cpuprobe/internal/detect"
)

const (
	FormatJson = "json"
	FormatYaml = "yaml"
)

var FormatOptions = []string{FormatJson, FormatYaml}

// Processor is one processor's record with its display names. Names is nil
// when the processor could not be identified.
type Processor struct {
	census.Processor `yaml:",inline"`
	Names            *cpus.Names `json:"names,omitempty" yaml:"names,omitempty"`
}

// Detection is a single record with its display names, written by the
// detect command.
type Detection struct {
	detect.Record `yaml:",inline"`
	Names         *cpus.Names `json:"names,omitempty" yaml:"names,omitempty"`
}

func FromRecord(r detect.Record) Detection {
	out := Detection{Record: r}
	if r.SupportsCPUID {
		names := Describe(r.Identity)
		out.Names = &names
	}
	return out
}

// Census is the document written by the census command.
type Census struct {
	Strategy   census.Strategy `json:"strategy" yaml:"strategy"`
	Enabled    int             `json:"enabled" yaml:"enabled"`
	Probed     int             `json:"probed" yaml:"probed"`
	Skipped    int             `json:"skipped" yaml:"skipped"`
	Processors []Processor     `json:"processors" yaml:"processors"`
}

// FromCensus annotates every record of c. enabled is the number of
// processors in the affinity mask, which can exceed Probed+Skipped when a
// subset was requested.
func FromCensus(c census.Census, strategy census.Strategy, enabled int) Census {
	out := Census{
		Strategy:   strategy,
		Enabled:    enabled,
		Probed:     c.Probed,
		Skipped:    c.Skipped,
		Processors: make([]Processor, 0, len(c.Processors)),
	}
	for _, p := range c.Processors {
		out.Processors = append(out.Processors, FromProcessor(p))
	}
	return out
}

func FromProcessor(p census.Processor) Processor {
	out := Processor{Processor: p}
	if p.SupportsCPUID {
		names := Describe(p.Identity)
		out.Names = &names
	}
	return out
}

// Describe looks up the display names of a decoded identity.
func Describe(id detect.Identity) cpus.Names {
	return cpus.Describe(id.VendorString, id.Type, id.Family, id.Model, id.Stepping, id.Brand)
}

// Create renders v in the specified format. JSON is indented when pretty
// is set; YAML is always block style.
func Create(format string, v any, pretty bool) (out []byte, err error) {
	switch format {
	case FormatJson:
		return createJsonReport(v, pretty)
	case FormatYaml:
		return createYamlReport(v)
	}
	return nil, fmt.Errorf("expected one of %s, got %s", strings.Join(FormatOptions, ", "), format)
}

// ValidFormat reports whether format is one of FormatOptions.
func ValidFormat(format string) bool {
	return slices.Contains(FormatOptions, format)
}
