// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package detect decodes the identity, features, cache geometry, power
// management capabilities and clock rate of the processor the calling
// thread runs on. Every decoder degrades to documented sentinel values
// instead of returning errors.
package detect

import (
	"log/slog"

	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/probe"
)

// Record is the result of one detection pass on one processor. When
// SupportsCPUID is false every other field is meaningless.
type Record struct {
	SupportsCPUID bool            `json:"supportsCPUID" yaml:"supportsCPUID"`
	Identity      Identity        `json:"identity" yaml:"identity"`
	Features      FeatureSet      `json:"features" yaml:"features"`
	Cache         CacheGeometry   `json:"cache" yaml:"cache"`
	Power         PowerManagement `json:"powerManagement" yaml:"powerManagement"`
	FrequencyMHz  int             `json:"frequencyMHz" yaml:"frequencyMHz"`
}

// Detector runs a single-processor detection pass. The caller is
// responsible for keeping the pass on one processor.
type Detector struct {
	Querier   cpuid.Querier
	Prober    probe.Prober
	Estimator *Estimator
}

// NewDetector returns a Detector that queries the real processor.
func NewDetector() *Detector {
	return &Detector{
		Querier:   cpuid.Native{},
		Prober:    probe.Native{},
		Estimator: NewEstimator(),
	}
}

// Detect runs identity, feature, cache, power management and frequency
// detection in order.
func (d *Detector) Detect() Record {
	if !d.Prober.Supports(probe.CPUID) {
		slog.Warn("processor does not support cpuid")
		return Record{}
	}
	id := DecodeIdentity(d.Querier)
	features := DecodeFeatures(d.Querier, d.Prober, id)
	cache, ok := ResolveCache(d.Querier, id)
	if !ok {
		slog.Debug("cache geometry unknown", slog.String("vendor", id.VendorString))
	}
	return Record{
		SupportsCPUID: true,
		Identity:      id,
		Features:      features,
		Cache:         cache,
		Power:         DecodePower(d.Querier, id),
		FrequencyMHz:  d.Estimator.Estimate(id.Family, features.TSC),
	}
}
