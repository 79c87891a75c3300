// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"cpuprobe/internal/census"
	"cpuprobe/internal/cpus"
	"cpuprobe/internal/detect"
)

func sampleCensus() census.Census {
	athlon := detect.Record{
		SupportsCPUID: true,
		Identity: detect.Identity{
			Vendor:       detect.VendorAMD,
			VendorString: cpus.AMDVendor,
			Family:       6,
			Model:        8,
			Stepping:     1,
		},
		Cache:        detect.CacheGeometry{L1KB: 128, L2KB: 256, L3KB: detect.SizeUnknown},
		FrequencyMHz: 2133,
	}
	return census.Census{
		Processors: []census.Processor{
			{CPU: 0, Record: athlon},
			{CPU: 2, Record: detect.Record{}},
		},
		Probed:  2,
		Skipped: 1,
	}
}

func TestFromCensus(t *testing.T) {
	r := FromCensus(sampleCensus(), census.Concurrent, 4)
	assert.Equal(t, census.Concurrent, r.Strategy)
	assert.Equal(t, 4, r.Enabled)
	assert.Equal(t, 2, r.Probed)
	assert.Equal(t, 1, r.Skipped)
	require.Len(t, r.Processors, 2)
	require.NotNil(t, r.Processors[0].Names)
	assert.Equal(t, cpus.UarchK7, r.Processors[0].Names.MicroArchitecture)
	assert.Equal(t, "Not Supported", r.Processors[0].Names.Brand)
	assert.Nil(t, r.Processors[1].Names, "records without cpuid are not named")
}

func TestCreateJson(t *testing.T) {
	r := FromCensus(sampleCensus(), census.Sequential, 3)
	out, err := Create(FormatJson, r, false)
	require.NoError(t, err)

	var decoded struct {
		Strategy   string `json:"strategy"`
		Processors []map[string]any
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "sequential", decoded.Strategy)
	require.Len(t, decoded.Processors, 2)
	first := decoded.Processors[0]
	assert.Equal(t, float64(0), first["cpu"])
	assert.Equal(t, true, first["supportsCPUID"])
	assert.Equal(t, float64(2133), first["frequencyMHz"])
	assert.Contains(t, first, "names")
	assert.NotContains(t, decoded.Processors[1], "names")

	pretty, err := Create(FormatJson, r, true)
	require.NoError(t, err)
	assert.Greater(t, len(pretty), len(out))
}

func TestCreateYaml(t *testing.T) {
	r := FromCensus(sampleCensus(), census.Sequential, 3)
	out, err := Create(FormatYaml, r, false)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "sequential", decoded["strategy"])
	processors, ok := decoded["processors"].([]any)
	require.True(t, ok)
	first, ok := processors[0].(map[any]any)
	require.True(t, ok)
	assert.Equal(t, 0, first["cpu"])
	assert.Equal(t, true, first["supportsCPUID"])
	cache, ok := first["cache"].(map[any]any)
	require.True(t, ok)
	assert.Equal(t, -1, cache["l3KB"])
}

func TestCreateUnknownFormat(t *testing.T) {
	_, err := Create("html", Census{}, false)
	assert.ErrorContains(t, err, "expected one of json, yaml")
	assert.True(t, ValidFormat(FormatYaml))
	assert.False(t, ValidFormat("xlsx"))
}

func TestFromRecord(t *testing.T) {
	assert.Nil(t, FromRecord(detect.Record{}).Names)
	d := FromRecord(sampleCensus().Processors[0].Record)
	require.NotNil(t, d.Names)
	assert.Equal(t, cpus.UarchK7, d.Names.MicroArchitecture)

	out, err := Create(FormatJson, d, false)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.NotContains(t, decoded, "cpu")
	assert.Contains(t, decoded, "identity")
	assert.Contains(t, decoded, "names")
}
