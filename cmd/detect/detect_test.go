// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   map[string]string
		wantErr bool
	}{
		{name: "defaults"},
		{name: "pinned", flags: map[string]string{"cpu": "0"}},
		{name: "yaml", flags: map[string]string{"format": "yaml"}},
		{name: "negative cpu", flags: map[string]string{"cpu": "-2"}, wantErr: true},
		{name: "zero window", flags: map[string]string{"window": "0s"}, wantErr: true},
		{name: "bad format", flags: map[string]string{"format": "txt"}, wantErr: true},
		{name: "output directory missing", flags: map[string]string{"output": "/nonexistent-cpuprobe-dir/record.json"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset := func() {
				Cmd.Flags().VisitAll(func(f *pflag.Flag) {
					_ = f.Value.Set(f.DefValue)
					f.Changed = false
				})
			}
			reset()
			t.Cleanup(reset)
			for name, value := range tt.flags {
				require.NoError(t, Cmd.Flags().Set(name, value))
			}
			err := validateFlags(Cmd, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewDetectorWindow(t *testing.T) {
	saved := flagWindow
	t.Cleanup(func() { flagWindow = saved })
	flagWindow = 7 * time.Millisecond
	d := newDetector()
	require.NotNil(t, d.Estimator)
	assert.Equal(t, 7*time.Millisecond, d.Estimator.Window)
}
