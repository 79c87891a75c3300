// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package census

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"cpuprobe/internal/util"
)

// Options is the census configuration file layout. Empty fields keep the
// command defaults.
type Options struct {
	Strategy Strategy      `yaml:"strategy"`
	Window   time.Duration `yaml:"window"`
	CPUs     string        `yaml:"cpus"`
	Workers  int           `yaml:"workers"`
	Format   string        `yaml:"format"`
	Output   string        `yaml:"output"`
}

// LoadOptions reads and validates a YAML options file. Unknown keys are
// rejected.
func LoadOptions(path string) (Options, error) {
	var opts Options
	exists, err := util.FileExists(path)
	if err != nil {
		return opts, errors.Wrapf(err, "invalid options file %s", path)
	}
	if !exists {
		return opts, errors.Errorf("options file %s does not exist", path)
	}
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return opts, errors.Wrapf(err, "failed to read options file %s", path)
	}
	if err := yaml.UnmarshalStrict(data, &opts); err != nil {
		return opts, errors.Wrapf(err, "failed to parse options file %s", path)
	}
	if err := opts.Validate(); err != nil {
		return opts, errors.Wrapf(err, "invalid options file %s", path)
	}
	return opts, nil
}

func (o Options) Validate() error {
	if o.Strategy != "" {
		if _, err := ParseStrategy(string(o.Strategy)); err != nil {
			return err
		}
	}
	if o.Window < 0 {
		return errors.Errorf("window must not be negative, got %s", o.Window)
	}
	if o.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", o.Workers)
	}
	switch o.Format {
	case "", "json", "yaml":
	default:
		return errors.Errorf("unknown format %q, expected json or yaml", o.Format)
	}
	return nil
}
