// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import "gopkg.in/yaml.v2"

func createYamlReport(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
