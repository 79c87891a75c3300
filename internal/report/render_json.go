// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import "encoding/json"

func createJsonReport(v any, pretty bool) (out []byte, err error) {
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
