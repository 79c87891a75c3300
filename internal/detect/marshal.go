// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

import "encoding/json"

// MarshalJSON emits the guarded auxiliary values only when they are valid.
func (f FeatureSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.view())
}

// MarshalYAML is the yaml.v2 counterpart of MarshalJSON.
func (f FeatureSet) MarshalYAML() (interface{}, error) {
	return f.view(), nil
}
