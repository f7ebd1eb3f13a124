package config

// deepMerge merges override onto base:
//   - nested maps merge recursively
//   - arrays (slices) in override replace the default entirely, never
//     concatenate
//   - primitive, nil, and explicit-null values in override replace the
//     base value
//   - a key present in only one side is taken from that side
//
// base and override are both typically the result of decoding JSON into
// map[string]any, so "explicit null" and "absent key" are already
// distinguishable: an explicit JSON null decodes to a present key whose
// value is nil.
func deepMerge(base, override map[string]any) map[string]any {
	if base == nil && override == nil {
		return nil
	}

	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}

	for k, ov := range override {
		bv, present := out[k]
		if !present {
			out[k] = ov
			continue
		}

		bMap, bIsMap := bv.(map[string]any)
		oMap, oIsMap := ov.(map[string]any)
		if bIsMap && oIsMap {
			out[k] = deepMerge(bMap, oMap)
			continue
		}

		// Arrays replace; primitives, nil, and type-mismatches replace.
		out[k] = ov
	}

	return out
}
