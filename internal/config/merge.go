package config

import "fmt"

// Merge combines two configs where overlay takes precedence over base:
//   - version: must agree if both declare it (non-zero)
//   - scalar fields and fetch settings: overlay wins when set
//   - types, include_types: overlay replaces base when non-empty
//   - exclude: concatenate (base first, then overlay)
func Merge(base, overlay *Config) (*Config, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil {
		return base, nil
	}

	result := *base
	if err := mergeVersion(base.Version, overlay.Version, &result.Version); err != nil {
		return nil, err
	}

	mergeString(&result.RawHost, overlay.RawHost)
	mergeString(&result.Discovered, overlay.Discovered)
	mergeString(&result.Sources, overlay.Sources)
	mergeString(&result.Dest, overlay.Dest)
	mergeString(&result.BrokenDir, overlay.BrokenDir)
	mergeString(&result.Meta, overlay.Meta)
	mergeString(&result.CacheDir, overlay.CacheDir)
	mergeString(&result.Fetch.UserAgent, overlay.Fetch.UserAgent)

	if len(overlay.Types) > 0 {
		result.Types = overlay.Types
	}
	if len(overlay.IncludeTypes) > 0 {
		result.IncludeTypes = overlay.IncludeTypes
	}
	if overlay.MinSize != nil {
		result.MinSize = overlay.MinSize
	}
	if overlay.Fetch.Timeout != 0 {
		result.Fetch.Timeout = overlay.Fetch.Timeout
	}
	if overlay.Fetch.MaxFileSize != 0 {
		result.Fetch.MaxFileSize = overlay.Fetch.MaxFileSize
	}

	result.Exclude = nil
	result.Exclude = append(result.Exclude, base.Exclude...)
	result.Exclude = append(result.Exclude, overlay.Exclude...)

	return &result, nil
}

// MergeAll merges multiple configs in order (lowest precedence first).
func MergeAll(configs []*Config) (*Config, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configs to merge")
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		var err error
		result, err = Merge(result, configs[i])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mergeVersion(base, overlay int, out *int) error {
	switch {
	case base == 0:
		*out = overlay
	case overlay == 0, base == overlay:
		*out = base
	default:
		return fmt.Errorf("config version mismatch: one layer declares version %d, another declares version %d", base, overlay)
	}
	return nil
}

func mergeString(dst *string, overlay string) {
	if overlay != "" {
		*dst = overlay
	}
}
