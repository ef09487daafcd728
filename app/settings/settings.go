// Package settings loads and saves the numviz.yml configuration file.
package settings

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up beside the executable.
const FileName = "numviz.yml"

var logLevels = map[string]bool{"debug": true, "info": true, "warning": true, "error": true}

// GetEffectiveSettings returns the effective settings (defaults overlaid with
// overrides from the file beside the executable). If anything goes wrong, it
// returns defaults.
func GetEffectiveSettings() Settings {
	path, err := settingsFilePath()
	if err != nil {
		return defaultSettings
	}
	s, err := Load(path)
	if err != nil {
		return defaultSettings
	}
	return s
}

// Load reads path and overlays its keys onto the defaults. A missing file
// yields the defaults.
func Load(path string) (Settings, error) {
	settings := defaultSettings
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, err
	}
	// Unmarshal into a generic map to detect key presence
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings, err
	}
	overlay(&settings, m)
	return settings, nil
}

// overlay copies every recognised, well-typed and in-range key of m onto s.
// Anything else is ignored and the default kept.
func overlay(s *Settings, m map[string]any) {
	if v, ok := m["base_url"]; ok {
		if vs, oks := v.(string); oks && strings.TrimSpace(vs) != "" {
			s.BaseURL = strings.TrimSpace(vs)
		}
	}
	setInt(m, "generate_timeout_seconds", 1, &s.GenerateTimeoutSeconds)
	setInt(m, "test_timeout_seconds", 1, &s.TestTimeoutSeconds)
	setInt(m, "health_timeout_seconds", 1, &s.HealthTimeoutSeconds)
	if v, ok := m["default_intervals"]; ok {
		if vi, oki := intValue(v); oki && vi >= 2 && vi <= 100 {
			s.DefaultIntervals = vi
		}
	}
	setInt(m, "stddev_sample_size", 1, &s.StdDevSampleSize)
	setInt(m, "exact_median_limit", 1, &s.ExactMedianLimit)
	setInt(m, "median_sample_size", 1, &s.MedianSampleSize)
	setInt(m, "materialize_limit", 0, &s.MaterializeLimit)
	setInt(m, "export_batch_size", 1, &s.ExportBatchSize)
	setInt(m, "export_confirm_above", 0, &s.ExportConfirmAbove)
	setInt(m, "page_size", 1, &s.PageSize)
	if v, ok := m["enable_result_cache"]; ok {
		if vb, okb := v.(bool); okb {
			s.EnableResultCache = vb
		}
	}
	setInt(m, "result_cache_size_limit_mb", 1, &s.ResultCacheSizeLimitMB)
	setInt(m, "result_cache_max_age_minutes", 0, &s.ResultCacheMaxAgeMinutes)
	if v, ok := m["log_level"]; ok {
		if vs, oks := v.(string); oks && logLevels[strings.ToLower(vs)] {
			s.LogLevel = strings.ToLower(vs)
		}
	}
	if v, ok := m["instance_id"]; ok {
		if vs, oks := v.(string); oks {
			s.InstanceID = strings.TrimSpace(vs)
		}
	}
}

func setInt(m map[string]any, key string, lowest int, dst *int) {
	v, ok := m[key]
	if !ok {
		return
	}
	if vi, oki := intValue(v); oki && vi >= lowest {
		*dst = vi
	}
}

// intValue accepts YAML integers and integral floats
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < math.MaxInt32 {
			return int(n), true
		}
	}
	return 0, false
}

// Seconds converts a seconds setting into a duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// CacheMaxAge returns how long a cached result stays valid, or 0 for no limit
func (s Settings) CacheMaxAge() time.Duration {
	return time.Duration(s.ResultCacheMaxAgeMinutes) * time.Minute
}

// CacheSizeBytes returns the result cache limit in bytes
func (s Settings) CacheSizeBytes() int64 {
	return int64(s.ResultCacheSizeLimitMB) * 1024 * 1024
}

func settingsFilePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(exe)
	return filepath.Join(dir, FileName), nil
}

// DefaultPath returns the settings file location beside the executable.
func DefaultPath() (string, error) {
	return settingsFilePath()
}
