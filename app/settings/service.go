package settings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SettingsService manages reading/writing settings from disk.
type SettingsService struct {
	path         string
	cacheManager CacheManager
}

// NewSettingsService creates a service for path. An empty path selects the
// file beside the executable.
func NewSettingsService(path string) *SettingsService {
	return &SettingsService{path: path}
}

// SetCacheManager allows the application to react to cache setting changes
func (s *SettingsService) SetCacheManager(cm CacheManager) {
	s.cacheManager = cm
}

// Path returns the settings file location
func (s *SettingsService) Path() (string, error) {
	if s.path != "" {
		return s.path, nil
	}
	return settingsFilePath()
}

// GetSettings returns the effective settings (defaults overlaid with file overrides if any).
func (s *SettingsService) GetSettings() (Settings, error) {
	path, err := s.Path()
	if err != nil {
		return defaultSettings, err
	}
	return Load(path)
}

// SaveSettings saves only the values that differ from defaults.
func (s *SettingsService) SaveSettings(in Settings) error {
	old, _ := s.GetSettings()
	cacheToggled := old.EnableResultCache != in.EnableResultCache
	cacheSizeChanged := old.ResultCacheSizeLimitMB != in.ResultCacheSizeLimitMB

	// Instance id survives saves that leave it blank
	if strings.TrimSpace(in.InstanceID) == "" {
		in.InstanceID = old.InstanceID
	}

	data := nonDefault(in)

	path, err := s.Path()
	if err != nil {
		return err
	}

	if len(data) == 0 {
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(path)
		}
	} else {
		b, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return err
		}
	}

	if s.cacheManager != nil {
		if cacheToggled && !in.EnableResultCache {
			s.cacheManager.ClearResultCache()
		}
		if cacheSizeChanged {
			s.cacheManager.UpdateCacheSize()
		}
	}
	return nil
}

// nonDefault builds a minimal map of the values that differ from defaults to
// avoid zero-value serialization pitfalls.
func nonDefault(in Settings) map[string]any {
	d := defaultSettings
	data := make(map[string]any)
	if strings.TrimSpace(in.BaseURL) != d.BaseURL && strings.TrimSpace(in.BaseURL) != "" {
		data["base_url"] = strings.TrimSpace(in.BaseURL)
	}
	ints := []struct {
		key      string
		val, def int
	}{
		{"generate_timeout_seconds", in.GenerateTimeoutSeconds, d.GenerateTimeoutSeconds},
		{"test_timeout_seconds", in.TestTimeoutSeconds, d.TestTimeoutSeconds},
		{"health_timeout_seconds", in.HealthTimeoutSeconds, d.HealthTimeoutSeconds},
		{"default_intervals", in.DefaultIntervals, d.DefaultIntervals},
		{"stddev_sample_size", in.StdDevSampleSize, d.StdDevSampleSize},
		{"exact_median_limit", in.ExactMedianLimit, d.ExactMedianLimit},
		{"median_sample_size", in.MedianSampleSize, d.MedianSampleSize},
		{"materialize_limit", in.MaterializeLimit, d.MaterializeLimit},
		{"export_batch_size", in.ExportBatchSize, d.ExportBatchSize},
		{"export_confirm_above", in.ExportConfirmAbove, d.ExportConfirmAbove},
		{"page_size", in.PageSize, d.PageSize},
		{"result_cache_size_limit_mb", in.ResultCacheSizeLimitMB, d.ResultCacheSizeLimitMB},
		{"result_cache_max_age_minutes", in.ResultCacheMaxAgeMinutes, d.ResultCacheMaxAgeMinutes},
	}
	for _, f := range ints {
		if f.val != f.def {
			data[f.key] = f.val
		}
	}
	if in.EnableResultCache != d.EnableResultCache {
		data["enable_result_cache"] = in.EnableResultCache
	}
	if lvl := strings.ToLower(strings.TrimSpace(in.LogLevel)); lvl != d.LogLevel && logLevels[lvl] {
		data["log_level"] = lvl
	}
	if id := strings.TrimSpace(in.InstanceID); id != "" {
		data["instance_id"] = id
	}
	return data
}

// EnsureInstanceID generates and persists an instance id if none is set,
// returning the id in effect.
func (s *SettingsService) EnsureInstanceID() (string, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return "", err
	}

	if id := strings.TrimSpace(settings.InstanceID); id != "" {
		return id, nil
	}

	settings.InstanceID = uuid.New().String()
	if err := s.SaveSettings(settings); err != nil {
		return "", err
	}
	return settings.InstanceID, nil
}
