package settings

// Settings holds application settings that can be overridden by the user.
type Settings struct {
	// Base URL of the generator and test-evaluation service
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Per-call timeouts in seconds
	GenerateTimeoutSeconds int `yaml:"generate_timeout_seconds" json:"generate_timeout_seconds"`
	TestTimeoutSeconds     int `yaml:"test_timeout_seconds" json:"test_timeout_seconds"`
	HealthTimeoutSeconds   int `yaml:"health_timeout_seconds" json:"health_timeout_seconds"`
	// Bucket count used until the user picks another
	DefaultIntervals int `yaml:"default_intervals" json:"default_intervals"`
	// Statistics thresholds
	StdDevSampleSize int `yaml:"stddev_sample_size" json:"stddev_sample_size"`
	ExactMedianLimit int `yaml:"exact_median_limit" json:"exact_median_limit"`
	MedianSampleSize int `yaml:"median_sample_size" json:"median_sample_size"`
	// Samples at or below this size keep members for every bucket
	MaterializeLimit int `yaml:"materialize_limit" json:"materialize_limit"`
	// Export batching and the size above which the user must confirm
	ExportBatchSize    int `yaml:"export_batch_size" json:"export_batch_size"`
	ExportConfirmAbove int `yaml:"export_confirm_above" json:"export_confirm_above"`
	// Rows per page when listing the sample
	PageSize int `yaml:"page_size" json:"page_size"`
	// Result cache for test evaluations
	EnableResultCache      bool `yaml:"enable_result_cache" json:"enable_result_cache"`
	ResultCacheSizeLimitMB int  `yaml:"result_cache_size_limit_mb" json:"result_cache_size_limit_mb"`
	// Cached results older than this are dropped; 0 keeps them for the whole session
	ResultCacheMaxAgeMinutes int `yaml:"result_cache_max_age_minutes" json:"result_cache_max_age_minutes"`
	// One of debug, info, warning, error
	LogLevel string `yaml:"log_level" json:"log_level"`
	// InstanceID is a unique identifier for this installation, sent with every request
	InstanceID string `yaml:"instance_id,omitempty" json:"instance_id,omitempty"`
}

// CacheManager is implemented by the application so that saving settings can
// resize or drop the result cache without an import cycle.
type CacheManager interface {
	ClearResultCache()
	UpdateCacheSize()
}

// defaultSettings defines the built-in defaults.
var defaultSettings = Settings{
	BaseURL:                  "http://127.0.0.1:8000",
	GenerateTimeoutSeconds:   60,
	TestTimeoutSeconds:       30,
	HealthTimeoutSeconds:     3,
	DefaultIntervals:         10,
	StdDevSampleSize:         100000,
	ExactMedianLimit:         100000,
	MedianSampleSize:         10000,
	MaterializeLimit:         10000,
	ExportBatchSize:          10000,
	ExportConfirmAbove:       100000,
	PageSize:                 1000,
	EnableResultCache:        true,
	ResultCacheSizeLimitMB:   16,
	ResultCacheMaxAgeMinutes: 60,
	LogLevel:                 "info",
}

// Defaults returns a copy of the built-in defaults.
func Defaults() Settings {
	return defaultSettings
}
